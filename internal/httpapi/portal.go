package httpapi

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolhub/internal/auth"
	"schoolhub/internal/directory"
	"schoolhub/internal/materials"
)

// ---------- teacher portal ----------

func (h *Handler) TeacherAssignments(c *gin.Context) {
	teacherID, ok := principalID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid principal"})
		return
	}
	assignments, err := h.dir.AssignmentsForTeacher(c.Request.Context(), teacherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

func (h *Handler) TeacherSubjects(c *gin.Context) {
	teacherID, ok := principalID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid principal"})
		return
	}
	subjects, err := h.dir.ListSubjects(c.Request.Context(), teacherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subjects": subjects})
}

// UploadMaterial accepts a multipart form with title, description and file,
// pushes the file to storage and records the metadata. Only the subject's
// owner may upload.
func (h *Handler) UploadMaterial(c *gin.Context) {
	subjectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	teacherID, ok := principalID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid principal"})
		return
	}

	owner, err := h.dir.SubjectOwner(c.Request.Context(), subjectID)
	if err != nil || owner != teacherID {
		c.JSON(http.StatusForbidden, gin.H{"error": "subject is not assigned to this teacher"})
		return
	}

	title := c.PostForm("title")
	description := c.PostForm("description")
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
		return
	}

	m, err := h.mats.Upload(c.Request.Context(), title, description, subjectID, teacherID, data, header.Filename)
	if err != nil {
		if errors.Is(err, materials.ErrStorageUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "file storage not configured"})
			return
		}
		log.Printf("material upload failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "material upload failed"})
		return
	}
	c.JSON(http.StatusCreated, m)
}

// ---------- shared ----------

func (h *Handler) ListMaterials(c *gin.Context) {
	mats, err := h.mats.List(c.Request.Context(), queryID(c, "subject_id"), queryID(c, "teacher_id"), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": mats})
}

// ListAnnouncements filters by the caller's role: everyone sees "all",
// plus their role-specific announcements.
func (h *Handler) ListAnnouncements(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	anns, err := h.ann.ListFor(c.Request.Context(), claims.Role, 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"announcements": anns})
}

func (h *Handler) CreateAnnouncement(c *gin.Context) {
	var req struct {
		Title    string `json:"title" binding:"required"`
		Content  string `json:"content" binding:"required"`
		Audience string `json:"target_audience"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims, _ := auth.FromContext(c)
	a, err := h.ann.Create(c.Request.Context(), req.Title, req.Content, claims.Subject, req.Audience)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) DeactivateAnnouncement(c *gin.Context) {
	if err := h.ann.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Timetable(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"timetable": directory.WeeklyTimetable()})
}

// ---------- student portal ----------

// StudentSuggestions returns cached or fresh study-task suggestions for the
// acting student's free period.
func (h *Handler) StudentSuggestions(c *gin.Context) {
	studentID, ok := principalID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid principal"})
		return
	}

	student, err := h.dir.GetStudent(c.Request.Context(), studentID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}

	refresh := c.Query("refresh") == "1"
	tasks, err := h.sugg.TasksFor(c.Request.Context(), studentID, student.Interests, refresh)
	if err != nil {
		log.Printf("suggestions failed for student %d: %v", studentID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "suggestions unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}
