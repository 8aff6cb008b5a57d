package httpapi

import (
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"schoolhub/internal/attendance"
	"schoolhub/internal/directory"
)

// IssueQR mints a fresh attendance token for the subject and returns the
// rendered code. The acting teacher comes from the bearer claims, never from
// the request body.
func (h *Handler) IssueQR(c *gin.Context) {
	subjectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	teacherID, ok := principalID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid principal"})
		return
	}

	issued, err := h.att.Issue(c.Request.Context(), subjectID, teacherID)
	if err != nil {
		writeAttendanceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"qr_png":     base64.StdEncoding.EncodeToString(issued.PNG),
		"qr_data":    issued.RawPayload,
		"expires_at": issued.ExpiresAt,
	})
}

// ScanQR validates a scanned payload and marks the acting student present
// for today.
func (h *Handler) ScanQR(c *gin.Context) {
	var req struct {
		QRData string `json:"qr_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	studentID, ok := principalID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid principal"})
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	res, err := h.att.Scan(c.Request.Context(), req.QRData, studentID, today)
	if err != nil {
		writeAttendanceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"message":               res.Message,
		"subject_id":            res.SubjectID,
		"attendance_percentage": res.Percentage,
	})
}

// SubjectReport returns per-student attendance percentages for the group the
// teacher teaches this subject to.
func (h *Handler) SubjectReport(c *gin.Context) {
	subjectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	teacherID, ok := principalID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid principal"})
		return
	}

	ctx := c.Request.Context()
	owner, err := h.dir.SubjectOwner(ctx, subjectID)
	if err != nil || owner != teacherID {
		c.JSON(http.StatusForbidden, gin.H{"error": "subject is not assigned to this teacher"})
		return
	}

	groupID, err := h.dir.GroupForSubject(ctx, subjectID, teacherID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"subject_id": subjectID, "reports": []gin.H{}})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	students, err := h.dir.StudentsInGroup(ctx, groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	reports := make([]gin.H, 0, len(students))
	for _, s := range students {
		pct, err := h.reports.PercentageFor(ctx, s.ID, &subjectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		reports = append(reports, gin.H{
			"student_id":  s.ID,
			"name":        s.Name,
			"roll_number": s.RollNumber,
			"percentage":  pct,
		})
	}
	c.JSON(http.StatusOK, gin.H{"subject_id": subjectID, "group_id": groupID, "reports": reports})
}

// StudentAttendance returns the acting student's per-subject percentages and
// recent records.
func (h *Handler) StudentAttendance(c *gin.Context) {
	studentID, ok := principalID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid principal"})
		return
	}
	ctx := c.Request.Context()

	student, err := h.dir.GetStudent(ctx, studentID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}

	subjects, err := h.dir.ListSubjects(ctx, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	perSubject := make([]gin.H, 0, len(subjects))
	for _, s := range subjects {
		id := s.ID
		pct, err := h.reports.PercentageFor(ctx, studentID, &id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		perSubject = append(perSubject, gin.H{"subject": s.Name, "code": s.Code, "percentage": pct})
	}

	records, err := h.reports.ListRecords(ctx, studentID, 30)
	if err != nil {
		log.Printf("list records failed for student %d: %v", studentID, err)
		records = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"overall_percentage": student.AttendancePercentage,
		"subjects":           perSubject,
		"records":            records,
	})
}

func writeAttendanceError(c *gin.Context, err error) {
	var typed *attendance.Error
	if errors.As(err, &typed) {
		c.JSON(attendance.HTTPStatus(err), gin.H{"success": false, "error": string(typed.Code), "message": typed.Message})
		return
	}
	log.Printf("attendance handler error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
}
