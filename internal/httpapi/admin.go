package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolhub/internal/directory"
)

// ---------- academic structure (admin portal) ----------

func (h *Handler) CreateDegree(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.dir.CreateDegree(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListDegrees(c *gin.Context) {
	degrees, err := h.dir.ListDegrees(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"degrees": degrees})
}

func (h *Handler) CreateBranch(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		DegreeID int64  `json:"degree_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := h.dir.CreateBranch(c.Request.Context(), req.Name, req.DegreeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, b)
}

// ListBranches backs the degree→branch dependent dropdown.
func (h *Handler) ListBranches(c *gin.Context) {
	branches, err := h.dir.BranchesByDegree(c.Request.Context(), queryID(c, "degree_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"branches": branches})
}

func (h *Handler) CreateGroup(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		BranchID int64  `json:"branch_id" binding:"required"`
		DegreeID int64  `json:"degree_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g, err := h.dir.CreateGroup(c.Request.Context(), req.Name, req.BranchID, req.DegreeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, g)
}

// ListGroups backs the branch+degree→group dependent dropdown.
func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.dir.GroupsBy(c.Request.Context(), queryID(c, "branch_id"), queryID(c, "degree_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *Handler) CreateSubject(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		Code      string `json:"code" binding:"required"`
		TeacherID int64  `json:"teacher_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := h.dir.CreateSubject(c.Request.Context(), req.Name, req.Code, req.TeacherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) ListSubjects(c *gin.Context) {
	subjects, err := h.dir.ListSubjects(c.Request.Context(), queryID(c, "teacher_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subjects": subjects})
}

func (h *Handler) AssignSubject(c *gin.Context) {
	var req struct {
		GroupID   int64 `json:"group_id" binding:"required"`
		SubjectID int64 `json:"subject_id" binding:"required"`
		TeacherID int64 `json:"teacher_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.dir.AssignSubject(c.Request.Context(), req.GroupID, req.SubjectID, req.TeacherID)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) CreateTeacher(c *gin.Context) {
	var req struct {
		Name       string `json:"name" binding:"required"`
		EmployeeID string `json:"employee_id" binding:"required"`
		Department string `json:"department"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.dir.CreateTeacher(c.Request.Context(), req.Name, req.EmployeeID, req.Department)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) CreateStudent(c *gin.Context) {
	var req struct {
		Name       string `json:"name" binding:"required"`
		RollNumber string `json:"roll_number" binding:"required"`
		Interests  string `json:"interests"`
		BranchID   *int64 `json:"branch_id"`
		DegreeID   *int64 `json:"degree_id"`
		GroupID    *int64 `json:"group_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := h.dir.CreateStudent(c.Request.Context(), directory.Student{
		Name:       req.Name,
		RollNumber: req.RollNumber,
		Interests:  req.Interests,
		BranchID:   req.BranchID,
		DegreeID:   req.DegreeID,
		GroupID:    req.GroupID,
	})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, s)
}
