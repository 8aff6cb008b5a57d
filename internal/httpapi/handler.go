package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"schoolhub/internal/announce"
	"schoolhub/internal/attendance"
	"schoolhub/internal/auth"
	"schoolhub/internal/config"
	"schoolhub/internal/directory"
	"schoolhub/internal/materials"
	"schoolhub/internal/suggest"
)

// Reports reads derived attendance data for the report screens.
type Reports interface {
	PercentageFor(ctx context.Context, studentID int64, subjectID *int64) (float64, error)
	ListRecords(ctx context.Context, studentID int64, limit int) ([]attendance.Record, error)
}

// Handler holds the services behind the HTTP surface.
type Handler struct {
	att     *attendance.Service
	reports Reports
	dir     *directory.Repository
	mats    *materials.Service
	ann     *announce.Service
	sugg    *suggest.Cached
	cfg     config.App
}

// New creates the handler.
func New(att *attendance.Service, reports Reports, dir *directory.Repository, mats *materials.Service, ann *announce.Service, sugg *suggest.Cached, cfg config.App) *Handler {
	return &Handler{att: att, reports: reports, dir: dir, mats: mats, ann: ann, sugg: sugg, cfg: cfg}
}

// Register wires all routes onto the engine. Health and metrics stay in
// cmd/api next to the server plumbing.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/v1/token", h.MintToken)

	v1 := r.Group("/v1", auth.Middleware(h.cfg.JWTSigningKey, h.cfg.JWTIssuer))

	// teacher portal
	teacher := v1.Group("", auth.RequireRole(auth.RoleTeacher))
	teacher.POST("/subjects/:id/qr", h.IssueQR)
	teacher.GET("/teacher/assignments", h.TeacherAssignments)
	teacher.GET("/teacher/subjects", h.TeacherSubjects)
	teacher.GET("/subjects/:id/report", h.SubjectReport)
	teacher.POST("/subjects/:id/materials", h.UploadMaterial)

	// student portal
	student := v1.Group("", auth.RequireRole(auth.RoleStudent))
	student.POST("/attendance/scan", h.ScanQR)
	student.GET("/student/attendance", h.StudentAttendance)
	student.GET("/student/suggestions", h.StudentSuggestions)

	// admin portal
	admin := v1.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/degrees", h.CreateDegree)
	admin.POST("/branches", h.CreateBranch)
	admin.POST("/groups", h.CreateGroup)
	admin.POST("/subjects", h.CreateSubject)
	admin.POST("/assignments", h.AssignSubject)
	admin.POST("/teachers", h.CreateTeacher)
	admin.POST("/students", h.CreateStudent)
	admin.POST("/announcements", h.CreateAnnouncement)
	admin.DELETE("/announcements/:id", h.DeactivateAnnouncement)

	// shared, any authenticated role
	v1.GET("/degrees", h.ListDegrees)
	v1.GET("/branches", h.ListBranches)
	v1.GET("/groups", h.ListGroups)
	v1.GET("/subjects", h.ListSubjects)
	v1.GET("/materials", h.ListMaterials)
	v1.GET("/announcements", h.ListAnnouncements)
	v1.GET("/timetable", h.Timetable)
}

// MintToken issues a demo access token for a known principal. Real identity
// lives outside this service; this endpoint stands in for it the way device
// registration does on kiosk deployments.
func (h *Handler) MintToken(c *gin.Context) {
	var req struct {
		PrincipalID string `json:"principal_id" binding:"required"`
		Role        string `json:"role" binding:"required,oneof=admin teacher student"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tok, err := auth.Issue(req.PrincipalID, req.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"access_token": tok.Value,
		"expires_at":   tok.ExpiresAt.Unix(),
	})
}

// principalID parses the numeric id out of the claims subject.
func principalID(c *gin.Context) (int64, bool) {
	claims, ok := auth.FromContext(c)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func queryID(c *gin.Context, name string) int64 {
	id, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
