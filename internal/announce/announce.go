package announce

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"schoolhub/internal/auth"
	"schoolhub/internal/queue"
)

// Audience selects who sees an announcement.
const (
	AudienceAll      = "all"
	AudienceStudents = "students"
	AudienceTeachers = "teachers"
)

// Announcement is a broadcast message shown on the portals.
type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"created_by"`
	Audience  string    `json:"target_audience"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Service stores announcements and fans them out on the queue for delivery.
type Service struct {
	db *sql.DB
	q  queue.Queue
}

// NewService creates the service.
func NewService(db *sql.DB, q queue.Queue) *Service {
	return &Service{db: db, q: q}
}

// Create persists an announcement and publishes it for the delivery worker.
// Queue publish failure is logged, not surfaced: the announcement is already
// visible on the portals regardless.
func (s *Service) Create(ctx context.Context, title, content, createdBy, audience string) (Announcement, error) {
	if title == "" || content == "" {
		return Announcement{}, errors.New("announce: title and content required")
	}
	switch audience {
	case AudienceAll, AudienceStudents, AudienceTeachers:
	case "":
		audience = AudienceAll
	default:
		return Announcement{}, errors.New("announce: unknown target audience")
	}

	a := Announcement{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		CreatedBy: createdBy,
		Audience:  audience,
		IsActive:  true,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO announcements (id, title, content, created_by, target_audience, is_active)
		VALUES ($1,$2,$3,$4,$5,TRUE)
		RETURNING created_at
	`, a.ID, a.Title, a.Content, a.CreatedBy, a.Audience).Scan(&a.CreatedAt)
	if err != nil {
		return Announcement{}, err
	}

	body, _ := json.Marshal(a)
	if err := s.q.Publish(ctx, queue.Message{Type: "announcement", Body: body}); err != nil {
		log.Printf("announcement queue publish failed: %v", err)
	}
	return a, nil
}

// ListFor returns active announcements visible to the given role, newest
// first: everyone sees "all", students additionally see "students",
// teachers see "teachers", admins see everything.
func (s *Service) ListFor(ctx context.Context, role string, limit int) ([]Announcement, error) {
	if limit <= 0 {
		limit = 20
	}
	audiences := AudiencesFor(role)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, created_by, target_audience, is_active, created_at
		FROM announcements
		WHERE is_active = TRUE AND target_audience = ANY($1)
		ORDER BY created_at DESC
		LIMIT $2
	`, audiences, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Announcement
	for rows.Next() {
		var a Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.CreatedBy, &a.Audience, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// Deactivate hides an announcement from all portals.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE announcements SET is_active = FALSE WHERE id = $1`, id)
	return err
}

// AudiencesFor maps a principal role to the audience values it may read.
func AudiencesFor(role string) []string {
	switch role {
	case auth.RoleStudent:
		return []string{AudienceAll, AudienceStudents}
	case auth.RoleTeacher:
		return []string{AudienceAll, AudienceTeachers}
	case auth.RoleAdmin:
		return []string{AudienceAll, AudienceStudents, AudienceTeachers}
	default:
		return []string{AudienceAll}
	}
}
