package materials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"schoolhub/internal/cloudinary"
)

// Material is a study file shared by a teacher for one subject. The file
// itself lives on Cloudinary; only the metadata and URL are stored here.
type Material struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	SubjectID   int64     `json:"subject_id"`
	UploadedBy  int64     `json:"uploaded_by"`
	FileURL     string    `json:"file_url"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// ErrStorageUnavailable is returned when no file storage is configured.
var ErrStorageUnavailable = errors.New("materials: file storage not configured")

// Service stores material files and metadata.
type Service struct {
	db    *sql.DB
	cloud *cloudinary.Client // nil when Cloudinary is not configured
}

// NewService creates the service. cloud may be nil in dev.
func NewService(db *sql.DB, cloud *cloudinary.Client) *Service {
	return &Service{db: db, cloud: cloud}
}

// Upload pushes the file to Cloudinary and records the metadata row.
func (s *Service) Upload(ctx context.Context, title, description string, subjectID, teacherID int64, file []byte, filename string) (Material, error) {
	if s.cloud == nil {
		return Material{}, ErrStorageUnavailable
	}
	if title == "" || len(file) == 0 {
		return Material{}, errors.New("materials: title and file required")
	}

	res, err := s.cloud.Upload(ctx, file, filename)
	if err != nil {
		return Material{}, fmt.Errorf("upload file: %w", err)
	}

	m := Material{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		SubjectID:   subjectID,
		UploadedBy:  teacherID,
		FileURL:     res.SecureURL,
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO materials (id, title, description, subject_id, uploaded_by, file_url)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING uploaded_at
	`, m.ID, m.Title, m.Description, m.SubjectID, m.UploadedBy, m.FileURL).Scan(&m.UploadedAt)
	if err != nil {
		return Material{}, err
	}
	return m, nil
}

// List returns materials newest first, optionally filtered by subject and/or
// uploading teacher.
func (s *Service) List(ctx context.Context, subjectID, teacherID int64, limit int) ([]Material, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, title, description, subject_id, uploaded_by, file_url, uploaded_at FROM materials`
	args := []any{}
	clauses := ""
	if subjectID > 0 {
		args = append(args, subjectID)
		clauses = fmt.Sprintf(" WHERE subject_id = $%d", len(args))
	}
	if teacherID > 0 {
		args = append(args, teacherID)
		if clauses == "" {
			clauses = fmt.Sprintf(" WHERE uploaded_by = $%d", len(args))
		} else {
			clauses += fmt.Sprintf(" AND uploaded_by = $%d", len(args))
		}
	}
	args = append(args, limit)
	query += clauses + fmt.Sprintf(" ORDER BY uploaded_at DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.SubjectID, &m.UploadedBy, &m.FileURL, &m.UploadedAt); err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}
