package attendance

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"schoolhub/internal/store"
)

// Repository persists tokens and attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

// CreateToken writes a new token row. Prior tokens for the same subject are
// left untouched.
func (r *Repository) CreateToken(ctx context.Context, t Token) (Token, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO qr_tokens (id, subject_id, teacher_id, issued_at, expires_at, is_active, payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, t.ID, t.SubjectID, t.TeacherID, t.IssuedAt, t.ExpiresAt, t.IsActive, t.RawPayload)
	if err != nil {
		return Token{}, err
	}
	return t, nil
}

// FindValidToken returns the newest active, unexpired token for the pair.
// Expiry is enforced here at read time; there is no background sweep.
func (r *Repository) FindValidToken(ctx context.Context, subjectID, teacherID int64, now time.Time) (*Token, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, subject_id, teacher_id, issued_at, expires_at, is_active, payload
		FROM qr_tokens
		WHERE subject_id = $1 AND teacher_id = $2 AND is_active = TRUE AND expires_at > $3
		ORDER BY issued_at DESC, id DESC
		LIMIT 1
	`, subjectID, teacherID, now)
	var t Token
	if err := row.Scan(&t.ID, &t.SubjectID, &t.TeacherID, &t.IssuedAt, &t.ExpiresAt, &t.IsActive, &t.RawPayload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// DeactivateToken flips the revocation flag.
func (r *Repository) DeactivateToken(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE qr_tokens SET is_active = FALSE WHERE id = $1`, id)
	return err
}

// MarkPresent upserts the day's record and recomputes the student's overall
// percentage, both inside one transaction so a failure leaves neither write
// behind. A unique-constraint race surfaces as ErrRetryableConflict.
func (r *Repository) MarkPresent(ctx context.Context, studentID, subjectID int64, day time.Time) (float64, error) {
	var pct float64
	err := store.RunInTx(ctx, r.db, func(ctx context.Context, tx store.DBTX) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO attendance_records (student_id, subject_id, day, is_present, marked_at)
			VALUES ($1,$2,$3,TRUE,NOW())
			ON CONFLICT (student_id, subject_id, day)
			DO UPDATE SET is_present = TRUE, marked_at = NOW()
		`, studentID, subjectID, day.Format("2006-01-02"))
		if err != nil {
			return err
		}

		var present, total int64
		row := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FILTER (WHERE is_present), COUNT(*)
			FROM attendance_records
			WHERE student_id = $1
		`, studentID)
		if err := row.Scan(&present, &total); err != nil {
			return err
		}
		pct = percentage(present, total)

		_, err = tx.ExecContext(ctx, `
			UPDATE students SET attendance_percentage = $2 WHERE id = $1
		`, studentID, pct)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrRetryableConflict
		}
		return 0, err
	}
	return pct, nil
}

// PercentageFor recomputes a student's attendance percentage, optionally
// scoped to one subject. Read-only; used by the report screens.
func (r *Repository) PercentageFor(ctx context.Context, studentID int64, subjectID *int64) (float64, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE is_present), COUNT(*)
		FROM attendance_records
		WHERE student_id = $1`
	args := []any{studentID}
	if subjectID != nil {
		query += ` AND subject_id = $2`
		args = append(args, *subjectID)
	}
	var present, total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&present, &total); err != nil {
		return 0, err
	}
	return percentage(present, total), nil
}

// ListRecords returns a student's records, newest first.
func (r *Repository) ListRecords(ctx context.Context, studentID int64, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT student_id, subject_id, day, is_present, marked_at
		FROM attendance_records
		WHERE student_id = $1
		ORDER BY day DESC, marked_at DESC
		LIMIT $2
	`, studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.StudentID, &rec.SubjectID, &rec.Date, &rec.IsPresent, &rec.MarkedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

func percentage(present, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(present)/float64(total)*100*100) / 100
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
