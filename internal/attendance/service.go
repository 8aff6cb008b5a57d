package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Token is a persisted class-wide attestation. It is never consumed: any
// number of students may scan it during its window, and repeated scans are
// idempotent at the record level.
type Token struct {
	ID         string
	SubjectID  int64
	TeacherID  int64
	IssuedAt   time.Time
	ExpiresAt  time.Time
	IsActive   bool
	RawPayload string
}

// Record is one student's presence for one subject on one day. Absence is
// the implicit state for any (student, subject, date) with no row.
type Record struct {
	StudentID int64
	SubjectID int64
	Date      time.Time
	IsPresent bool
	MarkedAt  time.Time
}

// Store persists tokens and attendance records.
type Store interface {
	CreateToken(ctx context.Context, t Token) (Token, error)
	// FindValidToken returns the most recently issued token for the pair
	// that is active and unexpired at now, or nil when none qualifies.
	FindValidToken(ctx context.Context, subjectID, teacherID int64, now time.Time) (*Token, error)
	DeactivateToken(ctx context.Context, id string) error
	// MarkPresent upserts the (student, subject, day) record to present and,
	// in the same transaction, recomputes and stores the student's overall
	// attendance percentage. Returns the new percentage.
	MarkPresent(ctx context.Context, studentID, subjectID int64, day time.Time) (float64, error)
}

// Directory resolves a subject to its owning teacher for the issuance
// authorization check.
type Directory interface {
	SubjectOwner(ctx context.Context, subjectID int64) (int64, error)
}

// ErrRetryableConflict is the store-level signal for a unique-constraint race
// on the upsert. The service retries once before surfacing ErrConflict.
var ErrRetryableConflict = errors.New("attendance: retryable write conflict")

// Issued is what the teacher UI gets back: the rendered code plus the raw
// string and expiry for display.
type Issued struct {
	PNG        []byte
	RawPayload string
	ExpiresAt  time.Time
}

// ScanResult confirms a successful scan.
type ScanResult struct {
	Message    string
	SubjectID  int64
	Percentage float64
}

// Service implements token issuance and scan validation/recording.
type Service struct {
	store    Store
	dir      Directory
	validity time.Duration

	now func() time.Time // overridable in tests
}

// NewService creates the service with a fixed validity window.
func NewService(store Store, dir Directory, validity time.Duration) *Service {
	if validity <= 0 {
		validity = 15 * time.Minute
	}
	return &Service{store: store, dir: dir, validity: validity, now: time.Now}
}

// Issue mints, persists and renders a new token for the subject. The caller
// must already be authenticated as teacherID; ownership of the subject is
// checked here. Prior tokens for the subject stay valid.
func (s *Service) Issue(ctx context.Context, subjectID, teacherID int64) (Issued, error) {
	owner, err := s.dir.SubjectOwner(ctx, subjectID)
	if err != nil {
		return Issued{}, ErrForbidden
	}
	if owner != teacherID {
		return Issued{}, ErrForbidden
	}

	now := s.now().UTC()
	payload := Payload{
		SubjectID: subjectID,
		TeacherID: teacherID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.validity),
	}
	raw, err := payload.Encode()
	if err != nil {
		return Issued{}, fmt.Errorf("encode payload: %w", err)
	}

	tok := Token{
		SubjectID:  subjectID,
		TeacherID:  teacherID,
		IssuedAt:   payload.IssuedAt,
		ExpiresAt:  payload.ExpiresAt,
		IsActive:   true,
		RawPayload: raw,
	}
	if _, err := s.store.CreateToken(ctx, tok); err != nil {
		return Issued{}, fmt.Errorf("persist token: %w", err)
	}

	png, err := RenderPNG(raw)
	if err != nil {
		return Issued{}, fmt.Errorf("render code: %w", err)
	}

	tokensIssued.Inc()
	return Issued{PNG: png, RawPayload: raw, ExpiresAt: payload.ExpiresAt}, nil
}

// Scan validates a scanned payload for the acting student and records
// presence for today. Validity is re-derived from the store by the decoded
// identity rather than trusting the payload's own expiry, so a revoked or
// superseded-and-expired token is rejected even when its payload still looks
// fresh.
func (s *Service) Scan(ctx context.Context, rawPayload string, studentID int64, today time.Time) (ScanResult, error) {
	payload, err := DecodePayload(rawPayload)
	if err != nil {
		scansTotal.WithLabelValues("invalid_payload").Inc()
		return ScanResult{}, ErrInvalidPayload
	}

	tok, err := s.store.FindValidToken(ctx, payload.SubjectID, payload.TeacherID, s.now())
	if err != nil {
		scansTotal.WithLabelValues("error").Inc()
		return ScanResult{}, fmt.Errorf("token lookup: %w", err)
	}
	if tok == nil {
		scansTotal.WithLabelValues("expired").Inc()
		return ScanResult{}, ErrTokenExpired
	}

	pct, err := s.markWithRetry(ctx, studentID, payload.SubjectID, today)
	if err != nil {
		scansTotal.WithLabelValues("error").Inc()
		return ScanResult{}, err
	}

	scansTotal.WithLabelValues("ok").Inc()
	return ScanResult{
		Message:    "Attendance marked successfully!",
		SubjectID:  payload.SubjectID,
		Percentage: pct,
	}, nil
}

// markWithRetry runs the upsert+recompute transaction, retrying once when two
// scans race on the (student, subject, date) uniqueness constraint.
func (s *Service) markWithRetry(ctx context.Context, studentID, subjectID int64, day time.Time) (float64, error) {
	pct, err := s.store.MarkPresent(ctx, studentID, subjectID, day)
	if errors.Is(err, ErrRetryableConflict) {
		pct, err = s.store.MarkPresent(ctx, studentID, subjectID, day)
		if errors.Is(err, ErrRetryableConflict) {
			return 0, ErrConflict
		}
	}
	if err != nil {
		return 0, fmt.Errorf("mark present: %w", err)
	}
	return pct, nil
}

// Revoke flips a token inactive. Not exposed on the portals yet; kept for
// manual revocation from the admin side.
func (s *Service) Revoke(ctx context.Context, tokenID string) error {
	return s.store.DeactivateToken(ctx, tokenID)
}
