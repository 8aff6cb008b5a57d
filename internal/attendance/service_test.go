package attendance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	tokens    []Token
	records   map[string]Record
	pcts      map[int64]float64
	conflicts int // MarkPresent fails with ErrRetryableConflict this many times
	nextID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]Record{}, pcts: map[int64]float64{}}
}

func (f *fakeStore) CreateToken(_ context.Context, t Token) (Token, error) {
	if t.ID == "" {
		f.nextID++
		t.ID = fmt.Sprintf("tok-%d", f.nextID)
	}
	f.tokens = append(f.tokens, t)
	return t, nil
}

func (f *fakeStore) FindValidToken(_ context.Context, subjectID, teacherID int64, now time.Time) (*Token, error) {
	var best *Token
	for i := range f.tokens {
		t := &f.tokens[i]
		if t.SubjectID != subjectID || t.TeacherID != teacherID {
			continue
		}
		if !t.IsActive || !t.ExpiresAt.After(now) {
			continue
		}
		if best == nil || t.IssuedAt.After(best.IssuedAt) {
			best = t
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (f *fakeStore) DeactivateToken(_ context.Context, id string) error {
	for i := range f.tokens {
		if f.tokens[i].ID == id {
			f.tokens[i].IsActive = false
		}
	}
	return nil
}

func (f *fakeStore) MarkPresent(_ context.Context, studentID, subjectID int64, day time.Time) (float64, error) {
	if f.conflicts > 0 {
		f.conflicts--
		return 0, ErrRetryableConflict
	}
	key := recordKey(studentID, subjectID, day)
	f.records[key] = Record{
		StudentID: studentID,
		SubjectID: subjectID,
		Date:      day,
		IsPresent: true,
		MarkedAt:  time.Now(),
	}

	var present, total int64
	for _, r := range f.records {
		if r.StudentID != studentID {
			continue
		}
		total++
		if r.IsPresent {
			present++
		}
	}
	pct := math.Round(float64(present)/float64(total)*100*100) / 100
	f.pcts[studentID] = pct
	return pct, nil
}

// seedRecord plants a pre-existing record without going through a scan.
func (f *fakeStore) seedRecord(studentID, subjectID int64, day time.Time, present bool) {
	f.records[recordKey(studentID, subjectID, day)] = Record{
		StudentID: studentID,
		SubjectID: subjectID,
		Date:      day,
		IsPresent: present,
	}
}

func recordKey(studentID, subjectID int64, day time.Time) string {
	return fmt.Sprintf("%d|%d|%s", studentID, subjectID, day.Format("2006-01-02"))
}

type fakeDir struct {
	owners map[int64]int64
}

func (d *fakeDir) SubjectOwner(_ context.Context, subjectID int64) (int64, error) {
	owner, ok := d.owners[subjectID]
	if !ok {
		return 0, errors.New("no such subject")
	}
	return owner, nil
}

func setup() (*Service, *fakeStore) {
	store := newFakeStore()
	dir := &fakeDir{owners: map[int64]int64{7: 3}}
	svc := NewService(store, dir, 15*time.Minute)
	return svc, store
}

var (
	baseTime = time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	baseDay  = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
)

func TestIssueForbiddenForNonOwner(t *testing.T) {
	svc, store := setup()
	svc.now = func() time.Time { return baseTime }

	if _, err := svc.Issue(context.Background(), 7, 99); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Issue() error = %v, want ErrForbidden", err)
	}
	if _, err := svc.Issue(context.Background(), 404, 3); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Issue() for unknown subject error = %v, want ErrForbidden", err)
	}
	if len(store.tokens) != 0 {
		t.Errorf("forbidden issuance persisted %d tokens", len(store.tokens))
	}
}

func TestIssueCreatesTokenAndArtifact(t *testing.T) {
	svc, store := setup()
	svc.now = func() time.Time { return baseTime }

	issued, err := svc.Issue(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	if len(store.tokens) != 1 {
		t.Fatalf("want 1 persisted token, got %d", len(store.tokens))
	}
	tok := store.tokens[0]
	if !tok.IsActive {
		t.Error("new token should be active")
	}
	if want := baseTime.Add(15 * time.Minute); !tok.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", tok.ExpiresAt, want)
	}
	if tok.RawPayload != issued.RawPayload {
		t.Error("persisted payload differs from returned payload")
	}
	if len(issued.PNG) == 0 {
		t.Error("no rendered artifact returned")
	}

	// the raw payload must decode back to the same identity
	p, err := DecodePayload(issued.RawPayload)
	if err != nil {
		t.Fatalf("returned payload does not decode: %v", err)
	}
	if p.SubjectID != 7 || p.TeacherID != 3 {
		t.Errorf("decoded identity = (%d,%d), want (7,3)", p.SubjectID, p.TeacherID)
	}
}

func TestReissueKeepsPriorTokenValid(t *testing.T) {
	svc, store := setup()

	svc.now = func() time.Time { return baseTime }
	if _, err := svc.Issue(context.Background(), 7, 3); err != nil {
		t.Fatalf("first Issue() failed: %v", err)
	}
	svc.now = func() time.Time { return baseTime.Add(time.Minute) }
	if _, err := svc.Issue(context.Background(), 7, 3); err != nil {
		t.Fatalf("second Issue() failed: %v", err)
	}

	if len(store.tokens) != 2 {
		t.Fatalf("want 2 tokens, got %d", len(store.tokens))
	}
	for i, tok := range store.tokens {
		if !tok.IsActive {
			t.Errorf("token %d was invalidated by re-issue", i)
		}
	}

	// last-issued wins the lookup
	tok, err := store.FindValidToken(context.Background(), 7, 3, baseTime.Add(2*time.Minute))
	if err != nil || tok == nil {
		t.Fatalf("FindValidToken() = (%v, %v)", tok, err)
	}
	if !tok.IssuedAt.Equal(baseTime.Add(time.Minute)) {
		t.Errorf("FindValidToken() returned token issued at %v, want most recent", tok.IssuedAt)
	}
}

func TestScanExpiryBoundary(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		wantErr   error
	}{
		{name: "expired one second ago", expiresAt: baseTime.Add(-time.Second), wantErr: ErrTokenExpired},
		{name: "valid for one more second", expiresAt: baseTime.Add(time.Second)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := setup()
			svc.now = func() time.Time { return baseTime }

			payload := Payload{SubjectID: 7, TeacherID: 3, IssuedAt: baseTime.Add(-15 * time.Minute), ExpiresAt: tt.expiresAt}
			raw, _ := payload.Encode()
			store.tokens = append(store.tokens, Token{
				ID: "tok-exp", SubjectID: 7, TeacherID: 3,
				IssuedAt: payload.IssuedAt, ExpiresAt: tt.expiresAt,
				IsActive: true, RawPayload: raw,
			})

			_, err := svc.Scan(context.Background(), raw, 42, baseDay)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Scan() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil && len(store.records) != 0 {
				t.Errorf("rejected scan wrote %d records", len(store.records))
			}
		})
	}
}

func TestScanRevokedTokenRejected(t *testing.T) {
	svc, store := setup()
	svc.now = func() time.Time { return baseTime }

	issued, err := svc.Issue(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	if err := svc.Revoke(context.Background(), store.tokens[0].ID); err != nil {
		t.Fatalf("Revoke() failed: %v", err)
	}

	// the payload still looks fresh; the store lookup must reject it anyway
	if _, err := svc.Scan(context.Background(), issued.RawPayload, 42, baseDay); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Scan() after revoke error = %v, want ErrTokenExpired", err)
	}
}

func TestScanIdempotentSameDay(t *testing.T) {
	svc, store := setup()
	svc.now = func() time.Time { return baseTime }

	issued, err := svc.Issue(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	res1, err := svc.Scan(context.Background(), issued.RawPayload, 42, baseDay)
	if err != nil {
		t.Fatalf("first Scan() failed: %v", err)
	}
	res2, err := svc.Scan(context.Background(), issued.RawPayload, 42, baseDay)
	if err != nil {
		t.Fatalf("second Scan() failed: %v", err)
	}

	if len(store.records) != 1 {
		t.Fatalf("want 1 record after rescan, got %d", len(store.records))
	}
	rec := store.records[recordKey(42, 7, baseDay)]
	if !rec.IsPresent {
		t.Error("record flipped away from present")
	}
	if res1.Percentage != res2.Percentage {
		t.Errorf("rescan changed percentage: %v -> %v", res1.Percentage, res2.Percentage)
	}
}

func TestScanSharedAcrossStudents(t *testing.T) {
	svc, store := setup()
	svc.now = func() time.Time { return baseTime }

	issued, err := svc.Issue(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	students := []int64{41, 42, 43}
	for _, id := range students {
		if _, err := svc.Scan(context.Background(), issued.RawPayload, id, baseDay); err != nil {
			t.Fatalf("Scan() for student %d failed: %v", id, err)
		}
	}
	if len(store.records) != len(students) {
		t.Errorf("want %d records, got %d", len(students), len(store.records))
	}
}

func TestScanRecomputesAggregate(t *testing.T) {
	svc, store := setup()
	svc.now = func() time.Time { return baseTime }

	// two prior subject-days, one present and one absent; today's scan makes
	// it 2 of 3
	store.seedRecord(42, 7, baseDay.AddDate(0, 0, -2), true)
	store.seedRecord(42, 8, baseDay.AddDate(0, 0, -1), false)

	issued, err := svc.Issue(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	res, err := svc.Scan(context.Background(), issued.RawPayload, 42, baseDay)
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	if res.Percentage != 66.67 {
		t.Errorf("Percentage = %v, want 66.67", res.Percentage)
	}
	if store.pcts[42] != 66.67 {
		t.Errorf("persisted percentage = %v, want 66.67", store.pcts[42])
	}
}

func TestScanInvalidPayloadWritesNothing(t *testing.T) {
	svc, store := setup()
	svc.now = func() time.Time { return baseTime }

	raw := `{"subject_id":7,"issued_at":"2026-03-09T10:00:00Z","expires_at":"2026-03-09T10:15:00Z"}`
	if _, err := svc.Scan(context.Background(), raw, 42, baseDay); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("Scan() error = %v, want ErrInvalidPayload", err)
	}
	if len(store.records) != 0 {
		t.Errorf("invalid payload wrote %d records", len(store.records))
	}
}

func TestScanRetriesConflictOnce(t *testing.T) {
	svc, store := setup()
	svc.now = func() time.Time { return baseTime }

	issued, err := svc.Issue(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	store.conflicts = 1
	if _, err := svc.Scan(context.Background(), issued.RawPayload, 42, baseDay); err != nil {
		t.Errorf("Scan() with one conflict should recover, got %v", err)
	}

	store.conflicts = 2
	if _, err := svc.Scan(context.Background(), issued.RawPayload, 43, baseDay); !errors.Is(err, ErrConflict) {
		t.Errorf("Scan() with repeated conflict error = %v, want ErrConflict", err)
	}
}
