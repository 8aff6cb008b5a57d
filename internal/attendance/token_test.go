package attendance

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestPayloadRoundTrip(t *testing.T) {
	issued := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	p := Payload{
		SubjectID: 7,
		TeacherID: 3,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(15 * time.Minute),
	}

	raw, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	got, err := DecodePayload(raw)
	if err != nil {
		t.Fatalf("DecodePayload() failed: %v", err)
	}
	if got != p {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, p)
	}
}

func TestDecodePayloadRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "not json", raw: "lol nope"},
		{name: "json array", raw: `[1,2,3]`},
		{name: "missing subject_id", raw: `{"teacher_id":3,"issued_at":"2026-03-09T10:00:00Z","expires_at":"2026-03-09T10:15:00Z"}`},
		{name: "missing teacher_id", raw: `{"subject_id":7,"issued_at":"2026-03-09T10:00:00Z","expires_at":"2026-03-09T10:15:00Z"}`},
		{name: "missing timestamps", raw: `{"subject_id":7,"teacher_id":3}`},
		{name: "non-numeric subject_id", raw: `{"subject_id":"abc","teacher_id":3,"issued_at":"2026-03-09T10:00:00Z","expires_at":"2026-03-09T10:15:00Z"}`},
		{name: "zero teacher_id", raw: `{"subject_id":7,"teacher_id":0,"issued_at":"2026-03-09T10:00:00Z","expires_at":"2026-03-09T10:15:00Z"}`},
		{name: "negative subject_id", raw: `{"subject_id":-1,"teacher_id":3,"issued_at":"2026-03-09T10:00:00Z","expires_at":"2026-03-09T10:15:00Z"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodePayload(tt.raw); !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("DecodePayload(%q) error = %v, want ErrInvalidPayload", tt.raw, err)
			}
		})
	}
}

func TestRenderPNG(t *testing.T) {
	png, err := RenderPNG(`{"subject_id":7,"teacher_id":3}`)
	if err != nil {
		t.Fatalf("RenderPNG() failed: %v", err)
	}
	magic := []byte{0x89, 'P', 'N', 'G'}
	if !bytes.HasPrefix(png, magic) {
		t.Errorf("RenderPNG() did not produce a PNG, first bytes: %x", png[:4])
	}
}
