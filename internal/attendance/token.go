package attendance

import (
	"encoding/json"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// Payload is the data embedded in the scannable code. The serialized form is
// what the student's device hands back on scan, so it must survive an exact
// round trip.
type Payload struct {
	SubjectID int64     `json:"subject_id"`
	TeacherID int64     `json:"teacher_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Encode serializes the payload to the string embedded in the QR image.
func (p Payload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodePayload parses a scanned string. Malformed JSON, missing or
// non-numeric identifiers, and missing timestamps all come back as
// ErrInvalidPayload; the caller never sees a partially filled payload.
func DecodePayload(raw string) (Payload, error) {
	var decoded struct {
		SubjectID *int64     `json:"subject_id"`
		TeacherID *int64     `json:"teacher_id"`
		IssuedAt  *time.Time `json:"issued_at"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return Payload{}, ErrInvalidPayload
	}
	if decoded.SubjectID == nil || decoded.TeacherID == nil ||
		decoded.IssuedAt == nil || decoded.ExpiresAt == nil {
		return Payload{}, ErrInvalidPayload
	}
	if *decoded.SubjectID <= 0 || *decoded.TeacherID <= 0 {
		return Payload{}, ErrInvalidPayload
	}
	return Payload{
		SubjectID: *decoded.SubjectID,
		TeacherID: *decoded.TeacherID,
		IssuedAt:  *decoded.IssuedAt,
		ExpiresAt: *decoded.ExpiresAt,
	}, nil
}

// RenderPNG turns an encoded payload string into a scannable QR image.
// Pure function of its input; medium error correction matches what phone
// cameras read reliably at classroom distance.
func RenderPNG(encoded string) ([]byte, error) {
	return qrcode.Encode(encoded, qrcode.Medium, 256)
}
