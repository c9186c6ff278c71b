package domain

import (
	"testing"

	"github.com/google/uuid"
)

// FuzzParseStudentID checks the parser never panics and never accepts an
// input that fails to round-trip.
func FuzzParseStudentID(f *testing.F) {
	f.Add("")
	f.Add("not-a-uuid")
	f.Add(uuid.Nil.String())
	f.Add(uuid.New().String())

	f.Fuzz(func(t *testing.T, raw string) {
		studentID, err := ParseStudentID(raw)
		if err != nil {
			return
		}
		parsed, err := uuid.Parse(raw)
		if err != nil {
			t.Fatalf("accepted unparseable input %q", raw)
		}
		if parsed == uuid.Nil {
			t.Fatalf("accepted nil UUID %q", raw)
		}
		if studentID.String() != parsed.String() {
			t.Fatalf("round-trip mismatch: %q -> %q", raw, studentID.String())
		}
	})
}
