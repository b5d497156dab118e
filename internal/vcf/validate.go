package vcf

import (
	"fmt"
	"strings"
)

// ValidationError describes a structurally invalid record.
type ValidationError struct {
	Key     Key
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record %s: %s", e.Key, e.Message)
}

// ValidateRecord checks that a record matches its layout: the exact column
// count, a FORMAT column when samples are present, and sample fields with
// between one and len(FORMAT) colon-delimited tokens.
func ValidateRecord(r *Record) error {
	got, want := len(r.fields), r.layout.Width()
	if len(r.layout.Samples()) == 0 {
		if got < want {
			return &ValidationError{Key: r.Key, Message: fmt.Sprintf("expected %d columns, found %d", want, got)}
		}
		return nil
	}
	if got != want {
		return &ValidationError{Key: r.Key, Message: fmt.Sprintf("expected %d columns, found %d", want, got)}
	}
	if r.fields[ColFormat] == "" || r.fields[ColFormat] == "." {
		return &ValidationError{Key: r.Key, Message: "missing FORMAT"}
	}

	for _, s := range r.layout.Samples() {
		col, _ := r.layout.Column(s)
		n := strings.Count(r.fields[col], ":") + 1
		if r.fields[col] == "" || n > len(r.format) {
			return &ValidationError{
				Key:     r.Key,
				Message: fmt.Sprintf("sample %s has %d fields for a %d-field FORMAT", s, n, len(r.format)),
			}
		}
	}
	return nil
}
