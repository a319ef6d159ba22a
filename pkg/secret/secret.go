package secret

import "encoding/json"

const redacted = "[REDACTED]"

// String holds a sensitive value such as a database password. Default
// string conversion and JSON marshaling redact the value; callers that
// need the plaintext must ask for it explicitly via Reveal.
type String string

// New wraps a plaintext value.
func New(v string) String { return String(v) }

// Reveal returns the underlying plaintext value.
func (s String) Reveal() string { return string(s) }

// IsZero reports whether the secret is empty.
func (s String) IsZero() bool { return s == "" }

// String implements fmt.Stringer, redacting non-empty values.
func (s String) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

// GoString implements fmt.GoStringer so %#v cannot leak the value.
func (s String) GoString() string { return s.String() }

// MarshalJSON writes the redacted form. Persisting the plaintext is an
// explicit operation, never an incidental side effect of serialization.
func (s String) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts a plain JSON string.
func (s *String) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = String(v)
	return nil
}

// Equal compares plaintext values without exposing them.
func (s String) Equal(other String) bool { return string(s) == string(other) }
