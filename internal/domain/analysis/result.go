package analysis

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Result is the analysis document exactly as the model produced it. It can only
// be built from syntactically valid JSON; the shape is not validated, use Report
// for a defaulted view.
type Result struct {
	raw json.RawMessage
}

// NewResult validates data as a single JSON value and keeps a private copy.
func NewResult(data []byte) (Result, error) {
	var probe json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return Result{}, err
	}
	return Result{raw: probe}, nil
}

// MustResult is NewResult for literals in tests and fixtures.
func MustResult(s string) Result {
	r, err := NewResult([]byte(s))
	if err != nil {
		panic(err)
	}
	return r
}

func (r Result) IsZero() bool { return len(r.raw) == 0 }

// Raw returns a copy of the document bytes.
func (r Result) Raw() json.RawMessage {
	return append(json.RawMessage(nil), r.raw...)
}

// Equal reports whether both documents are identical once insignificant
// whitespace is removed.
func (r Result) Equal(o Result) bool {
	var a, b bytes.Buffer
	if json.Compact(&a, r.raw) != nil || json.Compact(&b, o.raw) != nil {
		return false
	}
	return bytes.Equal(a.Bytes(), b.Bytes())
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte("null"), nil
	}
	return r.Raw(), nil
}

func (r *Result) UnmarshalJSON(b []byte) error {
	res, err := NewResult(b)
	if err != nil {
		return err
	}
	*r = res
	return nil
}

// Value stores the document as text so json/jsonb columns accept it.
func (r Result) Value() (driver.Value, error) {
	if r.IsZero() {
		return "{}", nil
	}
	return string(r.raw), nil
}

func (r *Result) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return r.UnmarshalJSON(v)
	case string:
		return r.UnmarshalJSON([]byte(v))
	case nil:
		*r = Result{}
		return nil
	default:
		return fmt.Errorf("analysis result: unsupported column type %T", src)
	}
}
