package upstream

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Float decodes a JSON number or numeric string. Anything else (null, "", "1 cup",
// objects) leaves it unset instead of failing the whole response.
type Float struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(b []byte) error {
	*f = Float{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	var n json.Number
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil //nolint:nilerr // garbage passes through as unset
		}
		n = json.Number(strings.TrimSpace(s))
	} else {
		n = json.Number(b)
	}

	v, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return nil //nolint:nilerr // garbage passes through as unset
	}
	f.Value, f.Valid = v, true
	return nil
}

// Ptr returns a pointer to the value, or nil when unset.
func (f Float) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// Or returns the value, or def when unset.
func (f Float) Or(def float64) float64 {
	if !f.Valid {
		return def
	}
	return f.Value
}
