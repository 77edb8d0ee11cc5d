package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Tags is a list of free-form labels on a blog entry, stored as a JSONB
// column so it scans through database/sql without a driver-specific array
// type.
type Tags []string

// Value implements driver.Valuer.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner.
func (t *Tags) Scan(src any) error {
	if src == nil {
		*t = nil
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("tags: cannot scan %T", src)
	}

	return json.Unmarshal(data, t)
}
