package content

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

// Value implements driver.Valuer so records persist as ordered JSON.
func (r *Record) Value() (driver.Value, error) {
	if r == nil {
		return []byte("null"), nil
	}
	return r.MarshalJSON()
}

// Scan implements sql.Scanner.
func (r *Record) Scan(value any) error {
	if r == nil {
		return errors.New("Record: Scan on nil pointer")
	}
	var raw []byte
	switch v := value.(type) {
	case nil:
		*r = Record{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("Record: unsupported type %T", value)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*r = Record{}
		return nil
	}
	return r.UnmarshalJSON(raw)
}
