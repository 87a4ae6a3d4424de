package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList persists an ordered list of strings as a JSON array column.
type StringList []string

func (l *StringList) Scan(src any) error {
	raw, err := rawJSON(src)
	if err != nil {
		return fmt.Errorf("StringList: %w", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("StringList: decode: %w", err)
	}
	*l = out
	return nil
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// JSONMap persists free-form metadata as a JSON object column.
type JSONMap map[string]any

func (m *JSONMap) Scan(src any) error {
	raw, err := rawJSON(src)
	if err != nil {
		return fmt.Errorf("JSONMap: %w", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*m = nil
		return nil
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("JSONMap: decode: %w", err)
	}
	*m = out
	return nil
}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func rawJSON(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported Scan type %T", src)
	}
}
