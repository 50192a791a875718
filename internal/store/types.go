package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringSlice persists a []string as a JSON array column, the same
// Value/Scan pattern the agent builder stack uses for its JSON-backed
// config fields.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("store: cannot scan %T into StringSlice", value)
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, s)
}

// Int64Slice persists a []int64 (amounts_cents) as a JSON array column.
type Int64Slice []int64

func (s Int64Slice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *Int64Slice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("store: cannot scan %T into Int64Slice", value)
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, s)
}

// TimeSlice persists a []time.Time (dates extracted from a resource) as a
// JSON array column.
type TimeSlice []time.Time

func (s TimeSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *TimeSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("store: cannot scan %T into TimeSlice", value)
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, s)
}

// StringMap persists a map[string]string (technical_metadata) as a JSON
// object column.
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("store: cannot scan %T into StringMap", value)
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, m)
}

// Float32Slice persists an embedding vector as a JSON array column. The
// Document Store keeps embeddings for display/audit purposes only;
// similarity search runs through internal/vectorstore, which indexes the
// same vectors for ANN lookup.
type Float32Slice []float32

func (s Float32Slice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *Float32Slice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("store: cannot scan %T into Float32Slice", value)
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, s)
}
