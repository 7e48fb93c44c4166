package transport

import (
	"encoding/json"

	"github.com/google/uuid"
)

// OptionalUUID distinguishes an absent key from an explicit null, so a
// partial update can clear a nullable reference.
type OptionalUUID struct {
	Value *uuid.UUID
	Set   bool
}

func (o OptionalUUID) IsZero() bool {
	return !o.Set
}

func (o *OptionalUUID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		o.Value = nil
		return nil
	}

	parsed, err := uuid.Parse(raw)
	if err != nil {
		return err
	}
	o.Value = &parsed
	return nil
}

// OptionalString is the string counterpart of OptionalUUID.
type OptionalString struct {
	Value *string
	Set   bool
}

func (o OptionalString) IsZero() bool {
	return !o.Set
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.Value = &raw
	return nil
}
