package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidPermissionMap is returned when a permission map fails validation
// at the persistence boundary.
var ErrInvalidPermissionMap = errors.New("invalid permission map")

// PermissionMap maps a resource name to the set of action verbs a group
// grants on it. It is stored as JSON and validated when crossing the
// persistence boundary, so the rest of the code never re-parses it.
type PermissionMap map[string][]string

// Grants reports whether the map allows the given action on the given resource.
func (m PermissionMap) Grants(resource, action string) bool {
	for _, a := range m[resource] {
		if a == action {
			return true
		}
	}

	return false
}

// Merge unions the entries of other into a copy of m and returns the result.
// Neither receiver nor argument are modified.
func (m PermissionMap) Merge(other PermissionMap) PermissionMap {
	out := make(PermissionMap, len(m)+len(other))

	for resource, actions := range m {
		out[resource] = append([]string(nil), actions...)
	}

	for resource, actions := range other {
		for _, a := range actions {
			if !out.Grants(resource, a) {
				out[resource] = append(out[resource], a)
			}
		}
	}

	return out
}

// Validate checks that every resource has at least one non-empty action verb.
func (m PermissionMap) Validate() error {
	for resource, actions := range m {
		if resource == "" {
			return fmt.Errorf("%w: empty resource name", ErrInvalidPermissionMap)
		}

		if len(actions) == 0 {
			return fmt.Errorf("%w: resource %q has no actions", ErrInvalidPermissionMap, resource)
		}

		for _, a := range actions {
			if a == "" {
				return fmt.Errorf("%w: resource %q has an empty action", ErrInvalidPermissionMap, resource)
			}
		}
	}

	return nil
}

// Value implements driver.Valuer, encoding the map as JSON for storage.
func (m PermissionMap) Value() (driver.Value, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	if len(m) == 0 {
		return "{}", nil
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode permission map: %w", err)
	}

	return string(out), nil
}

// Scan implements sql.Scanner, decoding and validating the stored JSON.
func (m *PermissionMap) Scan(value any) error {
	if value == nil {
		*m = PermissionMap{}
		return nil
	}

	var data []byte

	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("%w: unsupported column type %T", ErrInvalidPermissionMap, value)
	}

	if len(data) == 0 {
		*m = PermissionMap{}
		return nil
	}

	var decoded PermissionMap
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPermissionMap, err)
	}

	if err := decoded.Validate(); err != nil {
		return err
	}

	*m = decoded

	return nil
}
