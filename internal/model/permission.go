package model

import (
	"encoding/json"
	"fmt"
)

// BoolValue builds a boolean permission value
func BoolValue(v bool) PermissionValue {
	return PermissionValue{Bool: v}
}

// ScopedValue builds a scope-qualified permission value
func ScopedValue(s ScopeValue) PermissionValue {
	return PermissionValue{Scope: s}
}

// IsScope reports whether the value carries a scope qualifier
func (v PermissionValue) IsScope() bool {
	return v.Scope != ""
}

// Truthy reports whether the value grants anything at all. A scope value is
// always a grant; how far it reaches is answered separately.
func (v PermissionValue) Truthy() bool {
	return v.Bool || v.Scope != ""
}

// MarshalJSON encodes the value in its stored shape: a bare bool or a bare
// scope string, matching the role documents the host persists.
func (v PermissionValue) MarshalJSON() ([]byte, error) {
	if v.IsScope() {
		return json.Marshal(string(v.Scope))
	}
	return json.Marshal(v.Bool)
}

func (v *PermissionValue) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = PermissionValue{Bool: b}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = PermissionValue{Scope: ScopeValue(s)}
		return nil
	}
	return fmt.Errorf("permission value must be bool or scope string, got %s", data)
}
