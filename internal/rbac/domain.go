package rbac

import "fmt"

// RoleDescriptor declares the permissions granted by one role. A role may
// inherit another role's permissions through a single-parent chain.
type RoleDescriptor struct {
	Inherits    string   `json:"inherits,omitempty"`
	Permissions []string `json:"permissions" validate:"dive,min=1"`
}

// RoleGraph maps role names to their descriptors. It is built once from
// configuration and never mutated afterwards.
type RoleGraph map[string]RoleDescriptor

// UnknownRoleError reports a role name absent from the configured graph.
type UnknownRoleError struct {
	Role string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("rbac: unknown role %q", e.Role)
}

// CyclicInheritanceError reports an inheritance chain that loops back on
// itself. Configuration bug, never retried.
type CyclicInheritanceError struct {
	Role string
}

func (e *CyclicInheritanceError) Error() string {
	return fmt.Sprintf("rbac: cyclic inheritance through role %q", e.Role)
}
