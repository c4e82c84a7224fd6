package rbac

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// PolicySet groups the two policy domains: account-level roles and
// project-level roles. The two namespaces are distinct; a role name may
// exist in both with unrelated permissions.
type PolicySet struct {
	Account *Policy
	Project *Policy
}

type policyFile struct {
	Account map[string]RoleDescriptor `json:"account" validate:"required,min=1,dive"`
	Project map[string]RoleDescriptor `json:"project" validate:"required,min=1,dive"`
}

var validate = validator.New()

// LoadPolicySet reads role descriptors from the JSON file at path and
// builds the account and project policies. Every inheritance chain is
// walked once up front so a broken configuration fails at start-up rather
// than on first use.
func LoadPolicySet(path string) (*PolicySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rbac: read policy file: %w", err)
	}
	var file policyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("rbac: parse policy file: %w", err)
	}
	if err := validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("rbac: invalid policy file: %w", err)
	}
	return buildPolicySet(RoleGraph(file.Account), RoleGraph(file.Project))
}

// DefaultPolicySet returns the built-in role policies used when no policy
// file is configured.
func DefaultPolicySet() *PolicySet {
	set, err := buildPolicySet(defaultAccountRoles, defaultProjectRoles)
	if err != nil {
		// The built-in graphs are static; failing to build them is a
		// programming error.
		panic(err)
	}
	return set
}

func buildPolicySet(account, project RoleGraph) (*PolicySet, error) {
	for domain, graph := range map[string]RoleGraph{"account": account, "project": project} {
		for _, name := range graph.Roles() {
			if _, err := graph.Resolve([]string{name}); err != nil {
				return nil, fmt.Errorf("rbac: %s role %q: %w", domain, name, err)
			}
		}
	}
	return &PolicySet{
		Account: NewPolicy(account),
		Project: NewPolicy(project),
	}, nil
}

var defaultAccountRoles = RoleGraph{
	"user": {
		Permissions: []string{
			"user.read",
			"project.read",
			"member.read",
			"document.read",
			"document.create",
			"document.revise",
			"part.read",
			"partval.read",
		},
	},
	"manager": {
		Inherits: "user",
		Permissions: []string{
			"project.create",
			"project.update",
			"member.create",
			"member.update",
			"member.delete",
			"part.create",
			"part.revise",
		},
	},
	"admin": {
		Inherits: "manager",
		Permissions: []string{
			"user.create",
			"user.update",
			"partval.create",
			"partval.update",
			"partval.override",
		},
	},
}

var defaultProjectRoles = RoleGraph{
	"designer": {
		Permissions: []string{
			"part.create",
			"part.revise",
			"document.create",
			"document.revise",
		},
	},
	"leader": {
		Inherits: "designer",
		Permissions: []string{
			"project.update",
			"member.create",
			"member.update",
			"member.delete",
			"partval.create",
			"partval.update",
		},
	},
}
