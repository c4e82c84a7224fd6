package rbac

import "sort"

// Roles returns every role name in the graph, sorted.
func (g RoleGraph) Roles() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the sorted, deduplicated permission set granted by the
// given roles, following each inheritance chain up to its root. An ancestor
// shared between requested roles contributes its permissions once. An empty
// role list resolves to an empty set.
func (g RoleGraph) Resolve(roles []string) ([]string, error) {
	perms := make(map[string]struct{})
	if len(roles) == 0 {
		return []string{}, nil
	}

	// visited spans the whole call so a role already covered by an earlier
	// input entry is not traversed again.
	visited := make(map[string]struct{}, len(roles))
	for _, name := range roles {
		if _, done := visited[name]; done {
			continue
		}
		desc, ok := g[name]
		if !ok {
			return nil, &UnknownRoleError{Role: name}
		}
		visited[name] = struct{}{}
		for _, p := range desc.Permissions {
			perms[p] = struct{}{}
		}

		// chain guards against a malformed graph where inheritance loops.
		chain := map[string]struct{}{name: {}}
		parent := desc.Inherits
		for parent != "" {
			if _, looped := chain[parent]; looped {
				return nil, &CyclicInheritanceError{Role: parent}
			}
			chain[parent] = struct{}{}
			parentDesc, ok := g[parent]
			if !ok {
				return nil, &UnknownRoleError{Role: parent}
			}
			if _, done := visited[parent]; !done {
				visited[parent] = struct{}{}
				for _, p := range parentDesc.Permissions {
					perms[p] = struct{}{}
				}
			}
			parent = parentDesc.Inherits
		}
	}

	out := make([]string, 0, len(perms))
	for p := range perms {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}
