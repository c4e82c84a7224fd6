package rbac

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

const cacheKeySep = "\x1f"

// Policy resolves role sets against a fixed RoleGraph and memoises the
// result per role set for the life of the process. Safe for concurrent use.
type Policy struct {
	graph RoleGraph

	mu    sync.RWMutex
	cache map[string][]string
	group singleflight.Group
}

// NewPolicy wraps a role graph in a caching policy.
func NewPolicy(graph RoleGraph) *Policy {
	return &Policy{
		graph: graph,
		cache: make(map[string][]string),
	}
}

// Roles returns every role name known to the policy, sorted.
func (p *Policy) Roles() []string {
	return p.graph.Roles()
}

// Permissions resolves the given roles into a sorted, deduplicated
// permission list. The returned slice is a copy; callers may keep or
// modify it without affecting the cache.
func (p *Policy) Permissions(roles []string) ([]string, error) {
	key := cacheKey(roles)

	p.mu.RLock()
	cached, ok := p.cache[key]
	p.mu.RUnlock()

	if !ok {
		// singleflight collapses concurrent misses on the same key into a
		// single resolution; a lost race would only rewrite an equal value.
		v, err, _ := p.group.Do(key, func() (any, error) {
			resolved, err := p.graph.Resolve(roles)
			if err != nil {
				return nil, err
			}
			p.mu.Lock()
			p.cache[key] = resolved
			p.mu.Unlock()
			return resolved, nil
		})
		if err != nil {
			return nil, err
		}
		cached = v.([]string)
	}

	out := make([]string, len(cached))
	copy(out, cached)
	return out, nil
}

// HasPermission reports whether the given roles grant perm.
func (p *Policy) HasPermission(roles []string, perm string) (bool, error) {
	perms, err := p.Permissions(roles)
	if err != nil {
		return false, err
	}
	for _, granted := range perms {
		if granted == perm {
			return true, nil
		}
	}
	return false, nil
}

// cacheKey builds a canonical key: sorted, deduplicated role names joined
// with a separator, so {"a","b"} and {"b","a"} share one cache entry.
func cacheKey(roles []string) string {
	names := make([]string, len(roles))
	copy(names, roles)
	sort.Strings(names)
	uniq := names[:0]
	for i, name := range names {
		if i == 0 || name != names[i-1] {
			uniq = append(uniq, name)
		}
	}
	return strings.Join(uniq, cacheKeySep)
}
