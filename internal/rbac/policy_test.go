package rbac

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func testGraph() RoleGraph {
	return RoleGraph{
		"viewer": {
			Permissions: []string{"doc.read", "part.read"},
		},
		"editor": {
			Inherits:    "viewer",
			Permissions: []string{"doc.write"},
		},
		"lead": {
			Inherits:    "editor",
			Permissions: []string{"doc.approve"},
		},
		"auditor": {
			Inherits:    "viewer",
			Permissions: []string{"audit.read"},
		},
	}
}

func TestResolveInheritanceChain(t *testing.T) {
	g := testGraph()

	perms, err := g.Resolve([]string{"lead"})
	require.NoError(t, err)
	require.Equal(t, []string{"doc.approve", "doc.read", "doc.write", "part.read"}, perms)
}

func TestResolveOrderIndependent(t *testing.T) {
	g := testGraph()

	a, err := g.Resolve([]string{"editor", "auditor"})
	require.NoError(t, err)
	b, err := g.Resolve([]string{"auditor", "editor"})
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestResolveSharedAncestorCountedOnce(t *testing.T) {
	g := testGraph()

	// editor and auditor both inherit viewer; viewer's permissions must
	// appear once in the result.
	perms, err := g.Resolve([]string{"editor", "auditor"})
	require.NoError(t, err)
	require.Equal(t, []string{"audit.read", "doc.read", "doc.write", "part.read"}, perms)
}

func TestResolveEmptySet(t *testing.T) {
	perms, err := testGraph().Resolve(nil)
	require.NoError(t, err)
	require.Empty(t, perms)
}

func TestResolveUnknownRole(t *testing.T) {
	_, err := testGraph().Resolve([]string{"ghost-role"})
	var unknown *UnknownRoleError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "ghost-role", unknown.Role)
}

func TestResolveUnknownInheritedRole(t *testing.T) {
	g := RoleGraph{
		"orphan": {Inherits: "missing", Permissions: []string{"a"}},
	}
	_, err := g.Resolve([]string{"orphan"})
	var unknown *UnknownRoleError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "missing", unknown.Role)
}

func TestResolveCyclicInheritance(t *testing.T) {
	g := RoleGraph{
		"a": {Inherits: "b", Permissions: []string{"p1"}},
		"b": {Inherits: "a", Permissions: []string{"p2"}},
	}
	_, err := g.Resolve([]string{"a"})
	var cyclic *CyclicInheritanceError
	require.ErrorAs(t, err, &cyclic)
}

func TestPolicyCacheHitReturnsEqualResult(t *testing.T) {
	p := NewPolicy(testGraph())

	first, err := p.Permissions([]string{"lead"})
	require.NoError(t, err)
	second, err := p.Permissions([]string{"lead"})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestPolicyCacheKeyIgnoresOrderAndDuplicates(t *testing.T) {
	require.Equal(t, cacheKey([]string{"b", "a", "b"}), cacheKey([]string{"a", "b"}))
	require.NotEqual(t, cacheKey([]string{"a"}), cacheKey([]string{"a", "b"}))
}

func TestPolicyReturnsDefensiveCopy(t *testing.T) {
	p := NewPolicy(testGraph())

	first, err := p.Permissions([]string{"viewer"})
	require.NoError(t, err)
	first[0] = "tampered"

	second, err := p.Permissions([]string{"viewer"})
	require.NoError(t, err)
	require.Equal(t, []string{"doc.read", "part.read"}, second)
}

func TestPolicyConcurrentAccess(t *testing.T) {
	p := NewPolicy(testGraph())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			perms, err := p.Permissions([]string{"editor", "auditor"})
			require.NoError(t, err)
			require.Equal(t, []string{"audit.read", "doc.read", "doc.write", "part.read"}, perms)
		}()
	}
	wg.Wait()
}

func TestHasPermission(t *testing.T) {
	p := NewPolicy(testGraph())

	ok, err := p.HasPermission([]string{"editor"}, "doc.write")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = p.HasPermission([]string{"viewer"}, "doc.write")
	require.NoError(t, err)
	require.False(t, ok)
}
