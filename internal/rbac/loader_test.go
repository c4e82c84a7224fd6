package rbac

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writePolicyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roles.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPolicySet(t *testing.T) {
	path := writePolicyFile(t, `{
		"account": {
			"user": {"permissions": ["doc.read"]},
			"admin": {"inherits": "user", "permissions": ["doc.write"]}
		},
		"project": {
			"designer": {"permissions": ["part.revise"]}
		}
	}`)

	set, err := LoadPolicySet(path)
	require.NoError(t, err)

	perms, err := set.Account.Permissions([]string{"admin"})
	require.NoError(t, err)
	require.Equal(t, []string{"doc.read", "doc.write"}, perms)

	require.Equal(t, []string{"designer"}, set.Project.Roles())
}

func TestLoadPolicySetRejectsBrokenChain(t *testing.T) {
	path := writePolicyFile(t, `{
		"account": {
			"admin": {"inherits": "missing", "permissions": ["doc.write"]}
		},
		"project": {
			"designer": {"permissions": ["part.revise"]}
		}
	}`)

	_, err := LoadPolicySet(path)
	var unknown *UnknownRoleError
	require.ErrorAs(t, err, &unknown)
}

func TestLoadPolicySetRejectsEmptyDomains(t *testing.T) {
	path := writePolicyFile(t, `{"account": {}, "project": {}}`)

	_, err := LoadPolicySet(path)
	require.Error(t, err)
}

func TestDefaultPolicySet(t *testing.T) {
	set := DefaultPolicySet()

	perms, err := set.Account.Permissions([]string{"admin"})
	require.NoError(t, err)
	require.Contains(t, perms, "partval.override")
	require.Contains(t, perms, "document.read")

	ok, err := set.Project.HasPermission([]string{"leader"}, "partval.create")
	require.NoError(t, err)
	require.True(t, ok)
}
