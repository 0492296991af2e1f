package proc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtrindade/autoplaylist/autoplay"
	"github.com/rtrindade/autoplaylist/sys"
)

func seedUser(t *testing.T, uid, groupID string, privileges, instancePrivileges int64) {
	t.Helper()
	_, err := sys.DB.Exec(`
		INSERT INTO users (uid, group_id, privileges, instance_privileges)
		VALUES (?, ?, ?, ?)`, uid, groupID, privileges, instancePrivileges)
	require.NoError(t, err)
}

func TestResolveIdentities(t *testing.T) {
	openTestDB(t)
	seedUser(t, "100", "dj", autoplay.PrivilegePlayback, 0)
	seedUser(t, "200", "mods", 0, autoplay.PrivilegePlayback)
	seedUser(t, "300", autoplay.WildcardGroupID, 0, 0)

	t.Run("by uid", func(t *testing.T) {
		ids := ResolveIdentities(context.Background(), "100", nil)
		assert.True(t, autoplay.HasPrivilege(ids, autoplay.PrivilegePlayback))
	})

	t.Run("by group with instance bit", func(t *testing.T) {
		ids := ResolveIdentities(context.Background(), "999", []string{"mods"})
		assert.True(t, autoplay.HasPrivilege(ids, autoplay.PrivilegePlayback))
	})

	t.Run("wildcard matches but lacks the bit", func(t *testing.T) {
		ids := ResolveIdentities(context.Background(), "999", []string{"unrelated"})
		require.Len(t, ids, 1)
		assert.False(t, autoplay.HasPrivilege(ids, autoplay.PrivilegePlayback))
	})
}

func TestLoadIdentitiesEmpty(t *testing.T) {
	openTestDB(t)
	ids, err := LoadIdentities(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
