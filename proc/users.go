package proc

import (
	"context"

	"github.com/rtrindade/autoplaylist/autoplay"
	"github.com/rtrindade/autoplaylist/sys"
)

// LoadIdentities reads every privilege identity from the users table.
func LoadIdentities(ctx context.Context) ([]autoplay.Identity, error) {
	rows, err := sys.DB.QueryContext(ctx, `
		SELECT uid, group_id, privileges, instance_privileges
		FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []autoplay.Identity
	for rows.Next() {
		var id autoplay.Identity
		if err := rows.Scan(&id.UID, &id.GroupID, &id.Privileges, &id.InstancePrivileges); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ResolveIdentities returns the identities matching a Discord user and
// their role IDs, per UID, per group or through the wildcard group.
func ResolveIdentities(ctx context.Context, uid string, groupIDs []string) []autoplay.Identity {
	all, err := LoadIdentities(ctx)
	if err != nil {
		sys.LogError(sys.MsgDatabaseQueryError, err)
		return nil
	}
	return autoplay.MatchIdentities(all, uid, groupIDs)
}
