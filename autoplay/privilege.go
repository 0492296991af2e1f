package autoplay

// Privilege bits mirror the instance permission model of the hosting
// backend. Only playback is needed here.
const PrivilegePlayback int64 = 1 << 12

// WildcardGroupID matches every client regardless of group membership.
const WildcardGroupID = "-1"

// Identity is one backend user entry with its permission bitsets.
type Identity struct {
	UID                string
	GroupID            string
	Privileges         int64
	InstancePrivileges int64
}

// MatchIdentities filters the full identity set down to the entries that
// apply to a client: exact UID match, a shared group, or the wildcard group.
// The caller supplies the resolved set; loading it is the identity store's
// job.
func MatchIdentities(all []Identity, uid string, groupIDs []string) []Identity {
	groups := make(map[string]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		groups[id] = struct{}{}
	}

	var matched []Identity
	for _, ident := range all {
		if ident.UID == uid || ident.GroupID == WildcardGroupID {
			matched = append(matched, ident)
			continue
		}
		if _, ok := groups[ident.GroupID]; ok {
			matched = append(matched, ident)
		}
	}
	return matched
}

// HasPrivilege reports whether any identity holds at least one of the
// required privilege bits, either directly or through the instance bitset.
func HasPrivilege(ids []Identity, privs ...int64) bool {
	for _, ident := range ids {
		effective := ident.Privileges | ident.InstancePrivileges
		for _, p := range privs {
			if effective&p == p {
				return true
			}
		}
	}
	return false
}
