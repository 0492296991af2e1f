package home

import (
	"context"

	"github.com/rtrindade/autoplaylist/autoplay"
	"github.com/rtrindade/autoplaylist/proc"
	"github.com/rtrindade/autoplaylist/sys"
)

const ReactionSuccess = "✅"

func init() {
	sys.RegisterCommand(&sys.Command{
		Name:       "autoplay",
		Alias:      "ap",
		Help:       "Engage autoplay mode and start the Autoplaylist.",
		Permission: requirePlayback,
		Exec:       handleAutoplay,
	})
}

// requirePlayback resolves the invoking user against the identity store and
// demands the playback privilege on at least one matching identity.
func requirePlayback(ctx *sys.CommandContext) bool {
	var groupIDs []string
	if member, ok := ctx.Client.Caches.Member(ctx.GuildID, ctx.Message.Author.ID); ok {
		for _, roleID := range member.RoleIDs {
			groupIDs = append(groupIDs, roleID.String())
		}
	}

	ids := proc.ResolveIdentities(context.Background(), ctx.Message.Author.ID.String(), groupIDs)
	return autoplay.HasPrivilege(ids, autoplay.PrivilegePlayback)
}

func handleAutoplay(ctx *sys.CommandContext) {
	eng := proc.GetEngine()
	if eng == nil {
		ctx.Reply(sys.MsgCmdNotReady)
		return
	}

	switch eng.EngageAndPlay() {
	case autoplay.EngageBackground:
		ctx.Reply(sys.MsgCmdEngagedBackground)
	case autoplay.EngageAlone:
		ctx.Reply(sys.MsgCmdEngagedAlone)
	default:
		ctx.React(ReactionSuccess)
	}
}
