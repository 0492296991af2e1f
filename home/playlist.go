package home

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rtrindade/autoplaylist/proc"
	"github.com/rtrindade/autoplaylist/sys"
)

func init() {
	sys.RegisterCommand(&sys.Command{
		Name:       "playlist",
		Alias:      "pl",
		Help:       "Play a stored playlist: playlist <name> [shuffle].",
		Permission: requirePlayback,
		Exec:       handlePlaylist,
	})
	sys.RegisterCommand(&sys.Command{
		Name:       "shuffle",
		Alias:      "sh",
		Help:       "Toggle shuffle for the active playlist: shuffle <on|off>.",
		Permission: requirePlayback,
		Exec:       handleShuffle,
	})
}

// handlePlaylist starts a named playlist from the catalog. A trailing
// "shuffle" argument puts it in shuffle mode, where the queue refills
// itself whenever it drains.
func handlePlaylist(ctx *sys.CommandContext) {
	lib := proc.GetLibrary()
	if lib == nil {
		ctx.Reply(sys.MsgCmdNotReady)
		return
	}

	args := ctx.Args
	shuffle := false
	if n := len(args); n > 0 && strings.EqualFold(args[n-1], "shuffle") {
		shuffle = true
		args = args[:n-1]
	}
	if len(args) == 0 {
		ctx.Reply(fmt.Sprintf(sys.MsgCmdPlaylistUsage, commandPrefix()))
		return
	}
	name := strings.Join(args, " ")

	switch err := lib.StartPlaylistByName(name, shuffle); {
	case errors.Is(err, proc.ErrPlaylistNotFound):
		ctx.Reply(fmt.Sprintf(sys.MsgCmdPlaylistNotFound, name))
	case errors.Is(err, proc.ErrPlaylistEmpty):
		ctx.Reply(fmt.Sprintf(sys.MsgCmdPlaylistEmpty, name))
	case err != nil:
		ctx.Reply(sys.MsgCmdNotReady)
	default:
		ctx.React(ReactionSuccess)
	}
}

func handleShuffle(ctx *sys.CommandContext) {
	sess := proc.GetVoiceManager().Session()
	if sess == nil {
		ctx.Reply(sys.MsgCmdNotReady)
		return
	}

	if len(ctx.Args) != 1 {
		ctx.Reply(fmt.Sprintf(sys.MsgCmdShuffleUsage, commandPrefix()))
		return
	}
	switch strings.ToLower(ctx.Args[0]) {
	case "on":
		sess.SetShuffle(true)
	case "off":
		sess.SetShuffle(false)
	default:
		ctx.Reply(fmt.Sprintf(sys.MsgCmdShuffleUsage, commandPrefix()))
		return
	}
	ctx.React(ReactionSuccess)
}

func commandPrefix() string {
	if sys.GlobalConfig != nil {
		return sys.GlobalConfig.CommandPrefix
	}
	return "!"
}
