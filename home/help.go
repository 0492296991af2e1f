package home

import (
	"fmt"
	"strings"

	"github.com/rtrindade/autoplaylist/sys"
)

func init() {
	sys.RegisterCommand(&sys.Command{
		Name:  "help",
		Alias: "h",
		Help:  "List the available commands.",
		Exec:  handleHelp,
	})
}

func handleHelp(ctx *sys.CommandContext) {
	prefix := commandPrefix()
	var b strings.Builder
	for _, cmd := range sys.Commands() {
		fmt.Fprintf(&b, "`%s%s`", prefix, cmd.Name)
		if cmd.Alias != "" {
			fmt.Fprintf(&b, " (`%s%s`)", prefix, cmd.Alias)
		}
		fmt.Fprintf(&b, ": %s\n", cmd.Help)
	}
	ctx.Reply(b.String())
}
