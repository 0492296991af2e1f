package proc

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"golang.org/x/time/rate"

	"github.com/rtrindade/autoplaylist/sys"
)

// One resolution per second with a small burst, yt-dlp hammering the
// extractor gets accounts rate limited.
var resolveLimiter = rate.NewLimiter(rate.Limit(1), 3)

func newYtdlp() *ytdlp.Command {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings()

	if proxy := os.Getenv("YOUTUBE_PROXY"); proxy != "" {
		cmd.Proxy(proxy)
	}
	return cmd
}

// resolveStreamURL turns a track URL into a direct audio stream URL the
// transcoder can open.
func resolveStreamURL(ctx context.Context, trackURL string) (string, error) {
	if err := resolveLimiter.Wait(ctx); err != nil {
		return "", err
	}

	res, err := newYtdlp().
		Format("bestaudio[ext=webm]/bestaudio[ext=m4a]/bestaudio/best").
		Print("%(url)s").
		NoPlaylist().
		NoCheckCertificates().
		IgnoreConfig().
		Run(ctx, trackURL)
	if err != nil {
		return "", err
	}

	streamURL := strings.TrimSpace(res.Stdout)
	if i := strings.IndexByte(streamURL, '\n'); i >= 0 {
		streamURL = streamURL[:i]
	}
	if !strings.HasPrefix(streamURL, "http") {
		return "", errors.New("no stream url in yt-dlp output")
	}
	sys.LogDebug("Resolved stream URL for %s", trackURL)
	return streamURL, nil
}
