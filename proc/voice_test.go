package proc

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestSession() *VoiceSession {
	ctx, cancel := context.WithCancel(context.Background())
	s := &VoiceSession{cancelCtx: ctx, cancelFunc: cancel}
	s.queueCond = sync.NewCond(&s.queueMu)
	s.Volume.Store(100)
	return s
}

func namedTracks(sess *VoiceSession, titles ...string) []*Track {
	out := make([]*Track, 0, len(titles))
	for _, title := range titles {
		out = append(out, NewTrack(sess, title, "", "", "", "", "/music/"+title+".opus"))
	}
	return out
}

func titlesOf(tracks []*Track) []string {
	out := make([]string, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, t.Title())
	}
	return out
}

func TestStartPlaylistActivatesPlaylist(t *testing.T) {
	s := newTestSession()
	s.StartPlaylist("Road Trip", namedTracks(s, "alpha", "beta", "gamma"), false)

	assert.True(t, s.HasActivePlaylist())
	assert.False(t, s.IsShuffleEnabled())
	assert.Equal(t, 3, s.QueueLength())
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, titlesOf(s.queue))
}

func TestStartPlaylistShuffledKeepsEveryTrack(t *testing.T) {
	s := newTestSession()
	tracks := namedTracks(s, "alpha", "beta", "gamma", "delta")
	s.StartPlaylist("Road Trip", tracks, true)

	assert.True(t, s.IsShuffleEnabled())
	assert.ElementsMatch(t, titlesOf(tracks), titlesOf(s.queue))
}

func TestSetShuffleToggles(t *testing.T) {
	s := newTestSession()
	s.StartPlaylist("Road Trip", namedTracks(s, "alpha"), false)

	s.SetShuffle(true)
	assert.True(t, s.IsShuffleEnabled())

	s.SetShuffle(false)
	assert.False(t, s.IsShuffleEnabled())
}

func TestRefillRestocksShuffledPlaylist(t *testing.T) {
	s := newTestSession()
	s.StartPlaylist("Road Trip", namedTracks(s, "alpha", "beta", "gamma"), true)

	// Drain the queue the way the worker does and check the playlist
	// replenishes it with the full track set.
	s.queueMu.Lock()
	s.queue = nil
	s.refillLocked()
	got := titlesOf(s.queue)
	s.queueMu.Unlock()

	assert.ElementsMatch(t, []string{"alpha", "beta", "gamma"}, got)
}

func TestRefillNeedsShuffleMode(t *testing.T) {
	s := newTestSession()
	s.StartPlaylist("Road Trip", namedTracks(s, "alpha"), false)

	s.queueMu.Lock()
	s.queue = nil
	s.refillLocked()
	n := len(s.queue)
	s.queueMu.Unlock()

	assert.Zero(t, n)
}

func TestStopClearsActivePlaylist(t *testing.T) {
	s := newTestSession()
	s.StartPlaylist("Road Trip", namedTracks(s, "alpha", "beta"), true)

	s.Stop()

	assert.False(t, s.HasActivePlaylist())
	assert.False(t, s.IsShuffleEnabled())
	assert.Zero(t, s.QueueLength())
}

func TestSetVolumeClamps(t *testing.T) {
	s := newTestSession()

	s.SetVolume(250)
	assert.Equal(t, int32(200), s.Volume.Load())

	s.SetVolume(-10)
	assert.Equal(t, int32(0), s.Volume.Load())
}
