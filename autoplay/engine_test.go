package autoplay

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventLog records session side effects and play calls in order, so tests
// can assert not just what happened but in which sequence.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *eventLog) countPrefix(prefix string) int {
	n := 0
	for _, e := range l.snapshot() {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

type stubSession struct {
	mu          sync.Mutex
	playing     bool
	shuffle     bool
	hasPlaylist bool
	queueLen    int
	listeners   int
	log         *eventLog
}

func (s *stubSession) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *stubSession) setPlaying(v bool) {
	s.mu.Lock()
	s.playing = v
	s.mu.Unlock()
}

func (s *stubSession) IsShuffleEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuffle
}

func (s *stubSession) HasActivePlaylist() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasPlaylist
}

func (s *stubSession) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queueLen
}

func (s *stubSession) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listeners
}

func (s *stubSession) SetVolume(level int32) {
	if s.log != nil {
		s.log.add(fmt.Sprintf("volume:%d", level))
	}
}

type stubTrack struct {
	title, artist         string
	tempTitle, tempArtist string
	url                   string
	playErr               error
	log                   *eventLog
}

func (t *stubTrack) Title() string      { return t.title }
func (t *stubTrack) Artist() string     { return t.artist }
func (t *stubTrack) TempTitle() string  { return t.tempTitle }
func (t *stubTrack) TempArtist() string { return t.tempArtist }
func (t *stubTrack) URL() string        { return t.url }

func (t *stubTrack) Play() error {
	if t.playErr != nil {
		return t.playErr
	}
	if t.log != nil {
		t.log.add("play:" + t.title)
	}
	return nil
}

type stubPlaylist struct {
	name   string
	tracks []Track
}

func (p *stubPlaylist) Name() string    { return p.name }
func (p *stubPlaylist) Tracks() []Track { return p.tracks }

type stubCatalog struct {
	playlists []Playlist
}

func (c *stubCatalog) Playlists() []Playlist { return c.playlists }

func newTestRig(trackCount int) (*Engine, *stubSession, *eventLog) {
	log := &eventLog{}
	sess := &stubSession{listeners: 2, log: log}

	var tracks []Track
	for i := 0; i < trackCount; i++ {
		tracks = append(tracks, &stubTrack{title: fmt.Sprintf("track-%d", i), log: log})
	}
	cat := &stubCatalog{playlists: []Playlist{
		&stubPlaylist{name: "Road Trip", tracks: []Track{&stubTrack{title: "decoy", log: log}}},
		&stubPlaylist{name: CatalogPlaylistName, tracks: tracks},
	}}

	eng := NewEngine(sess, cat, Config{
		Volume:         VolumeConfig{Catalog: 80, External: 50},
		SettleInterval: 30 * time.Millisecond,
	})
	return eng, sess, log
}

func TestEngageAndPlayStartsOneTrack(t *testing.T) {
	eng, _, log := newTestRig(3)

	require.Equal(t, EngageStarted, eng.EngageAndPlay())
	assert.True(t, eng.Engaged())

	events := log.snapshot()
	require.Len(t, events, 2)
	// Volume is applied before the track starts.
	assert.Equal(t, "volume:80", events[0])
	assert.Contains(t, []string{"play:track-0", "play:track-1", "play:track-2"}, events[1])
}

func TestEngageAndPlayWhilePlaying(t *testing.T) {
	eng, sess, log := newTestRig(3)
	sess.setPlaying(true)

	assert.Equal(t, EngageBackground, eng.EngageAndPlay())
	assert.True(t, eng.Engaged())
	assert.Zero(t, log.countPrefix("play:"))
}

func TestEngageAndPlayAlone(t *testing.T) {
	eng, sess, log := newTestRig(3)
	sess.mu.Lock()
	sess.listeners = 1
	sess.mu.Unlock()

	assert.Equal(t, EngageAlone, eng.EngageAndPlay())
	assert.True(t, eng.Engaged())
	assert.Zero(t, log.countPrefix("play:"))
}

func TestAutoplayRequiresEngaged(t *testing.T) {
	eng, _, log := newTestRig(3)

	eng.Autoplay()
	assert.Zero(t, log.countPrefix("play:"))
}

func TestAutoplayMissingPlaylist(t *testing.T) {
	log := &eventLog{}
	sess := &stubSession{listeners: 2, log: log}
	cat := &stubCatalog{playlists: []Playlist{
		&stubPlaylist{name: "Road Trip"},
	}}
	eng := NewEngine(sess, cat, Config{InitialEngaged: true, Volume: VolumeConfig{Catalog: 80}})

	// A missing playlist is a steady state, not an error. Repeat calls
	// stay silent no-ops.
	eng.Autoplay()
	eng.Autoplay()
	assert.Empty(t, log.snapshot())
	assert.True(t, eng.Engaged())
}

func TestAutoplayEmptyPlaylist(t *testing.T) {
	log := &eventLog{}
	sess := &stubSession{listeners: 2, log: log}
	cat := &stubCatalog{playlists: []Playlist{
		&stubPlaylist{name: CatalogPlaylistName},
	}}
	eng := NewEngine(sess, cat, Config{InitialEngaged: true, Volume: VolumeConfig{Catalog: 80}})

	eng.Autoplay()
	assert.Empty(t, log.snapshot())
}

func TestAutoplayPinnedSelection(t *testing.T) {
	eng, _, log := newTestRig(3)
	eng.SetEngaged(true)
	eng.randIntN = func(n int) int {
		require.Equal(t, 3, n)
		return 2
	}

	eng.Autoplay()
	assert.Equal(t, 1, log.countPrefix("play:track-2"))
}

func TestAutoplaySelectionIsUniform(t *testing.T) {
	eng, _, log := newTestRig(3)
	eng.SetEngaged(true)

	const draws = 6000
	for i := 0; i < draws; i++ {
		eng.Autoplay()
	}

	// Expected 2000 per track; the bounds sit well past five standard
	// deviations so the test is stable.
	for i := 0; i < 3; i++ {
		n := log.countPrefix(fmt.Sprintf("play:track-%d", i))
		assert.Greater(t, n, 1800, "track-%d drawn too rarely", i)
		assert.Less(t, n, 2200, "track-%d drawn too often", i)
	}
}

func TestCheckIfEligibleSchedulesOnce(t *testing.T) {
	eng, _, log := newTestRig(3)
	eng.SetEngaged(true)

	// Rapid re-triggers collapse into a single pending settle timer.
	for i := 0; i < 5; i++ {
		eng.CheckIfEligible()
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 1, log.countPrefix("play:"))
}

func TestCheckIfEligibleIneligibleSchedulesNothing(t *testing.T) {
	eng, sess, log := newTestRig(3)
	eng.SetEngaged(true)
	sess.mu.Lock()
	sess.queueLen = 2
	sess.mu.Unlock()

	eng.CheckIfEligible()
	time.Sleep(100 * time.Millisecond)

	assert.Empty(t, log.snapshot())
}

func TestSettleAbortsWhenPlaybackResumed(t *testing.T) {
	eng, sess, log := newTestRig(3)
	eng.SetEngaged(true)

	eng.CheckIfEligible()
	// Something else starts a track during the settle window.
	sess.setPlaying(true)
	time.Sleep(100 * time.Millisecond)

	assert.Zero(t, log.countPrefix("play:"))
}

func TestDisengageSuppressesPendingCheck(t *testing.T) {
	eng, _, log := newTestRig(3)
	eng.SetEngaged(true)

	eng.CheckIfEligible()
	eng.SetEngaged(false)
	time.Sleep(100 * time.Millisecond)

	// The timer still fires but the re-check sees the flag and backs off.
	assert.Zero(t, log.countPrefix("play:"))
}

func TestOnLoadDisengagedDoesNothing(t *testing.T) {
	eng, _, log := newTestRig(3)

	eng.OnLoad()
	time.Sleep(100 * time.Millisecond)

	assert.Empty(t, log.snapshot())
}

func TestOnTrackStartedAppliesOriginVolume(t *testing.T) {
	eng, _, log := newTestRig(0)
	eng.SetEngaged(true)

	eng.OnTrackStarted(&stubTrack{title: "local", log: log})
	assert.Equal(t, []string{"volume:80"}, log.snapshot())

	eng.OnTrackStarted(&stubTrack{title: "remote", url: "https://example.com/a", log: log})
	assert.Equal(t, []string{"volume:80", "volume:50"}, log.snapshot())
}

func TestOnTrackStartedDisabledVolume(t *testing.T) {
	log := &eventLog{}
	sess := &stubSession{listeners: 2, log: log}
	eng := NewEngine(sess, &stubCatalog{}, Config{
		Volume: VolumeConfig{Catalog: VolumeDisabled, External: VolumeDisabled},
	})

	eng.OnTrackStarted(&stubTrack{title: "local", log: log})
	eng.OnTrackStarted(&stubTrack{title: "remote", url: "https://example.com/a", log: log})
	assert.Empty(t, log.snapshot())
}
