package autoplay

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rtrindade/autoplaylist/sys"
)

// CatalogPlaylistName is the exact name of the fallback playlist. The lookup
// is repeated on every autoplay attempt because the library may change
// between calls.
const CatalogPlaylistName = "Autoplaylist"

// DefaultSettleInterval is the delay between an eligibility trigger and the
// playback re-check. It absorbs the backend's own queue-advance latency
// after a track ends or a playlist moves on.
const DefaultSettleInterval = 5 * time.Second

// Config is the engine's load-time configuration.
type Config struct {
	InitialEngaged bool
	Volume         VolumeConfig
	SettleInterval time.Duration
}

// EngageResult tells the command handler what happened when the user engaged
// autoplay manually.
type EngageResult int

const (
	// EngageStarted means playback was attempted immediately.
	EngageStarted EngageResult = iota
	// EngageBackground means something is already playing; autoplay is
	// armed but did not start a second track.
	EngageBackground
	// EngageAlone means nobody is listening; autoplay is armed but no
	// track will start until someone joins.
	EngageAlone
)

// Engine owns the engaged flag, the volume configuration and the single
// pending settle timer. One instance serves one voice channel.
type Engine struct {
	session Session
	catalog Catalog

	mu      sync.Mutex
	engaged bool
	volume  VolumeConfig
	settle  time.Duration
	timer   *time.Timer

	randIntN func(n int) int
}

// NewEngine wires the engine to its collaborators. Call OnLoad afterwards to
// run the initial eligibility pass.
func NewEngine(session Session, catalog Catalog, cfg Config) *Engine {
	settle := cfg.SettleInterval
	if settle <= 0 {
		settle = DefaultSettleInterval
	}
	return &Engine{
		session:  session,
		catalog:  catalog,
		engaged:  cfg.InitialEngaged,
		volume:   cfg.Volume,
		settle:   settle,
		randIntN: rand.IntN,
	}
}

// Engaged reports whether autoplay is currently armed.
func (e *Engine) Engaged() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engaged
}

// SetEngaged arms or disarms autoplay. Disarming does not cancel a pending
// settle timer; Autoplay re-checks the flag when the timer fires.
func (e *Engine) SetEngaged(v bool) {
	e.mu.Lock()
	e.engaged = v
	e.mu.Unlock()
}

// OnLoad runs the initial eligibility pass when the engine starts engaged.
func (e *Engine) OnLoad() {
	if !e.Engaged() {
		return
	}
	sys.LogAutoplay(sys.MsgAutoplayModeOn)
	e.CheckIfEligible()
}

// CheckIfEligible evaluates the current state and, when eligible, schedules
// the delayed playback re-check. Scheduling replaces any pending timer, so
// at most one re-check is ever in flight.
func (e *Engine) CheckIfEligible() {
	e.mu.Lock()
	st := State{
		Engaged:                e.engaged,
		ListenerCount:          e.session.ListenerCount(),
		QueueLength:            e.session.QueueLength(),
		ActivePlaylistShuffled: e.session.HasActivePlaylist() && e.session.IsShuffleEnabled(),
	}
	v := Evaluate(st)
	if !v.Eligible {
		e.mu.Unlock()
		sys.LogAutoplay(sys.MsgAutoplayNotEligible, v.Reason)
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.settle, e.settleFired)
	e.mu.Unlock()
	sys.LogAutoplay(sys.MsgAutoplayScheduled, e.settle)
}

// settleFired runs after the settle interval. If another mechanism started
// playback during the window the need is already satisfied and we back off.
func (e *Engine) settleFired() {
	e.mu.Lock()
	e.timer = nil
	e.mu.Unlock()

	if e.session.IsPlaying() {
		sys.LogAutoplay(sys.MsgAutoplaySettledPlaying)
		return
	}
	e.Autoplay()
}

// Autoplay picks one track uniformly at random from the catalog playlist and
// starts it. Every failure path here is an expected steady state: it logs
// and returns without touching any engine state.
func (e *Engine) Autoplay() {
	sys.LogAutoplay(sys.MsgAutoplayChecking)

	e.mu.Lock()
	engaged := e.engaged
	volume := e.volume
	e.mu.Unlock()

	if !engaged {
		sys.LogAutoplay(sys.MsgAutoplayDisengaged)
		return
	}

	playlist := e.findCatalogPlaylist()
	if playlist == nil {
		sys.LogAutoplay(sys.MsgAutoplayNoPlaylist, CatalogPlaylistName)
		return
	}
	tracks := playlist.Tracks()
	if len(tracks) == 0 {
		sys.LogAutoplay(sys.MsgAutoplayEmptyPlaylist, CatalogPlaylistName)
		return
	}

	track := tracks[e.randIntN(len(tracks))]

	// Volume is applied strictly before Play so the first frames already
	// come out at the catalog level.
	if level, ok := Advise(OriginCatalog, volume); ok {
		e.session.SetVolume(level)
	}

	if err := track.Play(); err != nil {
		sys.LogAutoplay(sys.MsgAutoplayPlayFailed, err)
		return
	}
	sys.LogAutoplay(sys.MsgAutoplaySelected, FormatTrack(track))
}

// EngageAndPlay is the manual command path: it arms autoplay and, unless
// playback is already running or nobody is listening, starts a track
// immediately, skipping the settle delay.
func (e *Engine) EngageAndPlay() EngageResult {
	e.SetEngaged(true)

	if e.session.IsPlaying() {
		return EngageBackground
	}
	if e.session.ListenerCount() <= 1 {
		return EngageAlone
	}
	e.Autoplay()
	return EngageStarted
}

// OnTrackStarted adjusts the output volume for the new track's origin.
func (e *Engine) OnTrackStarted(t Track) {
	origin := OriginFromURL(t.URL())
	sys.LogAutoplay(sys.MsgAutoplayTrackStarted, origin, FormatTrack(t))

	e.mu.Lock()
	volume := e.volume
	e.mu.Unlock()

	if level, ok := Advise(origin, volume); ok {
		e.session.SetVolume(level)
	}
}

func (e *Engine) findCatalogPlaylist() Playlist {
	for _, p := range e.catalog.Playlists() {
		if p.Name() == CatalogPlaylistName {
			return p
		}
	}
	return nil
}
