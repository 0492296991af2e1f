package proc

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/voice"
	"github.com/disgoorg/snowflake/v2"

	"github.com/rtrindade/autoplaylist/sys"
)

var ErrNoSession = errors.New("no voice session prepared")

// VoiceSystem owns the bot's single voice session. Playback is
// single-guild, there is never more than one session.
type VoiceSystem struct {
	mu      sync.Mutex
	session *VoiceSession
}

var (
	voiceManager *VoiceSystem
	voiceOnce    sync.Once
)

// GetVoiceManager returns the singleton VoiceSystem instance.
func GetVoiceManager() *VoiceSystem {
	voiceOnce.Do(func() {
		voiceManager = &VoiceSystem{}
	})
	return voiceManager
}

// Prepare creates the session for the configured guild and channel.
// It returns instantly and does NOT perform the actual voice connection.
func (vm *VoiceSystem) Prepare(client bot.Client, guildID, channelID snowflake.ID) *VoiceSession {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.session != nil {
		return vm.session
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &VoiceSession{
		GuildID:    guildID,
		ChannelID:  channelID,
		client:     client,
		cancelCtx:  ctx,
		cancelFunc: cancel,
	}
	s.queueCond = sync.NewCond(&s.queueMu)
	s.Volume.Store(100)
	vm.session = s
	return s
}

func (vm *VoiceSystem) Session() *VoiceSession {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.session
}

// Join opens the gateway voice connection and starts the queue worker.
func (vm *VoiceSystem) Join(ctx context.Context, client bot.Client) error {
	s := vm.Session()
	if s == nil {
		return ErrNoSession
	}

	conn := client.VoiceManager.CreateConn(s.GuildID)
	joinCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := conn.Open(joinCtx, s.ChannelID, false, true); err != nil {
		return err
	}
	s.Conn = conn
	go s.processQueue()
	return nil
}

// Shutdown stops playback and closes the voice connection.
func (vm *VoiceSystem) Shutdown(ctx context.Context) {
	vm.mu.Lock()
	s := vm.session
	vm.session = nil
	vm.mu.Unlock()
	if s == nil {
		return
	}
	s.cancelFunc()
	s.Stop()
	if s.Conn != nil {
		s.Conn.Close(ctx)
	}
}

// VoiceSession is one live connection to a voice channel plus its track
// queue. It is the playback backend the autoplay engine drives.
type VoiceSession struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	Conn      voice.Conn
	client    bot.Client

	queueMu        sync.Mutex
	queueCond      *sync.Cond
	queue          []*Track
	activePlaylist string
	playlistTracks []*Track
	shuffle        bool

	playing atomic.Bool
	Volume  atomic.Int32

	streamMu     sync.Mutex
	streamCancel context.CancelFunc

	cancelCtx  context.Context
	cancelFunc context.CancelFunc

	cbMu           sync.RWMutex
	onTrackStarted func(*Track)
	onTrackEnded   func(*Track)
}

// SetTrackCallbacks installs hooks fired around every streamed track.
// Both run on the queue worker goroutine.
func (s *VoiceSession) SetTrackCallbacks(started, ended func(*Track)) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.onTrackStarted = started
	s.onTrackEnded = ended
}

func (s *VoiceSession) IsPlaying() bool {
	return s.playing.Load()
}

func (s *VoiceSession) IsShuffleEnabled() bool {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	return s.shuffle
}

func (s *VoiceSession) HasActivePlaylist() bool {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	return s.activePlaylist != ""
}

func (s *VoiceSession) QueueLength() int {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	return len(s.queue)
}

// ListenerCount counts every client in the session's channel, the bot
// included once it has joined.
func (s *VoiceSession) ListenerCount() int {
	count := 0
	for state := range s.client.Caches.VoiceStates(s.GuildID) {
		if state.ChannelID != nil && *state.ChannelID == s.ChannelID {
			count++
		}
	}
	return count
}

// SetVolume adjusts the playback gain. Takes effect mid-stream, the
// transcoder reads it per frame.
func (s *VoiceSession) SetVolume(level int32) {
	if level < 0 {
		level = 0
	}
	if level > 200 {
		level = 200
	}
	s.Volume.Store(level)
	sys.LogAutoplay(sys.MsgAutoplaySetVolume, level)
}

// Enqueue appends a track and wakes the queue worker.
func (s *VoiceSession) Enqueue(t *Track) {
	s.queueMu.Lock()
	s.queue = append(s.queue, t)
	s.queueCond.Signal()
	s.queueMu.Unlock()
}

// StartPlaylist replaces the queue with the given playlist. While the
// playlist is active and shuffled the queue refills itself from it in a
// fresh random order whenever it drains.
func (s *VoiceSession) StartPlaylist(name string, tracks []*Track, shuffle bool) {
	s.stopStream()
	s.queueMu.Lock()
	s.activePlaylist = name
	s.playlistTracks = tracks
	s.shuffle = shuffle
	s.queue = append([]*Track(nil), tracks...)
	if shuffle {
		rand.Shuffle(len(s.queue), func(i, j int) {
			s.queue[i], s.queue[j] = s.queue[j], s.queue[i]
		})
	}
	s.queueCond.Signal()
	s.queueMu.Unlock()
}

// SetShuffle toggles shuffle for the active playlist.
func (s *VoiceSession) SetShuffle(on bool) {
	s.queueMu.Lock()
	s.shuffle = on
	s.queueCond.Signal()
	s.queueMu.Unlock()
}

// Stop terminates current playback and clears the queue and any active
// playlist.
func (s *VoiceSession) Stop() {
	s.queueMu.Lock()
	s.queue = nil
	s.activePlaylist = ""
	s.playlistTracks = nil
	s.shuffle = false
	s.queueCond.Signal()
	s.queueMu.Unlock()
	s.stopStream()
}

// refillLocked restocks the queue from the active playlist in a fresh
// random order. Caller holds queueMu.
func (s *VoiceSession) refillLocked() {
	if !s.shuffle || len(s.playlistTracks) == 0 {
		return
	}
	s.queue = append([]*Track(nil), s.playlistTracks...)
	rand.Shuffle(len(s.queue), func(i, j int) {
		s.queue[i], s.queue[j] = s.queue[j], s.queue[i]
	})
}

func (s *VoiceSession) stopStream() {
	s.streamMu.Lock()
	cancel := s.streamCancel
	s.streamMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *VoiceSession) processQueue() {
	for {
		select {
		case <-s.cancelCtx.Done():
			return
		default:
		}

		s.queueMu.Lock()
		if len(s.queue) == 0 {
			s.refillLocked()
		}
		if len(s.queue) == 0 {
			s.queueCond.Wait()
			s.queueMu.Unlock()
			continue
		}
		track := s.queue[0]
		s.queue = s.queue[1:]
		s.queueMu.Unlock()

		input := track.path
		if track.url != "" {
			streamURL, err := resolveStreamURL(s.cancelCtx, track.url)
			if err != nil {
				sys.LogError(sys.MsgVoiceResolveFailed, track.url, err)
				continue
			}
			input = streamURL
		}
		if input == "" {
			sys.LogVoice(sys.MsgVoiceSkippingTrack, track.Display())
			continue
		}

		s.playing.Store(true)
		s.cbMu.RLock()
		started, ended := s.onTrackStarted, s.onTrackEnded
		s.cbMu.RUnlock()
		if started != nil {
			started(track)
		}
		s.stream(input, track)
		s.playing.Store(false)
		if ended != nil {
			ended(track)
		}
	}
}

func (s *VoiceSession) stream(input string, track *Track) {
	ctx, cancel := context.WithCancel(s.cancelCtx)
	s.streamMu.Lock()
	s.streamCancel = cancel
	s.streamMu.Unlock()
	defer func() {
		cancel()
		s.streamMu.Lock()
		s.streamCancel = nil
		s.streamMu.Unlock()
	}()

	sys.LogVoice(sys.MsgVoiceNowStreaming, track.Display())

	provider := NewStreamProvider(ctx)
	done := make(chan error, 1)
	go func() {
		done <- transcodeToProvider(ctx, input, provider, &s.Volume)
	}()

	if err := s.Conn.SetSpeaking(ctx, voice.SpeakingFlagMicrophone); err != nil {
		sys.LogError(sys.MsgGenericError, err)
	}
	s.Conn.SetOpusFrameProvider(provider)

	select {
	case err := <-done:
		if err != nil && ctx.Err() == nil {
			sys.LogError(sys.MsgVoiceTranscodeFailed, track.Display(), err)
		} else {
			provider.WaitDrained(ctx)
			sys.LogVoice(sys.MsgVoicePlaybackDone, track.Display())
		}
	case <-ctx.Done():
		sys.LogVoice(sys.MsgVoicePlaybackStopped, track.Display())
	}

	s.Conn.SetOpusFrameProvider(nil)
	provider.Close()
	time.Sleep(200 * time.Millisecond)
}
