package autoplay

// The engine talks to the hosting bot through these interfaces only. The
// concrete implementations live in proc and wrap the Discord session, the
// voice pipeline and the sqlite catalog.

// Session exposes the playback state the engine needs to read, plus the one
// side effect it is allowed: setting the output volume.
type Session interface {
	// IsPlaying reports whether audio is currently being streamed.
	IsPlaying() bool
	// IsShuffleEnabled reports whether the active playlist plays shuffled.
	IsShuffleEnabled() bool
	// HasActivePlaylist reports whether a playlist is currently driving
	// playback (as opposed to ad hoc queued tracks).
	HasActivePlaylist() bool
	// QueueLength returns the number of tracks waiting in the queue.
	QueueLength() int
	// ListenerCount returns the number of clients in the bot's voice
	// channel, the bot included. Zero when the bot is not connected.
	ListenerCount() int
	// SetVolume sets the output level in percent (100 = unity).
	SetVolume(level int32)
}

// Track is a read-only reference into the catalog, plus the capability to
// start playing it.
type Track interface {
	Title() string
	Artist() string
	// TempTitle and TempArtist are optional display overrides; empty when
	// not set.
	TempTitle() string
	TempArtist() string
	// URL is empty for catalog-native tracks and non-empty for external
	// streamed tracks.
	URL() string
	Play() error
}

// Playlist is a named, ordered collection of tracks.
type Playlist interface {
	Name() string
	Tracks() []Track
}

// Catalog is the media library. Implementations must return fresh results on
// every call; the engine never caches a lookup because the library may change
// between calls.
type Catalog interface {
	Playlists() []Playlist
}

// FormatTrack renders a track for logs and chat, preferring the temporary
// display overrides when present.
func FormatTrack(t Track) string {
	title := t.TempTitle()
	if title == "" {
		title = t.Title()
	}
	artist := t.TempArtist()
	if artist == "" {
		artist = t.Artist()
	}
	if artist == "" {
		return title
	}
	return artist + " - " + title
}
