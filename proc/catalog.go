package proc

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/rtrindade/autoplaylist/autoplay"
	"github.com/rtrindade/autoplaylist/sys"
)

var (
	ErrPlaylistNotFound = errors.New("no such playlist")
	ErrPlaylistEmpty    = errors.New("playlist has no tracks")
)

// Track is one playable entry loaded from the track catalog.
type Track struct {
	title      string
	artist     string
	tempTitle  string
	tempArtist string
	url        string
	path       string

	sess *VoiceSession
}

func NewTrack(sess *VoiceSession, title, artist, tempTitle, tempArtist, url, path string) *Track {
	return &Track{
		title:      title,
		artist:     artist,
		tempTitle:  tempTitle,
		tempArtist: tempArtist,
		url:        url,
		path:       path,
		sess:       sess,
	}
}

func (t *Track) Title() string      { return t.title }
func (t *Track) Artist() string     { return t.artist }
func (t *Track) TempTitle() string  { return t.tempTitle }
func (t *Track) TempArtist() string { return t.tempArtist }
func (t *Track) URL() string        { return t.url }

// Play hands the track to the voice session queue.
func (t *Track) Play() error {
	if t.sess == nil {
		return ErrNoSession
	}
	t.sess.Enqueue(t)
	return nil
}

func (t *Track) Display() string {
	return autoplay.FormatTrack(t)
}

// Library is the sqlite-backed track catalog. Every lookup hits the
// database so external edits to the playlists are picked up without a
// restart.
type Library struct {
	db   *sql.DB
	sess *VoiceSession
}

func NewLibrary(db *sql.DB, sess *VoiceSession) *Library {
	return &Library{db: db, sess: sess}
}

func (l *Library) Playlists() []autoplay.Playlist {
	rows, err := l.db.Query(`SELECT id, name FROM playlists ORDER BY id`)
	if err != nil {
		sys.LogError(sys.MsgDatabaseQueryError, err)
		return nil
	}
	defer rows.Close()

	var out []autoplay.Playlist
	for rows.Next() {
		p := &dbPlaylist{lib: l}
		if err := rows.Scan(&p.id, &p.name); err != nil {
			sys.LogError(sys.MsgDatabaseQueryError, err)
			return nil
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		sys.LogError(sys.MsgDatabaseQueryError, err)
		return nil
	}
	return out
}

// StartPlaylistByName loads the named playlist from the catalog and hands it
// to the session queue. Name matching is case-insensitive.
func (l *Library) StartPlaylistByName(name string, shuffle bool) error {
	if l.sess == nil {
		return ErrNoSession
	}
	for _, p := range l.Playlists() {
		if !strings.EqualFold(p.Name(), name) {
			continue
		}
		tracks := p.Tracks()
		if len(tracks) == 0 {
			return ErrPlaylistEmpty
		}
		out := make([]*Track, 0, len(tracks))
		for _, t := range tracks {
			out = append(out, t.(*Track))
		}
		l.sess.StartPlaylist(p.Name(), out, shuffle)
		return nil
	}
	return ErrPlaylistNotFound
}

type dbPlaylist struct {
	id   int64
	name string
	lib  *Library
}

func (p *dbPlaylist) Name() string { return p.name }

func (p *dbPlaylist) Tracks() []autoplay.Track {
	rows, err := p.lib.db.Query(`
		SELECT title, artist, temp_title, temp_artist, url, path
		FROM playlist_tracks
		WHERE playlist_id = ?
		ORDER BY position`, p.id)
	if err != nil {
		sys.LogError(sys.MsgDatabaseQueryError, err)
		return nil
	}
	defer rows.Close()

	var out []autoplay.Track
	for rows.Next() {
		var title, artist, tempTitle, tempArtist, url, path string
		if err := rows.Scan(&title, &artist, &tempTitle, &tempArtist, &url, &path); err != nil {
			sys.LogError(sys.MsgDatabaseQueryError, err)
			return nil
		}
		out = append(out, NewTrack(p.lib.sess, title, artist, tempTitle, tempArtist, url, path))
	}
	if err := rows.Err(); err != nil {
		sys.LogError(sys.MsgDatabaseQueryError, err)
		return nil
	}
	return out
}
