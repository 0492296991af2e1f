package autoplay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginFromURL(t *testing.T) {
	assert.Equal(t, OriginCatalog, OriginFromURL(""))
	assert.Equal(t, OriginExternal, OriginFromURL("https://youtu.be/dQw4w9WgXcQ"))
	// Any non-empty value marks the track external, even a junk one.
	assert.Equal(t, OriginExternal, OriginFromURL("not a url"))
}

func TestAdvise(t *testing.T) {
	cfg := VolumeConfig{Catalog: 80, External: 50}

	level, ok := Advise(OriginCatalog, cfg)
	assert.True(t, ok)
	assert.Equal(t, int32(80), level)

	level, ok = Advise(OriginExternal, cfg)
	assert.True(t, ok)
	assert.Equal(t, int32(50), level)
}

func TestAdviseDisabled(t *testing.T) {
	cfg := VolumeConfig{Catalog: VolumeDisabled, External: 50}

	_, ok := Advise(OriginCatalog, cfg)
	assert.False(t, ok)

	level, ok := Advise(OriginExternal, cfg)
	assert.True(t, ok)
	assert.Equal(t, int32(50), level)

	// Both disabled means the advisor never asks for a change.
	cfg = VolumeConfig{Catalog: VolumeDisabled, External: VolumeDisabled}
	_, ok = Advise(OriginCatalog, cfg)
	assert.False(t, ok)
	_, ok = Advise(OriginExternal, cfg)
	assert.False(t, ok)
}

func TestFormatTrack(t *testing.T) {
	tr := &stubTrack{title: "Song", artist: "Band"}
	assert.Equal(t, "Band - Song", FormatTrack(tr))

	tr = &stubTrack{title: "Song"}
	assert.Equal(t, "Song", FormatTrack(tr))

	tr = &stubTrack{title: "Song", artist: "Band", tempTitle: "Live Cut", tempArtist: "Cover Act"}
	assert.Equal(t, "Cover Act - Live Cut", FormatTrack(tr))
}
