package autoplay

// VolumeDisabled is the sentinel that turns a volume level off. It is not
// validated beyond the equality check.
const VolumeDisabled int32 = -1

// VolumeConfig holds the two independent auto-volume levels. Either may be
// VolumeDisabled; the advisor then reports "no change" for that origin.
type VolumeConfig struct {
	Catalog  int32
	External int32
}

// TrackOrigin tags where a track came from. Catalog tracks live in the local
// media library; external tracks are streamed from a URL.
type TrackOrigin int

const (
	OriginCatalog TrackOrigin = iota
	OriginExternal
)

func (o TrackOrigin) String() string {
	if o == OriginExternal {
		return "external"
	}
	return "catalog"
}

// OriginFromURL derives the origin from a track's URL field: an empty URL
// means the track is catalog-native, anything else is an external stream.
func OriginFromURL(url string) TrackOrigin {
	if url == "" {
		return OriginCatalog
	}
	return OriginExternal
}

// Advise returns the configured level for the given origin, or false when
// that level is disabled and the current volume should be left alone.
func Advise(origin TrackOrigin, cfg VolumeConfig) (int32, bool) {
	level := cfg.Catalog
	if origin == OriginExternal {
		level = cfg.External
	}
	if level == VolumeDisabled {
		return 0, false
	}
	return level, true
}
