package catalog

import "fmt"

// AudioExt is the file extension a catalog entry is keyed on. A track exists
// only if a matching audio file exists on disk at load time.
const AudioExt = ".mp3"

// Defaults used whenever a description sidecar is absent or unreadable.
const (
	DefaultArtist = "Unknown"
	DefaultAlbum  = "Unknown"
)

// Track represents one servable audio asset. Only the five metadata fields
// appear on the wire; the file paths are server-internal.
type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Duration int    `json:"duration"` // seconds

	Filepath        string `json:"-"`
	DescriptionPath string `json:"-"`
}

// Description is the schema of a track's JSON sidecar document.
type Description struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Duration int    `json:"duration"` // seconds
}

// DefaultDescription returns the metadata used for a track whose sidecar is
// missing or malformed: the title falls back to the track id.
func DefaultDescription(id string) Description {
	return Description{
		Title:    id,
		Artist:   DefaultArtist,
		Album:    DefaultAlbum,
		Duration: 0,
	}
}

// String returns a human-readable representation of the track
func (t Track) String() string {
	return fmt.Sprintf("Track{ID:%s, Title:%q, Artist:%q, Album:%q, Duration:%ds}",
		t.ID, t.Title, t.Artist, t.Album, t.Duration)
}
