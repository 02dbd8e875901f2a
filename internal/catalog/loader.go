package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"

	"github.com/CitroenGames/Server/internal/config"
)

// Loader scans the music directory and builds catalog contents. Loads are
// non-recursive: only mp3 files directly inside the directory become tracks.
type Loader struct {
	dir       string
	descExt   string
	probeTags bool
	logger    *slog.Logger
}

// NewLoader creates a loader for the configured music library
func NewLoader(cfg config.LibraryConfig, logger *slog.Logger) *Loader {
	return &Loader{
		dir:       cfg.MusicDir,
		descExt:   cfg.DescriptionExt,
		probeTags: cfg.ProbeTags,
		logger:    logger,
	}
}

// Reload rebuilds the store from the music directory. The store's exclusive
// lock is held for the full duration of the scan. A scan failure leaves the
// store untouched; it is logged, never fatal.
func (l *Loader) Reload(store *Store) error {
	err := store.Rebuild(l.Load)
	if err != nil {
		l.logger.Error("Catalog load failed",
			slog.String("music_dir", l.dir),
			slog.String("error", err.Error()),
		)
		return err
	}

	l.logger.Info("Catalog loaded",
		slog.String("music_dir", l.dir),
		slog.Int("tracks", store.Len()),
	)
	return nil
}

// Load scans the music directory and returns the new catalog contents. If the
// directory does not exist it is created and an empty catalog is returned.
// Per-track description problems degrade to defaults and never drop the track.
func (l *Loader) Load() (map[string]Track, error) {
	if _, err := os.Stat(l.dir); os.IsNotExist(err) {
		if err := os.MkdirAll(l.dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create music directory %s: %w", l.dir, err)
		}
		l.logger.Info("Created music directory", slog.String("music_dir", l.dir))
		return map[string]Track{}, nil
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read music directory %s: %w", l.dir, err)
	}

	tracks := make(map[string]Track)
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), AudioExt) {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		track := l.loadTrack(id, entry.Name())
		tracks[id] = track

		l.logger.Debug("Loaded track",
			slog.String("id", id),
			slog.String("title", track.Title),
		)
	}

	return tracks, nil
}

// loadTrack builds one catalog entry from its audio file and sidecar.
func (l *Loader) loadTrack(id, filename string) Track {
	track := Track{
		ID:              id,
		Filepath:        filepath.Join(l.dir, filename),
		DescriptionPath: filepath.Join(l.dir, id+l.descExt),
	}

	desc := DefaultDescription(id)

	data, err := os.ReadFile(track.DescriptionPath)
	switch {
	case err == nil:
		// Absent fields keep their defaults; a malformed document is left
		// on disk untouched and the track falls back to defaults entirely.
		if jsonErr := json.Unmarshal(data, &desc); jsonErr != nil {
			l.logger.Warn("Malformed description file, using defaults",
				slog.String("id", id),
				slog.String("path", track.DescriptionPath),
				slog.String("error", jsonErr.Error()),
			)
			desc = DefaultDescription(id)
		}

	case os.IsNotExist(err):
		if l.probeTags {
			desc = l.probeDescription(track.Filepath, id)
		}
		if writeErr := writeDescription(track.DescriptionPath, desc); writeErr != nil {
			l.logger.Warn("Failed to create description file",
				slog.String("id", id),
				slog.String("path", track.DescriptionPath),
				slog.String("error", writeErr.Error()),
			)
		}

	default:
		l.logger.Warn("Failed to read description file, using defaults",
			slog.String("id", id),
			slog.String("path", track.DescriptionPath),
			slog.String("error", err.Error()),
		)
	}

	track.Title = desc.Title
	track.Artist = desc.Artist
	track.Album = desc.Album
	track.Duration = desc.Duration
	return track
}

// probeDescription seeds a missing sidecar from the audio file itself: ID3
// tags for the display fields, an mp3 frame walk for the duration. Anything
// the file does not carry keeps its default.
func (l *Loader) probeDescription(path, id string) Description {
	desc := DefaultDescription(id)

	f, err := os.Open(path)
	if err != nil {
		return desc
	}
	defer f.Close()

	if m, err := tag.ReadFrom(f); err == nil {
		if title := m.Title(); title != "" {
			desc.Title = title
		}
		if artist := m.Artist(); artist != "" {
			desc.Artist = artist
		}
		if album := m.Album(); album != "" {
			desc.Album = album
		}
	}

	if dur, err := mp3Duration(path); err == nil {
		desc.Duration = int(dur / time.Second)
	}

	return desc
}

// mp3Duration sums frame durations across the whole file.
func mp3Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d := mp3.NewDecoder(f)
	var frame mp3.Frame
	var skipped int
	var duration time.Duration

	for {
		if err := d.Decode(&frame, &skipped); err != nil {
			if err == io.EOF {
				break
			}
			return 0, err
		}
		duration += frame.Duration()
	}
	return duration, nil
}

// writeDescription persists a sidecar document. The file is pretty-printed
// so external editors see a stable, hand-editable layout.
func writeDescription(path string, desc Description) error {
	data, err := json.MarshalIndent(desc, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
