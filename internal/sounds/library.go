package sounds

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ngmaloney/weatherlink/internal/models"
)

const inspectConcurrency = 4

// Library is the discovered sound collection: definitions plus the usable
// files of each category
type Library struct {
	dir    string
	defs   []models.SoundDefinition
	sounds map[string][]models.SoundEntry
}

// Discover finds the files of every definition under dir. Files whose
// duration or hash cannot be read are skipped with a warning. A missing dir
// is created and yields an empty library.
func Discover(ctx context.Context, dir string, defs []models.SoundDefinition, logger *slog.Logger) (*Library, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating sounds directory: %w", err)
	}

	lib := &Library{dir: dir, defs: defs, sounds: make(map[string][]models.SoundEntry, len(defs))}
	for _, def := range defs {
		matches, err := filepath.Glob(filepath.Join(dir, def.Pattern))
		if err != nil {
			return nil, fmt.Errorf("sound pattern %q: %w", def.Pattern, err)
		}
		sort.Strings(matches)

		entries := make([]*models.SoundEntry, len(matches))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(inspectConcurrency)
		for i, path := range matches {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				entry, err := inspect(path, def.Scope)
				if err != nil {
					logger.Warn("skipping unreadable sound", "category", def.Category, "path", path, "error", err)
					return nil
				}
				entries[i] = entry
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for _, e := range entries {
			if e != nil {
				lib.sounds[def.Category] = append(lib.sounds[def.Category], *e)
			}
		}
		logger.Info("sounds discovered", "category", def.Category, "files", len(lib.sounds[def.Category]))
	}
	return lib, nil
}

func inspect(path string, scope models.SoundScope) (*models.SoundEntry, error) {
	duration, err := WAVDuration(path)
	if err != nil {
		return nil, err
	}
	hash, err := hashFile(path)
	if err != nil {
		return nil, err
	}
	return &models.SoundEntry{Path: path, DurationS: duration, Scope: scope, Hash: hash}, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Dir returns the folder the library was discovered in
func (l *Library) Dir() string { return l.dir }

// Definitions returns the sound definitions in file order
func (l *Library) Definitions() []models.SoundDefinition { return l.defs }

// Sounds returns the usable files of category
func (l *Library) Sounds(category string) []models.SoundEntry { return l.sounds[category] }

// Categories returns the categories triggered by cond
func (l *Library) Categories(cond models.Condition) []string {
	var out []string
	for _, d := range l.defs {
		if d.Condition == cond {
			out = append(out, d.Category)
		}
	}
	return out
}

// Has reports whether category is defined
func (l *Library) Has(category string) bool {
	for _, d := range l.defs {
		if d.Category == category {
			return true
		}
	}
	return false
}

// Count returns the number of usable files across all categories
func (l *Library) Count() int {
	n := 0
	for _, s := range l.sounds {
		n += len(s)
	}
	return n
}
