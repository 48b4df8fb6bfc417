package sounds

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ngmaloney/weatherlink/internal/apperr"
	"github.com/ngmaloney/weatherlink/internal/models"
)

const (
	// InstalledPrefix starts the name of every sound copied into a route
	InstalledPrefix = "WEATHERLINK_"
	routeSoundDir   = "SOUND"
	// activityRef is how an activity refers to the route's SOUND folder
	activityRef = `..\\SOUND\\`
)

// Installer copies sounds into one route's SOUND folder. Each file is copied
// at most once per Installer; create a new one for every generation run.
type Installer struct {
	routePath string
	logger    *slog.Logger
	copied    map[string]bool
}

// NewInstaller creates an installer for the route at routePath
func NewInstaller(routePath string, logger *slog.Logger) *Installer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Installer{routePath: routePath, logger: logger, copied: make(map[string]bool)}
}

// Install copies entry into the route and returns the file name to use in
// the activity's ORTSActSoundFile outcome
func (in *Installer) Install(entry models.SoundEntry) (string, error) {
	name := InstalledPrefix + filepath.Base(entry.Path)
	ref := activityRef + name

	dir := filepath.Join(in.routePath, routeSoundDir)
	dest := filepath.Join(dir, name)
	if in.copied[dest] {
		return ref, nil
	}

	if entry.Hash != "" {
		if existing, err := hashFile(dest); err == nil && existing == entry.Hash {
			in.copied[dest] = true
			return ref, nil
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.New(apperr.CodeIO, apperr.StageInstallSound, "could not create "+dir, err)
	}
	if err := copyFile(entry.Path, dest); err != nil {
		return "", apperr.New(apperr.CodeIO, apperr.StageInstallSound, fmt.Sprintf("could not copy %s", filepath.Base(entry.Path)), err)
	}
	in.copied[dest] = true
	in.logger.Debug("sound installed", "source", entry.Path, "dest", dest)
	return ref, nil
}

// Installed returns how many distinct files this installer has placed
func (in *Installer) Installed() int {
	return len(in.copied)
}

func copyFile(src, dst string) error {
	r, err := os.Open(src)
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
