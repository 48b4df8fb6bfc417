package actfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SoundPrefix starts the name of every sound file installed into a route
const SoundPrefix = "WEATHERLINK_"

// Cleanup deletes every generated activity and installed sound under root.
// Deletion continues past individual failures; their errors are joined.
func Cleanup(root string) (acts, sounds int, err error) {
	var errs []error
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		name := d.Name()
		switch {
		case IsGenerated(name):
			if err := os.Remove(path); err != nil {
				errs = append(errs, err)
				return nil
			}
			acts++
		case isInstalledSound(path, name):
			if err := os.Remove(path); err != nil {
				errs = append(errs, err)
				return nil
			}
			sounds++
		}
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}
	return acts, sounds, errors.Join(errs...)
}

func isInstalledSound(path, name string) bool {
	return strings.HasPrefix(name, SoundPrefix) &&
		strings.EqualFold(filepath.Ext(name), ".wav") &&
		strings.EqualFold(filepath.Base(filepath.Dir(path)), "SOUND")
}
