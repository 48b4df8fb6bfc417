// Package routes finds Open Rails routes and activities in content folders
// and locates them on the globe.
package routes

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ngmaloney/weatherlink/internal/actfile"
	"github.com/ngmaloney/weatherlink/internal/apperr"
	"github.com/ngmaloney/weatherlink/internal/models"
)

// Cache stores content-folder scans between runs
type Cache interface {
	GetRoutes(contentPath, fingerprint string) ([]byte, bool, error)
	PutRoutes(contentPath, fingerprint string, payload []byte) error
}

// readDocument reads and scans an Open Rails text file
func readDocument(path string) (string, []actfile.Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	text, _, err := actfile.Decode(data)
	if err != nil {
		return "", nil, err
	}
	groups, err := actfile.Scan(text)
	if err != nil {
		return "", nil, err
	}
	return text, groups, nil
}

func quoted(inner string) bool {
	_, ok := actfile.Unquote(inner)
	return ok
}

// Discover returns every route under <contentPath>/ROUTES, sorted by name.
// Unreadable .trk files are skipped.
func Discover(contentPath string, logger *slog.Logger) ([]models.Route, error) {
	if logger == nil {
		logger = slog.Default()
	}
	trks, err := trackFiles(contentPath)
	if err != nil {
		return nil, err
	}

	var out []models.Route
	for _, trk := range trks {
		r, err := readRoute(trk)
		if err != nil {
			logger.Warn("skipping route", "trk", trk, "error", err)
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	logger.Info("routes discovered", "content", contentPath, "routes", len(out))
	return out, nil
}

// DiscoverCached is Discover backed by cache. The scan is reused while no
// .trk file under the content folder has changed.
func DiscoverCached(contentPath string, cache Cache, logger *slog.Logger) ([]models.Route, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		return Discover(contentPath, logger)
	}
	trks, err := trackFiles(contentPath)
	if err != nil {
		return nil, err
	}
	fp, err := fingerprint(trks)
	if err != nil {
		return nil, err
	}

	if data, ok, err := cache.GetRoutes(contentPath, fp); err != nil {
		logger.Warn("route cache read failed", "error", err)
	} else if ok {
		var cached []models.Route
		if err := json.Unmarshal(data, &cached); err == nil {
			logger.Debug("route cache hit", "content", contentPath, "routes", len(cached))
			return cached, nil
		}
	}

	found, err := Discover(contentPath, logger)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(found); err == nil {
		if err := cache.PutRoutes(contentPath, fp, data); err != nil {
			logger.Warn("route cache write failed", "error", err)
		}
	}
	return found, nil
}

func trackFiles(contentPath string) ([]string, error) {
	root := filepath.Join(contentPath, "ROUTES")
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, apperr.New(apperr.CodeValidation, apperr.StageResolveLocation,
			fmt.Sprintf("%s has no ROUTES folder", contentPath), err)
	}

	var trks []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".trk") {
			trks = append(trks, path)
		}
		return nil
	})
	sort.Strings(trks)
	return trks, err
}

func fingerprint(paths []string) (string, error) {
	h := sha256.New()
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s|%d|%d\n", p, info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func readRoute(trk string) (models.Route, error) {
	text, groups, err := readDocument(trk)
	if err != nil {
		return models.Route{}, err
	}
	name, ok := actfile.First(text, groups, "Name", quoted)
	if !ok {
		return models.Route{}, errors.New("no Name")
	}
	id, ok := actfile.First(text, groups, "RouteID", nil)
	if !ok {
		return models.Route{}, errors.New("no RouteID")
	}
	routeName, _ := actfile.Unquote(name.Inner(text))
	return models.Route{
		Name:    routeName,
		ID:      actfile.Value(id.Inner(text)),
		Path:    filepath.Dir(trk),
		TrkPath: trk,
	}, nil
}

// Activities lists the original activities of a route sorted by file name.
// Generated copies are not listed; HasWeather reports whether one exists.
func Activities(routePath string) ([]models.Activity, error) {
	dir := filepath.Join(routePath, "ACTIVITIES")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperr.New(apperr.CodeIO, "", "could not list activities", err)
	}

	generated := map[string]bool{}
	var originals []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".act") {
			continue
		}
		if actfile.IsGenerated(name) {
			generated[strings.ToUpper(strings.SplitN(name, ".", 2)[0])] = true
			continue
		}
		originals = append(originals, name)
	}

	var out []models.Activity
	for _, name := range originals {
		path := filepath.Join(dir, name)
		d, err := actfile.ReadDetails(path)
		if err != nil || d.Name == "" {
			continue
		}
		out = append(out, models.Activity{
			DisplayName: d.Name,
			FileName:    name,
			Path:        path,
			HasWeather:  generated[strings.ToUpper(strings.SplitN(name, ".", 2)[0])],
		})
	}
	return out, nil
}

// StartLocation returns the route's position: ORTSLatitude/ORTSLongitude
// when present, otherwise its RouteStart tile position
func StartLocation(r models.Route) (models.Coordinate, error) {
	text, groups, err := readDocument(r.TrkPath)
	if err != nil {
		return models.Coordinate{}, apperr.New(apperr.CodeIO, apperr.StageResolveLocation, "could not read "+r.TrkPath, err)
	}

	lat, okLat := actfile.First(text, groups, "ORTSLatitude", nil)
	lon, okLon := actfile.First(text, groups, "ORTSLongitude", nil)
	if okLat && okLon {
		la, err1 := strconv.ParseFloat(actfile.Value(lat.Inner(text)), 64)
		lo, err2 := strconv.ParseFloat(actfile.Value(lon.Inner(text)), 64)
		if err1 == nil && err2 == nil {
			return models.Coordinate{Lat: la, Lon: lo}, nil
		}
	}

	if rs, ok := actfile.First(text, groups, "RouteStart", nil); ok {
		f := strings.Fields(rs.Inner(text))
		if len(f) >= 4 {
			tx, err1 := strconv.Atoi(f[0])
			tz, err2 := strconv.Atoi(f[1])
			x, err3 := strconv.ParseFloat(f[2], 64)
			z, err4 := strconv.ParseFloat(f[3], 64)
			if err := errors.Join(err1, err2, err3, err4); err == nil {
				if c, ok := TileToCoordinate(tx, tz, x, z); ok {
					return c, nil
				}
			}
		}
	}
	return models.Coordinate{}, apperr.New(apperr.CodeFileStructure, apperr.StageResolveLocation,
		fmt.Sprintf("no coordinate source found for route %q", r.ID), nil)
}
