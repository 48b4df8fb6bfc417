package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ngmaloney/weatherlink/internal/actfile"
	"github.com/ngmaloney/weatherlink/internal/generator"
	"github.com/ngmaloney/weatherlink/internal/models"
	"github.com/ngmaloney/weatherlink/internal/routes"
)

const (
	generateTimeout = 2 * time.Minute
	historicalHelp  = "YYYY-MM-DD [hour]"
)

// loadRoutes scans every content folder. Folders that cannot be scanned are
// logged and skipped; it is an error only when none yields a route.
func loadRoutes(paths []string, cache routes.Cache, logger *slog.Logger) tea.Cmd {
	return func() tea.Msg {
		if len(paths) == 0 {
			return routesLoadedMsg{err: errors.New("no content folders configured (set WEATHERLINK_CONTENT_PATHS)")}
		}
		var all []models.Route
		var errs []error
		for _, p := range paths {
			found, err := routes.DiscoverCached(p, cache, logger)
			if err != nil {
				logger.Warn("content folder skipped", "path", p, "error", err)
				errs = append(errs, err)
				continue
			}
			all = append(all, found...)
		}
		if len(all) == 0 {
			if len(errs) > 0 {
				return routesLoadedMsg{err: errors.Join(errs...)}
			}
			return routesLoadedMsg{err: errors.New("no routes found in the configured content folders")}
		}
		sort.SliceStable(all, func(i, j int) bool {
			return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
		})
		return routesLoadedMsg{routes: all}
	}
}

// loadActivities lists the activities of a route
func loadActivities(route models.Route) tea.Cmd {
	return func() tea.Msg {
		acts, err := routes.Activities(route.Path)
		return activitiesLoadedMsg{activities: acts, err: err}
	}
}

// loadDetails reads an activity for the details screen
func loadDetails(act models.Activity) tea.Cmd {
	return func() tea.Msg {
		d, err := actfile.ReadDetails(act.Path)
		return detailsLoadedMsg{details: d, err: err}
	}
}

// loadPresets lists built-in and user presets
func loadPresets(store PresetLister) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return presetsLoadedMsg{err: errors.New("no preset store configured")}
		}
		all, err := store.All()
		return presetsLoadedMsg{presets: all, err: err}
	}
}

// runGeneration performs one generation in the background
func runGeneration(svc *generator.Service, req generator.Request) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
		defer cancel()

		res, err := svc.Generate(ctx, req)
		return generatedMsg{result: res, err: err}
	}
}

// saveForecastPreset stores the route's forecast as a user preset
func saveForecastPreset(svc *generator.Service, route models.Route) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
		defer cancel()

		name, err := svc.SaveForecastPreset(ctx, route, "", true)
		return presetSavedMsg{name: name, err: err}
	}
}

// runCleanup deletes generated activities and installed sounds under a route
func runCleanup(route models.Route) tea.Cmd {
	return func() tea.Msg {
		acts, sounds, err := actfile.Cleanup(route.Path)
		return cleanupMsg{acts: acts, sounds: sounds, err: err}
	}
}

// parseHistorical reads "YYYY-MM-DD" with an optional start hour
func parseHistorical(s string) (time.Time, int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return time.Time{}, 0, fmt.Errorf("expected %s", historicalHelp)
	}
	date, err := time.ParseInLocation("2006-01-02", fields[0], time.Local)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid date %q, expected %s", fields[0], historicalHelp)
	}
	hour := 0
	if len(fields) == 2 {
		h, err := strconv.Atoi(fields[1])
		if err != nil || h < 0 || h > 23 {
			return time.Time{}, 0, fmt.Errorf("invalid hour %q, expected 0-23", fields[1])
		}
		hour = h
	}
	return date, hour, nil
}
