package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ngmaloney/weatherlink/internal/actfile"
	"github.com/ngmaloney/weatherlink/internal/config"
	"github.com/ngmaloney/weatherlink/internal/generator"
	"github.com/ngmaloney/weatherlink/internal/models"
	"github.com/ngmaloney/weatherlink/internal/routes"
)

var (
	labelColor   = color.New(color.FgCyan)
	valueColor   = color.New(color.FgWhite)
	successColor = color.New(color.FgGreen)
	mutedColor   = color.New(color.FgHiBlack)
	errorColor   = color.New(color.FgRed)
)

type cliOptions struct {
	list        bool
	listPresets bool
	cleanup     bool
	route       string
	activity    string
	mode        string
	date        string
	hour        int
	icao        string
	preset      string
	noThunder   bool
	noWind      bool
	noRain      bool
}

func (o cliOptions) toggles() models.Toggles {
	return models.Toggles{Thunder: !o.noThunder, Wind: !o.noWind, Rain: !o.noRain}
}

// request turns the flags into a generation request for route and activity
func (o cliOptions) request(route models.Route, act models.Activity) (generator.Request, error) {
	mode, err := generator.ParseMode(strings.ToLower(o.mode))
	if err != nil {
		return generator.Request{}, err
	}
	req := generator.Request{Mode: mode, Route: route, Activity: act, Toggles: o.toggles()}
	switch mode {
	case generator.ModeHistorical:
		if o.date == "" {
			return req, errors.New("--mode historical requires --date")
		}
		d, err := time.ParseInLocation("2006-01-02", o.date, time.Local)
		if err != nil {
			return req, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", o.date)
		}
		req.Date, req.Hour = d, o.hour
	case generator.ModeMETAR:
		if o.icao == "" {
			return req, errors.New("--mode metar requires --icao")
		}
		req.ICAO = o.icao
	case generator.ModePreset:
		if o.preset == "" {
			return req, errors.New("--mode preset requires --preset")
		}
		req.Preset = o.preset
	}
	return req, nil
}

func runHeadless(ctx context.Context, a *app, cfg *config.Config, o cliOptions, out io.Writer) error {
	if o.listPresets {
		return printPresets(a, out)
	}

	if o.route == "" {
		if o.cleanup {
			return cleanupAll(cfg.ContentPaths, out)
		}
		all, err := discoverAll(a, cfg.ContentPaths)
		if err != nil {
			return err
		}
		for _, r := range all {
			valueColor.Fprintf(out, "%-32s ", r.Name)
			mutedColor.Fprintf(out, "%s\n", r.ID)
		}
		return nil
	}

	all, err := discoverAll(a, cfg.ContentPaths)
	if err != nil {
		return err
	}
	route, err := routes.Find(all, o.route)
	if err != nil {
		return err
	}

	if o.cleanup {
		acts, snds, err := actfile.Cleanup(route.Path)
		successColor.Fprintf(out, "Deleted %d activity file(s) and %d sound file(s) from %s\n", acts, snds, route.Name)
		return err
	}

	acts, err := routes.Activities(route.Path)
	if err != nil {
		return err
	}
	if o.list || o.activity == "" {
		labelColor.Fprintf(out, "Activities of %s\n", route.Name)
		for _, act := range acts {
			mark := " "
			if act.HasWeather {
				mark = "✓"
			}
			valueColor.Fprintf(out, "%s %-40s ", mark, act.DisplayName)
			mutedColor.Fprintf(out, "%s\n", act.FileName)
		}
		return nil
	}

	act, err := findActivity(acts, o.activity)
	if err != nil {
		return err
	}
	req, err := o.request(route, act)
	if err != nil {
		return err
	}

	res, err := a.service.Generate(ctx, req)
	if err != nil {
		return err
	}
	printResult(out, res)
	return nil
}

func discoverAll(a *app, paths []string) ([]models.Route, error) {
	if len(paths) == 0 {
		return nil, errors.New("no content folders configured (set WEATHERLINK_CONTENT_PATHS)")
	}
	var all []models.Route
	var errs []error
	for _, p := range paths {
		found, err := routes.DiscoverCached(p, a.cache, nil)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		all = append(all, found...)
	}
	if len(all) == 0 {
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return nil, errors.New("no routes found")
	}
	return all, nil
}

func cleanupAll(paths []string, out io.Writer) error {
	if len(paths) == 0 {
		return errors.New("no content folders configured")
	}
	var totalActs, totalSounds int
	var errs []error
	for _, p := range paths {
		acts, snds, err := actfile.Cleanup(p)
		totalActs += acts
		totalSounds += snds
		if err != nil {
			errs = append(errs, err)
		}
	}
	successColor.Fprintf(out, "Deleted %d activity file(s) and %d sound file(s) from all content folders\n", totalActs, totalSounds)
	return errors.Join(errs...)
}

func printPresets(a *app, out io.Writer) error {
	all, err := a.presets.All()
	if err != nil {
		return err
	}
	for _, p := range all {
		kind := "user"
		if p.BuiltIn {
			kind = "built-in"
		}
		valueColor.Fprintf(out, "%-24s ", p.Name)
		mutedColor.Fprintf(out, "%s, %s, %d change(s)\n", kind, p.Season, len(p.Events))
	}
	return nil
}

func printResult(out io.Writer, r *generator.Result) {
	successColor.Fprintln(out, "New activity file created")
	labelColor.Fprint(out, "  File:    ")
	valueColor.Fprintln(out, r.Path)
	labelColor.Fprint(out, "  Events:  ")
	valueColor.Fprintf(out, "%d weather, %d sound\n", r.WeatherEvents, r.SoundEvents)
	if r.Daylight != nil {
		labelColor.Fprint(out, "  Sunrise: ")
		valueColor.Fprintln(out, r.Daylight.Sunrise)
		labelColor.Fprint(out, "  Sunset:  ")
		valueColor.Fprintln(out, r.Daylight.Sunset)
	}
	if r.Message != "" {
		mutedColor.Fprintln(out, "  "+r.Message)
	}
}

// findActivity matches query against display names and file names,
// exactly first and then by unique prefix
func findActivity(acts []models.Activity, query string) (models.Activity, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, a := range acts {
		if strings.ToLower(a.DisplayName) == q || strings.ToLower(a.FileName) == q ||
			strings.TrimSuffix(strings.ToLower(a.FileName), ".act") == q {
			return a, nil
		}
	}

	var matches []models.Activity
	for _, a := range acts {
		if strings.HasPrefix(strings.ToLower(a.DisplayName), q) || strings.HasPrefix(strings.ToLower(a.FileName), q) {
			matches = append(matches, a)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return models.Activity{}, fmt.Errorf("no activity matches %q", query)
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.DisplayName
	}
	return models.Activity{}, fmt.Errorf("%q matches several activities: %s", query, strings.Join(names, ", "))
}
