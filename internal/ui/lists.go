package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/ngmaloney/weatherlink/internal/generator"
	"github.com/ngmaloney/weatherlink/internal/models"
	"github.com/ngmaloney/weatherlink/internal/presets"
)

// routeItem wraps a Route for use in a list
type routeItem struct {
	route models.Route
}

// FilterValue implements list.Item
func (r routeItem) FilterValue() string {
	return r.route.Name + " " + r.route.ID
}

// Title implements list.DefaultItem
func (r routeItem) Title() string {
	return r.route.Name
}

// Description implements list.DefaultItem
func (r routeItem) Description() string {
	return r.route.ID
}

// activityItem wraps an Activity for use in a list
type activityItem struct {
	activity models.Activity
}

func (a activityItem) FilterValue() string {
	return a.activity.DisplayName
}

func (a activityItem) Title() string {
	if a.activity.HasWeather {
		return "✓ " + a.activity.DisplayName
	}
	return a.activity.DisplayName
}

func (a activityItem) Description() string {
	if a.activity.HasWeather {
		return a.activity.FileName + " • weather generated"
	}
	return a.activity.FileName
}

// presetItem wraps a Preset for use in a list
type presetItem struct {
	preset presets.Preset
}

func (p presetItem) FilterValue() string {
	return p.preset.Name
}

func (p presetItem) Title() string {
	return p.preset.Name
}

func (p presetItem) Description() string {
	kind := "user"
	if p.preset.BuiltIn {
		kind = "built-in"
	}
	return fmt.Sprintf("%s • %s • %d change(s)", kind, p.preset.Season, len(p.preset.Events))
}

// createRouteList creates a list.Model from routes
func createRouteList(routes []models.Route, width, height int) list.Model {
	items := make([]list.Item, len(routes))
	for i, route := range routes {
		items[i] = routeItem{route: route}
	}

	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "Select a Route"
	l.SetShowHelp(true)
	l.SetFilteringEnabled(true)

	return l
}

// createActivityList creates a list.Model from a route's activities
func createActivityList(route string, activities []models.Activity, width, height int) list.Model {
	items := make([]list.Item, len(activities))
	for i, act := range activities {
		items[i] = activityItem{activity: act}
	}

	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "Activities • " + route
	l.SetShowHelp(true)
	l.SetFilteringEnabled(true)

	return l
}

// createPresetList creates a list.Model from presets
func createPresetList(all []presets.Preset, width, height int) list.Model {
	items := make([]list.Item, len(all))
	for i, p := range all {
		items[i] = presetItem{preset: p}
	}

	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "Select a Preset"
	l.SetShowHelp(true)
	l.SetFilteringEnabled(false)

	return l
}

// modeKeys maps the details screen keys to generation modes
var modeKeys = map[string]generator.Mode{
	"l": generator.ModeLive,
	"h": generator.ModeHistorical,
	"c": generator.ModeChaotic,
	"m": generator.ModeMETAR,
	"p": generator.ModePreset,
}
