package ui

import (
	"github.com/ngmaloney/weatherlink/internal/actfile"
	"github.com/ngmaloney/weatherlink/internal/generator"
	"github.com/ngmaloney/weatherlink/internal/models"
	"github.com/ngmaloney/weatherlink/internal/presets"
)

// Message types for async operations

// routesLoadedMsg is sent when the content folders have been scanned
type routesLoadedMsg struct {
	routes []models.Route
	err    error
}

// activitiesLoadedMsg is sent when a route's activities have been listed
type activitiesLoadedMsg struct {
	activities []models.Activity
	err        error
}

// detailsLoadedMsg is sent when an activity has been read
type detailsLoadedMsg struct {
	details *actfile.Details
	err     error
}

// presetsLoadedMsg is sent when the preset list is ready
type presetsLoadedMsg struct {
	presets []presets.Preset
	err     error
}

// generatedMsg is sent when a generation run ends
type generatedMsg struct {
	result *generator.Result
	err    error
}

// presetSavedMsg is sent when a forecast has been saved as a preset
type presetSavedMsg struct {
	name string
	err  error
}

// cleanupMsg is sent when generated files have been removed from a route
type cleanupMsg struct {
	acts   int
	sounds int
	err    error
}

// errMsg is a message type for errors
type errMsg struct {
	err error
}
