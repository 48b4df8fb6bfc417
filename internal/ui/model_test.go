package ui

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ngmaloney/weatherlink/internal/actfile"
	"github.com/ngmaloney/weatherlink/internal/generator"
	"github.com/ngmaloney/weatherlink/internal/models"
)

func testModel() Model {
	m := NewModel(Deps{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	m.width = 100
	m.height = 30
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// detailsModel returns a model showing an activity's details
func detailsModel(t *testing.T) Model {
	t.Helper()
	m := testModel()
	m, _ = update(t, m, routesLoadedMsg{routes: []models.Route{{Name: "Alpine Pass", ID: "ALPS", Path: "/r/ALPS"}}})
	m, _ = update(t, m, key("enter"))
	m, _ = update(t, m, activitiesLoadedMsg{activities: []models.Activity{{DisplayName: "Morning Run", FileName: "run.act", Path: "/r/ALPS/ACTIVITIES/run.act"}}})
	m, _ = update(t, m, key("enter"))
	m, _ = update(t, m, detailsLoadedMsg{details: &actfile.Details{Name: "Morning Run", Season: models.Winter, StartTimeS: 22200}})
	if m.state != StateDetails {
		t.Fatalf("setup: state = %v, want StateDetails", m.state)
	}
	return m
}

func TestNewModel(t *testing.T) {
	m := NewModel(Deps{})

	if m.state != StateLoading {
		t.Errorf("NewModel() state = %v, want StateLoading", m.state)
	}
	if m.toggles != models.AllSounds() {
		t.Errorf("NewModel() toggles = %+v, want all sounds on", m.toggles)
	}
	if m.Init() == nil {
		t.Error("Init() should start the route scan")
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	m := NewModel(Deps{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	if m.width != 120 || m.height != 40 {
		t.Errorf("After WindowSizeMsg, size = %dx%d, want 120x40", m.width, m.height)
	}
}

func TestModel_CtrlC_Quits(t *testing.T) {
	m := testModel()
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	if cmd == nil {
		t.Error("Expected Ctrl+C to return quit command")
	}
}

func TestModel_RouteLoadFailure(t *testing.T) {
	m := testModel()
	m, _ = update(t, m, routesLoadedMsg{err: errors.New("no content folders")})

	if m.state != StateError {
		t.Fatalf("state = %v, want StateError", m.state)
	}
	if !strings.Contains(m.View(), "no content folders") {
		t.Error("error view should show the error")
	}

	// any key retries the scan
	m, cmd := update(t, m, key("x"))
	if m.state != StateLoading || cmd == nil {
		t.Errorf("after key, state = %v cmd = %v, want StateLoading with a command", m.state, cmd)
	}
}

func TestModel_Navigation(t *testing.T) {
	m := detailsModel(t)

	if m.selectedRoute == nil || m.selectedRoute.ID != "ALPS" {
		t.Errorf("selectedRoute = %+v, want ALPS", m.selectedRoute)
	}
	if m.selectedActivity == nil || m.selectedActivity.FileName != "run.act" {
		t.Errorf("selectedActivity = %+v, want run.act", m.selectedActivity)
	}

	view := m.View()
	for _, want := range []string{"Morning Run", "Winter", "06:10", "No weather changes"} {
		if !strings.Contains(view, want) {
			t.Errorf("details view missing %q", want)
		}
	}

	m, _ = update(t, m, key("esc"))
	if m.state != StateActivities {
		t.Errorf("after esc, state = %v, want StateActivities", m.state)
	}
	m, _ = update(t, m, key("esc"))
	if m.state != StateRoutes {
		t.Errorf("after second esc, state = %v, want StateRoutes", m.state)
	}
}

func TestModel_SoundToggles(t *testing.T) {
	m := detailsModel(t)

	m, _ = update(t, m, key("t"))
	m, _ = update(t, m, key("r"))
	want := models.Toggles{Thunder: false, Wind: true, Rain: false}
	if m.toggles != want {
		t.Errorf("toggles = %+v, want %+v", m.toggles, want)
	}
}

func TestModel_HistoricalInput(t *testing.T) {
	m := detailsModel(t)

	m, _ = update(t, m, key("h"))
	if m.state != StateInput || m.inputMode != generator.ModeHistorical {
		t.Fatalf("after h, state = %v mode = %v, want historical input", m.state, m.inputMode)
	}

	for _, r := range "2024-13-01" {
		m, _ = update(t, m, key(string(r)))
	}
	m, _ = update(t, m, key("enter"))
	if m.state != StateInput || m.err == nil {
		t.Errorf("invalid date should keep the prompt with an error, state = %v err = %v", m.state, m.err)
	}

	m, _ = update(t, m, key("esc"))
	if m.state != StateDetails {
		t.Errorf("after esc, state = %v, want StateDetails", m.state)
	}
}

func TestModel_GenerateAndResult(t *testing.T) {
	m := detailsModel(t)

	m, cmd := update(t, m, key("c"))
	if m.state != StateGenerating || cmd == nil {
		t.Fatalf("after c, state = %v, want StateGenerating with a command", m.state)
	}

	res := &generator.Result{Path: "/r/ALPS/ACTIVITIES/run.WTHLINK.CHAOTIC.act", WeatherEvents: 20}
	m, cmd = update(t, m, generatedMsg{result: res})
	if m.state != StateResult || cmd == nil {
		t.Fatalf("after generatedMsg, state = %v, want StateResult with a refresh", m.state)
	}

	// the activity refresh must not leave the result screen
	m, _ = update(t, m, activitiesLoadedMsg{activities: []models.Activity{{DisplayName: "Morning Run", HasWeather: true}}})
	if m.state != StateResult {
		t.Errorf("after refresh, state = %v, want StateResult", m.state)
	}
	if !strings.Contains(m.View(), "run.WTHLINK.CHAOTIC.act") {
		t.Error("result view should show the new file")
	}

	m, _ = update(t, m, key("x"))
	if m.state != StateActivities {
		t.Errorf("after key, state = %v, want StateActivities", m.state)
	}
}

func TestModel_GenerateFailure(t *testing.T) {
	m := detailsModel(t)
	m, _ = update(t, m, key("c"))
	m, _ = update(t, m, generatedMsg{err: errors.New("file_structure while splicing events: no safe injection point")})

	if m.state != StateError {
		t.Fatalf("state = %v, want StateError", m.state)
	}
	m, _ = update(t, m, key("x"))
	if m.state != StateDetails {
		t.Errorf("after key, state = %v, want StateDetails", m.state)
	}
}

func TestModel_View_States(t *testing.T) {
	tests := []struct {
		name  string
		state AppState
	}{
		{"loading", StateLoading},
		{"generating", StateGenerating},
		{"error", StateError},
		{"input", StateInput},
		{"details without activity", StateDetails},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel()
			m.state = tt.state
			if view := m.View(); view == "" {
				t.Errorf("View() returned empty string for state %v", tt.state)
			}
		})
	}
}

func TestModel_View_InitialLoading(t *testing.T) {
	m := NewModel(Deps{})
	if view := m.View(); view != "Loading..." {
		t.Errorf("View() before window size = %q, want 'Loading...'", view)
	}
}

func TestParseHistorical(t *testing.T) {
	tests := []struct {
		input    string
		wantDate string
		wantHour int
		wantErr  bool
	}{
		{"2024-06-10", "2024-06-10", 0, false},
		{"2024-06-10 14", "2024-06-10", 14, false},
		{"  2023-12-24   6 ", "2023-12-24", 6, false},
		{"", "", 0, true},
		{"10/06/2024", "", 0, true},
		{"2024-06-10 24", "", 0, true},
		{"2024-06-10 7x", "", 0, true},
		{"2024-06-10 1 2", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			date, hour, err := parseHistorical(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHistorical(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := date.Format("2006-01-02"); got != tt.wantDate {
				t.Errorf("date = %s, want %s", got, tt.wantDate)
			}
			if hour != tt.wantHour {
				t.Errorf("hour = %d, want %d", hour, tt.wantHour)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := map[int]string{0: "00:00", 22200: "06:10", 3599: "00:59", 90000: "01:00", -5: "00:00"}
	for in, want := range tests {
		if got := formatClock(in); got != want {
			t.Errorf("formatClock(%d) = %s, want %s", in, got, want)
		}
	}
}

func TestLoadRoutes(t *testing.T) {
	content := t.TempDir()
	trk := "SIMISA@@@@@@@@@@JINX0r0t______\n\nTr_RouteFile (\n\tRouteID ( ALPS )\n\tName ( \"Alpine Pass\" )\n)\n"
	dir := filepath.Join(content, "ROUTES", "ALPS")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ALPS.trk"), []byte(trk), 0o644); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	msg := loadRoutes([]string{content, filepath.Join(t.TempDir(), "missing")}, nil, logger)().(routesLoadedMsg)
	if msg.err != nil {
		t.Fatalf("loadRoutes error = %v", msg.err)
	}
	if len(msg.routes) != 1 || msg.routes[0].ID != "ALPS" {
		t.Errorf("routes = %+v, want ALPS only", msg.routes)
	}

	msg = loadRoutes(nil, nil, logger)().(routesLoadedMsg)
	if msg.err == nil {
		t.Error("expected an error without content folders")
	}
}

func TestConstantsAreDistinct(t *testing.T) {
	seen := map[AppState]bool{}
	for _, s := range []AppState{StateLoading, StateRoutes, StateActivities, StateDetails, StateInput, StatePresets, StateGenerating, StateResult, StateError} {
		if seen[s] {
			t.Errorf("duplicate state %d", s)
		}
		seen[s] = true
	}
	if generateTimeout < time.Minute {
		t.Errorf("generateTimeout = %v, too short for a multi-point fetch", generateTimeout)
	}
}
