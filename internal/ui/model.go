package ui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ngmaloney/weatherlink/internal/actfile"
	"github.com/ngmaloney/weatherlink/internal/generator"
	"github.com/ngmaloney/weatherlink/internal/metar"
	"github.com/ngmaloney/weatherlink/internal/models"
	"github.com/ngmaloney/weatherlink/internal/presets"
	"github.com/ngmaloney/weatherlink/internal/routes"
)

// AppState represents the current state of the application
type AppState int

const (
	StateLoading    AppState = iota // Scanning content folders or reading files
	StateRoutes                     // Choosing a route
	StateActivities                 // Choosing an activity of the route
	StateDetails                    // Activity details and generation keys
	StateInput                      // Typing a date or an ICAO code
	StatePresets                    // Choosing a preset
	StateGenerating                 // Generation running
	StateResult                     // Generation finished
	StateError                      // Error state
)

// PresetLister lists presets for the preset picker
type PresetLister interface {
	All() ([]presets.Preset, error)
}

// Deps are the collaborators of the terminal UI
type Deps struct {
	Service      *generator.Service
	ContentPaths []string
	RouteCache   routes.Cache
	Presets      PresetLister
	Logger       *slog.Logger
}

// Model represents the application's state
type Model struct {
	state  AppState
	width  int
	height int
	err    error
	// back is the state an error returns to
	back AppState

	deps Deps

	// Routes and activities
	routeList        list.Model
	routeCount       int
	selectedRoute    *models.Route
	activityList     list.Model
	selectedActivity *models.Activity
	details          *actfile.Details

	// Generation
	toggles    models.Toggles
	input      textinput.Model
	inputMode  generator.Mode
	presetList list.Model
	result     *generator.Result
	status     string

	spinner spinner.Model
}

// NewModel creates a new application model
func NewModel(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	ti := textinput.New()
	ti.CharLimit = 32
	ti.Width = 40

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		state:   StateLoading,
		deps:    deps,
		toggles: models.AllSounds(),
		input:   ti,
		spinner: s,
		status:  "Scanning content folders...",
	}
}

// Init starts the route scan
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadRoutes(m.deps.ContentPaths, m.deps.RouteCache, m.deps.Logger))
}

func (m Model) fail(err error, back AppState) (Model, tea.Cmd) {
	m.err = err
	m.back = back
	m.state = StateError
	return m, nil
}

func (m Model) listSize() (int, int) {
	return max(m.width-4, 20), max(m.height-8, 5)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	// Handle window size
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		// Only lists that have been created can be resized
		w, h := m.listSize()
		switch m.state {
		case StateRoutes:
			m.routeList.SetSize(w, h)
		case StateActivities:
			m.activityList.SetSize(w, h)
		case StatePresets:
			m.presetList.SetSize(w, h)
		}
		return m, nil
	}

	// Handle custom messages
	switch msg := msg.(type) {
	case errMsg:
		return m.fail(msg.err, StateRoutes)

	case routesLoadedMsg:
		if msg.err != nil {
			return m.fail(fmt.Errorf("loading routes failed: %w", msg.err), StateLoading)
		}
		w, h := m.listSize()
		m.routeList = createRouteList(msg.routes, w, h)
		m.routeCount = len(msg.routes)
		m.state = StateRoutes
		return m, nil

	case activitiesLoadedMsg:
		if msg.err != nil {
			return m.fail(fmt.Errorf("listing activities failed: %w", msg.err), StateRoutes)
		}
		w, h := m.listSize()
		m.activityList = createActivityList(m.selectedRoute.Name, msg.activities, w, h)
		// a refresh after generation keeps the result on screen
		if m.state != StateResult {
			m.state = StateActivities
		}
		return m, nil

	case detailsLoadedMsg:
		if msg.err != nil {
			return m.fail(fmt.Errorf("reading activity failed: %w", msg.err), StateActivities)
		}
		m.details = msg.details
		m.state = StateDetails
		return m, nil

	case presetsLoadedMsg:
		if msg.err != nil {
			return m.fail(fmt.Errorf("loading presets failed: %w", msg.err), StateDetails)
		}
		w, h := m.listSize()
		m.presetList = createPresetList(msg.presets, w, h)
		m.state = StatePresets
		return m, nil

	case generatedMsg:
		if msg.err != nil {
			return m.fail(msg.err, StateDetails)
		}
		m.result = msg.result
		m.state = StateResult
		return m, loadActivities(*m.selectedRoute)

	case presetSavedMsg:
		if msg.err != nil {
			return m.fail(fmt.Errorf("saving preset failed: %w", msg.err), StateDetails)
		}
		m.status = fmt.Sprintf("Forecast saved as preset %q", msg.name)
		m.state = StateDetails
		return m, nil

	case cleanupMsg:
		if msg.err != nil {
			return m.fail(fmt.Errorf("cleanup failed: %w", msg.err), StateActivities)
		}
		m.status = fmt.Sprintf("Deleted %d activity file(s) and %d sound file(s)", msg.acts, msg.sounds)
		return m, loadActivities(*m.selectedRoute)
	}

	// Handle keyboard input
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		// Global keys
		if keyMsg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		// State-specific handling
		switch m.state {
		case StateRoutes:
			return m.handleRouteList(keyMsg)
		case StateActivities:
			return m.handleActivityList(keyMsg)
		case StateDetails:
			return m.handleDetails(keyMsg)
		case StateInput:
			return m.handleInput(keyMsg)
		case StatePresets:
			return m.handlePresetList(keyMsg)
		case StateResult:
			m.result = nil
			m.state = StateActivities
			return m, nil
		case StateError:
			if keyMsg.String() == "q" {
				return m, tea.Quit
			}
			// Any other key returns to where the error happened
			m.err = nil
			m.state = m.back
			if m.state == StateLoading {
				return m, tea.Batch(m.spinner.Tick, loadRoutes(m.deps.ContentPaths, m.deps.RouteCache, m.deps.Logger))
			}
			return m, nil
		}
	}

	switch m.state {
	case StateLoading, StateGenerating:
		m.spinner, cmd = m.spinner.Update(msg)
	}
	return m, cmd
}

// handleRouteList handles keyboard input in the route list
func (m Model) handleRouteList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	filtering := m.routeList.FilterState() == list.Filtering

	if !filtering {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "enter":
			if item, ok := m.routeList.SelectedItem().(routeItem); ok {
				route := item.route
				m.selectedRoute = &route
				m.status = ""
				m.state = StateLoading
				return m, tea.Batch(m.spinner.Tick, loadActivities(route))
			}
		}
	}

	m.routeList, cmd = m.routeList.Update(msg)
	return m, cmd
}

// handleActivityList handles keyboard input in the activity list
func (m Model) handleActivityList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	filtering := m.activityList.FilterState() == list.Filtering

	if !filtering {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "esc", "backspace":
			m.state = StateRoutes
			m.selectedRoute = nil
			m.status = ""
			return m, nil
		case "x":
			m.status = "Cleaning generated files..."
			return m, runCleanup(*m.selectedRoute)
		case "enter":
			if item, ok := m.activityList.SelectedItem().(activityItem); ok {
				act := item.activity
				m.selectedActivity = &act
				m.status = ""
				m.state = StateLoading
				return m, tea.Batch(m.spinner.Tick, loadDetails(act))
			}
		}
	}

	m.activityList, cmd = m.activityList.Update(msg)
	return m, cmd
}

// handleDetails handles the generation keys of the details screen
func (m Model) handleDetails(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		m.state = StateActivities
		m.details = nil
		m.status = ""
		return m, nil
	case "t":
		m.toggles.Thunder = !m.toggles.Thunder
		return m, nil
	case "w":
		m.toggles.Wind = !m.toggles.Wind
		return m, nil
	case "r":
		m.toggles.Rain = !m.toggles.Rain
		return m, nil
	case "f":
		m.status = "Saving forecast as preset..."
		return m, saveForecastPreset(m.deps.Service, *m.selectedRoute)
	}

	mode, ok := modeKeys[key]
	if !ok {
		return m, nil
	}
	switch mode {
	case generator.ModeHistorical:
		return m.startInput(mode, historicalHelp)
	case generator.ModeMETAR:
		return m.startInput(mode, "ICAO code, e.g. EGLL")
	case generator.ModePreset:
		m.state = StateLoading
		return m, tea.Batch(m.spinner.Tick, loadPresets(m.deps.Presets))
	}
	return m.generate(generator.Request{Mode: mode})
}

func (m Model) startInput(mode generator.Mode, placeholder string) (tea.Model, tea.Cmd) {
	m.inputMode = mode
	m.input.SetValue("")
	m.input.Placeholder = placeholder
	m.input.Focus()
	m.state = StateInput
	return m, textinput.Blink
}

// handleInput handles the date and ICAO prompts
func (m Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		m.state = StateDetails
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			return m, nil
		}
		req := generator.Request{Mode: m.inputMode}
		if m.inputMode == generator.ModeHistorical {
			date, hour, err := parseHistorical(value)
			if err != nil {
				m.err = err
				return m, nil
			}
			req.Date, req.Hour = date, hour
		} else {
			icao, err := metar.NormalizeICAO(value)
			if err != nil {
				m.err = err
				return m, nil
			}
			req.ICAO = icao
		}
		m.err = nil
		m.input.Blur()
		return m.generate(req)
	}

	// Clear error when typing
	m.err = nil
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handlePresetList handles keyboard input in the preset picker
func (m Model) handlePresetList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "esc":
		m.state = StateDetails
		return m, nil
	case "enter":
		if item, ok := m.presetList.SelectedItem().(presetItem); ok {
			return m.generate(generator.Request{Mode: generator.ModePreset, Preset: item.preset.Name})
		}
	}

	m.presetList, cmd = m.presetList.Update(msg)
	return m, cmd
}

// generate fills in the selection and starts a run
func (m Model) generate(req generator.Request) (tea.Model, tea.Cmd) {
	if m.selectedRoute == nil || m.selectedActivity == nil {
		return m, nil
	}
	req.Route = *m.selectedRoute
	req.Activity = *m.selectedActivity
	req.Toggles = m.toggles

	m.status = fmt.Sprintf("Generating %s weather...", req.Mode)
	m.state = StateGenerating
	return m, tea.Batch(m.spinner.Tick, runGeneration(m.deps.Service, req))
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.state {
	case StateLoading, StateGenerating:
		return m.viewBusy()
	case StateRoutes:
		return m.viewList(m.routeList, fmt.Sprintf("%d route(s) found", m.routeCount),
			"↑/↓: Navigate • /: Filter • Enter: Select • Q: Quit")
	case StateActivities:
		return m.viewList(m.activityList, m.status,
			"Enter: Select • X: Delete generated files • Esc: Routes • Q: Quit")
	case StateDetails:
		return m.viewDetails()
	case StateInput:
		return m.viewInput()
	case StatePresets:
		return m.viewList(m.presetList, "", "Enter: Apply • Esc: Back")
	case StateResult:
		return m.viewResult()
	case StateError:
		return m.viewError()
	}

	return ""
}

// viewBusy renders the spinner screen
func (m Model) viewBusy() string {
	title := titleStyle.Render("WeatherLink")
	status := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Render(m.status)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		"",
		title,
		"",
		fmt.Sprintf("%s %s", m.spinner.View(), status),
	)
}

func (m Model) viewList(l list.Model, subtitle, help string) string {
	var sections []string
	sections = append(sections, titleStyle.Render("WeatherLink"))
	if subtitle != "" {
		sections = append(sections, mutedStyle.Render(subtitle))
	}
	sections = append(sections, "", l.View(), "", helpStyle.Render(help))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// viewInput renders the date or ICAO prompt
func (m Model) viewInput() string {
	prompt := "Historical weather: start date and hour"
	if m.inputMode == generator.ModeMETAR {
		prompt = "METAR weather: airport"
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(48).
		Render(m.input.View())

	sections := []string{titleStyle.Render(prompt), "", box}
	if m.err != nil {
		sections = append(sections, "", errorStyle.Render("✗ "+m.err.Error()))
	}
	sections = append(sections, "", helpStyle.Render("Enter: Generate • Esc: Back"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// viewError renders the error view
func (m Model) viewError() string {
	title := errorStyle.Render("✗ Error")

	errorMsg := "An unknown error occurred"
	if m.err != nil {
		errorMsg = m.err.Error()
	}
	help := helpStyle.Render("Press any key to go back • Q: Quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		lipgloss.NewStyle().Width(max(m.width-4, 20)).Render(errorMsg),
		"",
		help,
	)
}
