package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ngmaloney/weatherlink/internal/actfile"
	"github.com/ngmaloney/weatherlink/internal/models"
)

// maxWeatherRows caps the existing weather changes listed on the details screen
const maxWeatherRows = 8

// viewDetails renders the activity and the generation keys
func (m Model) viewDetails() string {
	if m.details == nil || m.selectedActivity == nil {
		return "No activity selected"
	}
	d := m.details
	contentWidth := max(m.width-8, 20)

	var sections []string
	sections = append(sections, titleStyle.Render(d.Name))
	if m.selectedRoute != nil {
		sections = append(sections, mutedStyle.Render(fmt.Sprintf("%s • %s", m.selectedRoute.Name, m.selectedActivity.FileName)))
	}

	var info strings.Builder
	info.WriteString(labelStyle.Render("Season: ") + valueStyle.Render(d.Season.String()) + "\n")
	info.WriteString(labelStyle.Render("Start: ") + valueStyle.Render(formatClock(d.StartTimeS)) + "\n")
	if d.PathID != "" {
		info.WriteString(labelStyle.Render("Path: ") + valueStyle.Render(d.PathID) + "\n")
	}
	if d.Description != "" {
		info.WriteString("\n" + lipgloss.NewStyle().Width(contentWidth).Render(d.Description))
	}
	sections = append(sections, sectionBoxStyle.Render(strings.TrimRight(info.String(), "\n")))

	sections = append(sections, sectionHeaderStyle.Render("WEATHER CHANGES"), renderWeather(d.Weather))

	sections = append(sections,
		sectionHeaderStyle.Render("SOUNDS"),
		fmt.Sprintf("%s  %s  %s", toggle("T", "thunder", m.toggles.Thunder), toggle("W", "wind", m.toggles.Wind), toggle("R", "rain", m.toggles.Rain)),
	)

	if m.status != "" {
		sections = append(sections, "", successStyle.Render(m.status))
	}

	help := helpStyle.Render("L: Live • H: Historical • C: Chaotic • M: METAR • P: Preset • F: Save forecast as preset • Esc: Back")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWeather lists weather changes already in the activity
func renderWeather(events []models.WeatherEvent) string {
	if len(events) == 0 {
		return mutedStyle.Render("No weather changes in this activity")
	}

	var lines []string
	for i, e := range events {
		if i == maxWeatherRows {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("  ... and %d more", len(events)-maxWeatherRows)))
			break
		}
		name := e.Name
		if strings.HasPrefix(name, actfile.EventNamePrefix) {
			name = successStyle.Render(name)
		}
		lines = append(lines, fmt.Sprintf("  +%s %s  overcast %.0f%%, fog %.0f m, precip %.1f mm/h",
			formatClock(e.TimeS), name,
			e.Params.Overcast*100, e.Params.FogM, e.Params.Precipitation*1000))
	}
	return strings.Join(lines, "\n")
}

// viewResult renders a finished generation
func (m Model) viewResult() string {
	r := m.result
	if r == nil {
		return ""
	}

	var body strings.Builder
	body.WriteString(successStyle.Render("✓ New activity file created") + "\n\n")
	body.WriteString(labelStyle.Render("File: ") + valueStyle.Render(r.Path) + "\n")
	body.WriteString(labelStyle.Render("Events: ") + valueStyle.Render(fmt.Sprintf("%d weather, %d sound", r.WeatherEvents, r.SoundEvents)) + "\n")
	if r.SoundsInstalled > 0 {
		body.WriteString(labelStyle.Render("Sounds installed: ") + valueStyle.Render(fmt.Sprint(r.SoundsInstalled)) + "\n")
	}
	if r.Daylight != nil {
		body.WriteString(labelStyle.Render("Sunrise: ") + valueStyle.Render(r.Daylight.Sunrise) + "\n")
		body.WriteString(labelStyle.Render("Sunset: ") + valueStyle.Render(r.Daylight.Sunset) + "\n")
	}
	if r.Message != "" {
		body.WriteString("\n" + lipgloss.NewStyle().Width(max(m.width-8, 20)).Render(r.Message))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("WeatherLink"),
		"",
		sectionBoxStyle.Render(strings.TrimRight(body.String(), "\n")),
		helpStyle.Render("Press any key to continue"),
	)
}

func toggle(key, label string, on bool) string {
	if on {
		return successStyle.Render(fmt.Sprintf("[%s] %s on", key, label))
	}
	return warningStyle.Render(fmt.Sprintf("[%s] %s off", key, label))
}

// formatClock renders seconds after midnight as HH:MM
func formatClock(seconds int) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%02d:%02d", (seconds/3600)%24, (seconds%3600)/60)
}
