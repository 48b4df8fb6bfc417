package models

import (
	"fmt"
	"strings"
)

// Condition is a discrete weather condition that can trigger ambient sounds
type Condition int

const (
	Thunderstorm Condition = iota
	Blizzard
	Windy
	LightRain
	MediumRain
	HeavyRain
)

var conditionNames = [...]string{
	Thunderstorm: "thunderstorm",
	Blizzard:     "blizzard",
	Windy:        "windy",
	LightRain:    "light_rain",
	MediumRain:   "medium_rain",
	HeavyRain:    "heavy_rain",
}

// AllConditions lists every condition in declaration order
var AllConditions = []Condition{Thunderstorm, Blizzard, Windy, LightRain, MediumRain, HeavyRain}

func (c Condition) String() string {
	if c < 0 || int(c) >= len(conditionNames) {
		return fmt.Sprintf("condition(%d)", int(c))
	}
	return conditionNames[c]
}

// ParseCondition parses the textual form used in sound definition files
func ParseCondition(s string) (Condition, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range conditionNames {
		if name == s {
			return Condition(i), nil
		}
	}
	return 0, fmt.Errorf("unknown condition %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (c Condition) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Condition) UnmarshalText(b []byte) error {
	parsed, err := ParseCondition(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ConditionSet is a set of conditions active in one slot
type ConditionSet uint8

// Add returns the set with c added
func (s ConditionSet) Add(c Condition) ConditionSet {
	return s | 1<<uint(c)
}

// Has reports whether c is in the set
func (s ConditionSet) Has(c Condition) bool {
	return s&(1<<uint(c)) != 0
}

// Empty reports whether the set has no conditions
func (s ConditionSet) Empty() bool {
	return s == 0
}

// List returns the conditions in the set in declaration order
func (s ConditionSet) List() []Condition {
	var out []Condition
	for _, c := range AllConditions {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s ConditionSet) String() string {
	names := make([]string, 0, 6)
	for _, c := range s.List() {
		names = append(names, c.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}

// Toggles switch ambient sound families on or off
type Toggles struct {
	Thunder bool
	Wind    bool
	Rain    bool
}

// AllSounds enables every sound family
func AllSounds() Toggles {
	return Toggles{Thunder: true, Wind: true, Rain: true}
}
