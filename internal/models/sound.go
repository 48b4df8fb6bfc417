package models

import (
	"fmt"
	"strings"
)

// SoundScope is where in the train an activity sound is audible
type SoundScope string

const (
	ScopeCab        SoundScope = "Cab"
	ScopePass       SoundScope = "Pass"
	ScopeEverywhere SoundScope = "Everywhere"
)

// ParseSoundScope parses a scope name, case-insensitively.
// An empty string means Everywhere.
func ParseSoundScope(s string) (SoundScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "everywhere":
		return ScopeEverywhere, nil
	case "cab":
		return ScopeCab, nil
	case "pass":
		return ScopePass, nil
	}
	return "", fmt.Errorf("unknown sound scope %q", s)
}

// SoundDefinition binds a sound category to its trigger condition
type SoundDefinition struct {
	Category  string
	Condition Condition
	Pattern   string // glob relative to the user sounds folder
	Scope     SoundScope
}

// SoundEntry is one candidate sound file of a category
type SoundEntry struct {
	Path      string
	DurationS float64
	Scope     SoundScope
	Hash      string
}

// SoundEvent is one timed ORTSActivitySound outcome
type SoundEvent struct {
	ID              string
	Name            string
	TimeS           int
	FilenameInRoute string
	Scope           SoundScope
	Category        string
	DurationS       float64
}
