// Package sounds discovers the user's ambient sound collection and installs
// chosen files into Open Rails routes.
package sounds

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/ngmaloney/weatherlink/internal/models"
)

//go:embed sounds.json
var defaultDefinitions []byte

// definitionRecord is one entry of a sound definitions file
type definitionRecord struct {
	Category  string `json:"category" validate:"required,category"`
	Condition string `json:"condition" validate:"required"`
	Pattern   string `json:"pattern" validate:"required"`
	SoundType string `json:"sound_type"`
}

var validate = newValidator()

// categoryName limits a category to characters that are safe both as a
// directory name and inside an unquoted SMS token.
var categoryName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return categoryName.MatchString(fl.Field().String())
	})
	return v
}

// LoadDefinitions reads a definitions file. A missing file falls back to the
// built-in definitions.
func LoadDefinitions(path string) ([]models.SoundDefinition, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultDefinitions()
	}
	if err != nil {
		return nil, fmt.Errorf("reading sound definitions: %w", err)
	}
	return ParseDefinitions(data)
}

// DefaultDefinitions returns the definitions shipped with the program
func DefaultDefinitions() ([]models.SoundDefinition, error) {
	return ParseDefinitions(defaultDefinitions)
}

// ParseDefinitions decodes and validates a JSON definitions list
func ParseDefinitions(data []byte) ([]models.SoundDefinition, error) {
	var records []definitionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing sound definitions: %w", err)
	}

	defs := make([]models.SoundDefinition, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		if err := validate.Struct(r); err != nil {
			return nil, fmt.Errorf("sound definition %d: %w", i, err)
		}
		if seen[r.Category] {
			return nil, fmt.Errorf("sound definition %d: duplicate category %q", i, r.Category)
		}
		seen[r.Category] = true

		cond, err := models.ParseCondition(r.Condition)
		if err != nil {
			return nil, fmt.Errorf("sound definition %d: %w", i, err)
		}
		scope, err := models.ParseSoundScope(r.SoundType)
		if err != nil {
			return nil, fmt.Errorf("sound definition %d: %w", i, err)
		}
		defs = append(defs, models.SoundDefinition{
			Category:  r.Category,
			Condition: cond,
			Pattern:   r.Pattern,
			Scope:     scope,
		})
	}
	return defs, nil
}
