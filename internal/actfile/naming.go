package actfile

import (
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const (
	// ToolTag marks generated files, titles and events
	ToolTag = "WTHLINK"

	fileTagSep  = "." + ToolTag + "."
	titleTagPre = "[" + ToolTag
)

// Variant distinguishes generated files of the same activity
type Variant string

const (
	VariantChaotic Variant = "CHAOTIC"
	VariantManual  Variant = "MANUAL"
)

// DateVariant names a file generated from the weather of one day
func DateVariant(t time.Time) Variant {
	return Variant(t.Format("20060102"))
}

// METARVariant names a file generated from an airport observation
func METARVariant(icao string) Variant {
	return Variant("METAR_" + strings.ToUpper(strings.TrimSpace(icao)))
}

// LabelVariant names a file generated from a preset or manual label.
// Characters that are not safe in a file name become underscores.
func LabelVariant(label string) Variant {
	clean := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-') {
			return r
		}
		return '_'
	}, strings.TrimSpace(label))
	clean = strings.Trim(clean, "_")
	if clean == "" {
		return VariantManual
	}
	return Variant(clean)
}

// Tag is the marker appended to a generated activity's display name
func (v Variant) Tag() string {
	return ToolTag + "." + string(v)
}

// DerivedPath returns the path of the generated copy of original, beside it.
// Any earlier tool suffix on the stem is replaced, not stacked.
func DerivedPath(original string, v Variant) string {
	dir, base := filepath.Split(original)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.Index(strings.ToUpper(stem), fileTagSep); i >= 0 {
		stem = stem[:i]
	}
	return filepath.Join(dir, stem+fileTagSep+string(v)+".act")
}

// IsGenerated reports whether name is a file written by DerivedPath
func IsGenerated(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".act") && strings.Contains(strings.ToUpper(name), fileTagSep)
}

// StripTitleTags removes every trailing " [WTHLINK...]" tag from name
func StripTitleTags(name string) string {
	s := strings.TrimRight(name, " \t")
	for strings.HasSuffix(s, "]") {
		i := strings.LastIndex(s, titleTagPre)
		if i < 0 || strings.Contains(s[i:len(s)-1], "]") {
			break
		}
		s = strings.TrimRight(s[:i], " \t")
	}
	return s
}

// TagTitle returns name carrying exactly one tag for v
func TagTitle(name string, v Variant) string {
	base := StripTitleTags(name)
	if base == "" {
		return "[" + v.Tag() + "]"
	}
	return base + " [" + v.Tag() + "]"
}
