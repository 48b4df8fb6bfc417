package actfile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ngmaloney/weatherlink/internal/apperr"
	"github.com/ngmaloney/weatherlink/internal/models"
)

// Stage is a step of one ModifyAndSave call
type Stage int

const (
	Idle Stage = iota
	CopyingFile
	DetectingEncoding
	RewritingFields
	SplicingEvents
	Writing
	Done
	Failed
)

var stageNames = [...]string{
	Idle:              "idle",
	CopyingFile:       "copying file",
	DetectingEncoding: "detecting encoding",
	RewritingFields:   "rewriting fields",
	SplicingEvents:    "splicing events",
	Writing:           "writing",
	Done:              "done",
	Failed:            "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "stage(" + strconv.Itoa(int(s)) + ")"
	}
	return stageNames[s]
}

// EventNamePrefix starts the Name of every event this tool injects
const EventNamePrefix = ToolTag + "_"

// Writer writes generated copies of activity files
type Writer struct {
	logger *slog.Logger
	// OnStage, when set, is called as each stage begins
	OnStage func(Stage)
}

// NewWriter creates a Writer; a nil logger uses slog.Default()
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

func (w *Writer) enter(s Stage) {
	if w.OnStage != nil {
		w.OnStage(s)
	}
}

// ModifyAndSave writes a copy of the activity at originalPath with block
// injected into its Events, its title tagged for variant and, when season
// is set, its season replaced. The original file is never modified. On
// failure the partially written copy is left in place.
func (w *Writer) ModifyAndSave(originalPath, block string, variant Variant, season *models.Season) (newPath string, err error) {
	w.enter(Idle)
	defer func() {
		if err != nil {
			w.enter(Failed)
			w.logger.Error("activity generation failed", "original", originalPath, "error", err)
			return
		}
		w.enter(Done)
	}()

	w.enter(CopyingFile)
	data, err := os.ReadFile(originalPath)
	if err != nil {
		return "", apperr.New(apperr.CodeIO, apperr.StageCopy, "could not read activity", err)
	}
	perm := os.FileMode(0o644)
	if info, statErr := os.Stat(originalPath); statErr == nil {
		perm = info.Mode().Perm()
	}
	newPath = DerivedPath(originalPath, variant)
	if strings.EqualFold(filepath.Clean(newPath), filepath.Clean(originalPath)) {
		return "", apperr.New(apperr.CodeValidation, apperr.StageCopy,
			filepath.Base(originalPath)+" is already the "+string(variant)+" version; generate from the original activity", nil)
	}
	if err := os.WriteFile(newPath, data, perm); err != nil {
		return "", apperr.New(apperr.CodeIO, apperr.StageCopy, "could not copy activity to "+newPath, err)
	}

	w.enter(DetectingEncoding)
	text, enc, err := Decode(data)
	if err != nil {
		return "", apperr.New(apperr.CodeEncoding, apperr.StageDetectEncoding, "unsupported activity encoding", err)
	}
	w.logger.Debug("activity decoded", "path", newPath, "encoding", enc)

	w.enter(RewritingFields)
	if tagged, ok := RetagTitle(text, variant); ok {
		text = tagged
	} else {
		w.logger.Warn("activity name not found, title left unchanged", "path", newPath)
	}
	if season != nil {
		if updated, ok := SetSeason(text, *season); ok {
			text = updated
		} else {
			w.logger.Warn("activity season not found, season left unchanged", "path", newPath, "season", season.String())
		}
	}

	w.enter(SplicingEvents)
	text, removed, err := SpliceEvents(text, block)
	if err != nil {
		return "", apperr.New(apperr.CodeFileStructure, apperr.StageSpliceEvents, "no safe injection point", err)
	}
	if removed > 0 {
		w.logger.Info("removed previously generated events", "path", newPath, "count", removed)
	}

	w.enter(Writing)
	out, err := Encode(text, enc)
	if err != nil {
		return "", apperr.New(apperr.CodeEncoding, apperr.StageWrite, "could not encode activity as "+enc.String(), err)
	}
	if err := os.WriteFile(newPath, out, perm); err != nil {
		return "", apperr.New(apperr.CodeIO, apperr.StageWrite, "could not write "+newPath, err)
	}

	w.logger.Info("activity written", "path", newPath, "encoding", enc, "variant", string(variant))
	return newPath, nil
}

// RetagTitle rewrites the first quoted Name field so it carries exactly one
// tag for variant. It reports false when no such field exists.
func RetagTitle(text string, variant Variant) (string, bool) {
	groups, err := Scan(text)
	if err != nil {
		return text, false
	}
	g, ok := First(text, groups, "Name", isQuoted)
	if !ok {
		return text, false
	}
	name, _ := Unquote(g.Inner(text))
	return replaceInner(text, g, " "+Quote(TagTitle(name, variant))+" "), true
}

// SetSeason rewrites the first single-digit Season field
func SetSeason(text string, season models.Season) (string, bool) {
	groups, err := Scan(text)
	if err != nil {
		return text, false
	}
	g, ok := First(text, groups, "Season", isDigit)
	if !ok {
		return text, false
	}
	return replaceInner(text, g, " "+strconv.Itoa(int(season))+" "), true
}

// SpliceEvents removes every event named with EventNamePrefix from the first
// Events container and inserts block at its start. Other events are kept in
// their original order. Splicing the same block twice gives the same text.
func SpliceEvents(text, block string) (string, int, error) {
	groups, err := Scan(text)
	if err != nil {
		return "", 0, err
	}
	events, ok := First(text, groups, "Events", nil)
	if !ok {
		return "", 0, fmt.Errorf("no Events container")
	}

	var kept strings.Builder
	cursor := events.Open + 1
	removed := 0
	for _, child := range Children(groups, events) {
		if !isGenerated(text, groups, child) {
			continue
		}
		// drop the event together with the whitespace leading up to it
		start := child.Start
		for start > cursor && isSpace(text[start-1]) {
			start--
		}
		kept.WriteString(text[cursor:start])
		cursor = child.End
		removed++
	}
	kept.WriteString(text[cursor : events.End-1])

	nl := lineEnding(text)
	indent := indentOf(text, events.Start)
	var inner strings.Builder
	inner.WriteString(nl)
	if block != "" {
		inner.WriteString(strings.ReplaceAll(strings.ReplaceAll(block, "\r\n", "\n"), "\n", nl))
		inner.WriteString(nl)
	}
	if rest := strings.TrimSpace(kept.String()); rest != "" {
		inner.WriteString(indent + "\t" + rest + nl)
	}
	inner.WriteString(indent)

	return replaceInner(text, events, inner.String()), removed, nil
}

func isGenerated(text string, groups []Group, event Group) bool {
	name, ok := Child(groups, event, "Name")
	if !ok {
		return false
	}
	return strings.HasPrefix(Value(name.Inner(text)), EventNamePrefix)
}

// indentOf returns the leading whitespace of the line holding offset
func indentOf(text string, offset int) string {
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	indent := text[lineStart:offset]
	if strings.TrimSpace(indent) != "" {
		return "\t"
	}
	return indent
}

func replaceInner(text string, g Group, inner string) string {
	return text[:g.Open+1] + inner + text[g.End-1:]
}

func isQuoted(inner string) bool {
	_, ok := Unquote(inner)
	return ok
}

func isDigit(inner string) bool {
	s := strings.TrimSpace(inner)
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}
