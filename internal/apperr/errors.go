// Package apperr defines the error taxonomy shared by every generation stage.
package apperr

import (
	"errors"
	"fmt"
)

// Code categorizes a failure.
type Code string

const (
	CodeProvider       Code = "provider"
	CodeIncompleteData Code = "incomplete_data"
	CodeFileStructure  Code = "file_structure"
	CodeIO             Code = "io"
	CodeEncoding       Code = "encoding"
	CodeValidation     Code = "validation"
)

// Stage names the step of a generation run that failed.
type Stage string

const (
	StageFetch             Stage = "fetching weather"
	StageBuild             Stage = "building timeline"
	StageCopy              Stage = "copying activity"
	StageDetectEncoding    Stage = "detecting encoding"
	StageRewriteFields     Stage = "rewriting fields"
	StageSpliceEvents      Stage = "splicing events"
	StageWrite             Stage = "writing activity"
	StageResolveLocation   Stage = "resolving location"
	StageInstallSound      Stage = "installing sound"
	StageLoadConfiguration Stage = "loading configuration"
)

// Error is the structured error returned across package boundaries.
type Error struct {
	Code    Code
	Stage   Stage
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix := string(e.Code)
	if e.Stage != "" {
		prefix = fmt.Sprintf("%s while %s", e.Code, e.Stage)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error.
func New(code Code, stage Stage, message string, err error) *Error {
	return &Error{Code: code, Stage: stage, Message: message, Err: err}
}

// Is reports whether err is an *Error carrying code.
func Is(err error, code Code) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// StageOf returns the stage recorded on err, or "" if none.
func StageOf(err error) Stage {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Stage
	}
	return ""
}
