// Package errutils provides the error values shared across nupack.
// It defines sentinel errors grouped by domain, typed errors that carry the
// detail a caller needs (and unwrap to their sentinel so errors.Is works), and
// small wrapping helpers.
package errutils

import (
	"fmt"
	"strings"
)

// Common error types used throughout the application.
var (
	// Parsing errors for versions, version specs and platform profiles.
	ErrParse = fmt.Errorf("parse error")

	// Update errors.
	ErrUnknownPackageIDs   = fmt.Errorf("unknown package ids")
	ErrConstraintViolation = fmt.Errorf("constraint violation")
	ErrInvalidUpdateMode   = fmt.Errorf("invalid update mode")

	// Repository errors.
	ErrSourceUnavailable = fmt.Errorf("package source unavailable")
	ErrPackageNotFound   = fmt.Errorf("package not found")
	ErrInvalidPackage    = fmt.Errorf("invalid package")
	ErrAlreadyExists     = fmt.Errorf("resource already exists")

	// Derived metadata cache errors.
	ErrCacheComputation = fmt.Errorf("failed to compute derived package data")

	// Project reference store errors.
	ErrReferenceNotFound = fmt.Errorf("package reference not found")

	// Config errors are related to configuration file operations and validation.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to rename temporary config file")

	// ErrConfigFileExists is returned when attempting to create a configuration file that already exists.
	ErrConfigFileExists = fmt.Errorf("configuration file already exists (use --force to overwrite)")

	// Settings validation errors.
	ErrMaxConcurrentInvalid = fmt.Errorf("max_concurrent must be at least 1")
	ErrWaitTimeoutNegative  = fmt.Errorf("cache_wait_timeout cannot be negative")
	ErrInvalidLogLevel      = fmt.Errorf("invalid log level")
	ErrInvalidOutputFormat  = fmt.Errorf("invalid output format")

	// Source configuration errors.
	ErrSourceNameEmpty = fmt.Errorf("source name cannot be empty")
	ErrSourcePathEmpty = fmt.Errorf("source path cannot be empty")
	ErrSourceExists    = fmt.Errorf("source already exists")
	ErrSourceNotFound  = fmt.Errorf("source not found")
	ErrNoSources       = fmt.Errorf("no package sources configured")

	// Hook errors.
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ParseError reports input that could not be parsed as a version, a version
// spec or a platform profile.
type ParseError struct {
	Kind   string // "version", "version spec", "profile", ...
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s %q", e.Kind, e.Input)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// NewParseError returns a *ParseError.
func NewParseError(kind, input, reason string) error {
	return &ParseError{Kind: kind, Input: input, Reason: reason}
}

// UnknownPackageIDsError lists requested ids that are not installed.
type UnknownPackageIDsError struct {
	IDs []string
}

func (e *UnknownPackageIDsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownPackageIDs, strings.Join(e.IDs, ", "))
}

func (e *UnknownPackageIDsError) Unwrap() error { return ErrUnknownPackageIDs }

// ConstraintViolationError is returned when a reference update would break a
// dependency constraint.
type ConstraintViolationError struct {
	PackageID   string
	Version     string
	DependentID string
	Spec        string
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("%s: %s %s does not satisfy %s required by %s",
		ErrConstraintViolation, e.PackageID, e.Version, e.Spec, e.DependentID)
}

func (e *ConstraintViolationError) Unwrap() error { return ErrConstraintViolation }

// CacheComputationError wraps the failure of a derived data computation.
type CacheComputationError struct {
	Key string
	Err error
}

func (e *CacheComputationError) Error() string {
	return fmt.Sprintf("%s for %s: %v", ErrCacheComputation, e.Key, e.Err)
}

func (e *CacheComputationError) Unwrap() []error { return []error{ErrCacheComputation, e.Err} }

// ErrSourceUnavailableWithName returns an error for an unreachable source.
func ErrSourceUnavailableWithName(name string) error {
	return fmt.Errorf("%w: %s", ErrSourceUnavailable, name)
}

// ErrPackageNotFoundWithID returns an error for a package that does not exist.
func ErrPackageNotFoundWithID(id, version string) error {
	return fmt.Errorf("%w: %s %s", ErrPackageNotFound, id, version)
}

// ErrSourceExistsWithName returns an error for a duplicate source name.
func ErrSourceExistsWithName(name string) error {
	return fmt.Errorf("%w: %s", ErrSourceExists, name)
}

// ErrSourceNotFoundWithName returns an error for a missing source.
func ErrSourceNotFoundWithName(name string) error {
	return fmt.Errorf("%w: %s", ErrSourceNotFound, name)
}

// ErrSourceNameEmptyWithIndex reports an unnamed source entry.
func ErrSourceNameEmptyWithIndex(index int) error {
	return fmt.Errorf("%w (source at index %d)", ErrSourceNameEmpty, index)
}

// ErrSourcePathEmptyWithName reports a source without a path.
func ErrSourcePathEmptyWithName(name string) error {
	return fmt.Errorf("%w: %s", ErrSourcePathEmpty, name)
}

// ErrInvalidLogLevelWithDetails reports an unsupported log level.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: %s (must be one of: debug, info, warn, error)", ErrInvalidLogLevel, level)
}

// ErrInvalidOutputFormatWithDetails reports an unsupported output format.
func ErrInvalidOutputFormatWithDetails(format string) error {
	return fmt.Errorf("%w: %s (must be one of: text, json, yaml)", ErrInvalidOutputFormat, format)
}

// ErrConfigFileExistsWithPath reports an existing config file.
func ErrConfigFileExistsWithPath(path string) error {
	return fmt.Errorf("%w: %s", ErrConfigFileExists, path)
}
