package dadf5

import (
	"fmt"
	"strings"
)

// deco implements the Decorate part of Error for every error type of the package.
type deco []string

func (d *deco) decorate(dec string) []string {
	if dec == "" {
		return *d
	}
	*d = append(*d, dec)
	return *d
}

func (d deco) trace() string {
	if len(d) == 0 {
		return ""
	}
	return " (" + strings.Join(d, " <- ") + ")"
}

// VersionError is returned by Open for containers written with an
// unsupported layout version.
type VersionError struct {
	File         string
	Major, Minor int64
	deco         deco
}

func (err *VersionError) Error() string {
	return fmt.Sprintf("unsupported DADF5 version %d.%d in %s%s", err.Major, err.Minor, err.File, err.deco.trace())
}

func (err *VersionError) Decorate(dec string) []string { return err.deco.decorate(dec) }
func (err *VersionError) Critical() bool               { return true }
func (err *VersionError) FileName() string             { return err.File }

// FormatError is returned by Open when a required part of the container
// is missing or malformed.
type FormatError struct {
	File    string
	Message string
	Err     error
	deco    deco
}

func (err *FormatError) Error() string {
	msg := fmt.Sprintf("%s: %s", err.File, err.Message)
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg + err.deco.trace()
}

func (err *FormatError) Unwrap() error                { return err.Err }
func (err *FormatError) Decorate(dec string) []string { return err.deco.decorate(dec) }
func (err *FormatError) Critical() bool               { return true }
func (err *FormatError) FileName() string             { return err.File }

// ConsistencyError is returned by a guarded iteration when the visible
// set it walks was changed by somebody else during the walk.
type ConsistencyError struct {
	Dimension Dimension
	Expected  []string
	Found     []string
	deco      deco
}

func (err *ConsistencyError) Error() string {
	return fmt.Sprintf("visible %s changed during iteration: expected %v, found %v%s", err.Dimension, err.Expected, err.Found, err.deco.trace())
}

func (err *ConsistencyError) Decorate(dec string) []string { return err.deco.decorate(dec) }
func (err *ConsistencyError) Critical() bool               { return true }

// TransformError is returned by Compute when a transform fails for a group.
type TransformError struct {
	Transform string
	Group     string
	Err       error
	deco      deco
}

func (err *TransformError) Error() string {
	if err.Transform == "" {
		return fmt.Sprintf("transform failed in %s: %v%s", err.Group, err.Err, err.deco.trace())
	}
	return fmt.Sprintf("transform %s failed in %s: %v%s", err.Transform, err.Group, err.Err, err.deco.trace())
}

func (err *TransformError) Unwrap() error                { return err.Err }
func (err *TransformError) Decorate(dec string) []string { return err.deco.decorate(dec) }
func (err *TransformError) Critical() bool               { return true }

// errDecorate adds caller to err if err implements Error, and returns err.
func errDecorate(err error, caller string) error {
	if e, ok := err.(Error); ok {
		e.Decorate(caller)
	}
	return err
}
