package railmap

import "errors"

var (
	ErrNoSurface          = errors.New("railmap: drawing surface is required")
	ErrDetached           = errors.New("railmap: no surface attached")
	ErrInvalidConfig      = errors.New("railmap: invalid config")
	ErrMissingStation     = errors.New("railmap: connection references unknown station")
	ErrDuplicateStation   = errors.New("railmap: duplicate station label")
	ErrAmbiguousRouteStep = errors.New("railmap: route step matches more than one connection")
	ErrRouteStepUnmatched = errors.New("railmap: route step matches no connection")
	ErrUnknownGroup       = errors.New("railmap: unknown group")
	ErrUnknownStation     = errors.New("railmap: unknown station")
	ErrUnknownConnection  = errors.New("railmap: unknown connection")
)

// DiagnosticKind classifies recoverable problems reported while ingesting
// data, building a route or applying configuration.
type DiagnosticKind string

const (
	DiagMissingStation   DiagnosticKind = "missing_station"
	DiagDuplicateStation DiagnosticKind = "duplicate_station"
	DiagAmbiguousRoute   DiagnosticKind = "ambiguous_route_step"
	DiagUnmatchedRoute   DiagnosticKind = "unmatched_route_step"
	DiagInvalidConfig    DiagnosticKind = "invalid_config"
)

// Diagnostic is a single recoverable problem. Err wraps one of the package
// sentinels so callers can match it with errors.Is.
type Diagnostic struct {
	Kind DiagnosticKind
	Err  error
}

func (d Diagnostic) Error() string {
	if d.Err == nil {
		return string(d.Kind)
	}
	return d.Err.Error()
}

func (d Diagnostic) Unwrap() error { return d.Err }

// DiagnosticFunc receives diagnostics synchronously on the calling goroutine.
type DiagnosticFunc func(Diagnostic)
