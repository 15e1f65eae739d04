// Package host backs the jit's host-facing surface: logging, assembly
// resolution, and error formatting that a real managed runtime would provide
// and the jit core only consumes. Grounded on the teacher's own use of a
// constructed, leveled logger passed down through its runtime config
// (wazero's RuntimeConfig carries no logger of its own, but its experimental
// function-listener package follows the same "host supplies an interface,
// core calls it" shape this package reproduces for diagnostics).
package host

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrAssemblyNotFound is returned by AssemblyResolver.Resolve when no
// configured search directory contains the requested assembly.
var ErrAssemblyNotFound = errors.New("host: assembly not found")

// Config selects the host's runtime behavior. Debug sets how verbosely
// NewLogger logs. AssemblyPaths lists assembly search directories; NewLogger
// does not read it, and NewAssemblyResolver takes its paths directly.
type Config struct {
	Debug         bool
	AssemblyPaths []string
}

// Logger wraps a *zap.Logger with the three-level trace/warn/error surface
// the jit core's host abstraction names. zap has no trace level, so Trace is
// deliberately routed to Debug rather than inventing one.
type Logger struct {
	z *zap.Logger
}

// NewLogger builds a Logger whose verbosity follows cfg.Debug.
func NewLogger(cfg Config) (*Logger, error) {
	var z *zap.Logger
	var err error
	if cfg.Debug {
		z, err = zap.NewDevelopment()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		return nil, errors.Wrap(err, "host: building logger")
	}
	return &Logger{z: z}, nil
}

func (l *Logger) Trace(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }

// Sync flushes any buffered log entries, matching zap's own recommended
// deferred-call-at-shutdown idiom.
func (l *Logger) Sync() error { return l.z.Sync() }

// Unwrap returns the underlying *zap.Logger for packages that want to build
// on it directly (frontend.NewTranslator takes a *zap.Logger, for instance).
func (l *Logger) Unwrap() *zap.Logger { return l.z }

// AssemblyResolver resolves an assembly by name to a readable file, searching
// a configured list of directories in order.
type AssemblyResolver struct {
	paths []string
}

// NewAssemblyResolver returns a resolver searching paths in order.
func NewAssemblyResolver(paths []string) *AssemblyResolver {
	return &AssemblyResolver{paths: paths}
}

// Resolve finds name.dll under one of the resolver's search directories and
// returns it open for reading. majorVersion is accepted for interface parity
// with the host surface's resolve_assembly but is not consulted: this
// resolver has no assembly versioning scheme to check it against.
func (r *AssemblyResolver) Resolve(name string, majorVersion int) (io.ReadCloser, error) {
	for _, dir := range r.paths {
		p := filepath.Join(dir, name+".dll")
		f, err := os.Open(p)
		if err == nil {
			return f, nil
		}
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "host: opening %s", p)
		}
	}
	return nil, errors.Wrapf(ErrAssemblyNotFound, "%s (major version %d)", name, majorVersion)
}

// ErrorToString formats err's full wrapped-error chain, backing the host
// surface's error_to_string(code) -> string.
func ErrorToString(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%+v", err)
}
