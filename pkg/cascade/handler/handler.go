// Package handler decodes archives. Each supported container format has
// one FormatHandler, and a Registry selects between them by the format
// derived from the filename.
//
// Handlers report one of three outcomes. WrongPassword means the password
// did not decrypt the archive and the caller should try the next one.
// Failure means the archive cannot be extracted with any password. An
// entry whose write was cut short by either outcome is removed.
package handler

import (
	"context"

	"github.com/jamesainslie/cascade/pkg/cascade/classify"
	"github.com/jamesainslie/cascade/pkg/cascade/logging"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/handler_mock.go -package=mocks . FormatHandler

// Outcome is the result class of one extraction attempt.
type Outcome int

const (
	Success Outcome = iota
	WrongPassword
	Failure
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case WrongPassword:
		return "wrong-password"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Result describes one extraction attempt.
type Result struct {
	Outcome Outcome
	// Err is the underlying decoder or I/O error for WrongPassword and
	// Failure.
	Err error
	// Entries and Bytes count the files written on Success.
	Entries int
	Bytes   int64
}

// Failed returns a Failure result wrapping err.
func Failed(err error) Result {
	return Result{Outcome: Failure, Err: err}
}

func wrongPassword(err error) Result {
	return Result{Outcome: WrongPassword, Err: err}
}

// Request is one extraction attempt: which archive, with which password,
// into which directory. For multipart operations Archive is the first
// volume.
type Request struct {
	Archive   string
	Password  string
	OutputDir string
}

// FormatHandler extracts archives of one container format.
type FormatHandler interface {
	// Extract extracts a single-volume archive.
	Extract(ctx context.Context, req Request) Result
	// ExtractMultipart extracts the multi-volume set whose first volume
	// is req.Archive.
	ExtractMultipart(ctx context.Context, req Request) Result
}

// Registry maps container formats to handlers.
type Registry struct {
	handlers map[classify.Format]FormatHandler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[classify.Format]FormatHandler)}
}

// Register sets the handler for format, replacing any previous one.
func (r *Registry) Register(format classify.Format, h FormatHandler) {
	r.handlers[format] = h
}

// For returns the handler registered for format.
func (r *Registry) For(format classify.Format) (FormatHandler, bool) {
	h, ok := r.handlers[format]
	return h, ok
}

// DefaultRegistry returns a registry with the ZIP, 7z and RAR handlers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(classify.FormatZip, NewZip())
	r.Register(classify.FormatSevenZip, NewSevenZip())
	r.Register(classify.FormatRar, NewRar())
	return r
}

// begin runs the checks shared by every handler before decoding: the
// archive content must match format and the output directory must exist.
func begin(req Request, format classify.Format) error {
	if err := checkContent(req.Archive, format); err != nil {
		return err
	}
	return prepareOutputDir(req.OutputDir)
}

func logger() *logging.Logger {
	return logging.Get("handler")
}
