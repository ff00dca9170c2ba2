package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is matching. The typed errors below wrap these
// so callers can branch on category without inspecting the concrete type.
var (
	ErrNotFound      = errors.New("not found")
	ErrAmbiguous     = errors.New("ambiguous identifier")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidState  = errors.New("invalid state")
	ErrExternalTool  = errors.New("external tool failure")
	ErrSegmentation  = errors.New("segmentation inconsistency")
)

// NotFoundError reports that an entity or short-ID prefix matched nothing.
type NotFoundError struct {
	Entity string // entity kind, e.g. "session"
	Ref    string // the ID or prefix that failed to resolve
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Ref)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AmbiguousError reports a short-ID prefix matching more than one candidate.
type AmbiguousError struct {
	Entity  string
	Prefix  string
	Matches []string // full IDs of all candidates that matched
}

func (e *AmbiguousError) Error() string {
	shorts := make([]string, 0, len(e.Matches))
	for i, m := range e.Matches {
		if i == 3 {
			shorts = append(shorts, "...")
			break
		}
		shorts = append(shorts, strings.ReplaceAll(m, "-", "")[:8])
	}
	return fmt.Sprintf("ambiguous %s prefix %q (%d matches: %s)",
		e.Entity, e.Prefix, len(e.Matches), strings.Join(shorts, ", "))
}

func (e *AmbiguousError) Is(target error) bool { return target == ErrAmbiguous }

// AlreadyExistsError reports a duplicate slug, name, or path.
type AlreadyExistsError struct {
	Entity string
	Key    string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

// InvalidStateError reports an operation rejected by an entity's current
// state, e.g. removing a worktree with active sessions without force.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string { return e.Reason }

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// ExternalToolError wraps a failed version-control subprocess, preserving
// its diagnostic output.
type ExternalToolError struct {
	Tool   string // e.g. "git clone"
	Output string // combined stdout/stderr of the failed invocation
	Err    error
}

func (e *ExternalToolError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s: %v: %s", e.Tool, e.Err, strings.TrimSpace(e.Output))
	}
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

func (e *ExternalToolError) Is(target error) bool { return target == ErrExternalTool }

// SegmentationError reports a gap or overlap in task message ranges
// produced by transcript import.
type SegmentationError struct {
	Kind   string // "gap" or "overlap"
	Index  int    // message index where the inconsistency was detected
	Detail string
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("message range %s at index %d: %s", e.Kind, e.Index, e.Detail)
}

func (e *SegmentationError) Is(target error) bool { return target == ErrSegmentation }
