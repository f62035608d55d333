package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode   Phase = "decode"   // bytes to Table
	PhaseEncode   Phase = "encode"   // Table to bytes
	PhaseValidate Phase = "validate" // structural and index checks
	PhaseLoad     Phase = "load"     // catalog folder loading
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindBufferUnderrun     Kind = "buffer_underrun"
	KindBackwardSeek       Kind = "backward_seek"
	KindMagicMismatch      Kind = "magic_mismatch"
	KindUnknownClassKind   Kind = "unknown_class_kind"
	KindIndexInconsistency Kind = "index_inconsistency"
	KindClassMismatch      Kind = "class_mismatch"
	KindInvalidLayout      Kind = "invalid_layout"
	KindNotFound           Kind = "not_found"
	KindInvalidInput       Kind = "invalid_input"
)

// Sentinels for errors.Is. They match any phase.
var (
	ErrBufferUnderrun     = &Error{Kind: KindBufferUnderrun}
	ErrBackwardSeek       = &Error{Kind: KindBackwardSeek}
	ErrMagicMismatch      = &Error{Kind: KindMagicMismatch}
	ErrUnknownClassKind   = &Error{Kind: KindUnknownClassKind}
	ErrIndexInconsistency = &Error{Kind: KindIndexInconsistency}
	ErrClassMismatch      = &Error{Kind: KindClassMismatch}
	ErrInvalidLayout      = &Error{Kind: KindInvalidLayout}
	ErrNotFound           = &Error{Kind: KindNotFound}
)

// Error is the structured error type used throughout omadb.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	// Offset is the absolute byte offset the error refers to, or -1.
	Offset int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Offset >= 0 {
		fmt.Fprintf(&b, " (offset 0x%x)", e.Offset)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a
// phase matches errors of the same kind in any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// WithPath returns a copy of e whose path is prefixed by path. Kind,
// phase, offset and value are preserved.
func (e *Error) WithPath(path ...string) *Error {
	c := *e
	c.Path = append(append([]string(nil), path...), e.Path...)
	return &c
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Path sets the location path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Offset sets the absolute byte offset
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Underrun is the Value of a buffer_underrun error.
type Underrun struct {
	Requested int
	Remaining int
}

// Seek is the Value of a backward_seek error.
type Seek struct {
	Target   int
	Position int
}

// Magic is the Value of a magic_mismatch error.
type Magic struct {
	Expected uint32
	Actual   uint32
}

// Inconsistency is the Value of an index_inconsistency error.
type Inconsistency struct {
	Axis   string
	Detail string
}

// BufferUnderrun creates an error for a read past the end of the buffer
func BufferUnderrun(off, requested, remaining int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindBufferUnderrun,
		Offset: off,
		Detail: fmt.Sprintf("requested %d bytes, %d remaining", requested, remaining),
		Value:  Underrun{Requested: requested, Remaining: remaining},
	}
}

// BackwardSeek creates an error for a seek to an offset already consumed
func BackwardSeek(target, position int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindBackwardSeek,
		Offset: position,
		Detail: fmt.Sprintf("target 0x%x precedes current position 0x%x", target, position),
		Value:  Seek{Target: target, Position: position},
	}
}

// MagicMismatch creates an error for a missing header constant
func MagicMismatch(off int, expected, actual uint32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMagicMismatch,
		Offset: off,
		Detail: fmt.Sprintf("expected 0x%08x, actual 0x%08x", expected, actual),
		Value:  Magic{Expected: expected, Actual: actual},
	}
}

// UnknownClassKind creates an error for an unsupported class tag
func UnknownClassKind(off int, tag string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownClassKind,
		Offset: off,
		Detail: fmt.Sprintf("unknown class kind %q", tag),
		Value:  tag,
	}
}

// IndexInconsistency creates a validation finding for a GPLB/TPLB pair
func IndexInconsistency(axis string, path []string, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindIndexInconsistency,
		Path:   append([]string{axis}, path...),
		Offset: -1,
		Detail: detail,
		Value:  Inconsistency{Axis: axis, Detail: detail},
	}
}

// ClassMismatch creates an error for a class whose tag differs from its description
func ClassMismatch(path []string, described, actual string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindClassMismatch,
		Path:   path,
		Offset: -1,
		Detail: fmt.Sprintf("described as %q, header says %q", described, actual),
	}
}

// InvalidLayout creates an error for a table whose layout cannot be encoded or trusted
func InvalidLayout(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidLayout,
		Path:   path,
		Offset: -1,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Offset: -1,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Offset: -1,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Offset: -1,
		Detail: detail,
		Cause:  cause,
	}
}

// Flatten returns the structured errors contained in err, descending into
// errors joined with errors.Join. Unstructured errors are skipped.
func Flatten(err error) []*Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return []*Error{e}
	}
	var out []*Error
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			out = append(out, Flatten(inner)...)
		}
	case interface{ Unwrap() error }:
		out = Flatten(u.Unwrap())
	}
	return out
}
