package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindBufferUnderrun,
				Path:   []string{"class[1]", "TPLB", "element[3]"},
				Offset: 0x4056,
				Detail: "requested 2 bytes, 1 remaining",
			},
			contains: []string{"[decode]", "buffer_underrun", "class[1].TPLB.element[3]", "offset 0x4056", "requested 2 bytes"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase:  PhaseValidate,
				Kind:   KindClassMismatch,
				Offset: -1,
			},
			contains: []string{"[validate]", "class_mismatch"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindNotFound,
				Detail: "01TREE2D.DAT",
				Offset: -1,
				Cause:  errors.New("no such file"),
			},
			contains: []string{"[load]", "not_found", "01TREE2D.DAT", "caused by", "no such file"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_NoOffsetWhenNegative(t *testing.T) {
	err := InvalidInput(PhaseConfig, "bad format")
	if strings.Contains(err.Error(), "offset") {
		t.Errorf("unexpected offset in %q", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(PhaseLoad, KindNotFound, cause, "open table")

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := BufferUnderrun(12, 4, 1)

	if !err.Is(&Error{Phase: PhaseDecode, Kind: KindBufferUnderrun}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseEncode, Kind: KindBufferUnderrun}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindBackwardSeek}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrBufferUnderrun) {
		t.Error("errors.Is should match the phase-less sentinel")
	}
	if errors.Is(err, ErrMagicMismatch) {
		t.Error("errors.Is matched the wrong sentinel")
	}
}

func TestError_WithPath(t *testing.T) {
	orig := BufferUnderrun(0x40, 2, 0)
	orig.Path = []string{"element[2]"}

	got := orig.WithPath("class[0]", "GPLB")
	if strings.Join(got.Path, ".") != "class[0].GPLB.element[2]" {
		t.Errorf("Path = %v", got.Path)
	}
	if strings.Join(orig.Path, ".") != "element[2]" {
		t.Errorf("original path modified: %v", orig.Path)
	}
	if got.Kind != KindBufferUnderrun || got.Offset != 0x40 {
		t.Errorf("kind/offset not preserved: %v", got)
	}
	if _, ok := got.Value.(Underrun); !ok {
		t.Errorf("Value = %T, want Underrun", got.Value)
	}
}

func TestFlatten(t *testing.T) {
	a := IndexInconsistency("artist", []string{"GPLB[0]"}, "first")
	b := IndexInconsistency("artist", []string{"TPLB[3]"}, "second")
	plain := errors.New("plain")

	got := Flatten(errors.Join(a, plain, fmt.Errorf("wrapped: %w", b)))
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("Flatten = %v", got)
	}
	if Flatten(nil) != nil {
		t.Error("Flatten(nil) should be nil")
	}
	if len(Flatten(plain)) != 0 {
		t.Error("Flatten of an unstructured error should be empty")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseEncode, KindInvalidLayout).
		Path("class[1]", "TPLB").
		Offset(0x30).
		Value(42).
		Cause(cause).
		Detail("body needs %d bytes, declared %d", 34, 16).
		Build()

	if err.Phase != PhaseEncode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseEncode)
	}
	if err.Kind != KindInvalidLayout {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidLayout)
	}
	if len(err.Path) != 2 || err.Path[0] != "class[1]" || err.Path[1] != "TPLB" {
		t.Errorf("Path = %v, want [class[1] TPLB]", err.Path)
	}
	if err.Offset != 0x30 {
		t.Errorf("Offset = %#x, want 0x30", err.Offset)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "body needs 34 bytes, declared 16" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestBuilder_DefaultOffset(t *testing.T) {
	err := New(PhaseLoad, KindNotFound).Build()
	if err.Offset != -1 {
		t.Errorf("Offset = %d, want -1", err.Offset)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("BufferUnderrun", func(t *testing.T) {
		err := BufferUnderrun(10, 4, 2)
		v, ok := err.Value.(Underrun)
		if !ok || v.Requested != 4 || v.Remaining != 2 {
			t.Errorf("Value = %#v", err.Value)
		}
	})

	t.Run("BackwardSeek", func(t *testing.T) {
		err := BackwardSeek(0x20, 0x30)
		v, ok := err.Value.(Seek)
		if !ok || v.Target != 0x20 || v.Position != 0x30 {
			t.Errorf("Value = %#v", err.Value)
		}
		if !strings.Contains(err.Detail, "0x20") {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("MagicMismatch", func(t *testing.T) {
		err := MagicMismatch(4, 0x01010000, 0x01010001)
		if !strings.Contains(err.Detail, "0x01010000") || !strings.Contains(err.Detail, "0x01010001") {
			t.Errorf("Detail = %q, want both values in hex", err.Detail)
		}
		v, ok := err.Value.(Magic)
		if !ok || v.Expected != 0x01010000 || v.Actual != 0x01010001 {
			t.Errorf("Value = %#v", err.Value)
		}
	})

	t.Run("UnknownClassKind", func(t *testing.T) {
		err := UnknownClassKind(0x20, "GPFB")
		if err.Value != "GPFB" {
			t.Errorf("Value = %v, want GPFB", err.Value)
		}
	})

	t.Run("IndexInconsistency", func(t *testing.T) {
		err := IndexInconsistency("album", []string{"GPLB[2]"}, "title_id %d out of range", 99)
		if err.Phase != PhaseValidate {
			t.Errorf("Phase = %v", err.Phase)
		}
		v, ok := err.Value.(Inconsistency)
		if !ok || v.Axis != "album" || v.Detail != "title_id 99 out of range" {
			t.Errorf("Value = %#v", err.Value)
		}
		if err.Path[0] != "album" {
			t.Errorf("Path = %v", err.Path)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseLoad, "table", "01TREE01.DAT")
		if err.Kind != KindNotFound {
			t.Errorf("Kind = %v", err.Kind)
		}
	})
}
