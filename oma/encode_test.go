package oma_test

import (
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/omgaudio/omadb/errors"
	"github.com/omgaudio/omadb/oma"
)

func TestEncodeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		kinds []oma.ClassKind
		opts  []oma.LayoutOption
	}{
		{
			name:  "gplb only",
			kinds: []oma.ClassKind{sampleGplb},
		},
		{
			name:  "tplb only",
			kinds: []oma.ClassKind{sampleTplb},
		},
		{
			name:  "tree layout",
			kinds: []oma.ClassKind{sampleGplb, sampleTplb},
			opts:  []oma.LayoutOption{oma.WithCapacity(oma.TagGPLB, oma.GplbClassLen)},
		},
		{
			name: "artist-album rows",
			kinds: []oma.ClassKind{
				oma.Gplb{
					{ID: 1, Association: oma.AssocGroup},
					{ID: 4, Association: oma.AssocAlbum, TitleID: 1},
					{ID: 5, Association: oma.AssocAlbum, TitleID: 4},
				},
				oma.NewTplb(7, 3, 9, 1),
			},
		},
		{
			name:  "max values",
			kinds: []oma.ClassKind{oma.Gplb{{ID: 0xffff, Association: 0xffff, TitleID: 0xffff}}, oma.NewTplb(0xffff)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := oma.NewTable(oma.TagTREE, tt.kinds, tt.opts...)
			data, err := orig.Encode()
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			parsed, err := oma.ParseTableValidate(data)
			if err != nil {
				t.Fatalf("ParseTableValidate: %v", err)
			}
			if !reflect.DeepEqual(parsed, orig) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", parsed, orig)
			}

			again, err := parsed.Encode()
			if err != nil {
				t.Fatalf("re-Encode: %v", err)
			}
			if string(again) != string(data) {
				t.Error("re-encoding changed the bytes")
			}
		})
	}
}

func TestEncodeRaw(t *testing.T) {
	orig, err := oma.ParseTable(unknownClassTable(t), oma.AllowUnknownClasses())
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	data, err := orig.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	parsed, err := oma.ParseTable(data, oma.AllowUnknownClasses())
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	if !reflect.DeepEqual(parsed, orig) {
		t.Errorf("got %+v, want %+v", parsed, orig)
	}
}

func TestNewTableLayout(t *testing.T) {
	table := oma.NewTable(oma.TagTREE, []oma.ClassKind{
		oma.Gplb{{ID: 1, Association: oma.AssocGroup, TitleID: 1}},
		make(oma.Tplb, 8),
		oma.Gplb{},
	})

	want := []oma.ClassDescription{
		{Name: oma.TagGPLB, Address: 0x40, Len: 0x20}, // 16 + 8 rounded up
		{Name: oma.TagTPLB, Address: 0x60, Len: 0x20}, // 16 + 16
		{Name: oma.TagGPLB, Address: 0x80, Len: 0x10}, // header only
	}
	if !reflect.DeepEqual(table.Descriptions, want) {
		t.Errorf("Descriptions = %+v, want %+v", table.Descriptions, want)
	}
	if table.ClassCount != 3 {
		t.Errorf("ClassCount = %d", table.ClassCount)
	}
	if c := table.Classes[1]; c.ElementCount != 8 || c.ElementLength != 2 {
		t.Errorf("TPLB header = %d x %d", c.ElementCount, c.ElementLength)
	}
}

func TestWithCapacity(t *testing.T) {
	table := oma.NewTable(oma.TagTREE, []oma.ClassKind{sampleGplb, sampleTplb},
		oma.WithCapacity(oma.TagGPLB, oma.GplbClassLen),
		oma.WithCapacity(oma.TagTPLB, 0x10)) // smaller than needed, ignored

	if got := table.Descriptions[0].Len; got != oma.GplbClassLen {
		t.Errorf("GPLB len = 0x%x, want 0x%x", got, oma.GplbClassLen)
	}
	if got := table.Descriptions[1].Len; got != 0x30 {
		t.Errorf("TPLB len = 0x%x, want 0x30", got)
	}
	if got := table.Descriptions[1].Address; got != 0x4040 {
		t.Errorf("TPLB address = 0x%x, want 0x4040", got)
	}
}

func TestEncodeInvalidLayout(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*oma.Table)
	}{
		{
			name:   "class count",
			mutate: func(tb *oma.Table) { tb.ClassCount = 3 },
		},
		{
			name:   "overlapping bodies",
			mutate: func(tb *oma.Table) { tb.Descriptions[1].Address = 0x50 },
		},
		{
			name:   "address inside directory",
			mutate: func(tb *oma.Table) { tb.Descriptions[0].Address = 0x20 },
		},
		{
			name:   "body longer than declared",
			mutate: func(tb *oma.Table) { tb.Descriptions[1].Len = 0x20 },
		},
		{
			name:   "stale element count",
			mutate: func(tb *oma.Table) { tb.Classes[1].ElementCount = 4 },
		},
		{
			name:   "payload of another class",
			mutate: func(tb *oma.Table) { tb.Classes[0].Kind = sampleTplb },
		},
		{
			name:   "missing payload",
			mutate: func(tb *oma.Table) { tb.Classes[0].Kind = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := oma.NewTable(oma.TagTREE, []oma.ClassKind{sampleGplb, sampleTplb},
				oma.WithCapacity(oma.TagGPLB, oma.GplbClassLen))
			tt.mutate(table)

			_, err := table.Encode()
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("err = %v, want *errors.Error", err)
			}
			if e.Phase != errors.PhaseEncode || e.Kind != errors.KindInvalidLayout {
				t.Errorf("err = %v, want [encode] invalid_layout", e)
			}
		})
	}
}
