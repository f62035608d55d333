package oma

import (
	"github.com/omgaudio/omadb/errors"
	"github.com/omgaudio/omadb/oma/internal/binary"
)

// LayoutOption adjusts the class lengths chosen by NewTable.
type LayoutOption func(*layout)

type layout struct {
	capacity map[Tag]uint32
}

// WithCapacity reserves at least length bytes for every class named tag,
// e.g. WithCapacity(TagGPLB, GplbClassLen) for the TREE tables.
func WithCapacity(tag Tag, length uint32) LayoutOption {
	return func(l *layout) {
		l.capacity[tag] = length
	}
}

// NewTable builds a table holding kinds in order. Bodies are packed
// right after the description directory, each aligned to ClassAlign.
func NewTable(name Tag, kinds []ClassKind, opts ...LayoutOption) *Table {
	l := layout{capacity: make(map[Tag]uint32)}
	for _, opt := range opts {
		opt(&l)
	}

	t := &Table{
		Name:         name,
		ClassCount:   uint8(len(kinds)),
		Descriptions: make([]ClassDescription, 0, len(kinds)),
		Classes:      make([]Class, 0, len(kinds)),
	}

	addr := uint32(HeaderSize + DescriptionSize*len(kinds))
	for _, k := range kinds {
		c := Class{Name: k.Tag(), Kind: k}
		if _, raw := k.(Raw); !raw {
			c.ElementCount = uint16(k.Len())
			c.ElementLength = uint16(k.ElementSize())
		}
		length := align(uint32(ClassHeaderSize + k.Len()*k.ElementSize()))
		if reserved := l.capacity[c.Name]; reserved > length {
			length = reserved
		}
		t.Descriptions = append(t.Descriptions, ClassDescription{
			Name:    c.Name,
			Address: addr,
			Len:     length,
		})
		t.Classes = append(t.Classes, c)
		addr += length
	}
	return t
}

func align(n uint32) uint32 {
	return (n + ClassAlign - 1) &^ (ClassAlign - 1)
}

// Encode encodes the table to its on-disk form. Gaps between bodies and
// the tail of each declared length are zero-filled.
func (t *Table) Encode() ([]byte, error) {
	if err := t.validateLayout(errors.PhaseEncode); err != nil {
		return nil, err
	}

	w := binary.NewWriter()

	// Header
	w.WriteBytes(t.Name[:])
	w.WriteU32(Magic)
	w.WriteU8(t.ClassCount)
	w.PadTo(HeaderSize)

	// Descriptions
	for _, d := range t.Descriptions {
		w.WriteBytes(d.Name[:])
		w.WriteU32(d.Address)
		w.WriteU32(d.Len)
		w.Zero(4)
	}

	// Bodies
	for i, c := range t.Classes {
		d := t.Descriptions[i]
		w.PadTo(int(d.Address))
		w.WriteBytes(c.Name[:])
		w.WriteU16Field(c.ElementCount)
		w.WriteU16Field(c.ElementLength)
		w.Zero(4)
		writeKind(w, c.Kind)
		w.PadTo(int(d.End()))
	}

	return w.Bytes(), nil
}

func writeKind(w *binary.Writer, k ClassKind) {
	switch k := k.(type) {
	case Gplb:
		for _, e := range k {
			w.WriteU16(e.ID)
			w.WriteU16(uint16(e.Association))
			w.WriteU16(e.TitleID)
			w.Zero(2)
		}
	case Tplb:
		for _, e := range k {
			w.WriteU16(e.TitleID)
		}
	case Raw:
		w.WriteBytes(k.Data)
	}
}
