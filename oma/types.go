package oma

import (
	"fmt"

	"github.com/omgaudio/omadb/errors"
)

// Tag is a four-byte table or class name.
type Tag [4]byte

// String returns the tag as text, with non-printable bytes escaped.
func (t Tag) String() string {
	for _, c := range t {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("%q", string(t[:]))
		}
	}
	return string(t[:])
}

// ParseTag converts a four-character string into a Tag.
func ParseTag(s string) (Tag, error) {
	var t Tag
	if len(s) != len(t) {
		return t, errors.InvalidInput(errors.PhaseDecode, fmt.Sprintf("tag %q must be 4 bytes", s))
	}
	copy(t[:], s)
	return t, nil
}

// Table is one decoded catalog file.
type Table struct {
	Descriptions []ClassDescription
	Classes      []Class
	Name         Tag
	ClassCount   uint8
}

// ClassDescription is one entry of the directory that follows the table header.
type ClassDescription struct {
	Name Tag
	// Address is the absolute offset of the class body in the file.
	Address uint32
	// Len is the declared body length, local header included.
	Len uint32
}

// End returns the offset just past the described body.
func (d ClassDescription) End() uint64 {
	return uint64(d.Address) + uint64(d.Len)
}

// Class is a decoded class body.
type Class struct {
	Kind          ClassKind
	Name          Tag
	ElementCount  uint16
	ElementLength uint16 // informational; element size is fixed by Kind
}

// ClassKind is the decoded element payload of a class. The set of
// implementations is closed: Gplb, Tplb and Raw.
type ClassKind interface {
	// Tag returns the class name the payload belongs to.
	Tag() Tag
	// Len returns the number of elements.
	Len() int
	// ElementSize returns the on-disk size of one element.
	ElementSize() int
	isClassKind()
}

// Association marks how a GPLB entry relates to the tracks.
type Association uint16

const (
	// AssocUnused marks a group present in the name table without tracks.
	AssocUnused Association = 0x0000
	// AssocGroup marks a group in use. On the artist-album axis it marks an artist row.
	AssocGroup Association = 0x0100
	// AssocAlbum marks an album row on the artist-album axis.
	AssocAlbum Association = 0x0200
)

// InUse reports whether the entry refers to tracks.
func (a Association) InUse() bool {
	return a != AssocUnused
}

func (a Association) String() string {
	switch a {
	case AssocUnused:
		return "unused"
	case AssocGroup:
		return "group"
	case AssocAlbum:
		return "album"
	default:
		return fmt.Sprintf("0x%04x", uint16(a))
	}
}

// GplbElement is one group-listing entry.
type GplbElement struct {
	// ID indexes the axis's name table (03GINFxx).
	ID          uint16
	Association Association
	// TitleID is the 1-based TPLB position of the group's first track.
	// Meaningless when Association is AssocUnused.
	TitleID uint16
}

// TplbElement is one track-listing entry.
type TplbElement struct {
	// TitleID is the track's position in the master track catalog.
	TitleID uint16
}

// Gplb is the element list of a GPLB class.
type Gplb []GplbElement

func (Gplb) Tag() Tag         { return TagGPLB }
func (g Gplb) Len() int       { return len(g) }
func (Gplb) ElementSize() int { return GplbElementSize }
func (Gplb) isClassKind()     {}

// Tplb is the element list of a TPLB class.
type Tplb []TplbElement

func (Tplb) Tag() Tag         { return TagTPLB }
func (t Tplb) Len() int       { return len(t) }
func (Tplb) ElementSize() int { return TplbElementSize }
func (Tplb) isClassKind()     {}

// NewTplb builds a track list from title ids in order.
func NewTplb(ids ...uint16) Tplb {
	t := make(Tplb, len(ids))
	for i, id := range ids {
		t[i].TitleID = id
	}
	return t
}

// TitleIDs returns the track identifiers in list order.
func (t Tplb) TitleIDs() []uint16 {
	ids := make([]uint16, len(t))
	for i, e := range t {
		ids[i] = e.TitleID
	}
	return ids
}

// Raw holds the undecoded body of a class with an unsupported tag. It is
// only produced when decoding with AllowUnknownClasses.
type Raw struct {
	Name Tag
	// Data is the body after the local header, up to the declared length.
	Data []byte
}

func (r Raw) Tag() Tag       { return r.Name }
func (r Raw) Len() int       { return len(r.Data) }
func (Raw) ElementSize() int { return 1 }
func (Raw) isClassKind()     {}

// Class returns the first class named tag.
func (t *Table) Class(tag Tag) (*Class, bool) {
	for i := range t.Classes {
		if t.Classes[i].Name == tag {
			return &t.Classes[i], true
		}
	}
	return nil, false
}

// Index returns the table's GPLB and TPLB element lists.
func (t *Table) Index() (Gplb, Tplb, error) {
	var (
		gplb         Gplb
		tplb         Tplb
		haveG, haveT bool
	)
	for _, c := range t.Classes {
		switch k := c.Kind.(type) {
		case Gplb:
			if !haveG {
				gplb, haveG = k, true
			}
		case Tplb:
			if !haveT {
				tplb, haveT = k, true
			}
		}
	}
	if !haveG {
		return nil, nil, errors.NotFound(errors.PhaseValidate, "class", TagGPLB.String())
	}
	if !haveT {
		return nil, nil, errors.NotFound(errors.PhaseValidate, "class", TagTPLB.String())
	}
	return gplb, tplb, nil
}
