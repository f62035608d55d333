package oma

import (
	stderrors "errors"
	"fmt"

	"github.com/omgaudio/omadb/errors"
)

// CheckOption configures CheckIndex.
type CheckOption func(*checkOptions)

type checkOptions struct {
	groups      map[uint16]uint16
	decode      []DecodeOption
	catalogSize int
}

// WithGroups supplies the group of every track, keyed by title id. On the
// artist-album axis the group is the album's name table id. With it,
// CheckIndex recomputes where each group starts in TPLB and compares the
// result with GPLB entry by entry.
func WithGroups(groups map[uint16]uint16) CheckOption {
	return func(o *checkOptions) {
		o.groups = groups
	}
}

// WithCatalogSize bounds TPLB title ids to [1, n], n being the number of
// entries in the master track catalog.
func WithCatalogSize(n int) CheckOption {
	return func(o *checkOptions) {
		o.catalogSize = n
	}
}

// WithDecodeOptions passes decode options to ParseTableCheck, for example
// AllowUnknownClasses for TREE tables carrying extra classes. CheckIndex
// and CheckTable ignore it.
func WithDecodeOptions(opts ...DecodeOption) CheckOption {
	return func(o *checkOptions) {
		o.decode = append(o.decode, opts...)
	}
}

// CheckIndex verifies that a GPLB/TPLB pair is a consistent projection of
// the track catalog along axis. It returns nil or the joined
// index_inconsistency findings; use errors.Flatten to list them. The
// findings never stop decoding of other tables.
func CheckIndex(axis Axis, gplb Gplb, tplb Tplb, opts ...CheckOption) error {
	c := &checker{axis: axis, gplb: gplb, tplb: tplb}
	for _, opt := range opts {
		opt(&c.opts)
	}

	c.checkDistinctTitles()
	c.checkAssociations()
	c.checkUnusedSuffix()
	c.checkPositions()
	c.checkCatalogRange()
	c.checkGroups()

	return stderrors.Join(c.findings...)
}

// CheckTable locates the GPLB and TPLB classes of t and checks them with CheckIndex.
func CheckTable(t *Table, axis Axis, opts ...CheckOption) error {
	gplb, tplb, err := t.Index()
	if err != nil {
		return err
	}
	return CheckIndex(axis, gplb, tplb, opts...)
}

// ParseTableCheck decodes a TREE table and checks its index. A structural
// error returns a nil table. An index inconsistency returns the decoded
// table together with the findings, so callers can decode but flag.
func ParseTableCheck(data []byte, axis Axis, opts ...CheckOption) (*Table, error) {
	var o checkOptions
	for _, opt := range opts {
		opt(&o)
	}
	t, err := ParseTable(data, o.decode...)
	if err != nil {
		return nil, err
	}
	return t, CheckTable(t, axis, opts...)
}

type checker struct {
	gplb     Gplb
	tplb     Tplb
	findings []error
	opts     checkOptions
	axis     Axis
}

func (c *checker) report(path, detail string, args ...any) {
	c.findings = append(c.findings, errors.IndexInconsistency(c.axis.String(), []string{path}, detail, args...))
}

func (c *checker) checkDistinctTitles() {
	seen := make(map[uint16]int, len(c.tplb))
	for i, e := range c.tplb {
		pos := i + 1
		if first, dup := seen[e.TitleID]; dup {
			c.report(tplbPath(i), "title_id %d already listed at position %d", e.TitleID, first)
			continue
		}
		seen[e.TitleID] = pos
	}
}

func (c *checker) checkAssociations() {
	for i, e := range c.gplb {
		switch e.Association {
		case AssocUnused, AssocGroup:
		case AssocAlbum:
			if c.axis != AxisArtistAlbum {
				c.report(gplbPath(i), "album association 0x%04x outside the artist-album axis", uint16(e.Association))
			}
		default:
			c.report(gplbPath(i), "unknown association 0x%04x", uint16(e.Association))
		}
	}
}

func (c *checker) checkUnusedSuffix() {
	firstUnused := -1
	for i, e := range c.gplb {
		if !e.Association.InUse() {
			if firstUnused < 0 {
				firstUnused = i
			}
			continue
		}
		if firstUnused >= 0 {
			c.report(gplbPath(i), "in-use group follows unused group at GPLB[%d]", firstUnused)
			return
		}
	}
}

func (c *checker) checkPositions() {
	n := len(c.tplb)
	prev := 0
	positioned := 0
	for i, e := range c.gplb {
		if !c.axis.Positioned(e.Association) {
			continue
		}
		positioned++
		pos := int(e.TitleID)
		if pos < 1 || pos > n {
			c.report(gplbPath(i), "title_id %d out of range [1, %d]", e.TitleID, n)
			continue
		}
		if positioned == 1 && pos != 1 {
			c.report(gplbPath(i), "first group starts at TPLB position %d, want 1", pos)
		}
		if pos <= prev {
			c.report(gplbPath(i), "title_id %d does not follow previous group start %d", pos, prev)
		}
		prev = pos
	}
	if n > 0 && positioned == 0 {
		c.report("GPLB", "TPLB lists %d tracks but no group points into it", n)
	}
}

func (c *checker) checkCatalogRange() {
	if c.opts.catalogSize <= 0 {
		return
	}
	for i, e := range c.tplb {
		if e.TitleID < 1 || int(e.TitleID) > c.opts.catalogSize {
			c.report(tplbPath(i), "title_id %d outside track catalog [1, %d]", e.TitleID, c.opts.catalogSize)
		}
	}
}

type groupStart struct {
	id  uint16
	pos int
}

func (c *checker) checkGroups() {
	if c.opts.groups == nil {
		return
	}

	var (
		want    []groupStart
		prev    uint16
		hasPrev bool
	)
	for i, e := range c.tplb {
		g, ok := c.opts.groups[e.TitleID]
		if !ok {
			c.report(tplbPath(i), "title_id %d has no group", e.TitleID)
			hasPrev = false
			continue
		}
		if !hasPrev || g != prev {
			want = append(want, groupStart{id: g, pos: i + 1})
		}
		prev, hasPrev = g, true
	}

	var (
		got    []groupStart
		gotIdx []int
	)
	for i, e := range c.gplb {
		if c.axis.Positioned(e.Association) {
			got = append(got, groupStart{id: e.ID, pos: int(e.TitleID)})
			gotIdx = append(gotIdx, i)
		}
	}

	for k := 0; k < len(want) && k < len(got); k++ {
		if want[k] != got[k] {
			c.report(gplbPath(gotIdx[k]), "group %d starts with id %d at position %d, tracks give id %d at position %d",
				k+1, got[k].id, got[k].pos, want[k].id, want[k].pos)
			return
		}
	}
	if len(want) != len(got) {
		c.report("GPLB", "%d groups in use, tracks form %d groups", len(got), len(want))
	}
}

func gplbPath(i int) string {
	return fmt.Sprintf("GPLB[%d]", i)
}

func tplbPath(i int) string {
	return fmt.Sprintf("TPLB[%d]", i)
}
