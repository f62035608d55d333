package oma

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/omgaudio/omadb/errors"
)

// Axis is one of the sort projections the catalog keeps in parallel.
// Its value is the file id shared by 01TREExx.DAT and 03GINFxx.DAT.
type Axis uint8

const (
	AxisUpload      Axis = 0x01
	AxisArtist      Axis = 0x02
	AxisAlbum       Axis = 0x03
	AxisGenre       Axis = 0x04
	AxisUnused      Axis = 0x22
	AxisArtistAlbum Axis = 0x2d
)

// Axes lists the axes that carry titles, in file order.
var Axes = []Axis{AxisUpload, AxisArtist, AxisAlbum, AxisGenre, AxisArtistAlbum}

var axisNames = map[Axis]string{
	AxisUpload:      "upload",
	AxisArtist:      "artist",
	AxisAlbum:       "album",
	AxisGenre:       "genre",
	AxisUnused:      "unused",
	AxisArtistAlbum: "artist-album",
}

func (a Axis) String() string {
	if n, ok := axisNames[a]; ok {
		return n
	}
	return fmt.Sprintf("axis(%02X)", uint8(a))
}

// FileID returns the two hex digits naming the axis's files.
func (a Axis) FileID() string {
	return fmt.Sprintf("%02X", uint8(a))
}

// FileName returns the name of the axis's TREE table, e.g. 01TREE01.DAT.
func (a Axis) FileName() string {
	return "01TREE" + a.FileID() + ".DAT"
}

// NameTableFileName returns the name of the axis's GINF table, e.g. 03GINF01.DAT.
func (a Axis) NameTableFileName() string {
	return "03GINF" + a.FileID() + ".DAT"
}

// Positioned reports whether GPLB entries with association assoc carry
// a TPLB position on this axis. Artist rows on the artist-album axis
// are headers without a position.
func (a Axis) Positioned(assoc Association) bool {
	if a == AxisArtistAlbum {
		return assoc == AssocAlbum
	}
	return assoc == AssocGroup
}

// ParseAxis accepts an axis name ("artist-album") or a file id ("2D").
func ParseAxis(s string) (Axis, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for a, n := range axisNames {
		if n == key {
			return a, nil
		}
	}
	if len(key) == 2 {
		if v, err := strconv.ParseUint(key, 16, 8); err == nil {
			if _, ok := axisNames[Axis(v)]; ok {
				return Axis(v), nil
			}
		}
	}
	return 0, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown axis %q", s))
}

// MarshalText implements encoding.TextMarshaler.
func (a Axis) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Axis) UnmarshalText(b []byte) error {
	v, err := ParseAxis(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
