// Package oma decodes the catalog tables found in the OMGAUDIO folder of
// portable music players.
//
// Every catalog file is one table: a 16-byte header, a directory of class
// descriptions and the class bodies those descriptions point to. All
// multi-byte integers are stored most-significant byte first.
//
//	header       name[4] magic=0x01010000 count[1] reserved[7]
//	description  name[4] address[4] len[4] reserved[4]   (count times)
//	class        name[4] elements[4] element_len[4] reserved[4] payload
//
// Element count and element length each occupy a 4-byte slot of which
// only the low-order (last) two bytes are meaningful.
//
// # Classes
//
// Two class kinds have element decoders:
//
//	GPLB  8-byte group entries: id, association, title id, reserved
//	TPLB  2-byte track entries: title id
//
// Any other class tag fails decoding with unknown_class_kind unless
// AllowUnknownClasses is given, in which case the body is kept as Raw.
//
// # Parsing
//
//	data, _ := os.ReadFile("OMGAUDIO/01TREE01.DAT")
//	table, err := oma.ParseTable(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	gplb, tplb, err := table.Index()
//
// Decoding is all or nothing: the first structural problem is returned as
// an *errors.Error carrying the byte offset and the path of the element
// being read, e.g. class[1].TPLB.element[3].
//
// # Index consistency
//
// A TREE table projects the track catalog along one Axis. GPLB lists the
// groups of the axis, TPLB lists the tracks sorted by group, and each
// in-use GPLB entry points at the 1-based TPLB position where its group
// starts. CheckIndex verifies that projection:
//
//	table, err := oma.ParseTableCheck(data, oma.AxisArtist)
//	for _, f := range errors.Flatten(err) {
//	    fmt.Println(f)
//	}
//
// Index findings are reported separately from structural errors, so a
// table can be decoded and flagged at the same time.
//
// # Encoding
//
// NewTable lays out classes after the directory and Encode writes them
// back in the same format:
//
//	t := oma.NewTable(oma.TagTREE, []oma.ClassKind{gplb, tplb},
//	    oma.WithCapacity(oma.TagGPLB, oma.GplbClassLen))
//	data, err := t.Encode()
package oma
