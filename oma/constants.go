package oma

// Magic is the envelope marker stored right after the table name.
const Magic uint32 = 0x01010000

// Fixed sizes of the table layout, in bytes.
const (
	HeaderSize      = 16 // table name, magic, class count, reserved
	DescriptionSize = 16 // tag, address, length, reserved
	ClassHeaderSize = 16 // tag, element count slot, element length slot, reserved
	GplbElementSize = 8  // id, association, title id, reserved
	TplbElementSize = 2  // title id

	// ClassAlign is the granularity of class addresses and lengths.
	ClassAlign = 0x10

	// GplbClassLen is the constant GPLB class length in the TREE tables
	// that carry titles.
	GplbClassLen = 0x4010
)

// Table names.
var (
	TagTREE = Tag{'T', 'R', 'E', 'E'} // 01TREExx
	TagGTLT = Tag{'G', 'T', 'L', 'T'} // 00GTRLST
	TagGTIF = Tag{'G', 'T', 'I', 'F'} // 02TREINF
	TagGPIF = Tag{'G', 'P', 'I', 'F'} // 03GINFxx
	TagCNIF = Tag{'C', 'N', 'I', 'F'} // 04CNTINF
	TagCIDL = Tag{'C', 'I', 'D', 'L'} // 05CIDLST
)

// Class names. Only GPLB and TPLB have element decoders; the rest are
// named so tables holding them can be recognized and dumped raw.
var (
	TagGPLB = Tag{'G', 'P', 'L', 'B'}
	TagTPLB = Tag{'T', 'P', 'L', 'B'}
	TagSYSB = Tag{'S', 'Y', 'S', 'B'}
	TagGTLB = Tag{'G', 'T', 'L', 'B'}
	TagGTFB = Tag{'G', 'T', 'F', 'B'}
	TagGPFB = Tag{'G', 'P', 'F', 'B'}
	TagCNFB = Tag{'C', 'N', 'F', 'B'}
	TagCILB = Tag{'C', 'I', 'L', 'B'}
)
