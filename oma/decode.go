package oma

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/omgaudio/omadb/errors"
	"github.com/omgaudio/omadb/oma/internal/binary"
)

// DecodeOption configures ParseTable.
type DecodeOption func(*decodeOptions)

type decodeOptions struct {
	allowUnknown bool
}

// AllowUnknownClasses makes ParseTable keep classes with unsupported
// tags as Raw payloads instead of failing with unknown_class_kind.
func AllowUnknownClasses() DecodeOption {
	return func(o *decodeOptions) {
		o.allowUnknown = true
	}
}

// ParseTable decodes one table file. It either returns a complete table
// or an *errors.Error describing the first structural problem.
func ParseTable(data []byte, opts ...DecodeOption) (*Table, error) {
	d := &decoder{r: binary.NewReader(data)}
	for _, opt := range opts {
		opt(&d.opts)
	}
	return d.table()
}

type decoder struct {
	r    *binary.Reader
	opts decodeOptions
}

func (d *decoder) table() (*Table, error) {
	name, err := d.readTag()
	if err != nil {
		return nil, at(err, "header")
	}
	if err := d.r.ExpectU32(Magic); err != nil {
		return nil, at(err, "header")
	}
	count, err := d.r.ReadU8()
	if err != nil {
		return nil, at(err, "header")
	}
	if err := d.r.SkipTo(HeaderSize); err != nil {
		return nil, at(err, "header")
	}

	t := &Table{
		Name:         name,
		ClassCount:   count,
		Descriptions: make([]ClassDescription, 0, count),
		Classes:      make([]Class, 0, count),
	}

	for i := 0; i < int(count); i++ {
		desc, err := d.classDescription()
		if err != nil {
			return nil, at(err, fmt.Sprintf("description[%d]", i))
		}
		t.Descriptions = append(t.Descriptions, desc)
	}

	for i, desc := range t.Descriptions {
		c, err := d.class(i, desc)
		if err != nil {
			return nil, at(err, fmt.Sprintf("class[%d]", i))
		}
		t.Classes = append(t.Classes, c)
	}

	return t, nil
}

func (d *decoder) readTag() (Tag, error) {
	b, err := d.r.ReadTag()
	return Tag(b), err
}

func (d *decoder) classDescription() (ClassDescription, error) {
	name, err := d.readTag()
	if err != nil {
		return ClassDescription{}, err
	}
	addr, err := d.r.ReadU32()
	if err != nil {
		return ClassDescription{}, err
	}
	length, err := d.r.ReadU32()
	if err != nil {
		return ClassDescription{}, err
	}
	if _, err := d.r.Take(4); err != nil {
		return ClassDescription{}, err
	}
	return ClassDescription{Name: name, Address: addr, Len: length}, nil
}

func (d *decoder) class(i int, desc ClassDescription) (Class, error) {
	if err := d.r.SkipTo(int(desc.Address)); err != nil {
		return Class{}, err
	}

	name, err := d.readTag()
	if err != nil {
		return Class{}, err
	}
	if name != desc.Name {
		Logger().Warn("class name differs from its description",
			zap.Int("class", i),
			zap.Stringer("described", desc.Name),
			zap.Stringer("actual", name),
			zap.Uint32("address", desc.Address))
	}
	count, err := d.r.ReadU16Field()
	if err != nil {
		return Class{}, err
	}
	length, err := d.r.ReadU16Field()
	if err != nil {
		return Class{}, err
	}
	if _, err := d.r.Take(4); err != nil {
		return Class{}, err
	}

	kind, err := d.kind(name, count, desc)
	if err != nil {
		return Class{}, at(err, name.String())
	}

	Logger().Debug("decoded class",
		zap.Int("class", i),
		zap.Stringer("name", name),
		zap.Uint32("address", desc.Address),
		zap.Uint32("len", desc.Len),
		zap.Uint16("elements", count))

	return Class{
		Name:          name,
		ElementCount:  count,
		ElementLength: length,
		Kind:          kind,
	}, nil
}

func (d *decoder) kind(name Tag, count uint16, desc ClassDescription) (ClassKind, error) {
	switch name {
	case TagGPLB:
		return d.gplb(count)
	case TagTPLB:
		return d.tplb(count)
	default:
		if d.opts.allowUnknown {
			return d.raw(name, desc)
		}
		return nil, errors.UnknownClassKind(int(desc.Address), name.String())
	}
}

func (d *decoder) gplb(count uint16) (Gplb, error) {
	elems := make(Gplb, 0, count)
	for i := 0; i < int(count); i++ {
		id, err := d.r.ReadU16()
		if err != nil {
			return nil, at(err, element(i))
		}
		assoc, err := d.r.ReadU16()
		if err != nil {
			return nil, at(err, element(i))
		}
		title, err := d.r.ReadU16()
		if err != nil {
			return nil, at(err, element(i))
		}
		if _, err := d.r.Take(2); err != nil {
			return nil, at(err, element(i))
		}
		elems = append(elems, GplbElement{
			ID:          id,
			Association: Association(assoc),
			TitleID:     title,
		})
	}
	return elems, nil
}

func (d *decoder) tplb(count uint16) (Tplb, error) {
	elems := make(Tplb, 0, count)
	for i := 0; i < int(count); i++ {
		title, err := d.r.ReadU16()
		if err != nil {
			return nil, at(err, element(i))
		}
		elems = append(elems, TplbElement{TitleID: title})
	}
	return elems, nil
}

func (d *decoder) raw(name Tag, desc ClassDescription) (Raw, error) {
	if desc.Len < ClassHeaderSize {
		return Raw{}, errors.New(errors.PhaseDecode, errors.KindInvalidLayout).
			Offset(int(desc.Address)).
			Detail("declared length 0x%x is shorter than the class header", desc.Len).
			Build()
	}
	body, err := d.r.Take(int(desc.Len - ClassHeaderSize))
	if err != nil {
		return Raw{}, err
	}
	return Raw{Name: name, Data: append([]byte(nil), body...)}, nil
}

func element(i int) string {
	return fmt.Sprintf("element[%d]", i)
}

// at prefixes the location of a structured error, leaving other errors untouched.
func at(err error, path ...string) error {
	if e, ok := err.(*errors.Error); ok {
		return e.WithPath(path...)
	}
	return err
}
