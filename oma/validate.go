package oma

import (
	"fmt"

	"github.com/omgaudio/omadb/errors"
)

// Validate checks the table for structural validity: the directory and
// the classes pair up, bodies do not overlap and fit their declared
// lengths, and every class carries the name its description announces.
func (t *Table) Validate() error {
	if err := t.validateLayout(errors.PhaseValidate); err != nil {
		return err
	}
	return t.validateNames()
}

// ParseTableValidate parses a table and validates its structure.
// This is a convenience function combining ParseTable and Validate.
func ParseTableValidate(data []byte, opts ...DecodeOption) (*Table, error) {
	t, err := ParseTable(data, opts...)
	if err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) validateLayout(phase errors.Phase) error {
	if err := t.validateCounts(phase); err != nil {
		return err
	}
	if err := t.validateAddresses(phase); err != nil {
		return err
	}
	return t.validateBodies(phase)
}

func (t *Table) validateCounts(phase errors.Phase) error {
	n := int(t.ClassCount)
	if len(t.Descriptions) != n || len(t.Classes) != n {
		return errors.InvalidLayout(phase, nil, fmt.Sprintf(
			"class count %d, %d descriptions, %d classes", n, len(t.Descriptions), len(t.Classes)))
	}
	return nil
}

func (t *Table) validateAddresses(phase errors.Phase) error {
	next := uint64(HeaderSize + DescriptionSize*len(t.Descriptions))
	for i, d := range t.Descriptions {
		if uint64(d.Address) < next {
			return errors.InvalidLayout(phase, []string{classPath(i)}, fmt.Sprintf(
				"address 0x%x overlaps preceding data ending at 0x%x", d.Address, next))
		}
		next = d.End()
	}
	return nil
}

func (t *Table) validateBodies(phase errors.Phase) error {
	for i, c := range t.Classes {
		path := []string{classPath(i), c.Name.String()}
		if c.Kind == nil {
			return errors.InvalidLayout(phase, path, "class has no payload")
		}
		if c.Kind.Tag() != c.Name {
			return errors.InvalidLayout(phase, path, fmt.Sprintf("payload is %s", c.Kind.Tag()))
		}
		if _, raw := c.Kind.(Raw); !raw && int(c.ElementCount) != c.Kind.Len() {
			return errors.InvalidLayout(phase, path, fmt.Sprintf(
				"element count %d, %d elements", c.ElementCount, c.Kind.Len()))
		}
		need := uint64(ClassHeaderSize + c.Kind.Len()*c.Kind.ElementSize())
		if have := uint64(t.Descriptions[i].Len); need > have {
			return errors.InvalidLayout(phase, path, fmt.Sprintf(
				"body needs 0x%x bytes, declared length is 0x%x", need, have))
		}
	}
	return nil
}

func (t *Table) validateNames() error {
	for i, c := range t.Classes {
		if d := t.Descriptions[i]; d.Name != c.Name {
			return errors.ClassMismatch([]string{classPath(i)}, d.Name.String(), c.Name.String())
		}
	}
	return nil
}

func classPath(i int) string {
	return fmt.Sprintf("class[%d]", i)
}
