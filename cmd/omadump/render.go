package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/omgaudio/omadb/catalog"
	"github.com/omgaudio/omadb/config"
	"github.com/omgaudio/omadb/errors"
	"github.com/omgaudio/omadb/oma"
)

// tableDoc is the serializable view of one decoded table. CBOR falls
// back to the json tags.
type tableDoc struct {
	Axis         string     `json:"axis,omitempty" yaml:"axis,omitempty"`
	Path         string     `json:"path" yaml:"path"`
	Digest       string     `json:"digest,omitempty" yaml:"digest,omitempty"`
	Name         string     `json:"name" yaml:"name"`
	Descriptions []descDoc  `json:"descriptions" yaml:"descriptions"`
	Classes      []classDoc `json:"classes" yaml:"classes"`
	Findings     []string   `json:"findings,omitempty" yaml:"findings,omitempty"`
	Size         int64      `json:"size" yaml:"size"`
	ClassCount   int        `json:"class_count" yaml:"class_count"`
	Checked      bool       `json:"checked" yaml:"checked"`
}

type descDoc struct {
	Name    string `json:"name" yaml:"name"`
	Address uint32 `json:"address" yaml:"address"`
	Len     uint32 `json:"len" yaml:"len"`
}

type classDoc struct {
	Name          string    `json:"name" yaml:"name"`
	Raw           string    `json:"raw,omitempty" yaml:"raw,omitempty"`
	Gplb          []gplbDoc `json:"gplb,omitempty" yaml:"gplb,omitempty"`
	Tplb          []uint16  `json:"tplb,omitempty" yaml:"tplb,omitempty"`
	ElementCount  uint16    `json:"element_count" yaml:"element_count"`
	ElementLength uint16    `json:"element_length" yaml:"element_length"`
}

type gplbDoc struct {
	Association string `json:"association" yaml:"association"`
	ID          uint16 `json:"id" yaml:"id"`
	TitleID     uint16 `json:"title_id" yaml:"title_id"`
}

func newTableDoc(path string, size int64, digest catalog.Digest, t *oma.Table, findings error) tableDoc {
	doc := tableDoc{
		Path:       path,
		Size:       size,
		Digest:     digest.String(),
		Name:       t.Name.String(),
		ClassCount: int(t.ClassCount),
	}
	for _, d := range t.Descriptions {
		doc.Descriptions = append(doc.Descriptions, descDoc{Name: d.Name.String(), Address: d.Address, Len: d.Len})
	}
	for _, c := range t.Classes {
		doc.Classes = append(doc.Classes, newClassDoc(c))
	}
	for _, f := range errors.Flatten(findings) {
		doc.Findings = append(doc.Findings, f.Error())
	}
	return doc
}

func newClassDoc(c oma.Class) classDoc {
	cd := classDoc{
		Name:          c.Name.String(),
		ElementCount:  c.ElementCount,
		ElementLength: c.ElementLength,
	}
	switch k := c.Kind.(type) {
	case oma.Gplb:
		cd.Gplb = make([]gplbDoc, 0, len(k))
		for _, e := range k {
			cd.Gplb = append(cd.Gplb, gplbDoc{ID: e.ID, Association: e.Association.String(), TitleID: e.TitleID})
		}
	case oma.Tplb:
		cd.Tplb = k.TitleIDs()
	case oma.Raw:
		cd.Raw = hex.EncodeToString(k.Data)
	}
	return cd
}

func treeDoc(t *catalog.Tree, checked bool) tableDoc {
	doc := newTableDoc(t.Path, t.Size, t.Digest, t.Table, t.Findings)
	doc.Axis = t.Axis.String()
	doc.Checked = checked
	return doc
}

var cborMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("omadump: CBOR encoder initialization failed: " + err.Error())
	}
	return em
}()

func render(w io.Writer, format string, docs []tableDoc, styled bool) error {
	switch format {
	case config.FormatText:
		return renderText(w, docs, newStyles(styled))
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return err
		}
		return enc.Close()
	case config.FormatCBOR:
		data, err := cborMode.Marshal(docs)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	default:
		return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown format %q", format))
	}
}

type styles struct {
	title    lipgloss.Style
	label    lipgloss.Style
	tag      lipgloss.Style
	value    lipgloss.Style
	finding  lipgloss.Style
	ok       lipgloss.Style
	inactive lipgloss.Style
}

func newStyles(styled bool) styles {
	if !styled {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain, plain}
	}
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
		tag:      lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		value:    lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		finding:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		ok:       lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90")),
		inactive: lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

const tplbPerLine = 16

func renderText(w io.Writer, docs []tableDoc, s styles) error {
	var b strings.Builder
	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n")
		}
		heading := doc.Path
		if doc.Axis != "" {
			heading += " (" + doc.Axis + ")"
		}
		b.WriteString(s.title.Render(doc.Name) + " " + heading + "\n")
		fmt.Fprintf(&b, "%s %d bytes, %d classes", s.label.Render("size"), doc.Size, doc.ClassCount)
		if doc.Digest != "" {
			fmt.Fprintf(&b, ", %s %s", s.label.Render("blake3"), doc.Digest)
		}
		b.WriteString("\n")

		for j, d := range doc.Descriptions {
			fmt.Fprintf(&b, "  %s %s %s %s\n",
				s.tag.Render(d.Name),
				s.label.Render("at"), s.value.Render(fmt.Sprintf("0x%06x", d.Address)),
				s.label.Render(fmt.Sprintf("len 0x%x", d.Len)))
			if j < len(doc.Classes) {
				writeClassText(&b, doc.Classes[j], s)
			}
		}

		switch {
		case len(doc.Findings) > 0:
			fmt.Fprintf(&b, "%s\n", s.finding.Render(fmt.Sprintf("%d index findings", len(doc.Findings))))
			for _, f := range doc.Findings {
				b.WriteString("  " + s.finding.Render(f) + "\n")
			}
		case doc.Checked:
			b.WriteString(s.ok.Render("index consistent") + "\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeClassText(b *strings.Builder, c classDoc, s styles) {
	fmt.Fprintf(b, "    %s %d x %d\n", s.tag.Render(c.Name), c.ElementCount, c.ElementLength)
	for i, e := range c.Gplb {
		line := fmt.Sprintf("      [%d] id %d %s title %d", i, e.ID, e.Association, e.TitleID)
		if e.Association == oma.AssocUnused.String() {
			line = s.inactive.Render(line)
		}
		b.WriteString(line + "\n")
	}
	for i := 0; i < len(c.Tplb); i += tplbPerLine {
		end := min(i+tplbPerLine, len(c.Tplb))
		ids := make([]string, 0, end-i)
		for _, id := range c.Tplb[i:end] {
			ids = append(ids, fmt.Sprint(id))
		}
		fmt.Fprintf(b, "      %s %s\n", s.label.Render(fmt.Sprintf("%4d:", i+1)), strings.Join(ids, " "))
	}
	if c.Raw != "" {
		fmt.Fprintf(b, "      %s %d bytes\n", s.label.Render("raw"), len(c.Raw)/2)
	}
}
