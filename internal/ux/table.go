package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	labelStyle  = lipgloss.NewStyle().Bold(true)
)

// Table renders rows with a rounded lipgloss border
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Empty is printed instead of the table when there are no rows
	Empty string
}

// RenderText implements TextRenderer
func (t *Table) RenderText(w io.Writer, opts *FormatterOptions) error {
	if t.Title != "" {
		if _, err := fmt.Fprintln(w, t.style(labelStyle, opts).Render(t.Title)); err != nil {
			return err
		}
	}
	if len(t.Rows) == 0 {
		msg := t.Empty
		if msg == "" {
			msg = "Nothing to show."
		}
		_, err := fmt.Fprintln(w, msg)
		return err
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(t.style(borderStyle, opts)).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return t.style(headerStyle, opts)
			}
			return cellStyle
		})

	_, err := fmt.Fprintln(w, tbl.String())
	return err
}

func (t *Table) style(s lipgloss.Style, opts *FormatterOptions) lipgloss.Style {
	if opts != nil && opts.NoColor {
		return s.UnsetForeground().UnsetBold()
	}
	return s
}

// Field is one line of a Details view
type Field struct {
	Label string
	Value string
}

// Details renders a title followed by aligned label/value lines
type Details struct {
	Title  string
	Fields []Field
}

// RenderText implements TextRenderer
func (d *Details) RenderText(w io.Writer, opts *FormatterOptions) error {
	label := labelStyle
	if opts != nil && opts.NoColor {
		label = lipgloss.NewStyle()
	}

	width := 0
	for _, f := range d.Fields {
		width = max(width, len(f.Label))
	}

	var b strings.Builder
	if d.Title != "" {
		b.WriteString(label.Render(d.Title))
		b.WriteString("\n")
	}
	for _, f := range d.Fields {
		b.WriteString("  ")
		b.WriteString(label.Render(fmt.Sprintf("%-*s", width+1, f.Label+":")))
		b.WriteString(" ")
		b.WriteString(f.Value)
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Result pairs machine-readable data with a terminal rendering of it.
// JSON and YAML formatters see Data; the text formatter sees Text.
type Result struct {
	Data any
	Text TextRenderer
}

// RenderText implements TextRenderer
func (r Result) RenderText(w io.Writer, opts *FormatterOptions) error {
	if r.Text == nil {
		o := FormatterOptions{Writer: w}
		if opts != nil {
			o = *opts
			o.Writer = w
		}
		return encodeText(&o, r.Data)
	}
	return r.Text.RenderText(w, opts)
}

// MarshalJSON encodes Data
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Data)
}

// MarshalYAML encodes Data
func (r Result) MarshalYAML() (interface{}, error) {
	return r.Data, nil
}

// Message is a plain line of text that still encodes as an object
type Message struct {
	Text string `json:"message" yaml:"message"`
}

// String implements fmt.Stringer
func (m Message) String() string {
	return m.Text
}
