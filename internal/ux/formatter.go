package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/parkspot/internal/errors"
)

// Formatter writes one command result to the output.
type Formatter interface {
	Format(data interface{}) error
}

// TextRenderer is implemented by results with a terminal rendering:
// tables, detail views and Result.
type TextRenderer interface {
	RenderText(w io.Writer, opts *FormatterOptions) error
}

// FormatterOptions configures every formatter
type FormatterOptions struct {
	Writer  io.Writer // os.Stdout when nil
	NoColor bool
	// Compact drops indentation from JSON and YAML
	Compact bool
}

type encodeFunc func(opts *FormatterOptions, data interface{}) error

type formatter struct {
	opts   *FormatterOptions
	encode encodeFunc
}

func (f *formatter) Format(data interface{}) error {
	return f.encode(f.opts, data)
}

var encoders = map[string]encodeFunc{
	"text": encodeText,
	"json": encodeJSON,
	"yaml": encodeYAML,
}

// Formats lists the output format names in sorted order
func Formats() []string {
	names := make([]string, 0, len(encoders))
	for name := range encoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewFormatter returns the formatter for format. An empty name means text.
func NewFormatter(format string, opts *FormatterOptions) (Formatter, error) {
	o := FormatterOptions{}
	if opts != nil {
		o = *opts
	}
	if o.Writer == nil {
		o.Writer = os.Stdout
	}

	name := strings.ToLower(strings.TrimSpace(format))
	if name == "" {
		name = "text"
	}
	encode, ok := encoders[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown output format %q", format)).
			WithSuggestion("Use one of: " + strings.Join(Formats(), ", "))
	}
	return &formatter{opts: &o, encode: encode}, nil
}

func encodeJSON(opts *FormatterOptions, data interface{}) error {
	enc := json.NewEncoder(opts.Writer)
	if !opts.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

func encodeYAML(opts *FormatterOptions, data interface{}) error {
	enc := yaml.NewEncoder(opts.Writer)
	if !opts.Compact {
		enc.SetIndent(2)
	}
	if err := enc.Encode(data); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// encodeText accepts a TextRenderer, a string or a Stringer
func encodeText(opts *FormatterOptions, data interface{}) error {
	var line string
	switch v := data.(type) {
	case TextRenderer:
		return v.RenderText(opts.Writer, opts)
	case string:
		line = v
	case fmt.Stringer:
		line = v.String()
	default:
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("no text rendering for %T", data)).
			WithSuggestion("Use --format json or --format yaml")
	}
	_, err := fmt.Fprintln(opts.Writer, line)
	return err
}
