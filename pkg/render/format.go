package render

import (
	"strings"

	"github.com/matzehuels/pagesmith/pkg/errors"
)

// Format is an output format.
type Format string

// Output formats.
const (
	FormatHTML   Format = "html"
	FormatJSON   Format = "json"
	FormatExport Format = "export"
	FormatJSX    Format = "jsx"
	FormatDOT    Format = "dot"
	FormatSVG    Format = "svg"
	FormatText   Format = "text"
)

var formats = []Format{FormatHTML, FormatJSON, FormatExport, FormatJSX, FormatDOT, FormatSVG, FormatText}

// Formats returns every supported format.
func Formats() []Format {
	return append([]Format(nil), formats...)
}

// FormatNames returns the supported format names, for flag help.
func FormatNames() []string {
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = string(f)
	}
	return out
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want one of %s)", s, strings.Join(FormatNames(), ", "))
}

// ParseFormats parses a comma-separated list, dropping duplicates.
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "no format given")
	}
	return out, nil
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatExport:
		return ".export.json"
	case FormatText:
		return ".txt"
	default:
		return "." + string(f)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatJSON, FormatExport:
		return "application/json"
	case FormatJSX:
		return "text/javascript; charset=utf-8"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	case FormatSVG:
		return "image/svg+xml"
	default:
		return "text/plain; charset=utf-8"
	}
}
