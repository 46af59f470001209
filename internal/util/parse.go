// Package util holds the small parsers shared by the CLI, the wizard and the
// config loader.
package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDims parses "HxW" (also "H,W" or a single "N" for a square field).
func ParseDims(s string) (height, width int, err error) {
	s = strings.ToLower(strings.TrimSpace(s))
	var parts []string
	switch {
	case strings.Contains(s, "x"):
		parts = strings.Split(s, "x")
	case strings.Contains(s, ","):
		parts = strings.Split(s, ",")
	default:
		parts = []string{s, s}
	}
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid dims %q: expected HxW", s)
	}

	height, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid dims %q: %w", s, err)
	}
	width, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid dims %q: %w", s, err)
	}
	if height <= 0 || width <= 0 {
		return 0, 0, fmt.Errorf("invalid dims %q: must be positive", s)
	}
	return height, width, nil
}

// ParseScales parses the fluctuation length scales "temporal,spatial".
// "none", "off" and "" disable fluctuations and return ok == false.
func ParseScales(s string) (temporal, spatial float64, ok bool, err error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "none", "off", "false":
		return 0, 0, false, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false, fmt.Errorf("invalid fluctuation scales %q: expected temporal,spatial or none", s)
	}
	temporal, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid temporal scale in %q: %w", s, err)
	}
	spatial, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid spatial scale in %q: %w", s, err)
	}
	if temporal <= 0 || spatial <= 0 {
		return 0, 0, false, fmt.Errorf("invalid fluctuation scales %q: must be positive", s)
	}
	return temporal, spatial, true, nil
}

// FormatScales is the inverse of ParseScales.
func FormatScales(temporal, spatial float64, ok bool) string {
	if !ok {
		return "none"
	}
	return strconv.FormatFloat(temporal, 'g', -1, 64) + "," + strconv.FormatFloat(spatial, 'g', -1, 64)
}

// Format is an on-disk output format.
type Format int

const (
	FormatStore Format = iota
	FormatHDF5
	FormatDICOM
)

// String returns the canonical flag value of the format
func (f Format) String() string {
	switch f {
	case FormatHDF5:
		return "h5"
	case FormatDICOM:
		return "dicom"
	default:
		return "store"
	}
}

// Extension returns the file suffix written for the format ("" for
// directory outputs).
func (f Format) Extension() string {
	switch f {
	case FormatHDF5:
		return ".h5"
	case FormatDICOM:
		return ""
	default:
		return ".db"
	}
}

// ParseFormat parses a single format name
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "store", "sqlite", "db":
		return FormatStore, nil
	case "h5", "hdf5":
		return FormatHDF5, nil
	case "dicom", "dcm":
		return FormatDICOM, nil
	default:
		return FormatStore, UnknownNameError("format", s, []string{"store", "h5", "dicom"})
	}
}

// ParseFormats parses a comma-separated list of formats, dropping
// duplicates and keeping the first-seen order.
func ParseFormats(s string) ([]Format, error) {
	var formats []Format
	seen := map[Format]bool{}
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
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// JoinFormats is the inverse of ParseFormats.
func JoinFormats(formats []Format) string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.String()
	}
	return strings.Join(names, ",")
}
