// Package metadata parses the key=value image descriptions that ScanImage
// embeds in the TIFF frames it records.
package metadata

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Description is a parsed image description. Values are bool, int64,
// float64, string, []float64 (row vectors) or [][]float64 (matrices).
type Description map[string]any

// ParseDescription parses every line containing "=" into a key and value.
// Key and value are trimmed of spaces and carriage returns; the value is
// everything after the first "=". Later duplicates overwrite earlier ones.
func ParseDescription(r io.Reader) (Description, error) {
	d := Description{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		d[strings.Trim(key, " \r")] = ParseValue(strings.Trim(value, " \r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read description: %w", err)
	}
	return d, nil
}

// ParseString is ParseDescription over a string.
func ParseString(s string) Description {
	d, _ := ParseDescription(strings.NewReader(s))
	return d
}

// ParseValue converts a single description value. Values that are not a
// recognised literal are returned unchanged as strings.
func ParseValue(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	case "NaN":
		return math.NaN()
	case "inf", "Inf":
		return math.Inf(1)
	case "-inf", "-Inf":
		return math.Inf(-1)
	}

	if n, ok := parseNumber(v); ok {
		return n
	}
	if s, ok := unquote(v); ok {
		return s
	}
	if strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]") {
		if m, ok := parseArray(v[1 : len(v)-1]); ok {
			return m
		}
	}
	return v
}

func parseNumber(v string) (any, bool) {
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !strings.ContainsAny(v, "nNiI") {
		return f, true
	}
	return nil, false
}

func unquote(v string) (string, bool) {
	if len(v) < 2 {
		return "", false
	}
	q := v[0]
	if (q != '\'' && q != '"') || v[len(v)-1] != q {
		return "", false
	}
	inner := v[1 : len(v)-1]
	doubled := string([]byte{q, q})
	if strings.Contains(strings.ReplaceAll(inner, doubled, ""), string(q)) {
		return "", false
	}
	return strings.ReplaceAll(inner, doubled, string(q)), true
}

// parseArray parses the inside of a numeric array literal. Elements are
// separated by spaces or commas, rows by semicolons. A single row gives a
// []float64, several rows of equal length a [][]float64.
func parseArray(body string) (any, bool) {
	var rows [][]float64
	for _, line := range strings.Split(body, ";") {
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ' ' || r == ',' || r == '\t'
		})
		row := make([]float64, 0, len(fields))
		for _, f := range fields {
			x, ok := parseElement(f)
			if !ok {
				return nil, false
			}
			row = append(row, x)
		}
		rows = append(rows, row)
	}

	if len(rows) == 1 {
		return rows[0], true
	}
	for _, row := range rows {
		if len(row) != len(rows[0]) {
			return nil, false
		}
	}
	return rows, true
}

func parseElement(s string) (float64, bool) {
	switch s {
	case "NaN":
		return math.NaN(), true
	case "Inf", "inf":
		return math.Inf(1), true
	case "-Inf", "-inf":
		return math.Inf(-1), true
	case "true":
		return 1, true
	case "false":
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || strings.ContainsAny(s, "nNiI") {
		return 0, false
	}
	return f, true
}

// MarshalJSON encodes the description with non-finite numbers written as
// the strings "NaN", "Inf" and "-Inf".
func (d Description) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = jsonSafe(v)
	}
	return json.Marshal(out)
}

func jsonSafe(v any) any {
	switch v := v.(type) {
	case float64:
		return finite(v)
	case []float64:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = finite(x)
		}
		return out
	case [][]float64:
		out := make([]any, len(v))
		for i, row := range v {
			out[i] = jsonSafe(row)
		}
		return out
	default:
		return v
	}
}

func finite(x float64) any {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Inf"
	case math.IsInf(x, -1):
		return "-Inf"
	}
	return x
}
