package persist

import (
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Walk visits every value of m depth first in key order. Nested mappings are
// visited before their children.
func Walk(m map[string]any, fn func(path string, value any)) {
	walk("", m, fn)
}

func walk(prefix string, m map[string]any, fn func(string, any)) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		p := prefix + "/" + k
		fn(p, m[k])
		if child, ok := m[k].(map[string]any); ok {
			walk(p, child, fn)
		}
	}
}

// Describe returns a one-line summary of a loaded value.
func Describe(v any) string {
	switch v := v.(type) {
	case nil:
		return "none"
	case map[string]any:
		return fmt.Sprintf("group (%d keys)", len(v))
	case *mat.Dense:
		r, c := v.Dims()
		return fmt.Sprintf("matrix %dx%d", r, c)
	case *SparseCSC:
		return fmt.Sprintf("sparse %dx%d (%d non-zero)", v.Rows, v.Cols, v.NNZ())
	case Tuple:
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = fmt.Sprint(x)
		}
		return "tuple (" + strings.Join(parts, ", ") + ")"
	case []float64:
		return fmt.Sprintf("float64[%d]", len(v))
	case []int64:
		return fmt.Sprintf("int64[%d]", len(v))
	case []string:
		return fmt.Sprintf("string[%d]", len(v))
	case string:
		return fmt.Sprintf("string %q", v)
	default:
		return fmt.Sprintf("%T %v", v, v)
	}
}
