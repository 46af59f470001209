package persist

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Row kinds.
const (
	kindNone    = "none"
	kindBool    = "bool"
	kindInt     = "int"
	kindFloat   = "float"
	kindString  = "string"
	kindFloats  = "floats"
	kindInts    = "ints"
	kindStrings = "strings"
	kindMatrix  = "matrix"
	kindTuple   = "tuple"
	kindGroup   = "group"
	kindSparse  = "sparse"
)

// sparse children
const (
	sparseData    = "data"
	sparseIndices = "indices"
	sparseIndptr  = "indptr"
	sparseShape   = "shape"
)

type entry struct {
	Path  string
	Kind  string
	Shape string
	Data  []byte
}

// encoder flattens a mapping into entries, applying the rule table.
type encoder struct {
	rules   []Rule
	logger  *slog.Logger
	entries []entry
}

func (e *encoder) add(path, kind, shape string, data []byte) {
	e.entries = append(e.entries, entry{Path: path, Kind: kind, Shape: shape, Data: data})
}

func checkKey(prefix, key string) error {
	if key == "" || strings.Contains(key, "/") {
		return fmt.Errorf("%w: %q under %q", ErrInvalidKey, key, "/"+prefix)
	}
	return nil
}

func (e *encoder) mapping(prefix string, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if err := checkKey(prefix, key); err != nil {
			return err
		}
		p := prefix + key
		value := m[key]

		switch action := actionFor(e.rules, key); action {
		case ActionSkip:
			e.logger.Info("key not saved", "key", p)
			continue
		case ActionNone:
			value = nil
		case ActionTuple:
			if values, ok := numericSlice(value); ok {
				e.logger.Debug("key stored as tuple", "key", p)
				e.add(p, kindTuple, strconv.Itoa(len(values)), encodeFloats(values))
				continue
			}
		case ActionArray:
			if arr, ok := arrayValue(value); ok {
				e.logger.Debug("key converted to array", "key", p)
				value = arr
			}
		case ActionFloatArray:
			if values, ok := numericSlice(value); ok {
				value = values
			} else if f, ok := numericScalar(value); ok {
				value = []float64{f}
			}
		}

		if err := e.value(p, value); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) value(p string, v any) error {
	switch v := v.(type) {
	case nil:
		e.add(p, kindNone, "", nil)
	case bool:
		b := byte(0)
		if v {
			b = 1
		}
		e.add(p, kindBool, "", []byte{b})
	case int:
		e.add(p, kindInt, "", encodeInts([]int64{int64(v)}))
	case int32:
		e.add(p, kindInt, "", encodeInts([]int64{int64(v)}))
	case int64:
		e.add(p, kindInt, "", encodeInts([]int64{v}))
	case float32:
		e.add(p, kindFloat, "", encodeFloats([]float64{float64(v)}))
	case float64:
		e.add(p, kindFloat, "", encodeFloats([]float64{v}))
	case string:
		e.add(p, kindString, "", []byte(v))
	case []float64:
		e.add(p, kindFloats, strconv.Itoa(len(v)), encodeFloats(v))
	case Tuple:
		e.add(p, kindTuple, strconv.Itoa(len(v)), encodeFloats(v))
	case []int:
		ints := make([]int64, len(v))
		for i, x := range v {
			ints[i] = int64(x)
		}
		e.add(p, kindInts, strconv.Itoa(len(v)), encodeInts(ints))
	case []int64:
		e.add(p, kindInts, strconv.Itoa(len(v)), encodeInts(v))
	case []string:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %q: %w", p, err)
		}
		e.add(p, kindStrings, strconv.Itoa(len(v)), data)
	case *mat.Dense:
		if v == nil || v.IsEmpty() {
			e.add(p, kindMatrix, "0,0", nil)
			return nil
		}
		r, c := v.Dims()
		e.add(p, kindMatrix, fmt.Sprintf("%d,%d", r, c), encodeFloats(mat.DenseCopyOf(v).RawMatrix().Data))
	case *mat.VecDense:
		if v == nil {
			e.add(p, kindFloats, "0", nil)
			return nil
		}
		values := make([]float64, v.Len())
		for i := range values {
			values[i] = v.AtVec(i)
		}
		e.add(p, kindFloats, strconv.Itoa(len(values)), encodeFloats(values))
	case *SparseCSC:
		e.logger.Debug("key stored as sparse", "key", p, "nnz", v.NNZ())
		e.add(p, kindSparse, fmt.Sprintf("%d,%d", v.Rows, v.Cols), nil)
		e.add(p+"/"+sparseData, kindFloats, strconv.Itoa(len(v.Data)), encodeFloats(v.Data))
		e.add(p+"/"+sparseIndices, kindInts, strconv.Itoa(len(v.Indices)), encodeInts(v.Indices))
		e.add(p+"/"+sparseIndptr, kindInts, strconv.Itoa(len(v.Indptr)), encodeInts(v.Indptr))
		e.add(p+"/"+sparseShape, kindInts, "2", encodeInts([]int64{int64(v.Rows), int64(v.Cols)}))
	case map[string]any:
		e.add(p, kindGroup, "", nil)
		return e.mapping(p+"/", v)
	case Fielder:
		e.add(p, kindGroup, "", nil)
		return e.mapping(p+"/", v.Fields())
	default:
		return &UnsupportedTypeError{Key: "/" + p, Type: fmt.Sprintf("%T", v)}
	}
	return nil
}

// numericSlice converts list-like numeric values to float64.
func numericSlice(v any) ([]float64, bool) {
	switch v := v.(type) {
	case []float64:
		return slices.Clone(v), true
	case Tuple:
		return slices.Clone(v), true
	case []float32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, true
	case []int:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, true
	case []int64:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, true
	case *mat.VecDense:
		out := make([]float64, v.Len())
		for i := range out {
			out[i] = v.AtVec(i)
		}
		return out, true
	case []any:
		out := make([]float64, len(v))
		for i, x := range v {
			f, ok := numericScalar(x)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	}
	return nil, false
}

func numericScalar(v any) (float64, bool) {
	switch v := v.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// arrayValue turns a list-like value into an array, keeping integer
// element types as integers.
func arrayValue(v any) (any, bool) {
	switch v := v.(type) {
	case []int, []int64:
		return v, true
	case []any:
		ints := make([]int64, 0, len(v))
		for _, x := range v {
			switch n := x.(type) {
			case int:
				ints = append(ints, int64(n))
			case int64:
				ints = append(ints, n)
			default:
				return numericSlice(v)
			}
		}
		return ints, true
	}
	return numericSlice(v)
}

func encodeFloats(values []float64) []byte {
	buf := make([]byte, 0, 8*len(values))
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	return buf
}

func encodeInts(values []int64) []byte {
	buf := make([]byte, 0, 8*len(values))
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(v))
	}
	return buf
}

func decodeFloats(data []byte) ([]float64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a float64 array", ErrCorruptStore, len(data))
	}
	out := make([]float64, len(data)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[8*i:]))
	}
	return out, nil
}

func decodeInts(data []byte) ([]int64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not an int64 array", ErrCorruptStore, len(data))
	}
	out := make([]int64, len(data)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(data[8*i:]))
	}
	return out, nil
}

// decode rebuilds a leaf value from its row.
func decode(e entry) (any, error) {
	switch e.Kind {
	case kindNone:
		return nil, nil
	case kindBool:
		if len(e.Data) != 1 {
			return nil, fmt.Errorf("%w: bool %q has %d bytes", ErrCorruptStore, e.Path, len(e.Data))
		}
		return e.Data[0] == 1, nil
	case kindInt:
		ints, err := decodeInts(e.Data)
		if err != nil || len(ints) != 1 {
			return nil, fmt.Errorf("%w: int %q", ErrCorruptStore, e.Path)
		}
		return ints[0], nil
	case kindFloat:
		values, err := decodeFloats(e.Data)
		if err != nil || len(values) != 1 {
			return nil, fmt.Errorf("%w: float %q", ErrCorruptStore, e.Path)
		}
		return values[0], nil
	case kindString:
		return string(e.Data), nil
	case kindFloats:
		return decodeFloats(e.Data)
	case kindTuple:
		values, err := decodeFloats(e.Data)
		return Tuple(values), err
	case kindInts:
		return decodeInts(e.Data)
	case kindStrings:
		var out []string
		if err := json.Unmarshal(e.Data, &out); err != nil {
			return nil, fmt.Errorf("%w: strings %q: %w", ErrCorruptStore, e.Path, err)
		}
		return out, nil
	case kindMatrix:
		var r, c int
		if _, err := fmt.Sscanf(e.Shape, "%d,%d", &r, &c); err != nil {
			return nil, fmt.Errorf("%w: matrix %q shape %q", ErrCorruptStore, e.Path, e.Shape)
		}
		values, err := decodeFloats(e.Data)
		if err != nil {
			return nil, err
		}
		if len(values) != r*c {
			return nil, fmt.Errorf("%w: matrix %q has %d values for shape %s", ErrCorruptStore, e.Path, len(values), e.Shape)
		}
		if r == 0 || c == 0 {
			return &mat.Dense{}, nil
		}
		return mat.NewDense(r, c, values), nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q at %q", ErrCorruptStore, e.Kind, e.Path)
}
