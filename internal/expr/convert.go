package expr

import (
	"fmt"
	"math"

	"github.com/zclconf/go-cty/cty"
)

// ToValue converts a plain Go value into a cty value. Arrays become tuples
// and maps become objects, so mixed element types are allowed.
func ToValue(v any) (cty.Value, error) {
	switch n := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return n, nil
	case string:
		return cty.StringVal(n), nil
	case bool:
		return cty.BoolVal(n), nil
	case int:
		return cty.NumberIntVal(int64(n)), nil
	case int64:
		return cty.NumberIntVal(n), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return cty.NilVal, fmt.Errorf("unsupported number %v", n)
		}
		return cty.NumberFloatVal(n), nil
	case []string:
		if len(n) == 0 {
			return cty.EmptyTupleVal, nil
		}
		vals := make([]cty.Value, len(n))
		for i, s := range n {
			vals[i] = cty.StringVal(s)
		}
		return cty.TupleVal(vals), nil
	case []any:
		if len(n) == 0 {
			return cty.EmptyTupleVal, nil
		}
		vals := make([]cty.Value, len(n))
		for i, item := range n {
			cv, err := ToValue(item)
			if err != nil {
				return cty.NilVal, fmt.Errorf("[%d]: %w", i, err)
			}
			vals[i] = cv
		}
		return cty.TupleVal(vals), nil
	case map[string]any:
		if len(n) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(n))
		for k, item := range n {
			cv, err := ToValue(item)
			if err != nil {
				return cty.NilVal, fmt.Errorf("%s: %w", k, err)
			}
			attrs[k] = cv
		}
		return cty.ObjectVal(attrs), nil
	case map[string][]string:
		attrs := make(map[string]any, len(n))
		for k, items := range n {
			attrs[k] = items
		}
		return ToValue(attrs)
	default:
		return cty.NilVal, fmt.Errorf("unsupported value of type %T", v)
	}
}

// FromValue converts a known cty value back into plain Go values: string,
// bool, int64 or float64, []any and map[string]any.
func FromValue(v cty.Value) any {
	if v.IsNull() || !v.IsKnown() {
		return nil
	}

	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString()
	case t == cty.Bool:
		return v.True()
	case t == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == 0 {
				return i
			}
		}
		f, _ := bf.Float64()
		return f
	case t.IsListType(), t.IsSetType(), t.IsTupleType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, FromValue(ev))
		}
		return out
	case t.IsMapType(), t.IsObjectType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			out[k.AsString()] = FromValue(ev)
		}
		return out
	default:
		return nil
	}
}
