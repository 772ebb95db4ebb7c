package config

import (
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
)

// decodeProperties turns the properties attribute of a collection block into
// descriptor values. Numbers stay numbers, so `shards = 2` is written as 2.
func decodeProperties(val cty.Value) (map[string]any, error) {
	if val.Type() == cty.NilType || val.IsNull() {
		return nil, nil
	}

	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("properties must be an object, got %s", val.Type().FriendlyName())
	}

	decoded, err := decodeValue(val)
	if err != nil {
		return nil, err
	}

	return decoded.(map[string]any), nil
}

func decodeValue(val cty.Value) (any, error) {
	if !val.IsKnown() {
		return nil, fmt.Errorf("unknown value of type %s", val.Type().FriendlyName())
	}
	if val.IsNull() {
		return nil, nil
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			decoded, err := decodeValue(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k.AsString(), err)
			}
			out[k.AsString()] = decoded
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			decoded, err := decodeValue(v)
			if err != nil {
				return nil, err
			}
			out = append(out, decoded)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
	}
}
