package docmodel

import (
	"fmt"
	"math"
)

// PropBag is an opaque, type-specific attribute mapping carried by a node.
// The model never interprets a bag beyond numeric validation; each node
// type's encode/decode gives its keys meaning.
type PropBag map[string]interface{}

func (p PropBag) clone() PropBag {
	if p == nil {
		return nil
	}
	out := make(PropBag, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ValidateProps walks a nested props structure and rejects any numeric field
// holding NaN or an infinity. It fails eagerly with the path to the first
// offending field.
func ValidateProps(props PropBag) error {
	return validatePropsValue("", map[string]interface{}(props))
}

func validatePropsValue(path string, value interface{}) error {
	switch v := value.(type) {
	case float64:
		return validateFloat(path, v)
	case float32:
		return validateFloat(path, float64(v))
	case PropBag:
		return validatePropsValue(path, map[string]interface{}(v))
	case map[string]interface{}:
		for k, item := range v {
			if err := validatePropsValue(joinPath(path, k), item); err != nil {
				return err
			}
		}
	case []interface{}:
		for i, item := range v {
			if err := validatePropsValue(fmt.Sprintf("%s[%d]", path, i), item); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateFloat(path string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidParameterError{Path: path, Value: v}
	}
	return nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
