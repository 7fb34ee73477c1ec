package tyconf

import (
	"fmt"

	"github.com/vk/tyconf/value"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// ToCty converts v, a value parsed with t, into a cty value. Records and
// named payloads become objects, tuples and positional payloads tuples,
// lists lists (or tuples when their elements differ in type), None a null,
// and a union value an object with a single attribute named after the
// variant.
func ToCty(t value.Type, v any) (cty.Value, error) {
	cv, err := t.ToCty(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to convert %s: %w", t.Name(), err)
	}
	return cv, nil
}

// MarshalJSON encodes v, a value parsed with t, as JSON through ToCty.
func MarshalJSON(t value.Type, v any) ([]byte, error) {
	cv, err := ToCty(t, v)
	if err != nil {
		return nil, err
	}
	data, err := ctyjson.Marshal(cv, cv.Type())
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s as JSON: %w", t.Name(), err)
	}
	return data, nil
}
