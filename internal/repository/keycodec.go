package repository

import (
	"fmt"
	"math/rand/v2"
	"reflect"
	"strings"

	"github.com/google/uuid"
)

// KeySeparator joins the parts of a composite key into the single string id
// the store requires. Key parts are not escaped: a part whose own string form
// contains the separator produces an ambiguous id. Documented limitation.
const KeySeparator = "|"

// EncodeKey converts one, two or three key parts into the document id.
// Encoding is total, deterministic and order-sensitive; each part is
// formatted with its type's own string conversion. Every id in the system
// comes from this one function, never from ad-hoc string building.
func EncodeKey(parts ...any) string {
	strs := make([]string, len(parts))
	for i, part := range parts {
		strs[i] = fmt.Sprintf("%v", part)
	}
	return strings.Join(strs, KeySeparator)
}

// IsZeroKey reports whether the key equals the zero value of its type.
func IsZeroKey[K comparable](key K) bool {
	var zero K
	return key == zero
}

// RandomKey produces a fresh random key value appropriate to K's shape:
// string kinds get a UUID, integer kinds get a random positive value. Used
// only by the single-key repository when Add receives a model with a zero
// key; multi-key variants never generate key parts.
func RandomKey[K comparable]() (K, error) {
	var key K
	rv := reflect.ValueOf(&key).Elem()

	switch rv.Kind() {
	case reflect.String:
		rv.SetString(uuid.NewString())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		rv.SetInt(randomInt(rv.Type().Bits()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		rv.SetUint(uint64(randomInt(rv.Type().Bits())))
	default:
		return key, fmt.Errorf("cannot generate a random key for type %s", rv.Type())
	}
	return key, nil
}

// randomInt returns a non-zero positive value that fits a signed integer of
// the given bit width.
func randomInt(bits int) int64 {
	v := int64(rand.Uint64() >> (65 - bits))
	if v == 0 {
		v = 1
	}
	return v
}
