package cache

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// KeySeparator separates key segments.
const KeySeparator = "::"

type defaultKeySerializer struct {
	namespace string
}

// NewDefaultKeySerializer returns a serializer producing keys of the form
// namespace::method::arg::arg. Structs and maps are encoded as JSON, which
// sorts map keys, so equal filters give equal keys.
func NewDefaultKeySerializer(namespace string) KeySerializer {
	return &defaultKeySerializer{namespace: namespace}
}

func (s *defaultKeySerializer) SerializeKey(method string, args ...any) string {
	parts := make([]string, 0, len(args)+2)
	if s.namespace != "" {
		parts = append(parts, s.namespace)
	}
	parts = append(parts, method)
	for _, arg := range args {
		parts = append(parts, serializeArg(arg))
	}
	return strings.Join(parts, KeySeparator)
}

// Prefix returns the key prefix shared by every key of method, for use with
// CacheService.DeleteByPrefix.
func Prefix(s KeySerializer, method string) string {
	return s.SerializeKey(method)
}

func serializeArg(v any) string {
	switch t := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T", v)
	}
	return string(data)
}
