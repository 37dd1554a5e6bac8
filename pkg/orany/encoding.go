package orany

import (
	"bytes"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// Wildcard is the textual form of a wildcard.
//
// Note: in YAML documents it has to be quoted ("*"), otherwise it is parsed as an alias.
const Wildcard = "*"

// Parse returns a wildcard for "*" and a concrete value for everything else (including the empty string).
func Parse(s string) OrAny[string] {
	if strings.TrimSpace(s) == Wildcard {
		return Any[string]()
	}

	return Some(s)
}

// ParseAll calls Parse for each element of values.
func ParseAll(values []string) []OrAny[string] {
	result := make([]OrAny[string], 0, len(values))

	for _, v := range values {
		result = append(result, Parse(v))
	}

	return result
}

// MarshalYAML implements yaml.Marshaler.
//
// A wildcard is encoded as "*". Some("*") is encoded the same way, so it decodes as a wildcard.
func (o OrAny[T]) MarshalYAML() (interface{}, error) {
	if !o.some {
		return Wildcard, nil
	}

	return o.value, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
//
// yaml.v3 does not call UnmarshalYAML for null nodes, so null leaves o unchanged
// (an unset field stays a wildcard). UnmarshalJSON does the same.
func (o *OrAny[T]) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Value == Wildcard {
		*o = Any[T]()

		return nil
	}

	var v T

	err := value.Decode(&v)
	if err != nil {
		return err
	}

	*o = Some(v)

	return nil
}

// MarshalJSON implements json.Marshaler.
//
// A wildcard is encoded as "*". Some("*") is encoded the same way, so it decodes as a wildcard.
func (o OrAny[T]) MarshalJSON() ([]byte, error) {
	if !o.some {
		return json.Marshal(Wildcard)
	}

	return json.Marshal(o.value)
}

// UnmarshalJSON implements json.Unmarshaler.
//
// "*" decodes to a wildcard. By json.Unmarshaler convention null is a no-op.
func (o *OrAny[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if bytes.Equal(data, []byte(`"`+Wildcard+`"`)) {
		*o = Any[T]()

		return nil
	}

	var v T

	err := json.Unmarshal(data, &v)
	if err != nil {
		return err
	}

	*o = Some(v)

	return nil
}
