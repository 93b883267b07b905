package json

import (
	"bytes"
	"encoding/json"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var jsonAdapter jsoniter.API

func init() {
	jsonAdapter = jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            false,
		ValidateJsonRawMessage: true,
		UseNumber:              true,
	}.Froze()
}

// Marshal marshals v into valid JSON.
func Marshal(v interface{}) ([]byte, error) {
	if m, ok := v.(json.Marshaler); ok {
		return m.MarshalJSON()
	}
	return jsonAdapter.Marshal(v)
}

// MarshalIndent is like Marshal but applies Indent to format the output.
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	if m, ok := v.(json.Marshaler); ok {
		b, err := m.MarshalJSON()
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err = json.Indent(&buf, b, prefix, indent); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return jsonAdapter.MarshalIndent(v, prefix, indent)
}

// Unmarshal unmarshals JSON data into v. Numbers decode as json.Number so
// the integer/float distinction survives into type detection.
func Unmarshal(data []byte, v interface{}) error {
	if m, ok := v.(json.Unmarshaler); ok {
		return m.UnmarshalJSON(data)
	}
	return jsonAdapter.Unmarshal(data, v)
}

// DecodeObject unmarshals a JSON document body into a generic object.
func DecodeObject(data []byte) (map[string]interface{}, error) {
	var obj map[string]interface{}
	if err := Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// NewDecoder creates a decoder reading from an input stream.
func NewDecoder(r io.Reader) *jsoniter.Decoder {
	return jsonAdapter.NewDecoder(r)
}
