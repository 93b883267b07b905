package schema

import (
	"strings"

	"github.com/nivalisdb/nivalis/kernel/field"
)

// Properties is one node of the persistent schema tree: declarative sub-keys
// (reserved names) plus children nodes, all msgpack-roundtrippable.
type Properties map[string]interface{}

// Child returns the named child node when present.
func (p Properties) Child(name string) (Properties, bool) {
	v, ok := p[name]
	if !ok {
		return nil, false
	}
	switch m := v.(type) {
	case Properties:
		return m, true
	case map[string]interface{}:
		return Properties(m), true
	}
	return nil, false
}

// Get resolves a dotted path for reading; missing segments are an error.
func (p Properties) Get(path string) (Properties, error) {
	cur := p
	if path == "" {
		return cur, nil
	}
	for _, seg := range strings.Split(path, PathSeparator) {
		next, ok := cur.Child(seg)
		if !ok {
			return nil, ClientErrorf("schema path %q not found", path)
		}
		cur = next
	}
	return cur, nil
}

// GetMutable resolves a dotted path for writing, creating intermediate
// nodes.
func (p Properties) GetMutable(path string) Properties {
	cur := p
	if path == "" {
		return cur
	}
	for _, seg := range strings.Split(path, PathSeparator) {
		next, ok := cur.Child(seg)
		if !ok {
			next = Properties{}
			cur[seg] = next
		}
		cur = next
	}
	return cur
}

// Clear discards every property; valid at the root only.
func (p Properties) Clear() {
	for k := range p {
		delete(p, k)
	}
}

// deepCopy clones the whole subtree; the copy-on-write draft starts here.
func (p Properties) deepCopy() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v interface{}) interface{} {
	switch x := v.(type) {
	case Properties:
		return x.deepCopy()
	case map[string]interface{}:
		return Properties(x).deepCopy()
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}

// Check validates a schema payload. The accepted forms are: a foreign/object
// redirect holding _endpoint; a map with a nested _schema whose type, if
// set, is object; or a raw schema payload when allowRoot is set. The
// reserved _schemas key is rejected anywhere inside.
func Check(obj map[string]interface{}, allowForeign, allowRoot bool) (endpoint string, inner map[string]interface{}, err error) {
	if obj == nil {
		return "", nil, ClientErrorf("schema must be an object")
	}
	if _, found := obj[ReservedSchemas]; found {
		return "", nil, ClientErrorf("%s is not allowed inside a schema", ReservedSchemas)
	}

	if typv, ok := obj[ReservedType]; ok {
		typs, ok := typv.(string)
		if !ok {
			return "", nil, ClientErrorf("%s must be a string", ReservedType)
		}
		t, perr := field.ParseType(typs)
		if perr != nil {
			return "", nil, ClientErrorf("%s", perr.Error())
		}
		if t.IsForeign() {
			if !allowForeign {
				return "", nil, ClientErrorf("foreign schema not allowed here")
			}
			ep, ok := obj[ReservedEndpoint].(string)
			if !ok || ep == "" {
				return "", nil, ClientErrorf("foreign schema requires %s", ReservedEndpoint)
			}
			return ep, nil, nil
		}
		if !t.IsObject() && t.Concrete() != field.Empty {
			return "", nil, ClientErrorf("schema type must be object, got %q", typs)
		}
	}

	if sv, ok := obj[ReservedSchema]; ok {
		inner, ok := sv.(map[string]interface{})
		if !ok {
			return "", nil, ClientErrorf("%s must be an object", ReservedSchema)
		}
		if _, found := inner[ReservedSchemas]; found {
			return "", nil, ClientErrorf("%s is not allowed inside a schema", ReservedSchemas)
		}
		if typv, ok := inner[ReservedType]; ok {
			typs, _ := typv.(string)
			t, perr := field.ParseType(typs)
			if perr != nil {
				return "", nil, ClientErrorf("%s", perr.Error())
			}
			if !t.IsObject() {
				return "", nil, ClientErrorf("%s type must be object", ReservedSchema)
			}
		}
		return "", inner, nil
	}

	if !allowRoot {
		return "", nil, ClientErrorf("schema payload requires %s", ReservedSchema)
	}
	return "", obj, nil
}
