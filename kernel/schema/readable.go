package schema

// Readable walks a persisted schema and strips the storage-internal
// properties before it is served back to a user: prefixes and slots are
// hidden, the stem language shows only when it differs from the language,
// scripts are cleaned recursively, and the root-only defaults disappear at
// the root.
func Readable(props Properties) map[string]interface{} {
	return readable(props, true)
}

func readable(props Properties, root bool) map[string]interface{} {
	out := make(map[string]interface{}, len(props))
	language, _ := props[ReservedLanguage].(string)
	for k, v := range props {
		switch k {
		case ReservedPrefix, ReservedSlot, ReservedAccPrefix:
			continue
		case ReservedStemLanguage:
			if s, ok := v.(string); ok && s == language {
				continue
			}
		case ReservedID, ReservedVersion:
			if root {
				continue
			}
		case ReservedScript:
			if m, ok := v.(map[string]interface{}); ok {
				out[k] = readable(Properties(m), false)
				continue
			}
		}
		if child, ok := asProps(v); ok && !isReserved(k) {
			out[k] = readable(child, false)
			continue
		}
		out[k] = v
	}
	return out
}

func asProps(v interface{}) (Properties, bool) {
	switch m := v.(type) {
	case Properties:
		return m, true
	case map[string]interface{}:
		return Properties(m), true
	}
	return nil, false
}
