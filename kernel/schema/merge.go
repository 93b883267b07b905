package schema

// MergeObjects merges a partial update into the stored version of a
// document: maps merge recursively, everything else is replaced by the
// patch. The inputs are not mutated.
func MergeObjects(old, patch map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(old)+len(patch))
	for k, v := range old {
		out[k] = copyObjectValue(v)
	}
	for k, v := range patch {
		if sub, ok := v.(map[string]interface{}); ok {
			if prev, ok := out[k].(map[string]interface{}); ok {
				out[k] = MergeObjects(prev, sub)
				continue
			}
		}
		out[k] = copyObjectValue(v)
	}
	return out
}

// copyObjectValue deep-copies document values, keeping plain map types.
func copyObjectValue(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, e := range x {
			out[k] = copyObjectValue(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = copyObjectValue(e)
		}
		return out
	default:
		return v
	}
}
