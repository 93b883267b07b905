package schema

import (
	"strings"

	"github.com/nivalisdb/nivalis/kernel/document"
	"github.com/nivalisdb/nivalis/kernel/field"
	"github.com/nivalisdb/nivalis/kernel/serialise"
	"github.com/nivalisdb/nivalis/kernel/store"
)

// traversal is the per-document state of the recursive descent. The
// specification is pushed by value around every recursion step and restored
// on return; there are no back-references from child to parent.
type traversal struct {
	s      *Schema
	doc    *document.Document
	shards *store.ShardSet
	spc    *Specification
}

// feedProps populates the current specification from a persisted node.
func (t *traversal) feedProps(props Properties) error {
	c := &dctx{spc: t.spc}
	for _, k := range sortedKeys(props) {
		if !isReserved(k) {
			continue
		}
		p := lookup(k)
		if p == nil || p.feed == nil {
			continue
		}
		if err := p.feed(c, props[k]); err != nil {
			return err
		}
	}
	return nil
}

// processProps applies user-supplied reserved properties. Locked properties
// of already-concrete fields go through the consistency plane; everything
// else through process. When mut is non-nil (a new field) the accepted
// values are mirrored back into the mutable schema.
func (t *traversal) processProps(mut Properties, user Properties, persisted Properties) error {
	c := &dctx{spc: t.spc}
	locked := t.spc.Flags.Concrete && persisted != nil

	// Abstract properties first; _type before the rest so the concrete
	// plane sees the declared type.
	if v, ok := user[ReservedType]; ok {
		p := lookup(ReservedType)
		if locked {
			if err := p.consistency(c, v); err != nil {
				return err
			}
		} else if err := p.process(c, v); err != nil {
			return err
		}
	}

	var cast string
	var castValue interface{}
	for _, k := range sortedKeys(user) {
		switch k {
		case ReservedType, ReservedID, ReservedVersion, ReservedSchema:
			// _type ran first; the structural keys have their own handling
			// in the root traversal.
			continue
		case ReservedSchemas:
			return ClientErrorf("%s is not allowed inside a schema", ReservedSchemas)
		}
		if ft, ok := castKeywords[k]; ok {
			if cast != "" {
				return ClientErrorf("more than one cast in object (%s and %s)", cast, k)
			}
			cast = k
			castValue = user[k]
			if !t.spc.Flags.Concrete && t.spc.SepTypes.Concrete() == field.Empty {
				t.spc.SepTypes[field.SpcConcrete] = ft
			} else if t.spc.SepTypes.Concrete() != ft && !(ft == field.Geo && t.spc.SepTypes.Concrete() == field.Geo) {
				return ClientErrorf("%s cast does not match %s type", k, t.spc.SepTypes.Concrete())
			}
			continue
		}
		p := lookup(k)
		if p == nil {
			return ClientErrorf("%q is not a valid reserved property", k)
		}
		if locked && p.consistency != nil {
			if err := p.consistency(c, user[k]); err != nil {
				return err
			}
			continue
		}
		if p.process != nil {
			if err := p.process(c, user[k]); err != nil {
				return err
			}
		}
	}

	if cast != "" {
		t.spc.ValueRec = castValue
		t.spc.CastType = strings.TrimPrefix(cast, "_")
	}

	if mut != nil {
		for _, k := range sortedKeys(user) {
			p := lookup(k)
			if p == nil || p.write == nil {
				continue
			}
			if err := p.write(c, mut); err != nil {
				return err
			}
		}
	}
	return nil
}

// resetFieldLocal clears the per-field parts of the specification before
// descending into a child, keeping the inheritable ones.
func (t *traversal) resetFieldLocal() {
	spc := t.spc
	spc.LocalPrefix = Prefix{}
	spc.Slot = BadValueNo
	spc.SepTypes = field.EmptyType
	spc.Accuracy = nil
	spc.AccPrefix = nil
	spc.Flags.Concrete = false
	spc.Flags.Complete = false
	spc.Flags.FieldWithType = false
	spc.Flags.FieldFound = false
	spc.Flags.BoolTerm = false
	spc.Flags.HasBoolTerm = false
	spc.Flags.HasIndex = false
	spc.Flags.UUIDField = false
	spc.Flags.IsNamespace = false
	spc.Flags.HasNamespace = false
	spc.Flags.Recurse = true
	spc.Value = nil
	spc.ValueRec = nil
	spc.CastType = ""
	spc.DocAcc = nil
	spc.Endpoint = ""
	spc.Script = nil
	spc.Ignored = nil
}

// updatePrefixes folds the segment's local prefix into the accumulated
// streams; UUID paths choose the streams by the index_uuid_field mode.
func (t *traversal) updatePrefixes() {
	spc := t.spc
	if spc.Flags.UUIDPath {
		switch spc.IndexUUIDField {
		case UUIDIndexUUID:
			if spc.Flags.UUIDField && len(spc.LocalPrefix.UUID) > 0 {
				spc.Prefix.Field = append(spc.Prefix.Field, spc.LocalPrefix.UUID...)
			} else {
				spc.Prefix.Field = append(spc.Prefix.Field, spc.LocalPrefix.Field...)
			}
		case UUIDIndexField:
			spc.Prefix.Field = append(spc.Prefix.Field, spc.LocalPrefix.Field...)
		default: // both
			if len(spc.Prefix.UUID) == 0 && len(spc.Prefix.Field) > 0 {
				spc.Prefix.UUID = append([]byte(nil), spc.Prefix.Field...)
			}
			spc.Prefix.Field = append(spc.Prefix.Field, spc.LocalPrefix.Field...)
			if spc.Flags.UUIDField && len(spc.LocalPrefix.UUID) > 0 {
				spc.Prefix.UUID = append(spc.Prefix.UUID, spc.LocalPrefix.UUID...)
			} else {
				spc.Prefix.UUID = append(spc.Prefix.UUID, spc.LocalPrefix.Field...)
			}
			spc.Flags.HasUUIDPrefix = true
		}
	} else {
		spc.Prefix.Field = append(spc.Prefix.Field, spc.LocalPrefix.Field...)
	}
}

// subProperties resolves a (possibly dotted) field name against the schema
// tree, creating draft nodes for new fields and folding UUID-named segments
// into the synthetic uuid child.
func (t *traversal) subProperties(props Properties, name string) (Properties, error) {
	spc := t.spc
	cur := props
	for _, seg := range strings.Split(name, PathSeparator) {
		if seg == "" {
			return nil, ClientErrorf("field name %q has an empty segment", name)
		}
		isUUIDSeg := looksLikeUUID(seg)
		childName := seg
		if isUUIDSeg {
			childName = uuidFieldName
		}

		full := joinPath(spc.FullMetaName, seg)
		schemaPath := joinPath(spc.SchemaPath, childName)
		t.resetFieldLocal()
		spc.MetaName = seg

		insideNamespace := spc.Flags.InsideNamespace

		if child, ok := cur.Child(childName); ok {
			spc.Flags.FieldFound = true
			if err := t.feedProps(child); err != nil {
				return nil, err
			}
			cur = child
		} else if insideNamespace {
			// Namespace descendants are dynamic: nothing is persisted for
			// them, their prefixes derive from the path.
			if !spc.Flags.Dynamic {
				return nil, ClientErrorf("field %q does not exist (dynamic is off)", full)
			}
			cur = Properties{}
		} else {
			if !spc.Flags.Dynamic {
				return nil, ClientErrorf("field %q does not exist (dynamic is off)", full)
			}
			cur = t.s.mutable().GetMutable(schemaPath)
		}

		if isUUIDSeg {
			raw, err := serialise.UUID(seg)
			if err != nil {
				return nil, ClientErrorf("%q is not a valid uuid", seg)
			}
			spc.Flags.UUIDField = true
			spc.Flags.UUIDPath = true
			spc.LocalPrefix.UUID = uuidPrefix(raw)
			if len(spc.LocalPrefix.Field) == 0 {
				spc.LocalPrefix.Field = fieldPrefix(schemaPath)
			}
		} else if len(spc.LocalPrefix.Field) == 0 {
			spc.LocalPrefix.Field = fieldPrefix(schemaPath)
		}

		t.updatePrefixes()

		if insideNamespace {
			spc.PartialPrefixes = append(spc.PartialPrefixes, spc.Prefix.clone())
		}

		spc.FullMetaName = full
		spc.SchemaPath = schemaPath

		if spc.Flags.IsNamespace {
			spc.Flags.InsideNamespace = true
			spc.PartialPrefixes = append(spc.PartialPrefixes, spc.Prefix.clone())
		}
	}
	return cur, nil
}

// defineField applies a schema definition object to a field node without
// indexing any value; used by schema Update and Write.
func (t *traversal) defineField(props Properties, name string, obj map[string]interface{}) error {
	node, err := t.subProperties(props, name)
	if err != nil {
		return err
	}
	spc := t.spc
	var mut Properties
	if !spc.Flags.InsideNamespace {
		// Schema definitions always persist, found or not.
		mut = t.s.mutable().GetMutable(spc.SchemaPath)
	}
	var persisted Properties
	if spc.Flags.FieldFound {
		persisted = node
	}
	if err := t.processProps(mut, objectProps(obj), persisted); err != nil {
		return err
	}
	if spc.Flags.IsNamespace && !spc.Flags.InsideNamespace {
		spc.Flags.InsideNamespace = true
	}
	for _, childName := range sortedKeys(obj) {
		if isReserved(childName) || isComment(childName) {
			continue
		}
		childObj, ok := obj[childName].(map[string]interface{})
		if !ok {
			return ClientErrorf("schema field %q must be an object", joinPath(spc.FullMetaName, childName))
		}
		branch := spc.Clone()
		saved := t.spc
		t.spc = &branch
		err := t.defineField(node, childName, childObj)
		t.spc = saved
		if err != nil {
			return err
		}
	}
	return nil
}

// indexChildren walks the non-reserved children of an object in sorted order
// of their names, rejecting duplicates that canonicalize to the same field.
func (t *traversal) indexChildren(props Properties, obj, data map[string]interface{}, spc Specification) error {
	seen := make(map[string]string)
	for _, name := range sortedKeys(obj) {
		if isReserved(name) {
			continue
		}
		if isComment(name) {
			continue
		}
		canon := canonicalName(name)
		if prev, dup := seen[canon]; dup {
			return ClientErrorf("Field %s is duplicated (%s and %s)", canon, prev, name)
		}
		seen[canon] = name
		if canon != name {
			if _, ok := data[name]; ok {
				data[canon] = data[name]
				delete(data, name)
			}
		}

		branch := spc.Clone()
		t.spc = &branch
		err := t.indexObject(props, obj[name], data, canon)
		t.spc = &spc
		if err != nil {
			return err
		}
	}
	return nil
}

// indexObject dispatches one child field by the shape of its value.
func (t *traversal) indexObject(props Properties, value interface{}, data map[string]interface{}, name string) error {
	spc := t.spc
	if !spc.Flags.Recurse {
		return nil
	}
	if spc.Ignored != nil {
		if _, ok := spc.Ignored[name]; ok {
			return nil
		}
		if _, ok := spc.Ignored["*"]; ok {
			return nil
		}
	}

	switch v := value.(type) {
	case map[string]interface{}:
		return t.indexMap(props, v, data, name)
	case []interface{}:
		return t.indexArray(props, v, data, name)
	case nil:
		// Nothing to index; the null is stored as-is.
		return nil
	default:
		if _, err := t.subProperties(props, name); err != nil {
			return err
		}
		return t.indexLeaf(data, name, -1, v, 0)
	}
}

// indexMap descends into an object-valued field: reserved properties are
// processed against the schema node, then children recurse, then any
// pending leaf value is indexed. A {_value: x} wrapper collapses to x in
// the stored object.
func (t *traversal) indexMap(props Properties, obj, data map[string]interface{}, name string) error {
	subProps, err := t.subProperties(props, name)
	if err != nil {
		return err
	}
	spc := t.spc

	var mut Properties
	if !spc.Flags.FieldFound && !spc.Flags.InsideNamespace {
		mut = t.s.mutable().GetMutable(spc.SchemaPath)
	}
	var persisted Properties
	if spc.Flags.FieldFound {
		persisted = subProps
	}
	if err := t.processProps(mut, objectProps(obj), persisted); err != nil {
		return err
	}

	if spc.Flags.IsNamespace && !spc.Flags.InsideNamespace {
		spc.Flags.InsideNamespace = true
		spc.PartialPrefixes = append(spc.PartialPrefixes, spc.Prefix.clone())
	}

	if spc.SepTypes.IsForeign() {
		return t.indexForeign(obj, data, name)
	}

	dataChild, _ := data[name].(map[string]interface{})
	if dataChild != nil {
		for k := range dataChild {
			if !isReserved(k) || k == ReservedValue {
				continue
			}
			if _, isCast := castKeywords[k]; isCast {
				continue
			}
			delete(dataChild, k)
		}
	}

	if err := t.indexChildren(subProps, obj, dataChild, *spc); err != nil {
		return err
	}
	// indexChildren restored t.spc to the snapshot it was given; re-point.
	spc = t.spc

	if spc.ValueRec != nil {
		if err := t.indexLeafCast(dataChild, spc.CastType, spc.ValueRec); err != nil {
			return err
		}
	} else if spc.Value != nil {
		if arr, ok := spc.Value.([]interface{}); ok {
			spc.SepTypes[field.SpcArray] = field.Array
			for i, e := range arr {
				if err := t.indexLeaf(dataChild, ReservedValue, i, e, i); err != nil {
					return err
				}
			}
		} else if err := t.indexLeaf(dataChild, ReservedValue, -1, spc.Value, 0); err != nil {
			return err
		}
	} else if spc.SepTypes.Concrete() == field.Empty && !hasNonReserved(obj) && !spc.Flags.Concrete {
		if spc.Flags.Strict && !spc.Flags.FieldWithType {
			return MissingTypeErrorf("%q requires an explicit type in strict mode", spc.FullMetaName)
		}
	}

	// Collapse and clean the stored object.
	if dataChild != nil {
		if v, ok := dataChild[ReservedValue]; ok && len(dataChild) == 1 {
			data[name] = v
		} else if len(dataChild) == 0 {
			delete(data, name)
		}
	}
	return nil
}

// indexForeign validates a foreign field: an endpoint reference with no
// concrete children and no leaf value.
func (t *traversal) indexForeign(obj, data map[string]interface{}, name string) error {
	spc := t.spc
	if spc.Endpoint == "" {
		return ClientErrorf("foreign field %q requires %s", spc.FullMetaName, ReservedEndpoint)
	}
	if spc.Value != nil || spc.ValueRec != nil {
		return ClientErrorf("foreign field %q cannot carry a value", spc.FullMetaName)
	}
	if hasNonReserved(obj) {
		return ClientErrorf("foreign field %q cannot carry concrete fields", spc.FullMetaName)
	}
	if t.s.schemas != nil {
		if _, err := t.s.schemas.Get(spc.Endpoint); err != nil {
			return ClientErrorf("foreign field %q endpoint %q: %s", spc.FullMetaName, spc.Endpoint, err.Error())
		}
	}
	return nil
}

func hasNonReserved(obj map[string]interface{}) bool {
	for k := range obj {
		if !isReserved(k) && !isComment(k) {
			return true
		}
	}
	return false
}

// indexArray indexes every element of an array-valued field preserving the
// positional index.
func (t *traversal) indexArray(props Properties, arr []interface{}, data map[string]interface{}, name string) error {
	if _, err := t.subProperties(props, name); err != nil {
		return err
	}
	t.spc.SepTypes[field.SpcArray] = field.Array
	for i, e := range arr {
		switch v := e.(type) {
		case map[string]interface{}:
			// Element objects share the field's schema node.
			branch := t.spc.Clone()
			saved := t.spc
			t.spc = &branch
			err := t.indexArrayObject(v, data, name, i)
			t.spc = saved
			if err != nil {
				return err
			}
		case []interface{}:
			return ClientErrorf("nested arrays are not supported in %q", t.spc.FullMetaName)
		case nil:
			continue
		default:
			if err := t.indexLeaf(data, name, i, v, i); err != nil {
				return err
			}
		}
	}
	return nil
}

// indexArrayObject handles one object element of an array field.
func (t *traversal) indexArrayObject(obj, data map[string]interface{}, name string, pos int) error {
	spc := t.spc
	var mut Properties
	if !spc.Flags.FieldFound && !spc.Flags.InsideNamespace {
		mut = t.s.mutable().GetMutable(spc.SchemaPath)
	}
	if err := t.processProps(mut, objectProps(obj), nil); err != nil {
		return err
	}
	var dataChild map[string]interface{}
	if arr, ok := data[name].([]interface{}); ok && pos < len(arr) {
		dataChild, _ = arr[pos].(map[string]interface{})
	}
	if spc.ValueRec != nil {
		return t.indexLeafCastAt(data, name, pos, spc.CastType, spc.ValueRec)
	}
	if spc.Value != nil {
		if err := t.indexLeaf(data, name, pos, spc.Value, pos); err != nil {
			return err
		}
		if arr, ok := data[name].([]interface{}); ok && pos < len(arr) {
			if m, ok := arr[pos].(map[string]interface{}); ok {
				if v, has := m[ReservedValue]; has && len(m) == 1 {
					arr[pos] = v
				}
			}
		}
		return nil
	}
	if dataChild != nil {
		// Nested object element: index its own children.
		props := Properties{}
		if node, err := Properties(t.s.Props()).Get(spc.SchemaPath); err == nil {
			props = node
		}
		return t.indexChildren(props, obj, dataChild, *spc)
	}
	return nil
}
