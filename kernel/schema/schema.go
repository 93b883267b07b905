package schema

import (
	"sort"
	"strings"

	"github.com/nivalisdb/nivalis/kernel/document"
	"github.com/nivalisdb/nivalis/kernel/field"
	"github.com/nivalisdb/nivalis/kernel/serialise"
	"github.com/nivalisdb/nivalis/kernel/store"
)

// uuidFieldName is the synthetic child under which every UUID-named sibling
// of a field is folded.
const uuidFieldName = "<uuid_field>"

// Schema holds the published immutable properties and, while a document is
// being processed, a private mutable draft. A Schema value is not safe for
// concurrent use; workers clone from the published snapshot.
type Schema struct {
	origin   Properties
	mut      Properties
	endpoint string
	schemas  *Schemas
}

// New builds a Schema from a persisted schema object. A nil object starts an
// empty schema; a foreign/object redirect keeps only its endpoint.
func New(obj map[string]interface{}) (*Schema, error) {
	if obj == nil {
		return &Schema{origin: Properties{}}, nil
	}
	ep, inner, err := Check(obj, true, true)
	if err != nil {
		return nil, err
	}
	if ep != "" {
		return &Schema{origin: Properties{}, endpoint: ep}, nil
	}
	return &Schema{origin: Properties(inner)}, nil
}

// Endpoint reports the foreign redirect target, empty for local schemas.
func (s *Schema) Endpoint() string {
	return s.endpoint
}

// SetSchemas installs the resolver used to reach foreign-field endpoint
// schemas. Without one, foreign fields are shape-checked only.
func (s *Schema) SetSchemas(ss *Schemas) {
	s.schemas = ss
}

// Props returns the newest view: the draft when a mutation is pending, else
// the published snapshot.
func (s *Schema) Props() Properties {
	if s.mut != nil {
		return s.mut
	}
	return s.origin
}

// Origin returns the published snapshot.
func (s *Schema) Origin() Properties {
	return s.origin
}

// mutable returns the draft, copying the published subtree on first use.
func (s *Schema) mutable() Properties {
	if s.mut == nil {
		s.mut = s.origin.deepCopy()
	}
	return s.mut
}

// Discard drops the draft; the published snapshot stays untouched.
func (s *Schema) Discard() {
	s.mut = nil
}

// Dirty reports whether a draft is pending.
func (s *Schema) Dirty() bool {
	return s.mut != nil
}

// Swap publishes the draft and returns it; false when nothing changed.
func (s *Schema) Swap() (Properties, bool) {
	if s.mut == nil {
		return nil, false
	}
	s.origin = s.mut
	s.mut = nil
	return s.origin, true
}

// Update applies a user schema object to the root, merging with the
// persisted schema. Returns true when the root was replaced by a foreign
// redirect.
func (s *Schema) Update(obj map[string]interface{}) (bool, error) {
	return s.Write(obj, false)
}

// Write is Update with an optional clear of the root first.
func (s *Schema) Write(obj map[string]interface{}, replace bool) (bool, error) {
	ep, inner, err := Check(obj, true, true)
	if err != nil {
		return false, err
	}
	if ep != "" {
		s.endpoint = ep
		mut := s.mutable()
		mut.Clear()
		mut[ReservedType] = "foreign/object"
		mut[ReservedEndpoint] = ep
		return true, nil
	}
	mut := s.mutable()
	if replace {
		mut.Clear()
	}
	spc := Default()
	t := &traversal{s: s, spc: &spc}
	if err := t.processProps(mut, objectProps(inner), nil); err != nil {
		s.Discard()
		return false, err
	}
	for _, name := range sortedKeys(inner) {
		if isReserved(name) || isComment(name) {
			continue
		}
		child, ok := inner[name].(map[string]interface{})
		if !ok {
			s.Discard()
			return false, ClientErrorf("schema field %q must be an object", name)
		}
		branch := spc.Clone()
		t.spc = &branch
		err := t.defineField(s.Props(), name, child)
		t.spc = &spc
		if err != nil {
			s.Discard()
			return false, err
		}
	}
	return false, nil
}

// IndexResult is what one document traversal produces.
type IndexResult struct {
	IDTerm string
	Doc    *document.Document
	Data   map[string]interface{}
}

// Index traverses one document object: it feeds or extends the schema,
// emits the per-leaf index operations, resolves the document id and returns
// the accumulated artifact. On error the draft schema is discarded.
func (s *Schema) Index(obj map[string]interface{}, id interface{}, shards *store.ShardSet, oldDoc map[string]interface{}, runner ScriptRunner) (res *IndexResult, err error) {
	defer func() {
		if err != nil {
			s.Discard()
		}
	}()

	if s.endpoint != "" {
		return nil, ClientErrorf("schema is foreign, use endpoint %q", s.endpoint)
	}

	doc := document.New()
	spc := Default()
	t := &traversal{s: s, doc: doc, shards: shards, spc: &spc}

	// Classify the root.
	rootProps := s.Props()
	if len(rootProps) == 0 {
		spc.Flags.FieldFound = false
		if err = t.processProps(s.mutable(), objectProps(obj), nil); err != nil {
			return nil, err
		}
	} else {
		if err = t.feedProps(rootProps); err != nil {
			return nil, err
		}
		if err = t.processProps(nil, objectProps(obj), rootProps); err != nil {
			return nil, err
		}
	}

	// Scripts rebuild the field vector before indexation continues.
	if spc.Script != nil {
		obj, err = runScript(runner, spc.Script, stripReservedScript(obj), oldDoc)
		if err != nil {
			return nil, err
		}
	}

	// Resolve the document id.
	idTerm, idValue, err := t.resolveID(id, obj)
	if err != nil {
		return nil, err
	}

	data := copyObject(obj)
	delete(data, ReservedScript)
	delete(data, ReservedSchema)
	data[ReservedID] = idValue

	// Version lane.
	if ver, ok := obj[ReservedVersion]; ok {
		vb, serr := serialise.Serialise(field.Positive, ver, false)
		if serr != nil {
			return nil, SerialisationErrorf("%s: %s", ReservedVersion, serr.Error())
		}
		doc.ValueSet(SlotVersion).Add(vb)
	}

	rootSpc := t.spc.Clone()
	if err = t.indexChildren(s.Props(), obj, data, rootSpc); err != nil {
		return nil, err
	}

	// Boolean id term; the numeric auto-increment sentinel is reserved.
	if idTerm != reservedTermNumericID {
		doc.AddBooleanTerm(idTerm)
	}
	doc.ValueSet(SlotID).Add([]byte(idTerm))

	return &IndexResult{IDTerm: idTerm, Doc: doc, Data: data}, nil
}

// resolveID serialises the supplied id with the declared id specification,
// allocating one when missing and auto-detecting the type on the first
// document.
func (t *traversal) resolveID(id interface{}, obj map[string]interface{}) (string, interface{}, error) {
	if id == nil {
		if v, ok := obj[ReservedID]; ok {
			switch x := v.(type) {
			case map[string]interface{}:
				// {_type: ...} declaration, no value.
			default:
				id = x
			}
		}
	}

	idSpc := Default()
	idSpc.MetaName = ReservedID
	idSpc.FullMetaName = ReservedID
	idSpc.Flags.BoolTerm = true
	idSpc.Flags.HasBoolTerm = true
	idSpc.Index = field.IndexFieldAll
	idSpc.Slot = SlotID

	props := t.s.Props()
	idProps, hasProps := props.Child(ReservedID)
	if hasProps {
		c := &dctx{spc: &idSpc}
		for _, k := range sortedKeys(idProps) {
			p := lookup(k)
			if p == nil || p.feed == nil {
				continue
			}
			if err := p.feed(c, idProps[k]); err != nil {
				return "", nil, err
			}
		}
	}
	if decl, ok := obj[ReservedID].(map[string]interface{}); ok {
		c := &dctx{spc: &idSpc}
		for _, k := range sortedKeys(decl) {
			p := lookup(k)
			if p == nil {
				continue
			}
			if hasProps && idSpc.Flags.Concrete && p.consistency != nil {
				if err := p.consistency(c, decl[k]); err != nil {
					return "", nil, err
				}
				continue
			}
			if p.process != nil {
				if err := p.process(c, decl[k]); err != nil {
					return "", nil, err
				}
			}
		}
		if v, ok := decl[ReservedValue]; ok && id == nil {
			id = v
		}
	}

	idType := idSpc.SepTypes.Concrete()
	if id == nil {
		if idType == field.Empty {
			idType = field.UUID
		}
		id = AllocateID(idType, t.shards)
	}
	if idType == field.Empty {
		detected, _, gerr := serialise.Guess(id)
		if gerr != nil {
			return "", nil, SerialisationErrorf("%s: cannot detect id type", ReservedID)
		}
		if detected == field.Text {
			detected = field.Keyword
		}
		idType = detected
	}

	b, serr := serialise.Serialise(idType, id, idSpc.Flags.BoolTerm)
	if serr != nil {
		return "", nil, SerialisationErrorf("%s: %s", ReservedID, serr.Error())
	}
	idTerm := serialise.Prefixed(b, []byte(idPrefix), field.CType(idType))

	// Mirror the id specification for the documents that follow.
	if !idSpc.Flags.Concrete || !hasProps {
		mut := t.s.mutable().GetMutable(ReservedID)
		mut[ReservedType] = field.Type{field.Empty, field.Empty, field.Empty, idType}.String()
		mut[ReservedBoolTerm] = true
		mut[ReservedSlot] = uint64(SlotID)
		mut[ReservedIndex] = idSpc.Index.String()
	}

	idValue := normalizeStored(idType, id)
	return idTerm, idValue, nil
}

// stripReservedScript removes the script body so it is not traversed as a
// field.
func stripReservedScript(obj map[string]interface{}) map[string]interface{} {
	if _, ok := obj[ReservedScript]; !ok {
		return obj
	}
	out := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		if k == ReservedScript {
			continue
		}
		out[k] = v
	}
	return out
}

func objectProps(obj map[string]interface{}) Properties {
	out := Properties{}
	for k, v := range obj {
		if isReserved(k) {
			out[k] = v
		}
	}
	return out
}

func copyObject(obj map[string]interface{}) map[string]interface{} {
	out, _ := copyObjectValue(obj).(map[string]interface{})
	return out
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalizeStored renders the canonical stored form of a value: UUIDs
// lowercased canonical, dates ISO-8601.
func normalizeStored(t field.FieldType, v interface{}) interface{} {
	switch t {
	case field.UUID:
		if s, ok := v.(string); ok {
			if raw, err := serialise.UUID(s); err == nil {
				return serialise.CanonicalUUID(raw)
			}
		}
	case field.Date, field.Datetime:
		if _, tm, err := serialise.Datetime(v); err == nil {
			return tm.ISO()
		}
	}
	return v
}

// joinPath joins schema path segments.
func joinPath(parent, seg string) string {
	if parent == "" {
		return seg
	}
	return parent + PathSeparator + seg
}

// canonicalName normalizes UUID segments of a field name to their canonical
// form so aliases of the same identifier collide.
func canonicalName(name string) string {
	segments := strings.Split(name, PathSeparator)
	changed := false
	for i, seg := range segments {
		if raw, err := serialise.UUID(seg); err == nil && looksLikeUUID(seg) {
			segments[i] = serialise.CanonicalUUID(raw)
			changed = true
		}
	}
	if !changed {
		return name
	}
	return strings.Join(segments, PathSeparator)
}

// looksLikeUUID guards canonicalName against plain words: only strings the
// UUID parser accepts in one of its explicit forms qualify.
func looksLikeUUID(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '~' {
		return serialise.IsUUID(s)
	}
	if len(s) == 36 || (len(s) == 38 && s[0] == '{') || strings.HasPrefix(strings.ToLower(s), "urn:uuid:") {
		return serialise.IsUUID(s)
	}
	return false
}
