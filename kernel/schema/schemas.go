package schema

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/nivalisdb/nivalis/kernel/store"
)

// Persistence of the schema object: a single nested map written to the
// shard under the reserved metadata key, MessagePack encoded. A thin
// foreign redirect of exactly {_type: "foreign/object", _endpoint: url} is
// tolerated in place of a full schema.

// Load reads and validates the persisted schema of a shard.
func Load(sh store.Shard) (*Schema, error) {
	raw, err := sh.Metadata(store.MetaSchema)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return New(nil)
	}
	var obj map[string]interface{}
	if err := msgpack.Unmarshal(raw, &obj); err != nil {
		return nil, SchemaCorruptf("", "cannot decode persisted schema: %s", err.Error())
	}
	return New(obj)
}

// Save writes the published snapshot back to the shard.
func Save(sh store.Shard, s *Schema) error {
	var obj map[string]interface{}
	if s.Endpoint() != "" {
		obj = map[string]interface{}{
			ReservedType:     "foreign/object",
			ReservedEndpoint: s.Endpoint(),
		}
	} else {
		obj = map[string]interface{}(s.Origin())
	}
	raw, err := msgpack.Marshal(obj)
	if err != nil {
		return err
	}
	return sh.SetMetadata(store.MetaSchema, raw)
}

// Commit publishes a pending draft and persists it; on a persistence
// failure the published pointer is left untouched and the draft dropped.
func Commit(sh store.Shard, s *Schema) error {
	if !s.Dirty() {
		return nil
	}
	draft := s.mut
	keep := s.origin
	s.origin = draft
	s.mut = nil
	if err := Save(sh, s); err != nil {
		s.origin = keep
		return err
	}
	return nil
}

// Schemas resolves foreign endpoints to their schema handles through a
// bounded cache, so hot redirect targets are not re-read per document.
type Schemas struct {
	cache   *lru.Cache
	resolve func(endpoint string) (store.Shard, error)
}

func NewSchemas(size int, resolve func(endpoint string) (store.Shard, error)) (*Schemas, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Schemas{cache: c, resolve: resolve}, nil
}

// Get returns the schema for an endpoint, loading and caching on miss.
func (ss *Schemas) Get(endpoint string) (*Schema, error) {
	if v, ok := ss.cache.Get(endpoint); ok {
		return v.(*Schema), nil
	}
	sh, err := ss.resolve(endpoint)
	if err != nil {
		return nil, err
	}
	s, err := Load(sh)
	if err != nil {
		return nil, err
	}
	ss.cache.Add(endpoint, s)
	return s, nil
}

// Invalidate drops a cached endpoint after its schema changed.
func (ss *Schemas) Invalidate(endpoint string) {
	ss.cache.Remove(endpoint)
}
