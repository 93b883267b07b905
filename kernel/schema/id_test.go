package schema

import (
	"testing"

	"github.com/nivalisdb/nivalis/kernel/field"
	"github.com/nivalisdb/nivalis/kernel/serialise"
	"github.com/nivalisdb/nivalis/kernel/store"
)

func TestAllocateNumericID(t *testing.T) {
	shards := store.NewShardSet(store.NewMemShard())
	for _, ft := range []field.FieldType{field.Integer, field.Positive, field.Floating} {
		id := AllocateID(ft, shards)
		if id != uint64(0) {
			t.Fatalf("numeric ids use the auto-increment sentinel, got %v", id)
		}
	}
}

func TestAllocateUUID(t *testing.T) {
	shards := store.NewShardSet(store.NewMemShard())
	id := AllocateID(field.UUID, shards)
	s, ok := id.(string)
	if !ok || !serialise.IsUUID(s) {
		t.Fatalf("uuid id got %#v", id)
	}
}

func TestAllocateKeywordID(t *testing.T) {
	shards := store.NewShardSet(store.NewMemShard(), store.NewMemShard())
	id := AllocateID(field.Keyword, shards)
	s, ok := id.(string)
	if !ok || s == "" {
		t.Fatalf("keyword id got %#v", id)
	}
}

func TestAllocateShardAware(t *testing.T) {
	loaded := store.NewMemShard()
	for i := 0; i < 5; i++ {
		loaded.PutDocument(string(rune('a'+i)), []byte("x"))
	}
	empty := store.NewMemShard()
	shards := store.NewShardSet(loaded, empty)

	// Inactive shards are skipped in placement.
	loaded.SetActive(false)
	id := AllocateID(field.UUID, shards)
	if _, ok := id.(string); !ok {
		t.Fatalf("uuid id got %#v", id)
	}
}
