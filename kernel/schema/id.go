package schema

import (
	"encoding/base64"

	"github.com/dgryski/go-farm"
	guuid "github.com/google/uuid"

	"github.com/nivalisdb/nivalis/kernel/field"
	"github.com/nivalisdb/nivalis/kernel/serialise"
	"github.com/nivalisdb/nivalis/kernel/store"
)

const idCandidates = 10

// AllocateID chooses a document id when none was provided. For uuid and
// textual id types it generates candidates and keeps the first whose term
// hashes into the least-loaded active shard; numeric ids return zero so the
// storage layer can auto-increment from its own counter.
func AllocateID(idType field.FieldType, shards *store.ShardSet) interface{} {
	switch idType {
	case field.Integer, field.Positive, field.Floating:
		return uint64(0)
	case field.Keyword, field.Text, field.String:
		return allocateRetry(idType, shards, func() string {
			u := guuid.New()
			return base64.RawURLEncoding.EncodeToString(u[:])
		})
	default:
		return allocateRetry(idType, shards, serialise.NewCompactUUID)
	}
}

// allocateRetry probes up to idCandidates generated ids, hashing each one's
// id term the same way the server routes documents; shard-probe failures
// skip the candidate silently.
func allocateRetry(idType field.FieldType, shards *store.ShardSet, generate func() string) string {
	n := shards.Len()
	if n <= 1 {
		return generate()
	}
	target := leastLoaded(shards)
	last := ""
	for i := 0; i < idCandidates; i++ {
		candidate := generate()
		last = candidate
		b, err := serialise.Serialise(idType, candidate, true)
		if err != nil {
			continue
		}
		term := serialise.Prefixed(b, []byte(idPrefix), field.CType(idType))
		if int(farm.Fingerprint64([]byte(term))%uint64(n)) == target {
			return candidate
		}
	}
	return last
}

func leastLoaded(shards *store.ShardSet) int {
	best := 0
	bestCount := uint64(1<<64 - 1)
	for i := 0; i < shards.Len(); i++ {
		sh := shards.Get(i)
		if sh == nil || !sh.Active() {
			continue
		}
		count, err := sh.DocCount()
		if err != nil {
			continue
		}
		if count < bestCount {
			bestCount = count
			best = i
		}
	}
	return best
}
