package schema

import (
	"github.com/vmihailenco/msgpack/v5"
)

// Stored form of one indexed document: the terms with their postings, the
// joined value slots and the stored object.
type artifactTerm struct {
	Term      string   `msgpack:"t"`
	WDF       uint32   `msgpack:"w"`
	Positions []uint32 `msgpack:"p,omitempty"`
}

type artifact struct {
	ID     string                 `msgpack:"id"`
	Terms  []artifactTerm         `msgpack:"terms"`
	Values map[uint32][]byte      `msgpack:"values"`
	Data   map[string]interface{} `msgpack:"data"`
}

// EncodeArtifact renders the indexed artifact for the shard.
func (r *IndexResult) EncodeArtifact() ([]byte, error) {
	a := artifact{
		ID:     r.IDTerm,
		Values: make(map[uint32][]byte),
		Data:   r.Data,
	}
	for _, term := range r.Doc.Terms() {
		info := r.Doc.Term(term)
		a.Terms = append(a.Terms, artifactTerm{Term: term, WDF: info.WDF, Positions: info.Positions})
	}
	for _, slot := range r.Doc.Values() {
		a.Values[slot] = r.Doc.Value(slot)
	}
	return msgpack.Marshal(&a)
}

// DecodeStored recovers the stored object of a persisted artifact.
func DecodeStored(raw []byte) (map[string]interface{}, error) {
	var a artifact
	if err := msgpack.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	return a.Data, nil
}
