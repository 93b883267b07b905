package store

import (
	"os"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

var (
	bucketMeta = []byte("meta")
	bucketDocs = []byte("docs")
)

// BoltConfig configures one bolt-backed shard.
type BoltConfig struct {
	Path     string
	NoSync   bool
	ReadOnly bool
}

// BoltShard stores metadata and document artifacts in a bolt file, one per
// shard.
type BoltShard struct {
	path   string
	db     *bolt.DB
	active bool
}

func OpenBolt(config *BoltConfig) (*BoltShard, error) {
	if config == nil {
		return nil, errors.New("must provide config")
	}
	if config.Path == "" {
		return nil, os.ErrInvalid
	}

	bo := &bolt.Options{ReadOnly: config.ReadOnly}
	db, err := bolt.Open(config.Path, 0600, bo)
	if err != nil {
		return nil, errors.Wrapf(err, "opening shard %s", config.Path)
	}
	db.NoSync = config.NoSync

	if !config.ReadOnly {
		err = db.Update(func(tx *bolt.Tx) error {
			if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
				return err
			}
			_, err := tx.CreateBucketIfNotExists(bucketDocs)
			return err
		})
		if err != nil {
			return nil, errors.Wrapf(err, "preparing shard %s", config.Path)
		}
	}

	return &BoltShard{
		path:   config.Path,
		db:     db,
		active: !config.ReadOnly,
	}, nil
}

func (bs *BoltShard) Metadata(key string) (value []byte, err error) {
	err = bs.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get([]byte(key))
		if v != nil {
			value = cloneBytes(v)
		}
		return nil
	})
	return
}

func (bs *BoltShard) SetMetadata(key string, value []byte) error {
	return bs.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put([]byte(key), value)
	})
}

func (bs *BoltShard) PutDocument(idTerm string, artifact []byte) error {
	return bs.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDocs).Put([]byte(idTerm), artifact)
	})
}

func (bs *BoltShard) GetDocument(idTerm string) (value []byte, err error) {
	err = bs.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketDocs).Get([]byte(idTerm))
		if v != nil {
			value = cloneBytes(v)
		}
		return nil
	})
	return
}

func (bs *BoltShard) DocCount() (count uint64, err error) {
	err = bs.db.View(func(tx *bolt.Tx) error {
		count = uint64(tx.Bucket(bucketDocs).Stats().KeyN)
		return nil
	})
	return
}

func (bs *BoltShard) Active() bool {
	return bs.active
}

func (bs *BoltShard) Close() error {
	return bs.db.Close()
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
