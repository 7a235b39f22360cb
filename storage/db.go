package storage

import (
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	gethleveldb "github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Database is a generic interface for a key-value store that also exposes the
// trie database layered on top of it. Both in-memory and persistent backends
// satisfy it so world state can run in tests and on disk alike.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	TrieDB() *triedb.Database
	Close()
}

type backend struct {
	kv     ethdb.Database
	trieDB *triedb.Database
}

func newBackend(kv ethdb.KeyValueStore) backend {
	db := rawdb.NewDatabase(kv)
	return backend{kv: db, trieDB: triedb.NewDatabase(db, triedb.HashDefaults)}
}

func (b backend) Put(key []byte, value []byte) error { return b.kv.Put(key, value) }

func (b backend) Get(key []byte) ([]byte, error) { return b.kv.Get(key) }

func (b backend) Has(key []byte) (bool, error) { return b.kv.Has(key) }

func (b backend) TrieDB() *triedb.Database { return b.trieDB }

// --- In-Memory DB (for testing) ---

type MemDB struct {
	backend
}

func NewMemDB() *MemDB {
	return &MemDB{backend: newBackend(memorydb.New())}
}

// Close satisfies the Database interface for MemDB.
func (db *MemDB) Close() {
	_ = db.trieDB.Close()
}

// --- Persistent DB ---

// LevelDB is a persistent key-value store using LevelDB.
type LevelDB struct {
	backend
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	kv, err := gethleveldb.NewCustom(path, "", func(options *opt.Options) {
		options.BlockCacheCapacity = 16 * opt.MiB
		options.OpenFilesCacheCapacity = 64
	})
	if err != nil {
		return nil, err
	}
	return &LevelDB{backend: newBackend(kv)}, nil
}

// Close flushes the trie database and closes the LevelDB handle.
func (ldb *LevelDB) Close() {
	_ = ldb.trieDB.Close()
	_ = ldb.kv.Close()
}
