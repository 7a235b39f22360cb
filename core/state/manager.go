package state

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"nftwrapped/storage"
	"nftwrapped/storage/trie"
)

var (
	// headKey is the raw database key holding the last committed state root.
	headKey = []byte("nft-state-head")

	errSnapshotsOutstanding = errors.New("state: commit with open snapshots")
)

// Manager is the world state shared by every deployed contract. Reads and
// writes go through a keccak-keyed trie; snapshots are trie copies so any
// sequence of writes can be rolled back as a unit.
type Manager struct {
	trie      *trie.Trie
	snapshots []*trie.Trie
}

// NewManager creates a state manager operating on the provided trie.
func NewManager(tr *trie.Trie) *Manager {
	return &Manager{trie: tr}
}

// Open loads the world state from the last committed head stored in db, or an
// empty state when nothing has been committed yet. The boolean reports whether
// a committed head was found.
func Open(db storage.Database) (*Manager, bool, error) {
	if db == nil {
		return nil, false, fmt.Errorf("state: database required")
	}
	var root []byte
	ok, err := db.Has(headKey)
	if err != nil {
		return nil, false, err
	}
	if ok {
		if root, err = db.Get(headKey); err != nil {
			return nil, false, err
		}
	}
	tr, err := trie.NewTrie(db, root)
	if err != nil {
		return nil, false, err
	}
	return NewManager(tr), ok, nil
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

// Root returns the state root reflecting every uncommitted mutation.
func (m *Manager) Root() common.Hash {
	return m.trie.Hash()
}

// Commit flushes the state to the backing store and records the new head.
func (m *Manager) Commit() (common.Hash, error) {
	if len(m.snapshots) > 0 {
		return common.Hash{}, errSnapshotsOutstanding
	}
	parent := m.trie.Root()
	root, err := m.trie.Commit(parent, 0)
	if err != nil {
		return common.Hash{}, err
	}
	if err := m.trie.Store().Put(headKey, root.Bytes()); err != nil {
		return common.Hash{}, err
	}
	return root, nil
}

// Snapshot records the current state and returns an identifier that can be
// passed to RevertToSnapshot or DiscardSnapshot. Snapshots nest.
func (m *Manager) Snapshot() int {
	m.snapshots = append(m.snapshots, m.trie.Copy())
	return len(m.snapshots) - 1
}

// RevertToSnapshot restores the state captured by id and drops it together
// with every snapshot taken after it.
func (m *Manager) RevertToSnapshot(id int) error {
	if id < 0 || id >= len(m.snapshots) {
		return fmt.Errorf("state: unknown snapshot %d", id)
	}
	m.trie = m.snapshots[id]
	m.snapshots = m.snapshots[:id]
	return nil
}

// DiscardSnapshot keeps the current state and forgets snapshot id and every
// snapshot taken after it.
func (m *Manager) DiscardSnapshot(id int) {
	if id < 0 || id >= len(m.snapshots) {
		return
	}
	m.snapshots = m.snapshots[:id]
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is hashed with keccak256 before it reaches the trie.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.trie.Update(kvKey(key), encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// out. The boolean reports whether the key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.trie.Get(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}
