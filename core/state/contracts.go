package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"nftwrapped/native/bundle"
	"nftwrapped/native/collection"
)

var (
	collectionPrefix = []byte("contract/collection/")
	bundlePrefix     = []byte("contract/bundle/")
)

func contractKey(prefix []byte, addr common.Address) []byte {
	buf := make([]byte, 0, len(prefix)+common.AddressLength)
	buf = append(buf, prefix...)
	return append(buf, addr.Bytes()...)
}

// CollectionGet loads the collection record stored at addr.
func (m *Manager) CollectionGet(addr common.Address) (*collection.Record, bool, error) {
	rec := new(collection.Record)
	ok, err := m.KVGet(contractKey(collectionPrefix, addr), rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return rec, true, nil
}

// CollectionPut persists a collection record under its address.
func (m *Manager) CollectionPut(rec *collection.Record) error {
	if rec == nil {
		return fmt.Errorf("state: nil collection record")
	}
	return m.KVPut(contractKey(collectionPrefix, rec.Address), rec)
}

// BundleGet loads the coordinator record stored at addr.
func (m *Manager) BundleGet(addr common.Address) (*bundle.Record, bool, error) {
	rec := new(bundle.Record)
	ok, err := m.KVGet(contractKey(bundlePrefix, addr), rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return rec, true, nil
}

// BundlePut persists a coordinator record under its address.
func (m *Manager) BundlePut(rec *bundle.Record) error {
	if rec == nil {
		return fmt.Errorf("state: nil bundle record")
	}
	return m.KVPut(contractKey(bundlePrefix, rec.Address), rec)
}
