package state

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// FirstTokenID is the id issued by the first mint of every collection. Slot 0
// is never assigned.
const FirstTokenID uint64 = 1

var (
	tokenCounterPrefix = []byte("nft/counter/")
	tokenOwnerPrefix   = []byte("nft/owner/")
)

func tokenCounterKey(collection common.Address) []byte {
	buf := make([]byte, 0, len(tokenCounterPrefix)+common.AddressLength)
	buf = append(buf, tokenCounterPrefix...)
	return append(buf, collection.Bytes()...)
}

func tokenOwnerKey(collection common.Address, id uint64) []byte {
	buf := make([]byte, 0, len(tokenOwnerPrefix)+common.AddressLength+8)
	buf = append(buf, tokenOwnerPrefix...)
	buf = append(buf, collection.Bytes()...)
	return binary.BigEndian.AppendUint64(buf, id)
}

// TokenCount returns how many tokens collection has issued.
func (m *Manager) TokenCount(collection common.Address) (uint64, error) {
	var count uint64
	if _, err := m.KVGet(tokenCounterKey(collection), &count); err != nil {
		return 0, err
	}
	return count, nil
}

// IssueToken assigns the next sequential token id of collection to owner.
func (m *Manager) IssueToken(collection common.Address, owner common.Address) (uint64, error) {
	if owner == (common.Address{}) {
		return 0, fmt.Errorf("state: mint to the zero address")
	}
	count, err := m.TokenCount(collection)
	if err != nil {
		return 0, err
	}
	id := FirstTokenID + count
	if err := m.KVPut(tokenOwnerKey(collection, id), owner); err != nil {
		return 0, err
	}
	if err := m.KVPut(tokenCounterKey(collection), count+1); err != nil {
		return 0, err
	}
	return id, nil
}

// TokenOwner returns the current owner of id within collection.
func (m *Manager) TokenOwner(collection common.Address, id uint64) (common.Address, bool, error) {
	var owner common.Address
	ok, err := m.KVGet(tokenOwnerKey(collection, id), &owner)
	if err != nil || !ok {
		return common.Address{}, false, err
	}
	return owner, true, nil
}
