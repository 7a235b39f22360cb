package collection

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"nftwrapped/core/events"
	"nftwrapped/core/types"
)

const (
	// EventTypeTransfer is emitted for every issued token, always from the
	// zero address.
	EventTypeTransfer = "collection.token.transfer"
	// EventTypePresaleEnded is emitted once when a collection leaves presale.
	EventTypePresaleEnded = "collection.presale.ended"
	// EventTypeWithdrawn is emitted when the owner drains the balance.
	EventTypeWithdrawn = "collection.funds.withdrawn"
	// EventTypeBundleUpdated is emitted when the authorised coordinator changes.
	EventTypeBundleUpdated = "collection.bundle.updated"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

// TransferEvent mirrors the ERC-721 Transfer log for a mint.
func TransferEvent(collection, from, to common.Address, tokenID uint64) *types.Event {
	return &types.Event{
		Type: EventTypeTransfer,
		Attributes: map[string]string{
			"collection": collection.Hex(),
			"from":       from.Hex(),
			"to":         to.Hex(),
			"tokenId":    strconv.FormatUint(tokenID, 10),
		},
	}
}

// PresaleEndedEvent announces the phase transition.
func PresaleEndedEvent(collection common.Address) *types.Event {
	return &types.Event{
		Type:       EventTypePresaleEnded,
		Attributes: map[string]string{"collection": collection.Hex()},
	}
}

// WithdrawnEvent records a treasury withdrawal.
func WithdrawnEvent(collection, owner common.Address, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeWithdrawn,
		Attributes: map[string]string{
			"collection": collection.Hex(),
			"owner":      owner.Hex(),
			"amount":     amount.String(),
		},
	}
}

// BundleUpdatedEvent records a coordinator change.
func BundleUpdatedEvent(collection, bundle common.Address) *types.Event {
	return &types.Event{
		Type: EventTypeBundleUpdated,
		Attributes: map[string]string{
			"collection": collection.Hex(),
			"bundle":     bundle.Hex(),
		},
	}
}
