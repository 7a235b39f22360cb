package bundle

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"nftwrapped/core/events"
	"nftwrapped/core/types"
)

const (
	// EventTypeLinkUpdated is emitted when the linked collections change.
	EventTypeLinkUpdated = "bundle.link.updated"
	// EventTypeMinted is emitted after both sides of a bundle mint succeed.
	EventTypeMinted = "bundle.minted"
)

type bundleEvent struct {
	evt *types.Event
}

func (e bundleEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e bundleEvent) Event() *types.Event { return e.evt }

// LinkUpdatedEvent records a SetBundleContracts call.
func LinkUpdatedEvent(coordinator, a, b common.Address) *types.Event {
	return &types.Event{
		Type: EventTypeLinkUpdated,
		Attributes: map[string]string{
			"bundle": coordinator.Hex(),
			"a":      a.Hex(),
			"b":      b.Hex(),
		},
	}
}

// MintedEvent records a committed bundle mint.
func MintedEvent(coordinator, recipient common.Address, minted Minted, payment *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeMinted,
		Attributes: map[string]string{
			"bundle":   coordinator.Hex(),
			"to":       recipient.Hex(),
			"tokenIdA": strconv.FormatUint(minted.A, 10),
			"tokenIdB": strconv.FormatUint(minted.B, 10),
			"payment":  payment.String(),
		},
	}
}

var _ events.Event = bundleEvent{}
