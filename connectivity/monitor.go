// Package connectivity abstracts the host platform's network signal. The
// sync and cache layers only need to know whether any network is available,
// plus a Wi-Fi/cellular distinction for the Wi-Fi-only background sync
// policy, and a way to observe transitions.
package connectivity

import "context"

// Kind classifies the current network.
type Kind string

const (
	KindNone     Kind = "none"
	KindWifi     Kind = "wifi"
	KindCellular Kind = "cellular"
)

// Change is one observed connectivity transition.
type Change struct {
	// Online is true when any network is available.
	Online bool
	Kind   Kind
}

// Monitor reports current connectivity and publishes transitions.
//
// Subscribe returns a channel that receives every transition until cancel is
// called. Implementations must not block on slow subscribers.
type Monitor interface {
	IsConnected(ctx context.Context) bool
	CurrentKind(ctx context.Context) Kind
	Subscribe() (ch <-chan Change, cancel func())
}
