package port

import "github.com/berfenger/optoma2mqtt/pkg/optoma"

// ProjectorLink is the device side of the projector actor, implemented by
// *optoma.Link. Calls block on serial I/O and must not overlap.
type ProjectorLink interface {
	Refresh()
	Activate()
	Deactivate()
	Status() optoma.Status
}

var _ ProjectorLink = (*optoma.Link)(nil)
