package domain

import (
	"github.com/berfenger/optoma2mqtt/pkg/optoma"
)

// ProjectorRequest is a request served by the projector actor. Requests are
// processed one at a time, in arrival order.
type ProjectorRequest interface {
	ActorRequest
	projectorRequest()
}

type ProjectorRequestMixIn struct {
	ActorRequestMixIn
}

func (r ProjectorRequestMixIn) projectorRequest() {}

// ProjectorResponse

type ProjectorResponse interface {
	ActorResponse
	ProjectorStatus() optoma.Status
}

type ProjectorResponseMixIn struct {
	ActorResponseMixIn
	Status optoma.Status
}

func (r ProjectorResponseMixIn) ProjectorStatus() optoma.Status {
	return r.Status
}

// Projector commands

// RefreshRequest polls the projector state.
type RefreshRequest struct {
	ProjectorRequestMixIn
}

type RefreshResponse struct {
	ProjectorResponseMixIn
}

// SetPowerRequest turns the projector on or off.
type SetPowerRequest struct {
	ProjectorRequestMixIn
	On bool
}

type SetPowerResponse struct {
	ProjectorResponseMixIn
}

// ensure interface compliance
var (
	_ ProjectorRequest  = (*RefreshRequest)(nil)
	_ ProjectorRequest  = (*SetPowerRequest)(nil)
	_ ProjectorResponse = (*RefreshResponse)(nil)
	_ ProjectorResponse = (*SetPowerResponse)(nil)
)
