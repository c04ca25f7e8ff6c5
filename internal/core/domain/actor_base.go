package domain

import (
	"github.com/asynkron/protoactor-go/actor"
)

type ActorRef actor.PID

// ActorRequestMixIn lets a request name its reply target when it is sent with
// Send rather than Request.
type ActorRequestMixIn struct {
	ReplyToRef *ActorRef
}

type ActorRequest interface {
	ReplyTo() *ActorRef
}

func (r ActorRequestMixIn) ReplyTo() *ActorRef {
	return r.ReplyToRef
}

type ActorResponseMixIn struct {
	ResponseError error
}

// FailedResponse builds the mixin of a response that carries err.
func FailedResponse(err error) ActorResponseMixIn {
	return ActorResponseMixIn{ResponseError: err}
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}

type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}
