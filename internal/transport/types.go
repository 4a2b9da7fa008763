package transport

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEndpointGone signals the endpoint's target was deleted externally.
	// The dispatch layer maps this to self-healing deregistration.
	ErrEndpointGone = errors.New("delivery endpoint gone")

	// ErrChannelGone signals the channel an endpoint would be created in no
	// longer exists or is unusable.
	ErrChannelGone = errors.New("target channel gone")
)

// Endpoint is a durable delivery handle: pushing through it needs no further
// permission checks at send time.
type Endpoint struct {
	ID  string
	URL string
}

func (e Endpoint) IsZero() bool { return e.ID == "" && e.URL == "" }

// Payload is one notification as handed to a sender. Rendering to the
// destination's native format is the sender's concern.
type Payload struct {
	Kind     string
	Title    string
	Body     string
	URL      string
	ImageURL string
	When     time.Time
}

// Sender pushes a payload through an endpoint.
type Sender interface {
	Send(ctx context.Context, ep Endpoint, p Payload, threadID int64) error
}

// Provisioner creates delivery endpoints in a channel.
type Provisioner interface {
	CreateEndpoint(ctx context.Context, channelID int64) (Endpoint, error)
}
