package subscription

import (
	"xivherald/internal/storage"
	"xivherald/internal/transport"
)

// DestinationConfig is one guild's subscription snapshot: which kinds it
// wants, where to deliver, and the delivery endpoint if one exists.
//
// Instances handed out by the registry are value copies; only the registry
// mutates the durable record.
type DestinationConfig struct {
	GuildID   int64
	ChannelID int64
	ThreadID  int64

	Flags    Flags
	Endpoint transport.Endpoint
}

// HasEndpoint reports whether a delivery endpoint has been provisioned.
func (c DestinationConfig) HasEndpoint() bool { return !c.Endpoint.IsZero() }

func (c DestinationConfig) record() storage.SubscriptionRecord {
	return storage.SubscriptionRecord{
		GuildID:    c.GuildID,
		ChannelID:  c.ChannelID,
		ThreadID:   c.ThreadID,
		Flags:      c.Flags.BitString(),
		WebhookID:  c.Endpoint.ID,
		WebhookURL: c.Endpoint.URL,
	}
}

func configFromRecord(rec storage.SubscriptionRecord) (DestinationConfig, error) {
	flags, err := ParseBitString(rec.Flags)
	if err != nil {
		return DestinationConfig{}, err
	}
	return DestinationConfig{
		GuildID:   rec.GuildID,
		ChannelID: rec.ChannelID,
		ThreadID:  rec.ThreadID,
		Flags:     flags,
		Endpoint:  transport.Endpoint{ID: rec.WebhookID, URL: rec.WebhookURL},
	}, nil
}
