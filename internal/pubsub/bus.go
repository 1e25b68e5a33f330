package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bus fans case events out over Redis pub/sub, mirrors them into streams
// for replay, and hands them to the WebSocket hub when one is attached.
type Bus struct {
	rdb     *redis.Client
	log     *zap.Logger
	ctx     context.Context
	wsHub   WSHub
	streams *Streams
}

type WSHub interface {
	Publish(channel string, message map[string]interface{})
}

func New(rdb *redis.Client, log *zap.Logger) *Bus {
	return &Bus{
		rdb:     rdb,
		log:     log,
		ctx:     context.Background(),
		streams: NewStreams(rdb, log),
	}
}

// SetWSHub sets the WebSocket hub for event broadcasting
func (b *Bus) SetWSHub(hub WSHub) {
	b.wsHub = hub
}

// GetStreams returns the streams provider
func (b *Bus) GetStreams() *Streams {
	return b.streams
}

// PublishCase publishes an event to a case's channel
func (b *Bus) PublishCase(caseID string, event map[string]interface{}) error {
	return b.Publish("case:"+caseID, event)
}

// PublishCompany publishes an event to a company-wide channel
func (b *Bus) PublishCompany(companyID string, event map[string]interface{}) error {
	return b.Publish("company:"+companyID, event)
}

// PublishActor publishes an event to one actor's personal channel
func (b *Bus) PublishActor(actorID string, event map[string]interface{}) error {
	return b.Publish("actor:"+actorID, event)
}

// Publish publishes an event to a channel
func (b *Bus) Publish(channel string, event map[string]interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := b.rdb.Publish(b.ctx, channel, data).Err(); err != nil {
		b.log.Error("Failed to publish event", zap.String("channel", channel), zap.Error(err))
		return err
	}

	seq, err := b.streams.PublishEvent(channel, event)
	if err != nil {
		b.log.Warn("Failed to publish to stream", zap.String("channel", channel), zap.Error(err))
		// Live delivery already happened; replay just loses this event.
	}

	if b.wsHub != nil {
		withSeq := make(map[string]interface{}, len(event)+1)
		for k, v := range event {
			withSeq[k] = v
		}
		withSeq["seq"] = seq
		b.wsHub.Publish(channel, withSeq)
	}

	b.log.Debug("Published event", zap.String("channel", channel), zap.Int64("seq", seq))
	return nil
}
