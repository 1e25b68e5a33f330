package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// maxStreamLen bounds per-channel replay history in Redis.
const maxStreamLen = 1024

// StreamEvent is an event stored for replay.
type StreamEvent struct {
	Channel   string
	Sequence  int64
	Event     map[string]interface{}
	Timestamp time.Time
}

// Streams keeps a replayable, per-channel sequenced copy of every published
// event in Redis Streams, so a reconnecting subscriber can catch up from its
// last acknowledged sequence.
type Streams struct {
	rdb *redis.Client
	log *zap.Logger
	ctx context.Context
}

func NewStreams(rdb *redis.Client, log *zap.Logger) *Streams {
	return &Streams{
		rdb: rdb,
		log: log,
		ctx: context.Background(),
	}
}

// PublishEvent appends an event to the channel's stream and returns the
// sequence number assigned to it.
func (s *Streams) PublishEvent(channel string, event map[string]interface{}) (int64, error) {
	seq, err := s.rdb.Incr(s.ctx, "seq:"+channel).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	stored := make(map[string]interface{}, len(event)+3)
	for k, v := range event {
		stored[k] = v
	}
	stored["seq"] = seq
	stored["channel"] = channel
	stored["timestamp"] = time.Now().Format(time.RFC3339)

	data, err := json.Marshal(stored)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = s.rdb.XAdd(s.ctx, &redis.XAddArgs{
		Stream: "stream:" + channel,
		MaxLen: maxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{"data": string(data)},
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to add to stream: %w", err)
	}

	s.log.Debug("Published event to stream",
		zap.String("channel", channel),
		zap.Int64("sequence", seq),
	)
	return seq, nil
}

// GetLastSequence returns the last sequence a connection acknowledged on a
// channel, zero when it never has.
func (s *Streams) GetLastSequence(channel, connectionID string) (int64, error) {
	val, err := s.rdb.Get(s.ctx, ackKey(channel, connectionID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get last sequence: %w", err)
	}
	seq, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse sequence: %w", err)
	}
	return seq, nil
}

// AcknowledgeSequence records the highest sequence a connection has seen.
func (s *Streams) AcknowledgeSequence(channel, connectionID string, sequence int64) error {
	if err := s.rdb.Set(s.ctx, ackKey(channel, connectionID), sequence, 0).Err(); err != nil {
		return fmt.Errorf("failed to acknowledge sequence: %w", err)
	}
	return nil
}

// ReplayEvents returns up to limit stored events with sequence > sinceSeq.
func (s *Streams) ReplayEvents(channel string, sinceSeq int64, limit int64) ([]StreamEvent, error) {
	msgs, err := s.rdb.XRange(s.ctx, "stream:"+channel, "-", "+").Result()
	if err == redis.Nil {
		return []StreamEvent{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}

	events := make([]StreamEvent, 0)
	for _, msg := range msgs {
		data, ok := msg.Values["data"].(string)
		if !ok {
			continue
		}
		var stored map[string]interface{}
		if err := json.Unmarshal([]byte(data), &stored); err != nil {
			s.log.Warn("Failed to unmarshal stream event", zap.Error(err))
			continue
		}

		seqF, _ := stored["seq"].(float64)
		seq := int64(seqF)
		if seq <= sinceSeq {
			continue
		}

		ts := time.Now()
		if raw, _ := stored["timestamp"].(string); raw != "" {
			if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
				ts = parsed
			}
		}

		event := make(map[string]interface{})
		for k, v := range stored {
			if k != "seq" && k != "channel" && k != "timestamp" {
				event[k] = v
			}
		}

		events = append(events, StreamEvent{
			Channel:   channel,
			Sequence:  seq,
			Event:     event,
			Timestamp: ts,
		})
		if int64(len(events)) >= limit {
			break
		}
	}
	return events, nil
}

func ackKey(channel, connectionID string) string {
	return "ack:" + channel + ":" + connectionID
}
