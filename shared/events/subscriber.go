package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handler func(ctx context.Context, event Event) error

// DeadLetterSuffix names the stream that receives entries a subscriber gave up on.
const DeadLetterSuffix = ".dead"

// SubscriberConfig describes one consumer in a consumer group on a single stream.
// Zero values fall back to a batch of 10, a 5s block, a 1m reclaim idle time
// and 5 deliveries.
type SubscriberConfig struct {
	Group         string
	Consumer      string
	Stream        string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	// ReclaimIdle is how long an entry may sit unacknowledged before this consumer takes it over.
	ReclaimIdle time.Duration
	// MaxDeliveries is how often an entry is handed to Handler before it is dead-lettered.
	MaxDeliveries int64
}

type Subscriber struct {
	rdb    redis.Cmdable
	log    *zap.Logger
	cfg    SubscriberConfig
	cursor string
}

func NewSubscriber(client redis.Cmdable, logger *zap.Logger, cfg SubscriberConfig) *Subscriber {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 10
	}
	if cfg.BlockDuration == 0 {
		cfg.BlockDuration = 5 * time.Second
	}
	if cfg.ReclaimIdle == 0 {
		cfg.ReclaimIdle = time.Minute
	}
	if cfg.MaxDeliveries == 0 {
		cfg.MaxDeliveries = 5
	}
	return &Subscriber{
		rdb:    client,
		log:    logger.With(zap.String("stream", cfg.Stream), zap.String("group", cfg.Group)),
		cfg:    cfg,
		cursor: "0-0",
	}
}

// Start blocks until ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	err := s.rdb.XGroupCreateMkStream(ctx, s.cfg.Stream, s.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	s.log.Info("subscriber started", zap.String("consumer", s.cfg.Consumer))

	for ctx.Err() == nil {
		if err := s.reclaim(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("failed to reclaim pending entries", zap.Error(err))
		}
		if err := s.poll(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("error reading messages", zap.Error(err))
			sleep(ctx, time.Second)
		}
	}
	s.log.Info("subscriber stopping")
	return ctx.Err()
}

// reclaim takes over entries a crashed or failing consumer never acknowledged.
func (s *Subscriber) reclaim(ctx context.Context) error {
	messages, next, err := s.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   s.cfg.Stream,
		Group:    s.cfg.Group,
		Consumer: s.cfg.Consumer,
		MinIdle:  s.cfg.ReclaimIdle,
		Start:    s.cursor,
		Count:    s.cfg.BatchSize,
	}).Result()
	if err != nil {
		return err
	}
	s.cursor = next
	if len(messages) == 0 {
		return nil
	}
	deliveries, err := s.deliveryCounts(ctx, messages)
	if err != nil {
		return err
	}
	s.dispatch(ctx, messages, deliveries)
	return nil
}

func (s *Subscriber) deliveryCounts(ctx context.Context, messages []redis.XMessage) (map[string]int64, error) {
	pending, err := s.rdb.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream:   s.cfg.Stream,
		Group:    s.cfg.Group,
		Consumer: s.cfg.Consumer,
		Start:    messages[0].ID,
		End:      messages[len(messages)-1].ID,
		Count:    int64(len(messages)),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read pending entries: %w", err)
	}
	counts := make(map[string]int64, len(pending))
	for _, p := range pending {
		counts[p.ID] = p.RetryCount
	}
	return counts, nil
}

func (s *Subscriber) poll(ctx context.Context) error {
	streams, err := s.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.cfg.Group,
		Consumer: s.cfg.Consumer,
		Streams:  []string{s.cfg.Stream, ">"},
		Count:    s.cfg.BatchSize,
		Block:    s.cfg.BlockDuration,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}
	for _, stream := range streams {
		s.dispatch(ctx, stream.Messages, nil)
	}
	return nil
}

// dispatch hands each entry to the handler and acks the ones it accepted.
// Rejected entries stay pending until reclaim picks them up again, unless they
// cannot be decoded or have used up their deliveries; those are dead-lettered.
// deliveries maps entry id to delivery count; a missing id counts as the first delivery.
func (s *Subscriber) dispatch(ctx context.Context, messages []redis.XMessage, deliveries map[string]int64) {
	for _, message := range messages {
		event, err := s.decode(message)
		if err != nil {
			s.deadLetter(ctx, message, err)
			continue
		}
		if err := s.cfg.Handler(ctx, event); err != nil {
			count := max(deliveries[message.ID], 1)
			if count >= s.cfg.MaxDeliveries {
				s.deadLetter(ctx, message, err)
				continue
			}
			s.log.Warn("failed to process message", zap.String("id", message.ID), zap.Int64("deliveries", count), zap.Error(err))
			continue
		}
		s.ack(ctx, message.ID)
	}
}

// deadLetter copies the entry to the dead-letter stream and acks the original.
// If the copy fails the entry stays pending.
func (s *Subscriber) deadLetter(ctx context.Context, message redis.XMessage, cause error) {
	values := make(map[string]interface{}, len(message.Values)+2)
	for k, v := range message.Values {
		values[k] = v
	}
	values["source_id"] = message.ID
	values["error"] = cause.Error()

	err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.cfg.Stream + DeadLetterSuffix,
		MaxLen: DefaultStreamMaxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		s.log.Error("failed to dead-letter message", zap.String("id", message.ID), zap.Error(err))
		return
	}
	s.log.Error("message dead-lettered", zap.String("id", message.ID), zap.Error(cause))
	s.ack(ctx, message.ID)
}

func (s *Subscriber) ack(ctx context.Context, id string) {
	if err := s.rdb.XAck(ctx, s.cfg.Stream, s.cfg.Group, id).Err(); err != nil {
		s.log.Warn("failed to ack message", zap.String("id", id), zap.Error(err))
	}
}

func (s *Subscriber) decode(message redis.XMessage) (Event, error) {
	var event Event
	raw, ok := message.Values["event"].(string)
	if !ok {
		return event, fmt.Errorf("entry %s has no event field", message.ID)
	}
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.ID == "" {
		// entry ids are only unique within one stream
		event.ID = s.cfg.Stream + ":" + message.ID
	}
	return event, nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
