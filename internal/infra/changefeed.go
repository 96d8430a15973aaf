package infra

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ── Change feed ───────────────────────────────────────────────────────────────
// Row change notifications travel over one Redis pub/sub channel per store.
// Delivery is at-most-once: a subscriber that is down misses events and relies
// on the next snapshot poll to converge.

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangeEvent is one row change. Row holds the remote row as JSON and is
// omitted for deletes and for rows above the inline limit; receivers
// point-fetch in that case.
type ChangeEvent struct {
	Table    string          `json:"table"`
	Type     EventType       `json:"type"`
	StoreID  string          `json:"store_id"`
	ID       string          `json:"id"`
	Revision int64           `json:"revision"`
	Row      json.RawMessage `json:"row,omitempty"`
	Origin   string          `json:"origin"`
}

// FeedState is reported to subscribers as the channel comes and goes.
type FeedState int

const (
	FeedSubscribed FeedState = iota
	FeedClosed
)

func (s FeedState) String() string {
	if s == FeedSubscribed {
		return "subscribed"
	}
	return "closed"
}

// FeedHandler receives events and state changes of one subscription.
// Callbacks run on the subscription goroutine.
type FeedHandler struct {
	OnChange func(ChangeEvent)
	OnState  func(FeedState, error)
}

// Subscription is an open change stream.
type Subscription interface {
	Close() error
}

type ChangeFeed interface {
	Publish(ctx context.Context, ev ChangeEvent) error
	// Subscribe returns once the channel is confirmed. A subscription that
	// later breaks reports FeedClosed and is not reopened.
	Subscribe(ctx context.Context, storeID string, h FeedHandler) (Subscription, error)
}

// ChannelFor is the pub/sub channel of a store.
func ChannelFor(storeID string) string { return "pos:changes:" + storeID }

type redisChangeFeed struct {
	rdb         *redis.Client
	inlineLimit int
}

// NewRedisChangeFeed publishes row bodies up to inlineLimit bytes (0 = always).
func NewRedisChangeFeed(rdb *redis.Client, inlineLimit int) ChangeFeed {
	return &redisChangeFeed{rdb: rdb, inlineLimit: inlineLimit}
}

func (f *redisChangeFeed) Publish(ctx context.Context, ev ChangeEvent) error {
	payload, err := EncodeEvent(ev, f.inlineLimit)
	if err != nil {
		return err
	}
	return f.rdb.Publish(ctx, ChannelFor(ev.StoreID), payload).Err()
}

// EncodeEvent serializes ev, dropping the row body when it exceeds limit.
func EncodeEvent(ev ChangeEvent, limit int) ([]byte, error) {
	if ev.Type == EventDelete || (limit > 0 && len(ev.Row) > limit) {
		ev.Row = nil
	}
	return json.Marshal(ev)
}

func (f *redisChangeFeed) Subscribe(ctx context.Context, storeID string, h FeedHandler) (Subscription, error) {
	ps := f.rdb.Subscribe(ctx, ChannelFor(storeID))
	// first reply is the subscribe confirmation
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	sub := &redisSubscription{ps: ps, done: make(chan struct{})}
	if h.OnState != nil {
		h.OnState(FeedSubscribed, nil)
	}
	go sub.loop(ctx, storeID, h)
	return sub, nil
}

type redisSubscription struct {
	ps        *redis.PubSub
	closeOnce sync.Once
	done      chan struct{}
}

func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

func (s *redisSubscription) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *redisSubscription) loop(ctx context.Context, storeID string, h FeedHandler) {
	for {
		msg, err := s.ps.ReceiveMessage(ctx)
		if err != nil {
			if s.closed() {
				return
			}
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			log.Warn().Err(err).Str("store_id", storeID).Msg("changefeed: subscription closed")
			_ = s.Close()
			if h.OnState != nil {
				h.OnState(FeedClosed, err)
			}
			return
		}

		var ev ChangeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			log.Debug().Err(err).Str("store_id", storeID).Msg("changefeed: undecodable event skipped")
			continue
		}
		if h.OnChange != nil {
			h.OnChange(ev)
		}
	}
}
