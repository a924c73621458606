// Package subscriber consumes article messages from Redis pub/sub and feeds
// them to a bounded pool of ingestion workers.
package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jonesrussell/streetcode-ingestor/internal/config"
	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
	"github.com/jonesrussell/streetcode-ingestor/internal/ingest"
	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
	"github.com/jonesrussell/streetcode-ingestor/internal/metrics"
)

// reconnectBackoffMultiplier grows the delay between reconnection attempts.
const reconnectBackoffMultiplier = 2

// Drop reasons reported to the dropped_total collector.
const (
	DropMalformed    = "malformed"
	DropLowQuality   = "low_quality"
	DropRetriesSpent = "retries_exhausted"
	DropShutdown     = "shutdown"
)

// ErrNoChannels is returned by Run when no channel is configured.
var ErrNoChannels = errors.New("no channels configured")

// delivery is one received payload queued for a worker.
type delivery struct {
	id      string
	channel string
	message *domain.IncomingMessage
}

// Subscriber listens on the configured channels and dispatches decoded
// messages to the processor.
type Subscriber struct {
	client     redis.UniversalClient
	processor  ingest.Processor
	cfg        config.SubscriberConfig
	collectors *metrics.Collectors
	log        logger.Logger
	limiter    *rate.Limiter

	mu      sync.RWMutex
	pubsub  *redis.PubSub
	healthy bool
}

// New creates a Subscriber. collectors may be nil.
func New(
	client redis.UniversalClient,
	processor ingest.Processor,
	cfg config.SubscriberConfig,
	collectors *metrics.Collectors,
	log logger.Logger,
) *Subscriber {
	limit := rate.Inf
	if cfg.MessagesPerSecond > 0 {
		limit = rate.Limit(cfg.MessagesPerSecond)
	}
	burst := max(cfg.Workers, 1)

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}
	if cfg.MaxReconnectDelay < cfg.ReconnectDelay {
		cfg.MaxReconnectDelay = cfg.ReconnectDelay
	}

	return &Subscriber{
		client:     client,
		processor:  processor,
		cfg:        cfg,
		collectors: collectors,
		log:        log,
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// Healthy reports whether the pub/sub connection is currently subscribed.
func (s *Subscriber) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.healthy
}

// Run subscribes and processes messages until ctx is canceled. Messages in
// flight when ctx is canceled are allowed to finish; queued ones are dropped.
func (s *Subscriber) Run(ctx context.Context) error {
	if exact, patterns := splitChannels(s.cfg.Channels); len(exact)+len(patterns) == 0 {
		return ErrNoChannels
	}

	queue := make(chan delivery, s.cfg.QueueSize)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(queue)
		return s.receive(gctx, queue)
	})

	for range s.cfg.Workers {
		g.Go(func() error {
			s.work(gctx, queue)
			return nil
		})
	}

	err := g.Wait()
	s.close()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// receive reads the subscription until ctx is done, reconnecting with
// exponential backoff when the connection fails.
func (s *Subscriber) receive(ctx context.Context, queue chan<- delivery) error {
	if err := s.subscribe(ctx); err != nil {
		s.log.Warn("Initial subscribe failed", logger.Error(err))
		if !s.reconnect(ctx) {
			return ctx.Err()
		}
	}

	s.log.Info("Subscribed to channels",
		logger.Strings("channels", s.cfg.Channels),
		logger.Int("workers", s.cfg.Workers),
	)

	for {
		s.mu.RLock()
		pubsub := s.pubsub
		s.mu.RUnlock()

		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn("Pub/sub receive failed", logger.Error(err))
			s.setHealthy(false)
			if !s.reconnect(ctx) {
				return ctx.Err()
			}
			continue
		}

		d, ok := s.decode(msg)
		if !ok {
			continue
		}

		select {
		case queue <- d:
		case <-ctx.Done():
			s.drop(DropShutdown)
			return ctx.Err()
		}
	}
}

// decode parses a payload and applies the quality filter.
func (s *Subscriber) decode(msg *redis.Message) (delivery, bool) {
	d := delivery{id: uuid.NewString(), channel: msg.Channel}

	var m domain.IncomingMessage
	if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
		s.log.Warn("Dropped malformed payload",
			logger.String("delivery_id", d.id),
			logger.String("channel", msg.Channel),
			logger.Error(err),
		)
		s.drop(DropMalformed)
		return d, false
	}

	if s.cfg.MinQualityScore > 0 {
		score := 0.0
		if m.QualityScore != nil {
			score = *m.QualityScore
		}
		if score < float64(s.cfg.MinQualityScore) {
			s.log.Debug("Dropped low quality article",
				logger.String("delivery_id", d.id),
				logger.String("external_id", m.ID),
				logger.Float64("quality_score", score),
				logger.Int("min_quality_score", s.cfg.MinQualityScore),
			)
			s.drop(DropLowQuality)
			return d, false
		}
	}

	d.message = &m
	return d, true
}

func (s *Subscriber) work(ctx context.Context, queue <-chan delivery) {
	for d := range queue {
		if err := s.limiter.Wait(ctx); err != nil {
			s.drop(DropShutdown)
			continue
		}
		s.handle(ctx, d)
	}
}

// handle runs one delivery to completion. Cancellation of ctx does not
// abort a message already being processed.
func (s *Subscriber) handle(ctx context.Context, d delivery) {
	outcome, err := s.processor.Process(context.WithoutCancel(ctx), d.message)
	if err != nil {
		s.log.Error("Dropped message after retries",
			logger.String("delivery_id", d.id),
			logger.String("channel", d.channel),
			logger.String("external_id", d.message.ID),
			logger.String("outcome", string(outcome)),
			logger.Error(err),
		)
		s.drop(DropRetriesSpent)
	}
}

// subscribe opens a subscription on every configured channel. Channels
// containing a glob character are pattern subscriptions.
func (s *Subscriber) subscribe(ctx context.Context) error {
	exact, patterns := splitChannels(s.cfg.Channels)

	pubsub := s.client.Subscribe(ctx)
	if len(exact) > 0 {
		if err := pubsub.Subscribe(ctx, exact...); err != nil {
			_ = pubsub.Close()
			return fmt.Errorf("subscribe: %w", err)
		}
	}
	if len(patterns) > 0 {
		if err := pubsub.PSubscribe(ctx, patterns...); err != nil {
			_ = pubsub.Close()
			return fmt.Errorf("psubscribe: %w", err)
		}
	}

	// Wait for the first confirmation so a dead server fails here.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("confirm subscription: %w", err)
	}

	s.mu.Lock()
	old := s.pubsub
	s.pubsub = pubsub
	s.healthy = true
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// reconnect retries subscribe until it succeeds or ctx is done.
func (s *Subscriber) reconnect(ctx context.Context) bool {
	delay := s.cfg.ReconnectDelay

	for attempt := 1; ; attempt++ {
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}

		err := s.subscribe(ctx)
		if err == nil {
			s.log.Info("Reconnected to pub/sub", logger.Int("attempt", attempt))
			return true
		}

		s.log.Warn("Reconnect failed",
			logger.Int("attempt", attempt),
			logger.Duration("next_delay", delay),
			logger.Error(err),
		)

		delay *= reconnectBackoffMultiplier
		if delay > s.cfg.MaxReconnectDelay {
			delay = s.cfg.MaxReconnectDelay
		}
	}
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pubsub != nil {
		if err := s.pubsub.Close(); err != nil {
			s.log.Debug("Closing pub/sub failed", logger.Error(err))
		}
		s.pubsub = nil
	}
	s.healthy = false
}

func (s *Subscriber) setHealthy(v bool) {
	s.mu.Lock()
	s.healthy = v
	s.mu.Unlock()
}

func (s *Subscriber) drop(reason string) {
	if s.collectors != nil {
		s.collectors.Dropped.WithLabelValues(reason).Inc()
	}
}

func splitChannels(channels []string) (exact, patterns []string) {
	for _, ch := range channels {
		ch = strings.TrimSpace(ch)
		if ch == "" {
			continue
		}
		if strings.ContainsAny(ch, "*?[") {
			patterns = append(patterns, ch)
		} else {
			exact = append(exact, ch)
		}
	}
	return exact, patterns
}
