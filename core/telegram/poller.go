package telegram

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/m3rciful/weatherbot/core/logger"
)

// DefaultPollInterval is the pause between polling cycles.
const DefaultPollInterval = 500 * time.Millisecond

// UpdateSource fetches batches of updates.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset, timeout int) ([]Update, error)
}

// Handler processes a single update.
type Handler interface {
	HandleUpdate(ctx context.Context, u Update) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, u Update) error

// HandleUpdate calls f.
func (f HandlerFunc) HandleUpdate(ctx context.Context, u Update) error {
	return f(ctx, u)
}

// PollerOptions configures NewPoller.
type PollerOptions struct {
	// TimeoutSeconds is passed to getUpdates as the long-poll timeout.
	TimeoutSeconds int
	// Interval is the sleep between cycles; zero selects DefaultPollInterval.
	Interval time.Duration
}

// Poller runs the getUpdates loop and dispatches updates sequentially in update ID order.
type Poller struct {
	source   UpdateSource
	handler  Handler
	timeout  int
	interval time.Duration

	mu     sync.Mutex
	offset int
}

// NewPoller constructs a Poller. The initial offset is unset.
func NewPoller(source UpdateSource, handler Handler, opts PollerOptions) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	timeout := opts.TimeoutSeconds
	if timeout < 0 {
		timeout = 0
	}
	return &Poller{source: source, handler: handler, timeout: timeout, interval: interval}
}

// Offset returns the next update ID to request, or zero before the first non-empty batch.
func (p *Poller) Offset() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

// Run polls until ctx is done. A cycle in progress is always completed; cancellation is
// observed between cycles. Run returns nil on cancellation.
func (p *Poller) Run(ctx context.Context) error {
	logger.TG.Info("polling started",
		slog.String("event", "tg.poll.start"),
		slog.String("mode", "polling"),
		slog.Int("timeout_seconds", p.timeout),
		slog.Duration("interval", p.interval),
	)
	cycle := context.WithoutCancel(ctx)
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.TG.Info("polling stopped",
				slog.String("event", "tg.poll.stop"),
				slog.String("status", "cancelled"),
				slog.Int("offset", p.Offset()),
			)
			return nil
		case <-timer.C:
		}
		if ctx.Err() != nil {
			continue
		}
		_, _ = p.Poll(cycle)
		timer.Reset(p.interval)
	}
}

// Poll runs a single cycle: fetch, advance the offset, dispatch. It returns the number of
// dispatched updates. Fetch errors are logged and returned; handler errors are only logged.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	offset := p.Offset()
	batch, err := p.source.GetUpdates(ctx, offset, p.timeout)
	if err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "tg.poll",
			slog.String("status", "fail"),
			slog.Int("offset", offset),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return 0, err
	}
	if len(batch) == 0 {
		return 0, nil
	}

	slices.SortStableFunc(batch, func(a, b Update) int { return cmp.Compare(a.ID, b.ID) })
	next := batch[len(batch)-1].ID + 1
	p.mu.Lock()
	if next > p.offset {
		p.offset = next
	}
	p.mu.Unlock()

	dispatched, skipped := 0, 0
	last := offset - 1
	for _, u := range batch {
		if u.ID <= last {
			skipped++
			continue
		}
		last = u.ID
		p.dispatch(ctx, u)
		dispatched++
	}

	logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "tg.poll",
		slog.String("status", "ok"),
		slog.Int("offset", p.Offset()),
		slog.Int("batch", len(batch)),
		slog.Int("dispatched", dispatched),
		slog.Int("skipped", skipped),
	)
	return dispatched, nil
}

func (p *Poller) dispatch(ctx context.Context, u Update) {
	ctx = logger.WithUpdateMeta(ctx, u.ID, u.ChatID)
	ctx = logger.WithRID(ctx, logger.BuildRID(u.ID, u.ChatID))
	if p.handler == nil {
		return
	}
	if err := p.handler.HandleUpdate(ctx, u); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelError, "tg.update",
			slog.String("status", "fail"),
			slog.String("payload", PayloadKind(u.Payload)),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}
