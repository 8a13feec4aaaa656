// Package preview debounces quote requests made while a user is still typing
// an amount.
package preview

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
)

// Result is one completed fetch.
type Result[T any] struct {
	Amount float64
	Value  T
	Err    error
}

// Debouncer waits for the amount to settle, fetches once, and delivers the
// result only if the amount it was fetched for is still the latest one.
type Debouncer[T any] struct {
	ctx     context.Context
	delay   time.Duration
	fetch   func(ctx context.Context, amount float64) (T, error)
	deliver func(Result[T])
	logger  *logrus.Logger

	mu     sync.Mutex
	timer  *time.Timer
	latest float64
}

type Config[T any] struct {
	Delay   time.Duration
	Fetch   func(ctx context.Context, amount float64) (T, error)
	Deliver func(Result[T])
	Logger  *logrus.Logger
}

// New returns a debouncer bound to ctx; pending timers stop when ctx ends.
func New[T any](ctx context.Context, cfg Config[T]) *Debouncer[T] {
	if cfg.Delay <= 0 {
		cfg.Delay = constants.QuotePreviewDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	d := &Debouncer[T]{
		ctx:     ctx,
		delay:   cfg.Delay,
		fetch:   cfg.Fetch,
		deliver: cfg.Deliver,
		logger:  cfg.Logger,
	}
	go func() {
		<-ctx.Done()
		d.Stop()
	}()
	return d
}

// Request records amount as the latest value and restarts the timer. A
// non-positive amount clears any pending request.
func (d *Debouncer[T]) Request(amount float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.latest = amount
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if amount <= 0 || d.ctx.Err() != nil {
		return
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(amount) })
}

// Stop cancels a pending fetch. Fetches already running still finish but
// their results are dropped.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.latest = 0
}

func (d *Debouncer[T]) fire(amount float64) {
	value, err := d.fetch(d.ctx, amount)

	d.mu.Lock()
	current := d.latest == amount && d.ctx.Err() == nil
	d.mu.Unlock()

	if !current {
		d.logger.WithField("amount", amount).Debug("discarding superseded preview")
		return
	}
	d.deliver(Result[T]{Amount: amount, Value: value, Err: err})
}
