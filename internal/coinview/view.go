// Package coinview holds the coin detail view: the state it moves through
// while a coin payload is fetched, and the page built from that state.
package coinview

import (
	"context"
	"sync"
	"time"

	"github.com/newthinker/coinview/internal/core"
	"go.uber.org/zap"
)

// Fetcher loads one coin payload.
type Fetcher interface {
	FetchCoin(ctx context.Context, id string) (*core.Coin, error)
}

// StaleRecorder is notified when a completion is discarded because the view
// moved on to another coin. Completions dropped after Unmount are not stale.
type StaleRecorder interface {
	RecordStaleResponse()
}

// State is a snapshot of a view. Err, Loading and a present Coin are
// interpreted in that order of precedence by Build.
type State struct {
	CoinID     string
	Coin       *core.Coin
	Err        bool
	Loading    bool
	Generation uint64

	// Cause is the error behind Err. Build does not look at it; it is kept
	// for logging and for picking an HTTP status.
	Cause error `json:"-"`
}

// View tracks one coin page the way a mounted component would: one fetch per
// mount and per change of coin id. A completion that belongs to an older
// generation is discarded, so a slow response for a previous id can never
// overwrite a newer one.
type View struct {
	fetcher Fetcher
	logger  *zap.Logger
	stale   StaleRecorder

	mu      sync.Mutex
	state   State
	mounted bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewView creates an unmounted view.
func NewView(fetcher Fetcher, logger *zap.Logger) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &View{fetcher: fetcher, logger: logger}
}

// SetStaleRecorder sets the recorder for discarded completions.
func (v *View) SetStaleRecorder(r StaleRecorder) {
	v.stale = r
}

// Mount points the view at id and starts fetching it. Mounting the id the
// view already shows does nothing. Otherwise the previous request is
// cancelled, Coin and Err are cleared and Loading is set until the new fetch
// completes.
func (v *View) Mount(ctx context.Context, id string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.mounted && v.state.CoinID == id {
		return
	}
	if v.cancel != nil {
		v.cancel()
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	v.mounted = true
	v.cancel = cancel
	v.done = done
	v.state.CoinID = id
	v.state.Coin = nil
	v.state.Err = false
	v.state.Cause = nil
	v.state.Loading = true
	v.state.Generation++

	go v.load(fetchCtx, id, v.state.Generation, done)
}

func (v *View) load(ctx context.Context, id string, gen uint64, done chan struct{}) {
	defer close(done)

	c, err := v.fetcher.FetchCoin(ctx, id)

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.state.Generation {
		v.logger.Debug("discarding stale coin response",
			zap.String("coin", id),
			zap.Uint64("generation", gen),
			zap.Uint64("current", v.state.Generation),
		)
		if v.stale != nil {
			v.stale.RecordStaleResponse()
		}
		return
	}
	if !v.mounted {
		v.logger.Debug("discarding coin response after unmount",
			zap.String("coin", id),
			zap.Error(err),
		)
		return
	}

	if err != nil {
		v.logger.Error("fetching coin failed",
			zap.String("coin", id),
			zap.Uint64("generation", gen),
			zap.Error(err),
		)
		v.state.Err = true
		v.state.Cause = err
		v.state.Loading = false
		return
	}

	if c != nil {
		v.state.Coin = c
	}
	v.state.Loading = false
}

// Unmount cancels any in-flight request. Completions that arrive afterwards
// are discarded.
func (v *View) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.mounted = false
}

// State returns a snapshot of the view.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Wait blocks until the current fetch completes, ctx ends or d elapses, and
// returns the state at that point. A view that was never mounted returns
// immediately.
func (v *View) Wait(ctx context.Context, d time.Duration) State {
	v.mu.Lock()
	done := v.done
	v.mu.Unlock()

	if done == nil {
		return v.State()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-done:
	case <-ctx.Done():
	case <-timer.C:
	}
	return v.State()
}
