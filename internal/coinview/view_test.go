package coinview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/newthinker/coinview/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type result struct {
	coin *core.Coin
	err  error
}

// gatedFetcher blocks each fetch until the test releases it.
type gatedFetcher struct {
	mu    sync.Mutex
	gates map[string]chan result
	calls []string
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{gates: make(map[string]chan result)}
}

func (g *gatedFetcher) gate(id string) chan result {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[id]
	if !ok {
		ch = make(chan result, 1)
		g.gates[id] = ch
	}
	return ch
}

func (g *gatedFetcher) FetchCoin(ctx context.Context, id string) (*core.Coin, error) {
	g.mu.Lock()
	g.calls = append(g.calls, id)
	g.mu.Unlock()

	r := <-g.gate(id)
	return r.coin, r.err
}

func (g *gatedFetcher) release(id string, c *core.Coin, err error) {
	g.gate(id) <- result{coin: c, err: err}
}

func (g *gatedFetcher) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type staleCounter struct {
	mu sync.Mutex
	n  int
}

func (s *staleCounter) RecordStaleResponse() {
	s.mu.Lock()
	s.n++
	s.mu.Unlock()
}

func (s *staleCounter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

func ranked(name string, rank int) *core.Coin {
	return &core.Coin{Name: name, MarketCapRank: &rank}
}

func TestView_LoadingThenLoaded(t *testing.T) {
	f := newGatedFetcher()
	v := NewView(f, nil)

	v.Mount(context.Background(), "bitcoin")
	s := v.State()
	assert.True(t, s.Loading)
	assert.False(t, s.Err)
	assert.Nil(t, s.Coin)
	assert.Equal(t, "bitcoin", s.CoinID)

	f.release("bitcoin", ranked("Bitcoin", 1), nil)
	s = v.Wait(context.Background(), time.Second)

	assert.False(t, s.Loading)
	assert.False(t, s.Err)
	require.NotNil(t, s.Coin)
	assert.Equal(t, "Bitcoin", s.Coin.Name)
}

func TestView_FetchFailure(t *testing.T) {
	f := newGatedFetcher()
	v := NewView(f, nil)

	v.Mount(context.Background(), "bitcoin")
	f.release("bitcoin", nil, core.WrapError(core.ErrFetchFailed, errors.New("boom")))
	s := v.Wait(context.Background(), time.Second)

	assert.True(t, s.Err)
	assert.False(t, s.Loading)
	assert.Nil(t, s.Coin)
}

func TestView_NilPayloadKeepsCoinEmpty(t *testing.T) {
	f := newGatedFetcher()
	v := NewView(f, nil)

	v.Mount(context.Background(), "bitcoin")
	f.release("bitcoin", nil, nil)
	s := v.Wait(context.Background(), time.Second)

	assert.False(t, s.Err)
	assert.False(t, s.Loading)
	assert.Nil(t, s.Coin)
}

func TestView_RemountSameIDIsNoop(t *testing.T) {
	f := newGatedFetcher()
	v := NewView(f, nil)

	v.Mount(context.Background(), "bitcoin")
	gen := v.State().Generation
	v.Mount(context.Background(), "bitcoin")

	assert.Equal(t, gen, v.State().Generation)

	f.release("bitcoin", ranked("Bitcoin", 1), nil)
	v.Wait(context.Background(), time.Second)
	assert.Equal(t, 1, f.callCount())
}

func TestView_StaleResponseDiscarded(t *testing.T) {
	f := newGatedFetcher()
	stale := &staleCounter{}
	v := NewView(f, nil)
	v.SetStaleRecorder(stale)

	v.Mount(context.Background(), "bitcoin")
	v.Mount(context.Background(), "ethereum")

	// The newer request completes first.
	f.release("ethereum", ranked("Ethereum", 2), nil)
	s := v.Wait(context.Background(), time.Second)
	require.NotNil(t, s.Coin)
	assert.Equal(t, "Ethereum", s.Coin.Name)

	// The older one arrives late and must not win.
	f.release("bitcoin", ranked("Bitcoin", 1), nil)
	assert.Eventually(t, func() bool { return stale.count() == 1 }, time.Second, time.Millisecond)

	s = v.State()
	assert.Equal(t, "ethereum", s.CoinID)
	assert.Equal(t, "Ethereum", s.Coin.Name)
	assert.False(t, s.Loading)
}

func TestView_StaleFailureDoesNotSetError(t *testing.T) {
	f := newGatedFetcher()
	v := NewView(f, nil)

	v.Mount(context.Background(), "bitcoin")
	v.Mount(context.Background(), "ethereum")

	f.release("bitcoin", nil, errors.New("late failure"))
	f.release("ethereum", ranked("Ethereum", 2), nil)

	assert.Eventually(t, func() bool {
		s := v.State()
		return !s.Loading && s.Coin != nil
	}, time.Second, time.Millisecond)
	assert.False(t, v.State().Err)
}

func TestView_ChangingIDClearsError(t *testing.T) {
	f := newGatedFetcher()
	v := NewView(f, nil)

	v.Mount(context.Background(), "nope")
	f.release("nope", nil, errors.New("404"))
	require.True(t, v.Wait(context.Background(), time.Second).Err)

	v.Mount(context.Background(), "bitcoin")
	s := v.State()
	assert.False(t, s.Err)
	assert.True(t, s.Loading)

	f.release("bitcoin", ranked("Bitcoin", 1), nil)
	v.Wait(context.Background(), time.Second)
}

func TestView_UnmountDiscardsCompletion(t *testing.T) {
	f := newGatedFetcher()
	stale := &staleCounter{}
	v := NewView(f, nil)
	v.SetStaleRecorder(stale)

	v.Mount(context.Background(), "bitcoin")
	v.Unmount()
	f.release("bitcoin", ranked("Bitcoin", 1), nil)

	s := v.Wait(context.Background(), time.Second)
	assert.Nil(t, s.Coin)
	assert.Equal(t, 0, stale.count(), "an unmounted view is not a stale response")
}

func TestView_TimedOutPageIsNotStale(t *testing.T) {
	stale := &staleCounter{}
	v := NewView(fetcherFunc(func(ctx context.Context, id string) (*core.Coin, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), nil)
	v.SetStaleRecorder(stale)

	v.Mount(context.Background(), "bitcoin")
	require.True(t, v.Wait(context.Background(), 10*time.Millisecond).Loading)
	v.Unmount()

	s := v.Wait(context.Background(), time.Second)
	assert.False(t, s.Err)
	assert.Equal(t, 0, stale.count())
}

func TestView_UnmountCancelsContext(t *testing.T) {
	started := make(chan struct{})
	v := NewView(fetcherFunc(func(ctx context.Context, id string) (*core.Coin, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}), nil)

	v.Mount(context.Background(), "bitcoin")
	<-started
	v.Unmount()

	s := v.Wait(context.Background(), time.Second)
	assert.False(t, s.Err, "completion after unmount must be discarded")
}

func TestView_WaitTimesOut(t *testing.T) {
	f := newGatedFetcher()
	v := NewView(f, nil)

	v.Mount(context.Background(), "bitcoin")
	s := v.Wait(context.Background(), 10*time.Millisecond)
	assert.True(t, s.Loading)

	f.release("bitcoin", ranked("Bitcoin", 1), nil)
	v.Wait(context.Background(), time.Second)
}

func TestView_WaitUnmounted(t *testing.T) {
	v := NewView(newGatedFetcher(), nil)
	s := v.Wait(context.Background(), time.Hour)
	assert.Equal(t, State{}, s)
}

type fetcherFunc func(ctx context.Context, id string) (*core.Coin, error)

func (f fetcherFunc) FetchCoin(ctx context.Context, id string) (*core.Coin, error) {
	return f(ctx, id)
}
