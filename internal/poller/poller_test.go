package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testInterval = 20 * time.Millisecond

var errBackend = errors.New("backend unavailable")

type recorder struct {
	mu      sync.Mutex
	results []string
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results = append(r.results, v)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.results...)
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.results) == 0 {
		return ""
	}

	return r.results[len(r.results)-1]
}

func runPoller(t *testing.T, p *Poller[string]) (context.CancelFunc, <-chan struct{}) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	return cancel, done
}

func TestNew(t *testing.T) {
	fetch := func(context.Context, string) (string, error) { return "", nil }
	onResult := func(string) {}

	tests := []struct {
		name        string
		fetch       FetchFunc[string]
		onResult    ResultFunc[string]
		opts        []Option[string]
		expectedErr error
	}{
		{"valid", fetch, onResult, nil, nil},
		{"missing fetch", nil, onResult, nil, ErrMissingFunc},
		{"missing result", fetch, nil, nil, ErrMissingFunc},
		{"zero interval", fetch, onResult, []Option[string]{WithInterval[string](0)}, ErrInvalidInterval},
		{"negative interval", fetch, onResult, []Option[string]{WithInterval[string](-time.Second)}, ErrInvalidInterval},
	}

	for _, tt := range tests {
		// go vet
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := New("test-new", "42", tt.fetch, tt.onResult, tt.opts...)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, p)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, DefaultInterval, p.interval)
			assert.Equal(t, "test-new", p.Name())
		})
	}
}

func TestRunFetchesImmediatelyThenOnInterval(t *testing.T) {
	t.Parallel()

	var (
		calls int32
		ids   sync.Map
	)

	rec := &recorder{}

	fetch := func(_ context.Context, id string) (string, error) {
		ids.Store(id, true)
		atomic.AddInt32(&calls, 1)

		return "pending", nil
	}

	// a long interval proves the first fetch does not wait for a tick
	p, err := New("test-immediate", "42", fetch, rec.record, WithInterval[string](time.Hour))
	require.NoError(t, err)

	runPoller(t, p)

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return rec.last() == "pending" }, time.Second, time.Millisecond)

	_, ok := ids.Load("42")
	assert.True(t, ok)

	p2, err := New("test-interval", "42", fetch, rec.record, WithInterval[string](testInterval))
	require.NoError(t, err)

	before := atomic.LoadInt32(&calls)

	runPoller(t, p2)

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls)-before >= 3 }, time.Second, time.Millisecond)
}

func TestRunIgnoresFetchErrors(t *testing.T) {
	t.Parallel()

	var calls int32

	responses := []struct {
		value string
		err   error
	}{
		{"pending", nil},
		{"", errBackend},
		{"active", nil},
	}

	rec := &recorder{}

	fetch := func(context.Context, string) (string, error) {
		n := int(atomic.AddInt32(&calls, 1)) - 1
		if n >= len(responses) {
			n = len(responses) - 1
		}

		return responses[n].value, responses[n].err
	}

	p, err := New("test-errors", "42", fetch, rec.record,
		WithInterval[string](testInterval),
		WithLogger[string](zaptest.NewLogger(t).Sugar()),
	)
	require.NoError(t, err)

	runPoller(t, p)

	require.Eventually(t, func() bool { return rec.last() == "active" }, time.Second, time.Millisecond)

	got := rec.all()
	assert.Equal(t, "pending", got[0])
	assert.NotContains(t, got, "")
	assert.GreaterOrEqual(t, testutil.ToFloat64(fetchTotal.WithLabelValues("test-errors", outcomeError)), float64(1))
	assert.GreaterOrEqual(t, testutil.ToFloat64(fetchTotal.WithLabelValues("test-errors", outcomeSuccess)), float64(2))
}

func TestRunDropsSupersededFetch(t *testing.T) {
	t.Parallel()

	var calls int32

	rec := &recorder{}

	fetch := func(ctx context.Context, _ string) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			// first fetch outlives its tick and ignores cancellation
			<-ctx.Done()
			return "stale", nil
		}

		return "fresh", nil
	}

	p, err := New("test-superseded", "42", fetch, rec.record, WithInterval[string](testInterval))
	require.NoError(t, err)

	runPoller(t, p)

	require.Eventually(t, func() bool { return rec.last() == "fresh" }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(fetchTotal.WithLabelValues("test-superseded", outcomeSuperseded)) >= 1
	}, time.Second, time.Millisecond)

	assert.NotContains(t, rec.all(), "stale")
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	var calls int32

	rec := &recorder{}
	release := make(chan struct{})

	fetch := func(ctx context.Context, _ string) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return "pending", nil
		}

		<-release

		return "late", nil
	}

	p, err := New("test-cancel", "42", fetch, rec.record, WithInterval[string](testInterval))
	require.NoError(t, err)

	cancel, done := runPoller(t, p)

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 2 }, time.Second, time.Millisecond)

	cancel()
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}

	stopped := atomic.LoadInt32(&calls)

	time.Sleep(3 * testInterval)

	assert.Equal(t, stopped, atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"pending"}, rec.all())
}

func TestRunWithCanceledContext(t *testing.T) {
	t.Parallel()

	var calls int32

	fetch := func(context.Context, string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "pending", nil
	}

	p, err := New("test-precanceled", "42", fetch, func(string) { t.Error("unexpected result") })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p.Run(ctx)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}
