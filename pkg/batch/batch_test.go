package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type order struct {
	ID string
}

type payment struct {
	ID      string
	OrderID string
}

type recordingFetch[V any] struct {
	mu    sync.Mutex
	calls [][]string
	fn    func(keys []string) ([]V, error)
}

func (f *recordingFetch[V]) fetch(_ context.Context, keys []string) ([]V, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), keys...))
	f.mu.Unlock()
	return f.fn(keys)
}

func (f *recordingFetch[V]) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func ordersKnown(known ...string) func(keys []string) ([]order, error) {
	set := map[string]bool{}
	for _, k := range known {
		set[k] = true
	}
	return func(keys []string) ([]order, error) {
		var out []order
		// reverse order to prove callers never rely on response ordering
		for i := len(keys) - 1; i >= 0; i-- {
			if set[keys[i]] {
				out = append(out, order{ID: keys[i]})
			}
		}
		return out, nil
	}
}

func TestScalarResolver(t *testing.T) {
	t.Run("result_keys_are_subset_of_requested", func(t *testing.T) {
		f := &recordingFetch[order]{fn: ordersKnown("B", "C", "Z")}
		r := NewScalar(f.fetch, func(o order) string { return o.ID })

		got, err := r.LoadMany(context.Background(), []string{"A", "B", "C"})
		require.NoError(t, err)
		require.Equal(t, map[string]order{"B": {ID: "B"}, "C": {ID: "C"}}, got)

		_, present := got["A"]
		require.False(t, present)
	})

	t.Run("unknown_key_is_not_an_error", func(t *testing.T) {
		f := &recordingFetch[order]{fn: ordersKnown()}
		r := NewScalar(f.fetch, func(o order) string { return o.ID })

		v, ok, err := r.Load(context.Background(), "A")
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, order{}, v)
	})

	t.Run("extra_records_are_dropped", func(t *testing.T) {
		got := IndexScalar([]string{"A"}, []order{{ID: "A"}, {ID: "X"}}, func(o order) string { return o.ID })
		require.Equal(t, map[string]order{"A": {ID: "A"}}, got)
	})
}

func TestGroupingResolver(t *testing.T) {
	fetch := func(_ context.Context, keys []string) ([]payment, error) {
		return []payment{
			{ID: "p1", OrderID: "B"},
			{ID: "p2", OrderID: "C"},
			{ID: "p3", OrderID: "B"},
			{ID: "p4", OrderID: "unrequested"},
		}, nil
	}
	r := NewGrouping(fetch, func(p payment) string { return p.OrderID })

	got, err := r.LoadMany(context.Background(), []string{"A", "B", "C"})
	require.NoError(t, err)

	want := map[string][]payment{
		"A": {},
		"B": {{ID: "p1", OrderID: "B"}, {ID: "p3", OrderID: "B"}},
		"C": {{ID: "p2", OrderID: "C"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	v, ok, err := r.Load(context.Background(), "A")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, v)
	require.Empty(t, v)
}

func TestFetchOrdered(t *testing.T) {
	t.Run("missing_ids_are_dropped_and_order_kept", func(t *testing.T) {
		f := &recordingFetch[order]{fn: ordersKnown("B", "C")}

		got, err := FetchOrdered(context.Background(), []string{"A", "B", "C"}, f.fetch, func(o order) string { return o.ID })
		require.NoError(t, err)
		require.Equal(t, []order{{ID: "B"}, {ID: "C"}}, got)
		require.Equal(t, [][]string{{"A", "B", "C"}}, f.Calls())
	})

	t.Run("request_order_wins_over_response_order", func(t *testing.T) {
		f := &recordingFetch[order]{fn: ordersKnown("A", "B", "C", "D")}

		got, err := FetchOrdered(context.Background(), []string{"D", "A", "C", "A"}, f.fetch, func(o order) string { return o.ID })
		require.NoError(t, err)
		require.Equal(t, []order{{ID: "D"}, {ID: "A"}, {ID: "C"}, {ID: "A"}}, got)
		require.Equal(t, [][]string{{"D", "A", "C"}}, f.Calls())
	})

	t.Run("empty_ids_skip_fetch", func(t *testing.T) {
		f := &recordingFetch[order]{fn: ordersKnown()}

		got, err := FetchOrdered(context.Background(), nil, f.fetch, func(o order) string { return o.ID })
		require.NoError(t, err)
		require.Empty(t, got)
		require.Empty(t, f.Calls())
	})

	t.Run("fetch_error", func(t *testing.T) {
		boom := errors.New("boom")
		fetch := func(context.Context, []string) ([]order, error) { return nil, boom }

		_, err := FetchOrdered(context.Background(), []string{"A"}, fetch, func(o order) string { return o.ID })
		require.ErrorIs(t, err, boom)
	})
}

func TestConcurrentLoadsShareOneFetch(t *testing.T) {
	f := &recordingFetch[order]{fn: ordersKnown("A", "B", "C")}
	r := NewScalar(f.fetch, func(o order) string { return o.ID }, WithWait(200*time.Millisecond))

	keys := []string{"A", "B", "C", "A", "B", "unknown"}

	var wg sync.WaitGroup
	var found atomic.Int32
	for _, k := range keys {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := r.Load(context.Background(), k)
			require.NoError(t, err)
			if ok {
				found.Add(1)
			}
		}()
	}
	wg.Wait()

	calls := f.Calls()
	require.Len(t, calls, 1)
	require.ElementsMatch(t, []string{"A", "B", "C", "unknown"}, calls[0])
	require.Equal(t, int32(5), found.Load())
}

func TestLoadAfterDispatchOpensNewWindow(t *testing.T) {
	f := &recordingFetch[order]{fn: ordersKnown("A", "B")}
	r := NewScalar(f.fetch, func(o order) string { return o.ID }, WithWait(time.Millisecond))

	_, ok, err := r.Load(context.Background(), "A")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = r.Load(context.Background(), "B")
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, [][]string{{"A"}, {"B"}}, f.Calls())
}

func TestMaxBatchSplitsWindows(t *testing.T) {
	f := &recordingFetch[order]{fn: ordersKnown("A", "B", "C")}
	r := NewScalar(f.fetch, func(o order) string { return o.ID }, WithMaxBatch(2), WithWait(time.Millisecond))

	got, err := r.LoadMany(context.Background(), []string{"A", "B", "C"})
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.ElementsMatch(t, [][]string{{"A", "B"}, {"C"}}, f.Calls())
}

func TestFetchFailurePropagatesToEveryWaiter(t *testing.T) {
	boom := errors.New("inventory unavailable")
	var calls atomic.Int32
	fetch := func(context.Context, []string) ([]payment, error) {
		calls.Add(1)
		return nil, boom
	}
	r := NewGrouping(fetch, func(p payment) string { return p.OrderID }, WithName("payments"), WithWait(100*time.Millisecond))

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i, k := range []string{"A", "B", "C"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, errs[i] = r.Load(context.Background(), k)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for _, err := range errs {
		require.ErrorIs(t, err, boom)

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		require.Equal(t, "payments", fetchErr.Loader)
	}
}

func TestPanickingFetchBecomesError(t *testing.T) {
	fetch := func(context.Context, []string) ([]order, error) {
		panic("downstream client bug")
	}
	r := NewScalar(fetch, func(o order) string { return o.ID })

	_, _, err := r.Load(context.Background(), "A")
	require.Error(t, err)
	require.Contains(t, err.Error(), "downstream client bug")
}

func TestWaiterHonoursOwnCancellation(t *testing.T) {
	release := make(chan struct{})
	fetch := func(context.Context, []string) ([]order, error) {
		<-release
		return nil, nil
	}
	r := NewScalar(fetch, func(o order) string { return o.ID }, WithWait(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := r.Load(ctx, "A")
	require.ErrorIs(t, err, context.Canceled)

	close(release)

	// let the dispatched fetch finish so no goroutine outlives the test
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.current == nil
	}, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
}

func TestDedupe(t *testing.T) {
	require.Equal(t, []string{"b", "a", "c"}, Dedupe([]string{"b", "a", "b", "c", "a"}))
	require.Empty(t, Dedupe[string](nil))
}
