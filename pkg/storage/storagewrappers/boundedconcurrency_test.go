package storagewrappers

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"github.com/fanout-labs/gqlgate/internal/mocks"
	"github.com/fanout-labs/gqlgate/pkg/storage"
	"github.com/fanout-labs/gqlgate/pkg/storage/memory"
)

func TestBoundedConcurrencyDatastore(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t)
	})

	t.Run("limits_concurrent_reads", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()

		var inflight, peak atomic.Int32
		mockDatastore := mocks.NewMockGatewayDatastore(mockController)
		mockDatastore.EXPECT().ReadPersistedQuery(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, string) (*storage.PersistedQuery, error) {
				n := inflight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				inflight.Add(-1)
				return nil, storage.ErrNotFound
			}).Times(10)

		ds := NewBoundedConcurrencyDatastore(mockDatastore, 2)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := ds.ReadPersistedQuery(context.Background(), "id")
				require.ErrorIs(t, err, storage.ErrNotFound)
			}()
		}
		wg.Wait()

		require.LessOrEqual(t, peak.Load(), int32(2))
	})

	t.Run("waiting_honours_cancellation", func(t *testing.T) {
		slow := mocks.NewMockSlowDataStorage(memory.New(), 200*time.Millisecond)
		ds := NewBoundedConcurrencyDatastore(slow, 1)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = ds.ReadCredential(context.Background(), "first")
		}()
		time.Sleep(20 * time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := ds.ReadUser(ctx, "t", "u")
		require.ErrorIs(t, err, context.DeadlineExceeded)
		<-done
	})
}
