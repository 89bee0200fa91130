package natsutil_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/okian/vacancy/internal/natsutil"
	"github.com/okian/vacancy/internal/natsutil/natstest"
	"github.com/stretchr/testify/require"
)

func TestEnsureBucket_ConcurrentCreators(t *testing.T) {
	_, _, js := natstest.Start(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := natsutil.EnsureBucket(ctx, js, jetstream.KeyValueConfig{Bucket: "race"}, 5)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestKeys_EmptyBucket(t *testing.T) {
	_, _, js := natstest.Start(t)
	ctx := context.Background()

	kv, err := natsutil.EnsureBucket(ctx, js, jetstream.KeyValueConfig{Bucket: "empty"}, 0)
	require.NoError(t, err)

	keys, err := natsutil.Keys(ctx, kv)
	require.NoError(t, err)
	require.Empty(t, keys)

	_, err = kv.Put(ctx, "a", []byte("1"))
	require.NoError(t, err)
	keys, err = natsutil.Keys(ctx, kv)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, keys)
}
