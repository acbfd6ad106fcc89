package store

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requires running redis, i.e. CONVTRACK_TEST_REDIS=redis://localhost:6379/0
func TestRedis_Integration(t *testing.T) {
	url := os.Getenv("CONVTRACK_TEST_REDIS")
	if url == "" {
		t.Skip("CONVTRACK_TEST_REDIS not set")
	}
	prefix := "convtrack-test-" + uuid.NewString() + ":"

	r1, err := NewRedis(url, prefix)
	require.NoError(t, err)
	defer r1.Close()
	r2, err := NewRedis(url, prefix)
	require.NoError(t, err)
	defer r2.Close()

	_, err = r1.Load(KeyActiveJob)
	assert.ErrorIs(t, err, ErrNotFound)

	var mu sync.Mutex
	changed := []string{}
	require.NoError(t, r1.Watch(t.Context(), Keys, func(key string) {
		mu.Lock()
		changed = append(changed, key)
		mu.Unlock()
	}))

	require.NoError(t, r1.Save(KeyActiveJob, []byte("own")))
	require.NoError(t, r2.Save(KeyCompletedResult, []byte("foreign")))
	data, err := r1.Load(KeyCompletedResult)
	require.NoError(t, err)
	assert.Equal(t, "foreign", string(data))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changed) == 1 && changed[0] == KeyCompletedResult
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, r2.Delete(KeyActiveJob))
	require.NoError(t, r2.Delete(KeyCompletedResult))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changed) == 3
	}, time.Second, 10*time.Millisecond)
}

func TestRedis_BadURL(t *testing.T) {
	_, err := NewRedis("not-a-url", "x:")
	require.Error(t, err)
}
