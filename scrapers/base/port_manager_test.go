package base

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortManagerLeases(t *testing.T) {
	pm := NewPortManager(9500, 2)
	ctx := context.Background()

	p1, release1, err := pm.Acquire(ctx)
	require.NoError(t, err)
	p2, release2, err := pm.Acquire(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{9500, 9501}, []int{p1, p2})
	assert.Equal(t, 2, pm.Leased())

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, _, err = pm.Acquire(short)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	release1()
	p3, release3, err := pm.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, p1, p3)

	release2()
	release3()
	assert.Zero(t, pm.Leased())
}

func TestPortManagerConcurrentUse(t *testing.T) {
	pm := NewPortManager(9600, 4)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, release, err := pm.Acquire(context.Background())
			if err != nil {
				return
			}
			release()
		}()
	}
	wg.Wait()

	assert.Zero(t, pm.Leased())
}
