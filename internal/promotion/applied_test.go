package promotion

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplied_ApplyReplacesPrevious(t *testing.T) {
	applied := NewApplied(NewStaticResolver(nil, zerolog.Nop()))

	res := applied.Apply("HEMAT50", dec(600000))
	require.True(t, res.OK())

	res = applied.Apply("DISKON10", dec(600000))
	require.True(t, res.OK())

	current, ok := applied.Current()
	require.True(t, ok)
	assert.Equal(t, "DISKON10", current.Code)
	assert.True(t, dec(20000).Equal(applied.Discount(dec(600000))), "promotions must not stack")
}

func TestApplied_RejectedCodeLeavesCurrentUntouched(t *testing.T) {
	applied := NewApplied(NewStaticResolver(nil, zerolog.Nop()))
	applied.Apply("HEMAT50", dec(600000))

	res := applied.Apply("BOGUS", dec(600000))
	assert.False(t, res.OK())
	require.NotNil(t, res.Rejection)
	assert.Equal(t, ReasonInvalidCode, res.Rejection.Reason)

	current, ok := applied.Current()
	require.True(t, ok)
	assert.Equal(t, "HEMAT50", current.Code)
}

func TestApplied_Clear(t *testing.T) {
	applied := NewApplied(NewStaticResolver(nil, zerolog.Nop()))
	applied.Apply("HEMAT50", dec(600000))

	applied.Clear()

	_, ok := applied.Current()
	assert.False(t, ok)
	assert.True(t, applied.Discount(dec(600000)).IsZero())
}

func TestApplied_ConcurrentAccess(t *testing.T) {
	applied := NewApplied(NewStaticResolver(nil, zerolog.Nop()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			applied.Apply("HEMAT50", dec(100000))
		}()
		go func() {
			defer wg.Done()
			applied.Apply("DISKON10", dec(100000))
		}()
		go func() {
			defer wg.Done()
			applied.Current()
		}()
	}
	wg.Wait()

	current, ok := applied.Current()
	require.True(t, ok)
	assert.Contains(t, []string{"HEMAT50", "DISKON10"}, current.Code)
}
