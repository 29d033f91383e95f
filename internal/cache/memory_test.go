package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niyant4280/bus-niyojak/internal/clock"
)

var epoch = time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, clock.NewMockClock(epoch))

	value, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, value)

	payload := []byte(`{"list":[]}`)
	require.NoError(t, c.Set(ctx, "k", payload, time.Minute))
	payload[0] = 'X'

	value, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"list":[]}`, string(value))
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMockClock(epoch)
	c := NewMemoryCache(10, mock)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	mock.Advance(59 * time.Second)
	value, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("v"), value)

	mock.Advance(time.Second)
	value, _ = c.Get(ctx, "k")
	assert.Nil(t, value)
	assert.Zero(t, c.Len())

	require.NoError(t, c.Set(ctx, "zero", []byte("v"), 0))
	value, _ = c.Get(ctx, "zero")
	assert.Nil(t, value)
}

func TestMemoryCache_Eviction(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMockClock(epoch)
	c := NewMemoryCache(3, mock)

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "long", []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, "medium", []byte("3"), 10*time.Minute))
	require.NoError(t, c.Set(ctx, "new", []byte("4"), time.Hour))

	assert.Equal(t, 3, c.Len())
	value, _ := c.Get(ctx, "short")
	assert.Nil(t, value)
	value, _ = c.Get(ctx, "new")
	assert.Equal(t, []byte("4"), value)

	// Overwriting an existing key never evicts.
	require.NoError(t, c.Set(ctx, "medium", []byte("5"), time.Hour))
	assert.Equal(t, 3, c.Len())
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(50, nil)

	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%100)
				_ = c.Set(ctx, key, []byte(key), time.Minute)
				_, _ = c.Get(ctx, key)
			}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}
	assert.LessOrEqual(t, c.Len(), 50)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, clock.NewMockClock(epoch))

	type entry struct {
		Routes []string `json:"routes"`
	}
	require.NoError(t, SetJSON(ctx, c, "routes", entry{Routes: []string{"R_RD"}}, time.Minute))

	var got entry
	found, err := GetJSON(ctx, c, "routes", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"R_RD"}, got.Routes)

	found, err = GetJSON(ctx, c, "absent", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "broken", []byte("{"), time.Minute))
	_, err = GetJSON(ctx, c, "broken", &got)
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, KeyRouteSearch("feed.1", "", "Rithala", "Dilshad"), KeyRouteSearch("feed.1", "", "rithala", "DILSHAD"))
	assert.NotEqual(t, KeyRouteSearch("feed.1", "", "Rithala", "Dilshad"), KeyRouteSearch("feed.2", "", "Rithala", "Dilshad"))
	assert.NotEqual(t, KeyRouteSearch("a1b2.1", "", "Rithala", "Dilshad"), KeyRouteSearch("c3d4.1", "", "Rithala", "Dilshad"))
	assert.NotEqual(t, KeyRouteSearch("feed.1", "", "ab", "c"), KeyRouteSearch("feed.1", "", "a", "bc"))

	path := [][2]float64{{28.718848, 77.1031}, {28.728848, 77.1031}}
	assert.Equal(t, KeyOverlap("feed.1", 150, path), KeyOverlap("feed.1", 150, [][2]float64{{28.718848, 77.1031}, {28.728848, 77.1031}}))
	assert.NotEqual(t, KeyOverlap("feed.1", 150, path), KeyOverlap("feed.1", 200, path))
	assert.Contains(t, KeyOverlap("feed.3", 150, path), "routes:overlap:feed.3:150:")
}

func TestKeyOverlap_SubPolylinePrecision(t *testing.T) {
	a := [][2]float64{{28.718848, 77.1031}, {28.728848, 77.1031}}
	b := [][2]float64{{28.7188516, 77.1031}, {28.728848, 77.1031}}
	assert.NotEqual(t, KeyOverlap("feed.1", 150, a), KeyOverlap("feed.1", 150, b))
}
