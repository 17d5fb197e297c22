package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostprompt/internal/cache"
)

type description struct {
	Text string `json:"text"`
}

func TestRedisRoundTripAndExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	c := cache.NewRedis(mr.Addr(), "", 0)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	var got description
	ok, err := c.Get(ctx, "photo:abc", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "photo:abc", description{Text: "A sunny deck"}, time.Minute))
	ok, err = c.Get(ctx, "photo:abc", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "A sunny deck", got.Text)

	mr.FastForward(2 * time.Minute)
	ok, err = c.Get(ctx, "photo:abc", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "photo:def", description{Text: "x"}, time.Minute))
	require.NoError(t, c.Del(ctx, "photo:def"))
	assert.False(t, mr.Exists("photo:def"))
}

func TestRedisGetCorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("photo:bad", "not-json"))
	c := cache.NewRedis(mr.Addr(), "", 0)
	defer c.Close()

	var got description
	ok, err := c.Get(context.Background(), "photo:bad", &got)
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var c cache.Cache = cache.Noop{}
	require.NoError(t, c.Set(context.Background(), "k", "v", time.Second))
	var s string
	ok, err := c.Get(context.Background(), "k", &s)
	require.NoError(t, err)
	assert.False(t, ok)
}
