package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var got []item
	ok, err := s.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, AddressKey("cities", "0722"), []item{{Code: "072217", Name: "Cebu City"}}, time.Minute))
	ok, err = s.Get(ctx, "storefront:address:cities:0722", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Cebu City", got[0].Name)

	require.NoError(t, s.Delete(ctx, AddressKey("cities", "0722")))
	ok, _ = s.Get(ctx, AddressKey("cities", "0722"), &got)
	assert.False(t, ok)
}

func TestMemoryStore_Expires(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, KeySettings, map[string]string{"a": "b"}, time.Minute))

	var out map[string]string
	ok, _ := s.Get(ctx, KeySettings, &out)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _ = s.Get(ctx, KeySettings, &out)
	assert.False(t, ok)
}
