package address

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/apiclient"
	"storefront/internal/domain/model"
	"storefront/internal/infra/cache"
)

func newDirectory(t *testing.T, h http.HandlerFunc) *Directory {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	api := apiclient.New(srv.URL, time.Second, zap.NewNop())
	return NewDirectory(api, cache.NewMemoryStore(), time.Hour, zap.NewNop())
}

func TestProvinces_PrependsMetroManilaAndSorts(t *testing.T) {
	d := newDirectory(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/provinces.json", r.URL.Path)
		_, _ = w.Write([]byte(`[{"code":"072200000","name":"Cebu"},{"code":"012800000","name":"Abra"}]`))
	})

	got, err := d.Provinces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.AddressOption{
		{Code: NCRCode, Name: "Metro Manila"},
		{Code: "012800000", Name: "Abra"},
		{Code: "072200000", Name: "Cebu"},
	}, got)
}

func TestCities_NCRUsesRegion(t *testing.T) {
	d := newDirectory(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/regions/130000000/cities-municipalities.json", r.URL.Path)
		_, _ = w.Write([]byte(`[{"code":"137404000","name":"Quezon City"}]`))
	})

	got, err := d.Cities(context.Background(), NCRCode)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Quezon City", got[0].Name)
}

func TestBarangays_Cached(t *testing.T) {
	var calls atomic.Int32
	d := newDirectory(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/cities-municipalities/072217000/barangays.json", r.URL.Path)
		_, _ = w.Write([]byte(`[{"code":"072217001","name":"Lahug"}]`))
	})

	for i := 0; i < 3; i++ {
		got, err := d.Barangays(context.Background(), "072217000")
		require.NoError(t, err)
		assert.Equal(t, "Lahug", got[0].Name)
	}
	assert.Equal(t, int32(1), calls.Load())
}
