package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/domain/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 5*time.Second, zap.NewNop())
}

func TestDo_AttachesBearerAndGuestHeaders(t *testing.T) {
	var gotAuth, gotGuest string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotGuest = r.Header.Get("X-Guest-ID")
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	_, err := c.GetCart(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Empty(t, gotGuest)

	_, err = c.GetGuestCart(context.Background(), "guest-1")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "guest-1", gotGuest)
}

func TestDo_JoinsFieldErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"The given data was invalid.","errors":{"password":["The password is too short."],"email":["The email has already been taken."]}}`))
	})

	_, err := c.Register(context.Background(), RegisterInput{Email: "a@b.co"})
	require.Error(t, err)

	ae, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, ae.Status)
	assert.Equal(t, "The email has already been taken. The password is too short.", ae.Message)
	assert.Len(t, ae.Fields, 2)
}

func TestDo_UsesMessageWhenNoFieldErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
	})

	_, err := c.CurrentUser(context.Background(), "expired")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	ae, _ := AsAPIError(err)
	assert.Equal(t, "Unauthenticated.", ae.Message)
}

func TestDo_FallsBackToStatusText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})

	_, err := c.GetSettings(context.Background())
	ae, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Bad Gateway", ae.Message)
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, time.Second, zap.NewNop())
	_, err := c.GetSettings(context.Background())

	ae, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 0, ae.Status)
	assert.Equal(t, networkErrorMessage, ae.Message)
}

func TestCreateGuestOrder_SendsMultipart(t *testing.T) {
	var fields map[string]string
	var proof []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/guest-orders", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		fields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			fields[k] = v[0]
		}
		if f, _, err := r.FormFile("payment_proof"); assert.NoError(t, err) {
			proof, _ = io.ReadAll(f)
		}

		_, _ = w.Write([]byte(`{"data":{"order":{"id":42,"status":"pending","customer_name":"Ana","total_amount":"620.00"}}}`))
	})

	order, err := c.CreateGuestOrder(context.Background(), "g-1", OrderSubmission{
		Name:         "Ana",
		Email:        "ana@example.com",
		Province:     "Cebu",
		ShippingFee:  decimal.NewFromInt(120),
		PaymentProof: File{Filename: "gcash.png", ContentType: "image/png", Data: []byte("png")},
	}, []CartLine{{ProductID: 7, Size: "M", Quantity: 1}})
	require.NoError(t, err)

	assert.Equal(t, int64(42), order.ID)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(620)))

	assert.Equal(t, "g-1", fields["guest_id"])
	assert.Equal(t, "ana@example.com", fields["email"])
	assert.Equal(t, "120.00", fields["shipping_fee"])
	assert.Equal(t, []byte("png"), proof)

	var lines []CartLine
	require.NoError(t, json.Unmarshal([]byte(fields["cart_items"]), &lines))
	assert.Equal(t, []CartLine{{ProductID: 7, Size: "M", Quantity: 1}}, lines)
}

func TestGetProfile_NotFoundIsNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/guest/profile", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})

	p, err := c.GetProfile(context.Background(), Auth{GuestID: "g-1"})
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestAdminResource_List(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/announcements", r.URL.Path)
		assert.Equal(t, "Bearer admin", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"id":1,"message":"Free shipping!","is_active":true}]}`))
	})

	res := NewAdminResource[model.Announcement](c, "announcements")
	list, err := res.List(context.Background(), "admin")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Free shipping!", list[0].Message)
	assert.Equal(t, "announcements", res.Name())
}
