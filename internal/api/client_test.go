package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/querycache"
	"github.com/tair/storefront/pkg/circuitbreaker"
)

type staticTokens domain.Token

func (s staticTokens) Get(context.Context) (domain.Token, error) {
	return domain.Token(s), nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, staticTokens{Token: "tok", CSRF: "csrf"}, opts...)
	require.NoError(t, err)
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New(Config{BaseURL: "/api"}, nil)
	assert.Error(t, err)
}

func TestClient_SuccessUnwrapsPayload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/categories", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":         true,
			"categories": []map[string]string{{"id": "1", "title": "Kitchen"}},
		})
	})

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Kitchen", cats[0].Title)
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		failure   bool
		reason    string
		transport bool
	}{
		{"ok false", http.StatusOK, `{"ok":false,"error":"Item not found"}`, true, "Item not found", false},
		{"client error with body", http.StatusForbidden, `{"ok":false,"error":"Not your order"}`, true, "Not your order", false},
		{"client error without reason", http.StatusNotFound, `{}`, true, "Not Found", false},
		{"server error without body", http.StatusBadGateway, ``, false, "", true},
		{"undecodable body", http.StatusOK, `<html>`, false, "", true},
		{"missing ok field", http.StatusOK, `{"item":{}}`, false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Item(context.Background(), "1")
			require.Error(t, err)

			f, isFailure := AsFailure(err)
			assert.Equal(t, tt.failure, isFailure)
			if isFailure {
				assert.Equal(t, tt.reason, f.Reason)
				assert.Equal(t, tt.status, f.Status)
			}
			assert.Equal(t, tt.transport, IsTransport(err))
		})
	}
}

func TestClient_NetworkFailureIsTransport(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.Categories(context.Background())
	assert.True(t, IsTransport(err))
}

func TestClient_AuthenticatedCallsCarryCredentials(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "csrf", r.Header.Get(HeaderCSRF))
		assert.NotEmpty(t, r.Header.Get(HeaderRequestID))
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
	})

	require.NoError(t, c.LikeItem(context.Background(), "42"))
}

func TestClient_LoginHasNoEnvelopeAndNoCredentials(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var body map[string]map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "kim@example.com", body["user"]["email"])
		writeJSON(w, http.StatusOK, domain.Token{Token: "jwt", CSRF: "c1"})
	})

	tok, err := c.Login(context.Background(), domain.SignInInput{Email: "kim@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, domain.Token{Token: "jwt", CSRF: "c1"}, tok)
}

func TestClient_LoginRejected(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"ok": false, "error": "Wrong password"})
	})

	_, err := c.Login(context.Background(), domain.SignInInput{Email: "a@b.c", Password: "x"})
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, "Wrong password", f.Reason)
}

func TestClient_BreakerOpensAfterTransportFailures(t *testing.T) {
	var hits int32
	breakers := circuitbreaker.NewManager(circuitbreaker.Settings{MaxFailures: 2, OpenTimeout: time.Minute})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithBreakers(breakers))

	for i := 0; i < 2; i++ {
		_, err := c.Categories(context.Background())
		require.True(t, IsTransport(err))
	}

	_, err := c.Categories(context.Background())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, IsTransport(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClient_FailuresDoNotTripBreaker(t *testing.T) {
	breakers := circuitbreaker.NewManager(circuitbreaker.Settings{MaxFailures: 1, OpenTimeout: time.Minute})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": false, "error": "Out of stock"})
	}, WithBreakers(breakers))

	for i := 0; i < 3; i++ {
		err := c.LikeItem(context.Background(), "1")
		_, ok := AsFailure(err)
		assert.True(t, ok)
	}
	assert.Equal(t, circuitbreaker.StateClosed, breakers.GetOrCreate("likes").State())
}

func TestClient_CacheServesReadsUntilMutation(t *testing.T) {
	var reads int32
	cache := querycache.NewMemory(time.Minute)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			atomic.AddInt32(&reads, 1)
			writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "likeList": map[string]interface{}{"id": "l1", "items": []interface{}{}}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
	}, WithCache(cache))
	ctx := context.Background()

	_, err := c.LikeList(ctx)
	require.NoError(t, err)
	_, err = c.LikeList(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&reads))

	require.NoError(t, c.LikeItem(ctx, "7"))
	_, err = c.LikeList(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&reads))
}

func TestClient_RequestRefundWireFormat(t *testing.T) {
	pay := decimal.NewFromInt(20000)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/refunds/order-item/oi-1/refund", r.URL.Path)
		assert.Equal(t, "Refunded", r.URL.Query().Get("status"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(2), body["count"])
		assert.Equal(t, "Damaged or malfunctioning", body["problemTitle"])
		assert.Equal(t, float64(20000), body["refundPay"])
		assert.NotContains(t, body, "status")

		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "order_item": map[string]interface{}{"id": "oi-1", "status": "Delivered", "count": 2}})
	})

	oi, err := c.RequestRefund(context.Background(), domain.RequestRefundInput{
		OrderItemID:  "oi-1",
		Status:       domain.RefundRefunded,
		Count:        2,
		ProblemTitle: "Damaged or malfunctioning",
		RefundPay:    &pay,
	})
	require.NoError(t, err)
	assert.Equal(t, "oi-1", oi.ID)
}

func TestClient_UpdateOrderStatusUsesQuery(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/orders/order-item/9/update", r.URL.Path)
		assert.Equal(t, "Received", r.URL.Query().Get("orderStatus"))
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "order_item": map[string]interface{}{"id": "9", "status": "Received"}})
	})

	oi, err := c.UpdateOrderItemStatus(context.Background(), "9", domain.OrderReceived)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderReceived, oi.Status)
}

func TestClient_SearchItemsQuery(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "lamp", q.Get("query"))
		assert.Equal(t, "createdAt desc", q.Get("sort"))
		assert.Equal(t, "2", q.Get("page"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok": true, "items": []interface{}{}, "hasNextPage": false, "totalResults": 11,
		})
	})

	page, err := c.SearchItems(context.Background(), SearchParams{Query: "lamp", Page: 2})
	require.NoError(t, err)
	assert.False(t, page.HasNextPage)
	assert.Equal(t, 11, page.TotalResults)
}

func TestClient_UploadImagesMultipart(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "item-1", r.FormValue("imagable_id"))
		assert.Equal(t, "Item", r.FormValue("imagable_type"))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)
		assert.Equal(t, "a.png", files[0].Filename)
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "images": []map[string]string{{"id": "1", "image_path": "/uploads/a.png"}}})
	})

	images, err := c.UploadImages(context.Background(), UploadInput{
		ImagableID:   "item-1",
		ImagableType: "Item",
		Files: []UploadFile{
			{Name: "a.png", Content: strings.NewReader("png-a")},
			{Name: "b.png", Content: strings.NewReader("png-b")},
		},
	})
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "/uploads/a.png", images[0].ImagePath)
}

func TestClient_TimeoutIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	_, err = c.Categories(context.Background())
	assert.True(t, IsTransport(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
