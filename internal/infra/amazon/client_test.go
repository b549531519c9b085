package amazon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lukotrack/luko/internal/domain"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	// High request rate so retries don't stall the test.
	return NewClient(server.URL, 2*time.Second, 1000, zap.NewNop())
}

func TestLookupProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/items/amazon.com/B07PGL2N7J" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"asin": "B07PGL2N7J",
			"detailPageUrl": "https://www.amazon.com/dp/B07PGL2N7J",
			"title": "Echo Dot",
			"seller": "Amazon",
			"images": {"large": "https://img.example/large.jpg"},
			"offer": {"amount": 4999, "formattedAmount": "$49.99", "currencyCode": "USD"}
		}`))
	})

	info, err := client.LookupProduct(context.Background(), "amazon.com", "B07PGL2N7J")
	if err != nil {
		t.Fatalf("LookupProduct: %v", err)
	}
	if info.Title != "Echo Dot" || info.Price.Amount != 4999 || info.ImageURL != "https://img.example/large.jpg" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestLookupProductNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if _, err := client.LookupProduct(context.Background(), "amazon.com", "B000000000"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestFetchPriceTooLowToDisplay(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"asin": "B07PGL2N7J", "offer": {"amount": 0, "tooLowToDisplay": true}}`))
	})

	if _, err := client.FetchPrice(context.Background(), "amazon.com", "B07PGL2N7J"); !errors.Is(err, domain.ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable, got %v", err)
	}
}

func TestLookupProductRejectsKindle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"asin": "B07PGL2N7J", "format": "Kindle eBook", "offer": {"amount": 999}}`))
	})

	if _, err := client.LookupProduct(context.Background(), "amazon.com", "B07PGL2N7J"); !errors.Is(err, domain.ErrUnsupportedProduct) {
		t.Fatalf("expected ErrUnsupportedProduct, got %v", err)
	}
}

func TestFetchPriceRetriesTransientFailures(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"asin": "B07PGL2N7J", "offer": {"amount": 1500, "currencyCode": "USD"}}`))
	})

	price, err := client.FetchPrice(context.Background(), "amazon.com", "B07PGL2N7J")
	if err != nil {
		t.Fatalf("FetchPrice: %v", err)
	}
	if price.Amount != 1500 {
		t.Fatalf("expected 1500, got %d", price.Amount)
	}
	if calls != 2 {
		t.Fatalf("expected a retry after the 502, got %d calls", calls)
	}
}
