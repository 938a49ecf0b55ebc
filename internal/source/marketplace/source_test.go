package marketplace

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSource(baseURL string, keywords []string) *Source {
	return New(Config{
		BaseURL:        baseURL,
		Keywords:       keywords,
		TaxonomyID:     9447,
		Timeout:        5 * time.Second,
		MaxAttempts:    1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}, nil, testLogger())
}

func payload(items string) string {
	return fmt.Sprintf(`{"data":{"section":{"payload":{"items":[%s]}}}}`, items)
}

func TestFetchListings_TransformsItems(t *testing.T) {
	item := `{
		"id": "li-1",
		"title": "iPhone 12",
		"description": "como nuevo",
		"price": {"amount": 250.5, "currency": "EUR"},
		"user_id": "u-9",
		"images": {"urls": {"big": ["https://img/1.jpg", "https://img/2.jpg"]}},
		"location": {"latitude": 40.41, "longitude": -3.70},
		"published_at": 1700000000
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.Header.Get("X-DeviceOS"))
		assert.Equal(t, "newest", r.URL.Query().Get("order_by"))
		assert.JSONEq(t, `{"taxonomy_ids":[9447]}`, r.URL.Query().Get("filters"))
		fmt.Fprint(w, payload(item))
	}))
	defer server.Close()

	src := newTestSource(server.URL, []string{"iphone"})
	listings, err := src.FetchListings(context.Background())

	require.NoError(t, err)
	require.Len(t, listings, 1)

	l := listings[0]
	assert.Equal(t, "li-1", l.ID)
	assert.Equal(t, "iPhone 12", l.Title)
	assert.Equal(t, "como nuevo", l.Description)
	require.NotNil(t, l.Price)
	assert.Equal(t, 250.5, *l.Price)
	assert.Equal(t, "u-9", l.SellerID)
	assert.Equal(t, []string{"https://img/1.jpg", "https://img/2.jpg"}, l.Images)
	require.NotNil(t, l.Location)
	assert.Equal(t, 40.41, *l.Location.Latitude)
	require.NotNil(t, l.PublishedRaw)
	assert.True(t, l.PublishedRaw.IsEpoch)
	assert.Equal(t, int64(1700000000), l.PublishedRaw.Epoch)
}

func TestFetchListings_CreatedAtFallback(t *testing.T) {
	item := `{"id": "li-1", "created_at": "2023-11-14T22:13:20Z"}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, payload(item))
	}))
	defer server.Close()

	src := newTestSource(server.URL, []string{"iphone"})
	listings, err := src.FetchListings(context.Background())

	require.NoError(t, err)
	require.Len(t, listings, 1)
	require.NotNil(t, listings[0].PublishedRaw)
	assert.False(t, listings[0].PublishedRaw.IsEpoch)
	assert.Equal(t, "2023-11-14T22:13:20Z", listings[0].PublishedRaw.Text)
}

func TestFetchListings_FailedKeywordIsSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("keywords") == "samsung" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, payload(`{"id": "li-1"}`))
	}))
	defer server.Close()

	src := newTestSource(server.URL, []string{"iphone", "samsung"})
	listings, err := src.FetchListings(context.Background())

	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "li-1", listings[0].ID)
}

func TestFetchListings_KeywordOrderIsStable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kw := r.URL.Query().Get("keywords")
		fmt.Fprint(w, payload(fmt.Sprintf(`{"id": %q}`, "id-"+kw)))
	}))
	defer server.Close()

	src := newTestSource(server.URL, []string{"iphone", "samsung", "xiaomi"})
	listings, err := src.FetchListings(context.Background())

	require.NoError(t, err)
	require.Len(t, listings, 3)
	assert.Equal(t, "id-iphone", listings[0].ID)
	assert.Equal(t, "id-samsung", listings[1].ID)
	assert.Equal(t, "id-xiaomi", listings[2].ID)
}

func TestFetchListings_AllKeywordsFailedYieldsEmptyBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	src := newTestSource(server.URL, []string{"iphone", "samsung"})
	listings, err := src.FetchListings(context.Background())

	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestFetchListings_RetriesBeforeGivingUp(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, payload(`{"id": "li-1"}`))
	}))
	defer server.Close()

	src := New(Config{
		BaseURL:        server.URL,
		Keywords:       []string{"iphone"},
		TaxonomyID:     9447,
		Timeout:        5 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}, nil, testLogger())

	listings, err := src.FetchListings(context.Background())

	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, 2, calls)
}
