package playback

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/puppymart/rewards-service/internal/model"
)

const testFallback = 30 * time.Second

func TestHTTPResolver_StoredDurationWins(t *testing.T) {
	resolver := NewHTTPResolver(time.Second, testFallback)

	ad := &model.Ad{MediaURL: "https://cdn.example.com/spot.mp4", DurationMs: 12500}
	got := resolver.Resolve(context.Background(), ad)

	assert.Equal(t, 12500*time.Millisecond, got)
}

func TestHTTPResolver_EmbedReferenceFallsBack(t *testing.T) {
	resolver := NewHTTPResolver(time.Second, testFallback)

	urls := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://vimeo.com/123456",
	}
	for _, u := range urls {
		got := resolver.Resolve(context.Background(), &model.Ad{MediaURL: u})
		assert.Equal(t, testFallback, got, "embed URL %s must use the fallback", u)
	}
}

func TestHTTPResolver_ProbeReadsDurationHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("X-Content-Duration", "42.5")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(time.Second, testFallback)
	got := resolver.Resolve(context.Background(), &model.Ad{MediaURL: srv.URL + "/spot.mp4"})

	assert.Equal(t, 42500*time.Millisecond, got)
}

func TestHTTPResolver_ProbeWithoutHeaderFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(time.Second, testFallback)
	got := resolver.Resolve(context.Background(), &model.Ad{MediaURL: srv.URL + "/spot.mp4"})

	assert.Equal(t, testFallback, got)
}

func TestHTTPResolver_ProbeErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(time.Second, testFallback)
	got := resolver.Resolve(context.Background(), &model.Ad{MediaURL: srv.URL + "/spot.mp4"})

	assert.Equal(t, testFallback, got)
}

func TestHTTPResolver_UnreachableHostFallsBack(t *testing.T) {
	resolver := NewHTTPResolver(200*time.Millisecond, testFallback)
	got := resolver.Resolve(context.Background(), &model.Ad{MediaURL: "http://127.0.0.1:1/spot.mp4"})

	assert.Equal(t, testFallback, got)
}

func TestHTTPResolver_BadDurationHeaderFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Duration", "not-a-number")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(time.Second, testFallback)
	got := resolver.Resolve(context.Background(), &model.Ad{MediaURL: srv.URL + "/spot.mp4"})

	assert.Equal(t, testFallback, got)
}
