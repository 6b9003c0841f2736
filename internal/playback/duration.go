package playback

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/puppymart/rewards-service/internal/model"
)

// DurationResolver determines how long an ad plays for.
type DurationResolver interface {
	Resolve(ctx context.Context, ad *model.Ad) time.Duration
}

// embedHosts are video-platform hosts whose duration is only knowable
// through a client-side player callback. Server-side they resolve straight
// to the fallback.
var embedHosts = []string{"youtube.com", "youtu.be", "vimeo.com", "dailymotion.com"}

// HTTPResolver resolves ad durations from stored metadata or an HTTP HEAD
// probe, falling back to a fixed duration when neither works. Resolution
// failures are never fatal: the fallback always applies.
type HTTPResolver struct {
	client   *http.Client
	fallback time.Duration
}

// NewHTTPResolver creates a resolver with the given probe timeout and
// fallback duration.
func NewHTTPResolver(probeTimeout, fallback time.Duration) *HTTPResolver {
	return &HTTPResolver{
		client:   &http.Client{Timeout: probeTimeout},
		fallback: fallback,
	}
}

// Resolve returns the best-known duration for an ad: the stored value when
// present, a metadata probe for direct media files, and the fallback for
// everything else.
func (r *HTTPResolver) Resolve(ctx context.Context, ad *model.Ad) time.Duration {
	if ad.DurationMs > 0 {
		return time.Duration(ad.DurationMs) * time.Millisecond
	}
	if isEmbedReference(ad.MediaURL) {
		return r.fallback
	}
	if d, ok := r.probe(ctx, ad.MediaURL); ok {
		return d
	}
	return r.fallback
}

// probe issues a HEAD request and reads the X-Content-Duration header
// (seconds) that media servers attach to hosted video files.
func (r *HTTPResolver) probe(ctx context.Context, mediaURL string) (time.Duration, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, mediaURL, nil)
	if err != nil {
		return 0, false
	}

	resp, err := r.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("media_url", mediaURL).Msg("duration probe failed, using fallback")
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, false
	}

	header := resp.Header.Get("X-Content-Duration")
	if header == "" {
		header = resp.Header.Get("Content-Duration")
	}
	if header == "" {
		return 0, false
	}

	seconds, err := strconv.ParseFloat(header, 64)
	if err != nil || seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

// isEmbedReference reports whether the media URL points at an embeddable
// video platform rather than a directly hosted file.
func isEmbedReference(mediaURL string) bool {
	lower := strings.ToLower(mediaURL)
	for _, host := range embedHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}
