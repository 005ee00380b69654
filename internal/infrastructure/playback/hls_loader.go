package playback

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mosaic/internal/core/domain"
	"mosaic/internal/core/ports"

	"mosaic/pkg/cache"

	"go.uber.org/zap"
)

// MediaError codes, matching the HTML MediaError convention the dashboard
// players report.
const (
	MediaErrAborted         = 1
	MediaErrNetwork         = 2
	MediaErrDecode          = 3
	MediaErrSrcNotSupported = 4
)

// LoadError is a playback source failure with a player-style error code.
type LoadError struct {
	Code    int
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("load error %d: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("load error %d: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

const maxPlaylistBytes = 2 << 20

// HLSLoader fetches HLS master playlists over HTTP and enumerates variant
// streams as quality tracks. Successful track lists are cached briefly so a
// grid full of tiles on the same source does not hammer the origin.
type HLSLoader struct {
	client    *http.Client
	userAgent string
	tracks    *cache.Cache[[]domain.QualityTrack]
	logger    *zap.Logger
}

func NewHLSLoader(timeout, cacheTTL time.Duration, userAgent string, logger *zap.Logger) ports.SourceLoader {
	var trackCache *cache.Cache[[]domain.QualityTrack]
	if cacheTTL > 0 {
		trackCache = cache.New[[]domain.QualityTrack](cacheTTL)
	}
	return &HLSLoader{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		tracks:    trackCache,
		logger:    logger,
	}
}

func (l *HLSLoader) LoadSource(ctx context.Context, src domain.Source) ([]domain.QualityTrack, error) {
	if src.URL == "" {
		return nil, domain.ErrNoSource
	}

	if l.tracks != nil {
		if tracks, ok := l.tracks.Get(src.URL); ok {
			return tracks, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, &LoadError{Code: MediaErrSrcNotSupported, Message: "Invalid source URL", Cause: err}
	}
	for name, value := range src.Headers {
		req.Header.Set(name, value)
	}
	if src.Cookies != "" {
		req.Header.Set("Cookie", src.Cookies)
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &LoadError{Code: MediaErrNetwork, Message: "Network error", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &LoadError{
			Code:    MediaErrNetwork,
			Message: fmt.Sprintf("Source returned HTTP %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlaylistBytes))
	if err != nil {
		return nil, &LoadError{Code: MediaErrNetwork, Message: "Network error", Cause: err}
	}

	tracks, err := parseMasterPlaylist(body)
	if err != nil {
		return nil, err
	}

	if l.tracks != nil {
		l.tracks.Set(src.URL, tracks)
	}
	return tracks, nil
}

// parseMasterPlaylist enumerates #EXT-X-STREAM-INF variants. Sources that
// expose zero or one variant (media playlists included) return an empty
// track list: single-track sources show no quality menu.
func parseMasterPlaylist(data []byte) ([]domain.QualityTrack, error) {
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 64*1024), maxPlaylistBytes)

	if !scanner.Scan() || !strings.HasPrefix(strings.TrimSpace(scanner.Text()), "#EXTM3U") {
		return nil, &LoadError{Code: MediaErrSrcNotSupported, Message: "Unsupported source format"}
	}

	var tracks []domain.QualityTrack
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#EXT-X-STREAM-INF:") {
			continue
		}

		attrs := parseAttributes(strings.TrimPrefix(line, "#EXT-X-STREAM-INF:"))
		track := domain.QualityTrack{ID: domain.TrackID(strconv.Itoa(len(tracks)))}
		if bw, err := strconv.Atoi(attrs["BANDWIDTH"]); err == nil {
			track.Bandwidth = bw
		}
		if res, ok := attrs["RESOLUTION"]; ok {
			if w, h, ok := parseResolution(res); ok {
				track.Width = w
				track.Height = h
			}
		}
		tracks = append(tracks, track)
	}
	if err := scanner.Err(); err != nil {
		return nil, &LoadError{Code: MediaErrDecode, Message: "Malformed playlist", Cause: err}
	}

	if len(tracks) <= 1 {
		return nil, nil
	}
	return tracks, nil
}

// parseAttributes splits an attribute list, respecting quoted values that
// may contain commas (CODECS in particular).
func parseAttributes(s string) map[string]string {
	attrs := make(map[string]string)

	var key, value strings.Builder
	inKey := true
	inQuotes := false
	flush := func() {
		if key.Len() > 0 {
			attrs[key.String()] = value.String()
		}
		key.Reset()
		value.Reset()
		inKey = true
	}

	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == '=' && inKey:
			inKey = false
		case r == ',' && !inQuotes:
			flush()
		case inKey:
			key.WriteRune(r)
		default:
			value.WriteRune(r)
		}
	}
	flush()

	return attrs
}

func parseResolution(s string) (int, int, bool) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err1 := strconv.Atoi(parts[0])
	h, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return w, h, true
}
