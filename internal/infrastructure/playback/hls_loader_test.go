package playback

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mosaic/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const masterPlaylist = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=5000000,RESOLUTION=1920x1080,CODECS="avc1.640028,mp4a.40.2"
1080p/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2500000,RESOLUTION=1280x720
720p/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360
360p/index.m3u8
`

const mediaPlaylist = `#EXTM3U
#EXT-X-TARGETDURATION:6
#EXTINF:6.0,
segment0.ts
#EXTINF:6.0,
segment1.ts
`

func newTestLoader(t *testing.T, cacheTTL time.Duration) *HLSLoader {
	t.Helper()
	return NewHLSLoader(5*time.Second, cacheTTL, "mosaic-test/1.0", zaptest.NewLogger(t)).(*HLSLoader)
}

func TestLoadSourceEnumeratesVariants(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(masterPlaylist))
	}))
	defer server.Close()

	loader := newTestLoader(t, 0)
	tracks, err := loader.LoadSource(context.Background(), domain.Source{URL: server.URL})
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	assert.Equal(t, domain.TrackID("0"), tracks[0].ID)
	assert.Equal(t, 1920, tracks[0].Width)
	assert.Equal(t, 1080, tracks[0].Height)
	assert.Equal(t, 5000000, tracks[0].Bandwidth)

	assert.Equal(t, domain.TrackID("2"), tracks[2].ID)
	assert.Equal(t, 640, tracks[2].Width)
	assert.Equal(t, 800000, tracks[2].Bandwidth)
}

func TestLoadSourceSingleVariantHasNoQualityMenu(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(mediaPlaylist))
	}))
	defer server.Close()

	loader := newTestLoader(t, 0)
	tracks, err := loader.LoadSource(context.Background(), domain.Source{URL: server.URL})
	require.NoError(t, err)
	assert.Nil(t, tracks)
}

func TestLoadSourceForwardsHeadersAndCookies(t *testing.T) {
	var gotAuth, gotCookie, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCookie = r.Header.Get("Cookie")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(masterPlaylist))
	}))
	defer server.Close()

	loader := newTestLoader(t, 0)
	_, err := loader.LoadSource(context.Background(), domain.Source{
		URL:     server.URL,
		Headers: map[string]string{"Authorization": "Bearer token"},
		Cookies: "session=abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer token", gotAuth)
	assert.Equal(t, "session=abc", gotCookie)
	assert.Equal(t, "mosaic-test/1.0", gotUA)
}

func TestLoadSourceHTTPErrorIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	loader := newTestLoader(t, 0)
	_, err := loader.LoadSource(context.Background(), domain.Source{URL: server.URL})

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, MediaErrNetwork, loadErr.Code)
	assert.Contains(t, loadErr.Message, "403")
}

func TestLoadSourceUnreachableHostIsNetworkError(t *testing.T) {
	loader := newTestLoader(t, 0)
	_, err := loader.LoadSource(context.Background(), domain.Source{URL: "http://127.0.0.1:1/list.m3u8"})

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, MediaErrNetwork, loadErr.Code)
}

func TestLoadSourceNonPlaylistIsUnsupported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not a playlist</html>"))
	}))
	defer server.Close()

	loader := newTestLoader(t, 0)
	_, err := loader.LoadSource(context.Background(), domain.Source{URL: server.URL})

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, MediaErrSrcNotSupported, loadErr.Code)
}

func TestLoadSourceCachesTrackLists(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(masterPlaylist))
	}))
	defer server.Close()

	loader := newTestLoader(t, time.Minute)
	src := domain.Source{URL: server.URL}

	_, err := loader.LoadSource(context.Background(), src)
	require.NoError(t, err)
	_, err = loader.LoadSource(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 1, hits)
}

func TestParseAttributesRespectsQuotedCommas(t *testing.T) {
	attrs := parseAttributes(`BANDWIDTH=2500000,CODECS="avc1.640028,mp4a.40.2",RESOLUTION=1280x720`)

	assert.Equal(t, "2500000", attrs["BANDWIDTH"])
	assert.Equal(t, "avc1.640028,mp4a.40.2", attrs["CODECS"])
	assert.Equal(t, "1280x720", attrs["RESOLUTION"])
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		in     string
		width  int
		height int
		ok     bool
	}{
		{"1920x1080", 1920, 1080, true},
		{"640X360", 640, 360, true},
		{"bogus", 0, 0, false},
		{"1920x", 0, 0, false},
	}

	for _, tt := range tests {
		w, h, ok := parseResolution(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.width, w, tt.in)
		assert.Equal(t, tt.height, h, tt.in)
	}
}
