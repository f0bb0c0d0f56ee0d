package images

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hr-board/internal/domain"
)

type fakeTokens struct {
	token string
	err   error
}

func (f fakeTokens) Token(context.Context) (string, error) {
	return f.token, f.err
}

func predictionsBody(items ...string) string {
	preds := make([]map[string]string, 0, len(items))
	for _, it := range items {
		preds = append(preds, map[string]string{"bytesBase64Encoded": it, "mimeType": "image/png"})
	}
	b, _ := json.Marshal(map[string]any{"predictions": preds})
	return string(b)
}

func newImagenServer(t *testing.T, status int, body string, captured *predictRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/projects/p1/locations/us-central1/publishers/google/models/imagen-test:predict", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if captured != nil {
			_ = json.NewDecoder(r.Body).Decode(captured)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, endpoint string, tokens TokenSource) (*Client, *FileStore) {
	t.Helper()
	store := NewFileStore(t.TempDir())
	c := NewClient(ClientConfig{
		Project:  "p1",
		Location: "us-central1",
		Model:    "imagen-test",
		Endpoint: endpoint,
		Timeout:  time.Second,
	}, tokens, store, zap.NewNop())
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	return c, store
}

func TestGenerate_BatchNaming(t *testing.T) {
	png1 := base64.StdEncoding.EncodeToString([]byte("img-1"))
	png2 := base64.StdEncoding.EncodeToString([]byte("img-2"))
	var captured predictRequest
	srv := newImagenServer(t, http.StatusOK, predictionsBody(png1, png2), &captured)
	client, store := newTestClient(t, srv.URL, fakeTokens{token: "tok"})

	imgs, err := client.Generate(context.Background(), "quiet office poster", 2, domain.AspectPortrait)
	require.NoError(t, err)
	require.Len(t, imgs, 2)

	assert.Equal(t, 2, captured.Parameters.SampleCount)
	assert.Equal(t, "3:4", captured.Parameters.AspectRatio)
	assert.Equal(t, "quiet office poster", captured.Instances[0].Prompt)

	assert.Equal(t, "/images/1700000000_1.png", imgs[0].URL)
	assert.Equal(t, "/images/1700000000_2.png", imgs[1].URL)
	prefix0 := strings.SplitN(imgs[0].Filename, "_", 2)[0]
	prefix1 := strings.SplitN(imgs[1].Filename, "_", 2)[0]
	assert.Equal(t, prefix0, prefix1)
	assert.True(t, strings.HasSuffix(imgs[0].Filename, "_1.png"))
	assert.True(t, strings.HasSuffix(imgs[1].Filename, "_2.png"))

	data, err := store.Open(imgs[1].URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("img-2"), data)
	assert.Nil(t, imgs[0].Bytes)
}

func TestGenerate_BadItemFailsWholeBatch(t *testing.T) {
	good := base64.StdEncoding.EncodeToString([]byte("ok"))
	srv := newImagenServer(t, http.StatusOK, predictionsBody(good, "%%%not-base64"), nil)
	client, store := newTestClient(t, srv.URL, fakeTokens{token: "tok"})

	imgs, err := client.Generate(context.Background(), "poster", 2, domain.AspectPortrait)
	require.ErrorIs(t, err, ErrMalformedResponse)
	require.ErrorIs(t, err, ErrImageBackend)
	assert.Empty(t, imgs)

	entries, _ := os.ReadDir(store.Dir())
	assert.Empty(t, entries, "no partial results must be written")
}

func TestGenerate_NoPredictions(t *testing.T) {
	srv := newImagenServer(t, http.StatusOK, `{"predictions":[]}`, nil)
	client, _ := newTestClient(t, srv.URL, fakeTokens{token: "tok"})

	_, err := client.Generate(context.Background(), "poster", 2, domain.AspectPortrait)
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGenerate_TransportError(t *testing.T) {
	srv := newImagenServer(t, http.StatusForbidden, `{"error":{"message":"permission denied"}}`, nil)
	client, _ := newTestClient(t, srv.URL, fakeTokens{token: "tok"})

	_, err := client.Generate(context.Background(), "poster", 2, domain.AspectPortrait)
	require.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "403")
}

func TestGenerate_AuthFailure(t *testing.T) {
	client, _ := newTestClient(t, "http://127.0.0.1:0", fakeTokens{err: errors.New("not logged in")})

	_, err := client.Generate(context.Background(), "poster", 2, domain.AspectPortrait)
	require.ErrorIs(t, err, ErrAuthAcquisition)
	require.ErrorIs(t, err, ErrImageBackend)
}

func TestGenerate_NotConfigured(t *testing.T) {
	client := NewClient(ClientConfig{Location: "us-central1"}, fakeTokens{token: "tok"}, NewFileStore(t.TempDir()), nil)

	_, err := client.Generate(context.Background(), "poster", 2, domain.AspectPortrait)
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestGenerate_InvalidArguments(t *testing.T) {
	client, _ := newTestClient(t, "http://127.0.0.1:0", fakeTokens{token: "tok"})

	for i, tc := range []struct {
		prompt string
		count  int
		aspect domain.AspectRatio
	}{
		{"", 2, domain.AspectPortrait},
		{"poster", 0, domain.AspectPortrait},
		{"poster", 2, domain.AspectRatio("2:1")},
	} {
		_, err := client.Generate(context.Background(), tc.prompt, tc.count, tc.aspect)
		require.ErrorIs(t, err, ErrInvalidRequest, fmt.Sprintf("case %d", i))
	}
}

func TestChainTokenSource(t *testing.T) {
	chain := ChainTokenSource{fakeTokens{err: errors.New("adc missing")}, fakeTokens{token: "second"}}
	tok, err := chain.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", tok)

	_, err = ChainTokenSource{fakeTokens{err: errors.New("a")}, fakeTokens{err: errors.New("b")}}.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
}

func TestNewDefaultTokenSource_PrefersStatic(t *testing.T) {
	tok, err := NewDefaultTokenSource("static-token").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "static-token", tok)
}
