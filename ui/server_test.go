package ui

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physlab/domain/plot"
	"physlab/internal/api"
	"physlab/internal/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer("run.xlsx", nil)
	require.NoError(t, err)
	t.Cleanup(s.Hub().Close)
	return s
}

func get(t *testing.T, h http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s.Handler(), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>run.xlsx</title>")
	assert.Contains(t, rec.Body.String(), "waiting for data")

	frame := plot.NewFrame(3, []byte("png-bytes"), plot.FormatPNG, time.Now())
	require.NoError(t, s.Publish(context.Background(), frame))

	rec = get(t, s.Handler(), "/")
	assert.Contains(t, rec.Body.String(), "frame 3")
	assert.Contains(t, rec.Body.String(), "/frame?v="+frame.Hash.String())
}

func TestFrameEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s.Handler(), "/frame")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	frame := plot.NewFrame(1, []byte("<svg></svg>"), plot.FormatSVG, time.Now())
	require.NoError(t, s.Publish(context.Background(), frame))

	rec = get(t, s.Handler(), "/frame")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<svg></svg>", rec.Body.String())
	etag := rec.Header().Get("ETag")
	assert.Equal(t, `"`+frame.Hash.String()+`"`, etag)

	rec = get(t, s.Handler(), "/frame", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestPublishRejectsEmptyFrame(t *testing.T) {
	s := newTestServer(t)

	err := s.Publish(context.Background(), plot.Frame{Seq: 1})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, ok := s.Latest()
	assert.False(t, ok)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Publish(context.Background(), plot.NewFrame(7, []byte("x"), plot.FormatPNG, time.Now())))

	rec := get(t, s.Handler(), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(7), body["seq"])
}

func TestEventsStreamAnnouncesFrames(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	defer s.Hub().Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return s.Hub().ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	frame := plot.NewFrame(2, []byte("png"), plot.FormatPNG, time.Now())
	require.NoError(t, s.Publish(context.Background(), frame))

	reader := bufio.NewReader(resp.Body)
	var event, data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:") && event == "frame":
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}

	var got api.FrameEvent
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, 2, got.Seq)
	assert.Equal(t, frame.Hash.String(), got.Hash)
	assert.Equal(t, "/frame", got.URL)
	assert.Equal(t, "png", got.Format)
}

func TestStartStopsOnCancel(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
