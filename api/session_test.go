package api

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aouyang1/memoryframe/api/models"
	"github.com/aouyang1/memoryframe/event"
	"github.com/aouyang1/memoryframe/gallery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sseEvent struct {
	name string
	data string
}

type eventReader struct {
	t *testing.T
	r *bufio.Reader
}

func openSession(t *testing.T, srv *httptest.Server) *eventReader {
	t.Helper()
	resp, err := http.Get(srv.URL + "/session/events?vh=900&ih=400")
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")
	return &eventReader{t: t, r: bufio.NewReader(resp.Body)}
}

func (er *eventReader) next() sseEvent {
	er.t.Helper()
	var ev sseEvent
	for {
		line, err := er.r.ReadString('\n')
		require.NoError(er.t, err)
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

// until reads events up to and including the first one match accepts.
func (er *eventReader) until(match func(sseEvent) bool) []sseEvent {
	er.t.Helper()
	var seen []sseEvent
	for {
		ev := er.next()
		seen = append(seen, ev)
		if match(ev) {
			return seen
		}
	}
}

// streamedStep is the part of a step event the tests look at.
type streamedStep struct {
	Index  int    `json:"index"`
	Kind   string `json:"kind"`
	Effect string `json:"effect"`
}

func isGate(ev sseEvent) bool {
	if ev.name != EventStep {
		return false
	}
	var step streamedStep
	return json.Unmarshal([]byte(ev.data), &step) == nil && step.Kind == "gate"
}

func isDone(ev sseEvent) bool {
	return ev.name == EventDone
}

func postJSON(t *testing.T, target, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(target, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSessionGatesAndGallery(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.SaveActive("wedding", &event.Config{
		Title:   "Anna & Ben",
		Gallery: []string{"a.jpg", "b.jpg"},
	}))
	ws := newTestServer(t, db)
	srv := httptest.NewServer(ws.Handler())
	defer srv.Close()

	events := openSession(t, srv)

	first := events.next()
	require.Equal(t, EventSession, first.name)
	var info models.SessionResponse
	require.NoError(t, json.Unmarshal([]byte(first.data), &info))
	assert.Equal(t, "wedding", info.Config)
	assert.Equal(t, 2, info.Gates)
	base := srv.URL + "/session/" + info.ID

	seen := events.until(isGate)
	assert.Greater(t, len(seen), 1)

	resp := postJSON(t, base+"/gallery", `{"action":"next"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decodeBody[gallery.State](t, resp)
	assert.Equal(t, "manual", state.Mode)
	assert.Equal(t, 1, state.Top)

	resp = postJSON(t, base+"/advance", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeBody[models.AdvanceResponse](t, resp).Released)

	seen = events.until(isGate)
	var galleryEvents int
	for _, ev := range seen {
		if ev.name == EventGallery {
			galleryEvents++
		}
	}
	assert.Equal(t, 1, galleryEvents)

	resp = postJSON(t, base+"/advance", "")
	assert.True(t, decodeBody[models.AdvanceResponse](t, resp).Released)

	seen = events.until(isDone)
	var done models.DoneEvent
	require.NoError(t, json.Unmarshal([]byte(seen[len(seen)-1].data), &done))
	assert.True(t, done.Completed)

	var effects []string
	for _, ev := range seen {
		var step streamedStep
		require.NoError(t, json.Unmarshal([]byte(ev.data), &step))
		if step.Kind == "effect" {
			effects = append(effects, step.Effect)
		}
	}
	assert.Contains(t, effects, "startParticles")

	assert.Eventually(t, func() bool { return ws.sessions.len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestSessionWithoutPhotosRunsThrough(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.SaveActive("quiet", &event.Config{Title: "Quiet", YoutubeLink: "https://youtu.be/dQw4w9WgXcQ"}))
	ws := newTestServer(t, db)
	srv := httptest.NewServer(ws.Handler())
	defer srv.Close()

	events := openSession(t, srv)
	seen := events.until(isDone)

	require.Equal(t, EventSession, seen[0].name)
	for _, ev := range seen {
		assert.False(t, isGate(ev))
	}
	assert.Contains(t, seen[len(seen)-2].data, "playVideo")
}

func TestSessionUnknown(t *testing.T) {
	ws := newTestServer(t, newTestDB(t))

	w := do(t, ws.Handler(), http.MethodPost, "/session/nope/advance", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, ws.Handler(), http.MethodPost, "/session/nope/gallery", `{"action":"next"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamStageCentersOnPhotos(t *testing.T) {
	st := &streamStage{viewport: 900, itemHeight: 400}

	assert.Equal(t, 900.0, st.Viewport())
	assert.Equal(t, 400.0, st.ItemHeight(`.gallery-item[data-index="1"]`))
	assert.Zero(t, st.ItemHeight("#message-section"))
}
