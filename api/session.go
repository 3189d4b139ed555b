package api

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aouyang1/memoryframe/api/models"
	"github.com/aouyang1/memoryframe/gallery"
	"github.com/aouyang1/memoryframe/sequencer"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventSession = "session"
	EventStep    = "step"
	EventGallery = "gallery"
	EventDone    = "done"

	sessionBuffer = 64
)

type streamEvent struct {
	name string
	data any
}

// Session is one viewer's run through the presentation. It owns the timeline
// player and the gallery controller and lives as long as the event stream.
type Session struct {
	ID     string
	Config string

	player  *sequencer.Player
	gallery *gallery.Controller
	events  chan streamEvent
	done    <-chan struct{}
}

// emit queues an event for the stream. It gives up once the stream has closed.
func (s *Session) emit(name string, data any) error {
	select {
	case s.events <- streamEvent{name: name, data: data}:
		return nil
	case <-s.done:
		return context.Canceled
	}
}

type sessionRegistry struct {
	mu   sync.Mutex
	byID map[string]*Session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{byID: make(map[string]*Session)}
}

func (r *sessionRegistry) add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID] = s
}

func (r *sessionRegistry) get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	return s, ok
}

func (r *sessionRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// streamStage forwards each step to the browser, which does the actual animating.
// The player keeps time, so nothing here blocks beyond the send.
type streamStage struct {
	session    *Session
	viewport   float64
	itemHeight float64
}

func (st *streamStage) Viewport() float64 {
	return st.viewport
}

func (st *streamStage) ItemHeight(target string) float64 {
	if strings.HasPrefix(target, sequencer.TargetGalleryItems) {
		return st.itemHeight
	}
	return 0
}

func (st *streamStage) Scroll(_ context.Context, i int, step sequencer.ScrollStep, offset float64) error {
	return st.session.emit(EventStep, models.StepEvent{Index: i, Kind: string(step.Kind()), Step: step, Offset: offset})
}

func (st *streamStage) Reveal(_ context.Context, i int, step sequencer.RevealStep) error {
	return st.session.emit(EventStep, models.StepEvent{Index: i, Kind: string(step.Kind()), Step: step})
}

func (st *streamStage) Wait(_ context.Context, i int, step sequencer.WaitStep) error {
	return st.session.emit(EventStep, models.StepEvent{Index: i, Kind: string(step.Kind()), Step: step})
}

func (st *streamStage) Gate(_ context.Context, i int, step sequencer.GateStep) error {
	return st.session.emit(EventStep, models.StepEvent{Index: i, Kind: string(step.Kind()), Step: step})
}

func (st *streamStage) Trigger(_ context.Context, effect sequencer.Effect) error {
	return st.session.emit(EventStep, models.StepEvent{Index: -1, Kind: "effect", Effect: string(effect)})
}

func queryFloat(c *gin.Context, key string) float64 {
	v, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// handleSessionEvents starts a session for the active configuration and streams it
// until the timeline finishes or the viewer goes away.
func (ws *WebServer) handleSessionEvents(c *gin.Context) {
	name, page, err := ws.activePage()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	seed := uint64(time.Now().UnixNano())
	timeline := sequencer.Build(page, rand.New(rand.NewPCG(seed, seed>>1)))

	session := &Session{
		ID:      uuid.New().String(),
		Config:  name,
		gallery: gallery.NewController(page),
		events:  make(chan streamEvent, sessionBuffer),
		done:    ctx.Done(),
	}
	stage := &streamStage{
		session:    session,
		viewport:   queryFloat(c, "vh"),
		itemHeight: queryFloat(c, "ih"),
	}
	logger := ws.logger.With(zap.String("session", session.ID), zap.String("config", name))
	session.player = sequencer.NewPlayer(timeline, stage, ws.clock, logger)

	ws.sessions.add(session)
	defer ws.sessions.remove(session.ID)

	_ = session.emit(EventSession, models.SessionResponse{
		ID:     session.ID,
		Config: name,
		Steps:  len(timeline),
		Gates:  timeline.Gates(),
	})

	go session.gallery.Run(ctx, func(state gallery.State) {
		_ = session.emit(EventGallery, state)
	})
	go func() {
		done := models.DoneEvent{Completed: true}
		if err := session.player.Play(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			done = models.DoneEvent{Error: err.Error()}
		}
		_ = session.emit(EventDone, done)
	}()

	logger.Info("presentation session started", zap.Int("steps", len(timeline)))
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev := <-session.events:
			c.SSEvent(ev.name, ev.data)
			return ev.name != EventDone
		}
	})
	logger.Info("presentation session ended", zap.Int("position", session.player.Position()))
}

func (ws *WebServer) session(c *gin.Context) (*Session, bool) {
	s, ok := ws.sessions.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
	}
	return s, ok
}

// handleAdvance releases the gate the session is waiting at. An advance while no
// gate is waiting is dropped and reported as not released.
func (ws *WebServer) handleAdvance(c *gin.Context) {
	s, ok := ws.session(c)
	if !ok {
		return
	}
	released := s.player.Advance()
	c.JSON(http.StatusOK, models.AdvanceResponse{
		Released: released,
		Position: s.player.Position(),
		Done:     s.player.Done(),
	})
}

func (ws *WebServer) handleGalleryAction(c *gin.Context) {
	s, ok := ws.session(c)
	if !ok {
		return
	}

	var cmd gallery.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid gallery command: " + err.Error()})
		return
	}

	state, err := s.gallery.Apply(cmd)
	switch {
	case errors.Is(err, gallery.ErrEmpty):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := s.emit(EventGallery, state); err != nil {
		ws.logger.Debug("gallery state not streamed", zap.String("session", s.ID), zap.Error(err))
	}
	c.JSON(http.StatusOK, state)
}

