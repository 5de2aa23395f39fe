package internal

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"guildpulse/internal/bot"
	"guildpulse/internal/controllers"
	"guildpulse/internal/models"
	"guildpulse/internal/providers"
	"guildpulse/internal/services"
	"guildpulse/internal/structures"
	"guildpulse/internal/testutil"
)

type fakeScheduler struct {
	mu         sync.Mutex
	calls      []string
	restoreErr error
}

func (s *fakeScheduler) record(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
}

func (s *fakeScheduler) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeScheduler) Init() { s.record("init") }
func (s *fakeScheduler) Stop() { s.record("stop") }
func (s *fakeScheduler) Restore() error {
	s.record("restore")
	return s.restoreErr
}
func (s *fakeScheduler) Persist() error {
	s.record("persist")
	return nil
}
func (s *fakeScheduler) RunReconcile(_ context.Context) error  { return nil }
func (s *fakeScheduler) RunWeather(_ context.Context) bool     { return false }
func (s *fakeScheduler) RunBackup(_ time.Time) (string, error) { return "", nil }

type fakeSession struct {
	opened  chan struct{}
	closed  bool
	openErr error
}

func (s *fakeSession) Open(_ context.Context, _ bot.EventSink) error {
	if s.openErr != nil {
		return s.openErr
	}
	close(s.opened)
	return nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeLoop struct {
	mu      sync.Mutex
	stopped bool
}

func (l *fakeLoop) Submit(_ context.Context, _ bot.Event) error { return nil }

func (l *fakeLoop) Run(ctx context.Context) error {
	<-ctx.Done()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	return nil
}

func (l *fakeLoop) Stopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}

func newTestApp(t *testing.T, sched *fakeScheduler, session *fakeSession, loop *fakeLoop) *App {
	t.Helper()
	conf := &structures.Config{
		AppName:   "GuildPulse",
		WebServer: structures.Server{Host: "127.0.0.1", Port: 0},
	}
	p := testutil.NewMockPlatform()
	p.Name = "PulseBot"
	profiles := models.NewProfileStore(nil)
	guilds := models.NewGuildConfigStore(nil)
	ac := controllers.NewApiController(&testutil.MockLogger{}, p, services.NewLeaderboardService(profiles),
		stateString("INACTIF"), testutil.NewMockCache())
	hc := controllers.NewHealthController(profiles, guilds, services.NewVoiceSessionTracker(nil))

	return NewApp(hc, sched, loop, session, conf, &testutil.MockLogger{}, InitRoutes(ac), testutil.NewMockMetrics())
}

func TestNewApp_HandlerChain(t *testing.T) {
	app := newTestApp(t, &fakeScheduler{}, &fakeSession{opened: make(chan struct{})}, &fakeLoop{})
	h := app.WebServer.Handler

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rr.Header().Get(providers.RequestIDHeader))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/stats", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code, "metrics disabled")
}

func TestNewApp_GzipsAPI(t *testing.T) {
	app := newTestApp(t, &fakeScheduler{}, &fakeSession{opened: make(chan struct{})}, &fakeLoop{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	app.WebServer.Handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.Bytes()
	if rr.Header().Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(rr.Body)
		require.NoError(t, err)
		body, err = io.ReadAll(zr)
		require.NoError(t, err)
	}
	assert.Contains(t, string(body), "PulseBot est en ligne")
}

func TestApp_Run_Lifecycle(t *testing.T) {
	sched := &fakeScheduler{}
	session := &fakeSession{opened: make(chan struct{})}
	loop := &fakeLoop{}
	app := newTestApp(t, sched, session, loop)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case <-session.opened:
	case <-time.After(2 * time.Second):
		t.Fatal("session never opened")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}

	assert.Equal(t, []string{"restore", "init", "stop", "persist"}, sched.Calls())
	assert.True(t, session.closed)
	assert.True(t, loop.Stopped())
}

func TestApp_Run_RestoreFailureAborts(t *testing.T) {
	sched := &fakeScheduler{restoreErr: errors.New("corrupt document")}
	session := &fakeSession{opened: make(chan struct{})}
	app := newTestApp(t, sched, session, &fakeLoop{})

	err := app.Run(context.Background())
	assert.EqualError(t, err, "corrupt document")
	assert.Equal(t, []string{"restore"}, sched.Calls())
}

func TestApp_Run_OpenFailureStopsLoop(t *testing.T) {
	sched := &fakeScheduler{}
	session := &fakeSession{opened: make(chan struct{}), openErr: errors.New("bad token")}
	loop := &fakeLoop{}
	app := newTestApp(t, sched, session, loop)

	err := app.Run(context.Background())
	assert.EqualError(t, err, "bad token")
	assert.True(t, loop.Stopped())
	assert.Equal(t, []string{"restore"}, sched.Calls())
}
