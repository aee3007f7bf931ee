package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/Ramsey-B/fern/pkg/bridge"
	"github.com/Ramsey-B/fern/pkg/controller"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/report/reporttest"
)

type stateLog struct {
	mu     sync.Mutex
	states []sessionState
}

func (l *stateLog) record(method string, params json.RawMessage) {
	if method != bridge.MethodState {
		return
	}
	var state sessionState
	if err := json.Unmarshal(params, &state); err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, state)
}

func (l *stateLog) last() (sessionState, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.states) == 0 {
		return sessionState{}, false
	}
	return l.states[len(l.states)-1], true
}

func TestConnect_BridgeSession(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(noopLogger)
	registry := controller.NewRegistry()
	NewSessionHandler(registry, staticSource{cfg: demoConfig}, nil, SessionOptions{
		ReadyInterval: time.Millisecond,
		CallTimeout:   5 * time.Second,
		Origins:       []string{"*"},
	}, noopLogger).RegisterRoutes(e.Group("/api/v1"))

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/bridge", nil)
	require.NoError(t, err)

	demo := reporttest.NewDemoReport()
	states := &stateLog{}
	go func() {
		_ = bridge.NewResponder(conn, reporttest.NewHost(demo).AutoLoad(), noopLogger).OnNotify(states.record).Run(ctx)
	}()

	require.Eventually(t, func() bool {
		state, ok := states.last()
		return ok && state.Phase == controller.PhaseReady && len(state.Pages) == len(reporttest.DemoPages)
	}, 5*time.Second, 10*time.Millisecond)

	ids := registry.IDs()
	require.Len(t, ids, 1)

	body := strings.NewReader(`{"index":4}`)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/api/v1/sessions/"+ids[0]+"/navigate", body)
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Contains(t, demo.Recorder().Calls(), "report.setPage(ReportSection5)")
	require.Eventually(t, func() bool {
		state, ok := states.last()
		return ok && state.CurrentPageIndex == 4
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "done"))
	assert.Eventually(t, func() bool {
		return len(registry.IDs()) == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestConnect_RejectsOrigin(t *testing.T) {
	e := echo.New()
	NewSessionHandler(controller.NewRegistry(), staticSource{cfg: demoConfig}, nil, SessionOptions{
		Origins: []string{"app.example.com"},
	}, noopLogger).RegisterRoutes(e.Group("/api/v1"))

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/bridge", &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"https://evil.example.com"}},
	})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
