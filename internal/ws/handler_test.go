package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsim/internal/timeseries"
)

func dialHandler(t *testing.T, h *Handler) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(h)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestHandler_RunStartDrivesRunFuncAndBroadcastsLifecycle(t *testing.T) {
	hub := NewHub()
	bridge := NewBridge(hub)

	var gotStart, gotEnd int
	run := func(startHour, endHour int, observer timeseries.Observer) *timeseries.Results {
		gotStart, gotEnd = startHour, endHour
		observer.OnStepComplete(timeseries.StepStats{StepIndex: startHour, Converged: true})
		return timeseries.NewResults()
	}

	handler := NewHandler(hub, bridge, run)
	conn, closeFn := dialHandler(t, handler)
	defer closeFn()

	req, err := NewEnvelope(TypeRunStart, RunStartPayload{StartHour: 0, EndHour: 3})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, req))

	var sawStarted, sawStep, sawFinished bool
	deadline := time.Now().Add(2 * time.Second)
	for !(sawStarted && sawStep && sawFinished) && time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			continue
		}
		var env Envelope
		require.NoError(t, json.Unmarshal(msg, &env))
		switch env.Type {
		case TypeRunStarted:
			sawStarted = true
		case TypeStepComplete:
			sawStep = true
		case TypeRunFinished:
			sawFinished = true
		}
	}

	assert.True(t, sawStarted, "expected run:started")
	assert.True(t, sawStep, "expected run:step_complete")
	assert.True(t, sawFinished, "expected run:finished")
	assert.Equal(t, 0, gotStart)
	assert.Equal(t, 3, gotEnd)
}

func TestHandler_RejectsOverlappingRun(t *testing.T) {
	hub := NewHub()
	bridge := NewBridge(hub)

	release := make(chan struct{})
	run := func(startHour, endHour int, observer timeseries.Observer) *timeseries.Results {
		<-release
		return timeseries.NewResults()
	}
	handler := NewHandler(hub, bridge, run)

	handler.startRun(0, 1)
	handler.startRun(0, 1) // should be rejected while the first is in flight
	close(release)

	assert.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return !handler.running
	}, time.Second, 10*time.Millisecond)
}

var _ http.Handler = (*Handler)(nil)
