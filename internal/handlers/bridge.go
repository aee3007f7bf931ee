package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/bridge"
)

// Connect handles GET /bridge. The host page opens the websocket, the
// session embeds the report through it, and every state change is pushed
// back as a session.state notification. The session ends with the connection.
func (h *SessionHandler) Connect(c echo.Context) error {
	// The server's read and write timeouts would otherwise end the socket.
	rc := http.NewResponseController(c.Response())
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	host, err := bridge.Accept(c.Response(), c.Request(), h.opts.Origins, bridge.Options{
		CallTimeout: h.opts.CallTimeout,
		Logger:      h.logger,
	})
	if err != nil {
		// Accept has already answered the request.
		h.logger.WithContext(c.Request().Context()).WithError(err).Warn("Rejected bridge connection")
		return nil
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
	defer cancel()

	ctl := h.newSession(ctx, host, func() {
		cancel()
		_ = host.Close("session closed")
	})
	log := h.logger.WithContext(ctx).WithField("session_id", ctl.ID())

	updates, unsubscribe := ctl.Subscribe()
	defer unsubscribe()
	go func() {
		for state := range updates {
			if err := host.Notify(ctx, bridge.MethodState, state); err != nil {
				log.WithError(err).Debug("Stopped pushing session state")
				return
			}
		}
	}()

	// Bootstrap calls into the page, so frames must already be read.
	go func() {
		_ = h.bootstrap(ctx, ctl)
	}()

	if err := host.Run(ctx); err != nil {
		log.WithError(err).Warn("Bridge connection failed")
	}
	log.Info("Session ended")
	return nil
}
