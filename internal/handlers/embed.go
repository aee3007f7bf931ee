package handlers

import (
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/controller"
)

// EmbedErrorResponse is the body of a failed token request
type EmbedErrorResponse struct {
	Error string `json:"error"`
}

// EmbedHandler serves embed credentials to the host page
type EmbedHandler struct {
	source controller.ConfigSource
	logger ectologger.Logger
}

// NewEmbedHandler creates a new embed handler
func NewEmbedHandler(source controller.ConfigSource, logger ectologger.Logger) *EmbedHandler {
	return &EmbedHandler{
		source: source,
		logger: logger,
	}
}

// RegisterRoutes registers the token route
func (h *EmbedHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/powerbi", h.GetEmbedConfig)
}

// GetEmbedConfig handles GET /api/powerbi. Failures answer 500 with the
// error message and never carry a token.
func (h *EmbedHandler) GetEmbedConfig(c echo.Context) error {
	ctx := c.Request().Context()

	cfg, err := h.source.EmbedConfig(ctx)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Warn("Failed to issue embed config")
		return c.JSON(http.StatusInternalServerError, EmbedErrorResponse{Error: err.Error()})
	}

	return SuccessResponse(c, cfg)
}
