package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/bridge"
	"github.com/Ramsey-B/fern/pkg/controller"
	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/forms"
	"github.com/Ramsey-B/fern/pkg/report"
	"github.com/Ramsey-B/fern/pkg/retry"
	"github.com/Ramsey-B/fern/pkg/visuals"
)

// SuccessResponse returns a 200 OK with data
func SuccessResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}

// CreatedResponse returns a 201 Created with data
func CreatedResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, data)
}

// NoContentResponse returns a 204 No Content
func NoContentResponse(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// BadRequest returns a 400 Bad Request error
func BadRequest(message string) error {
	return httperror.NewHTTPError(http.StatusBadRequest, message)
}

// ParseIndex parses a non-negative integer path parameter
func ParseIndex(c echo.Context, param string) (int, error) {
	raw := c.Param(param)
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s: must be a non-negative integer", param)
	}
	return index, nil
}

// CommandError maps a controller error to an HTTP error. Unsupported
// operations pass through to the error handler, which answers 501.
func CommandError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, controller.ErrSessionNotFound),
		errors.Is(err, visuals.ErrVisualNotFound),
		errors.Is(err, filters.ErrFilterNotFound):
		return httperror.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, controller.ErrNoReport),
		errors.Is(err, controller.ErrNoActivePage),
		errors.Is(err, controller.ErrSaveNotConfirmed),
		errors.Is(err, controller.ErrPageProtected):
		return httperror.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, controller.ErrPageNameRequired),
		errors.Is(err, controller.ErrPageIndexOutOfRange),
		errors.Is(err, controller.ErrUnknownDrawer),
		errors.Is(err, controller.ErrVisualRequired),
		errors.Is(err, filters.ErrInvalidConfig),
		errors.Is(err, filters.ErrColumnRequired),
		errors.Is(err, filters.ErrIncompleteDraft),
		errors.Is(err, filters.ErrBasicMeasure),
		errors.Is(err, visuals.ErrInvalidForm),
		errors.Is(err, forms.ErrInvalidValues):
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, bridge.ErrTimeout), errors.Is(err, retry.ErrTimeout):
		return httperror.NewHTTPError(http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, bridge.ErrClosed):
		return httperror.NewHTTPError(http.StatusGone, err.Error())
	default:
		var remote *bridge.RemoteError
		if !errors.As(err, &remote) || errors.Is(err, report.ErrNotSupported) {
			return err
		}
		if remote.Code == bridge.CodeNotFound {
			return httperror.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return httperror.NewHTTPError(http.StatusBadGateway, err.Error())
	}
}
