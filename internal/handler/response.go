package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"storefront/internal/apiclient"
	"storefront/internal/checkout"
	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/usecase"
	"storefront/internal/validator"
)

// ErrorResponse はエラー時の共通の形
type ErrorResponse struct {
	Error    string            `json:"error"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

// SuccessResponse は { message: string }
type SuccessResponse struct {
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	var fields validator.Errors
	switch {
	case errors.As(err, &fields):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: fields.Error(), Fields: fields})
	case errors.Is(err, usecase.ErrLoginRequired), errors.Is(err, usecase.ErrSessionExpired):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Redirect: "/login"})
	case errors.Is(err, usecase.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "admin only"})
	case errors.Is(err, usecase.ErrNoCheckout):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, checkout.ErrClosed),
		errors.Is(err, checkout.ErrInvalidState),
		errors.Is(err, checkout.ErrHoldExpired):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrUnknownOption):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}
	if ae, ok := apiclient.AsAPIError(err); ok {
		if ae.Status == 0 {
			return c.JSON(http.StatusBadGateway, ErrorResponse{Error: ae.Message})
		}
		return c.JSON(ae.Status, ErrorResponse{Error: ae.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// sessionOf は middleware.Session が入れたセッション
func sessionOf(c echo.Context) (*model.Session, error) {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		return nil, usecase.NewHTTPError(http.StatusInternalServerError, "session missing")
	}
	return s, nil
}

func paramID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
