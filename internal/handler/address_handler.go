package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/checkout"
	"storefront/internal/domain/model"
)

// プロフィール画面などチェックアウト外で使う住所の選択肢
type AddressHandler struct {
	dir checkout.Addresses
}

func NewAddressHandler(dir checkout.Addresses) *AddressHandler {
	return &AddressHandler{dir: dir}
}

type optionsResponse struct {
	Options []model.AddressOption `json:"data"`
}

func (h *AddressHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/addresses/provinces", h.provinces)
	g.GET("/addresses/provinces/:code/cities", h.cities)
	g.GET("/addresses/cities/:code/barangays", h.barangays)
}

func (h *AddressHandler) provinces(c echo.Context) error {
	opts, err := h.dir.Provinces(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, optionsResponse{Options: opts})
}

func (h *AddressHandler) cities(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid code"})
	}
	opts, err := h.dir.Cities(c.Request().Context(), code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, optionsResponse{Options: opts})
}

func (h *AddressHandler) barangays(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid code"})
	}
	opts, err := h.dir.Barangays(c.Request().Context(), code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, optionsResponse{Options: opts})
}
