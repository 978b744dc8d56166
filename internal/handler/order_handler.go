package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"
)

// 注文の追跡（会員は自分の注文、ゲストはゲストIDの注文）
type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type ordersResponse struct {
	Orders []model.Order `json:"data"`
}

func (h *OrderHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/orders", h.list)
	g.GET("/orders/:id", h.detail)
}

func (h *OrderHandler) list(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}

	var orders []model.Order
	if s.IsAuthenticated() {
		orders, err = h.uc.ListMine(c.Request().Context(), s)
	} else {
		orders, err = h.uc.ListGuest(c.Request().Context(), s)
	}
	if err != nil {
		return writeError(c, err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return c.JSON(http.StatusOK, ordersResponse{Orders: orders})
}

func (h *OrderHandler) detail(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}

	o, err := h.uc.Get(c.Request().Context(), s, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}
