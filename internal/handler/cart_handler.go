package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/usecase"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ProductID int64  `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int64  `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

type cartStatusResponse struct {
	InCart bool `json:"in_cart"`
}

// /cart, /cart/{id} を登録
func (h *CartHandler) RegisterRoutes(g *echo.Group) {
	c := g.Group("/cart")
	c.GET("", h.getCart)
	c.POST("", h.addToCart)
	c.DELETE("", h.clearCart)
	c.GET("/contains", h.contains)
	c.POST("/hold", h.hold)
	c.PATCH("/:id", h.patchItem)
	c.DELETE("/:id", h.deleteItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}

	cart, err := h.uc.FetchCart(c.Request().Context(), s)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, usecase.Summarize(cart))
}

func (h *CartHandler) addToCart(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	cart, err := h.uc.AddToCart(c.Request().Context(), s, usecase.AddToCartInput{
		ProductID: req.ProductID,
		Size:      req.Size,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, usecase.Summarize(cart))
}

func (h *CartHandler) patchItem(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	cart, err := h.uc.UpdateQuantity(c.Request().Context(), s, id, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, usecase.Summarize(cart))
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}

	cart, err := h.uc.RemoveFromCart(c.Request().Context(), s, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, usecase.Summarize(cart))
}

func (h *CartHandler) clearCart(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}

	cart, err := h.uc.ClearCart(c.Request().Context(), s)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, usecase.Summarize(cart))
}

// GET /cart/contains?product_id=&size=
func (h *CartHandler) contains(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}

	var q struct {
		ProductID int64  `query:"product_id"`
		Size      string `query:"size"`
	}
	if err := c.Bind(&q); err != nil || q.ProductID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}

	in, err := h.uc.IsInCart(c.Request().Context(), s, q.ProductID, q.Size)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cartStatusResponse{InCart: in})
}

func (h *CartHandler) hold(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}

	res, err := h.uc.HoldProducts(c.Request().Context(), s)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
