package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/handler"
)

// Handlers はルートを持つハンドラ一式
type Handlers struct {
	Auth     *handler.AuthHandler
	Cart     *handler.CartHandler
	Product  *handler.ProductHandler
	Profile  *handler.ProfileHandler
	Order    *handler.OrderHandler
	Address  *handler.AddressHandler
	Checkout *handler.CheckoutHandler
	Admin    *handler.AdminHandler
}

// RegisterRoutes はセッション付きのグループにすべてのルートを登録する
func RegisterRoutes(e *echo.Echo, g *echo.Group, h Handlers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Auth.RegisterRoutes(g)
	h.Cart.RegisterRoutes(g)
	h.Product.RegisterRoutes(g)
	h.Profile.RegisterRoutes(g)
	h.Order.RegisterRoutes(g)
	h.Address.RegisterRoutes(g)
	h.Checkout.RegisterRoutes(g)
	h.Admin.RegisterRoutes(g)
}
