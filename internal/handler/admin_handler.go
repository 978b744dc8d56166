package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"
)

// /admin 以下の管理画面
type AdminHandler struct {
	uc *usecase.AdminUsecase
}

func NewAdminHandler(uc *usecase.AdminUsecase) *AdminHandler {
	return &AdminHandler{uc: uc}
}

type OrderStatusUpdateRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"admin_notes"`
}

func (h *AdminHandler) RegisterRoutes(g *echo.Group) {
	admin := g.Group("/admin")
	admin.Use(middleware.AdminRoleGuard())

	registerPanel(admin, "/products", h.uc.Products)
	registerPanel(admin, "/orders", h.uc.Orders.Panel)
	registerPanel(admin, "/announcements", h.uc.Announcements)
	registerPanel(admin, "/hero-carousel", h.uc.Carousel)
	registerPanel(admin, "/users", h.uc.Users)

	admin.PUT("/orders/:id/status", h.updateOrderStatus)
	admin.GET("/settings", h.getSettings)
	admin.PUT("/settings", h.updateSettings)
	admin.GET("/audit-logs", h.auditLogs)
}

// registerPanel は1リソース分の標準CRUDを登録する
func registerPanel[T any](g *echo.Group, path string, p *usecase.Panel[T]) {
	g.GET(path, func(c echo.Context) error {
		s, err := sessionOf(c)
		if err != nil {
			return writeError(c, err)
		}
		out, err := p.List(c.Request().Context(), s)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	})

	g.GET(path+"/:id", func(c echo.Context) error {
		s, err := sessionOf(c)
		if err != nil {
			return writeError(c, err)
		}
		id, err := paramID(c)
		if err != nil {
			return writeError(c, err)
		}
		out, err := p.Get(c.Request().Context(), s, id)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	})

	g.POST(path, func(c echo.Context) error {
		s, err := sessionOf(c)
		if err != nil {
			return writeError(c, err)
		}
		var body T
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		}
		out, err := p.Create(c.Request().Context(), s, body)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, out)
	})

	g.PUT(path+"/:id", func(c echo.Context) error {
		s, err := sessionOf(c)
		if err != nil {
			return writeError(c, err)
		}
		id, err := paramID(c)
		if err != nil {
			return writeError(c, err)
		}
		var body T
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		}
		out, err := p.Update(c.Request().Context(), s, id, body)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	})

	g.DELETE(path+"/:id", func(c echo.Context) error {
		s, err := sessionOf(c)
		if err != nil {
			return writeError(c, err)
		}
		id, err := paramID(c)
		if err != nil {
			return writeError(c, err)
		}
		out, err := p.Delete(c.Request().Context(), s, id)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	})
}

func (h *AdminHandler) updateOrderStatus(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Orders.UpdateStatus(c.Request().Context(), s, id, usecase.AdminUpdateOrderStatusInput{
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) getSettings(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Settings.Get(c.Request().Context(), s)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) updateSettings(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}
	var req model.Settings
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	out, err := h.uc.Settings.Update(c.Request().Context(), s, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) auditLogs(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}

	var f repository.AuditLogFilter

	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		f.Limit = l
	}
	if v := c.QueryParam("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
		}
		f.Offset = o
	}
	if v := c.QueryParam("actor_user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid actor_user_id"})
		}
		f.ActorUserID = &id
	}
	if v := c.QueryParam("action"); v != "" {
		a := model.AuditAction(v)
		f.Action = &a
	}
	if v := c.QueryParam("resource_type"); v != "" {
		f.ResourceType = &v
	}
	if v := c.QueryParam("resource_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid resource_id"})
		}
		f.ResourceID = &id
	}

	if v := c.QueryParam("from"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
		}
		f.CreatedFrom = &tm
	}
	if v := c.QueryParam("to"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
		}
		f.CreatedTo = &tm
	}

	logs, err := h.uc.AuditLogs(c.Request().Context(), s, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string][]model.AuditLog{"data": logs})
}
