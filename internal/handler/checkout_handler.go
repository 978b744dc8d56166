package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"storefront/internal/checkout"
	"storefront/internal/usecase"
)

// 支払い証明の上限（5MB）
const maxPaymentProofBytes = 5 << 20

// チェックアウトモーダルのHTTP。応答は基本的にフローの状態。
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type selectOptionRequest struct {
	Code string `json:"code"`
}

func (h *CheckoutHandler) RegisterRoutes(g *echo.Group) {
	co := g.Group("/checkout")
	co.POST("", h.open)
	co.GET("", h.state)
	co.DELETE("", h.close)

	co.POST("/register-mode", h.transition(func(f *checkout.Flow, _ echo.Context) error { return f.ChooseRegister() }))
	co.POST("/guest", h.transition(func(f *checkout.Flow, _ echo.Context) error { return f.ContinueAsGuest() }))
	co.POST("/register", h.transition(func(f *checkout.Flow, c echo.Context) error { return f.Register(c.Request().Context()) }))
	co.POST("/next", h.transition(func(f *checkout.Flow, c echo.Context) error { return f.NextStep(c.Request().Context()) }))
	co.POST("/prev", h.transition(func(f *checkout.Flow, _ echo.Context) error { return f.PrevStep() }))
	co.PATCH("/form", h.transition(h.updateForm))
	co.POST("/payment-proof", h.transition(h.paymentProof))
	co.POST("/submit", h.transition(func(f *checkout.Flow, c echo.Context) error {
		_, err := f.Submit(c.Request().Context())
		return err
	}))

	co.GET("/provinces", h.transition(func(f *checkout.Flow, c echo.Context) error {
		_, err := f.LoadProvinces(c.Request().Context())
		return err
	}))
	co.POST("/province", h.transition(func(f *checkout.Flow, c echo.Context) error {
		code, err := bindCode(c)
		if err != nil {
			return err
		}
		return f.SelectProvince(c.Request().Context(), code)
	}))
	co.POST("/city", h.transition(func(f *checkout.Flow, c echo.Context) error {
		code, err := bindCode(c)
		if err != nil {
			return err
		}
		return f.SelectCity(c.Request().Context(), code)
	}))
	co.POST("/barangay", h.transition(func(f *checkout.Flow, c echo.Context) error {
		code, err := bindCode(c)
		if err != nil {
			return err
		}
		return f.SelectBarangay(code)
	}))
}

func (h *CheckoutHandler) open(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}

	st, err := h.uc.Open(c.Request().Context(), s)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *CheckoutHandler) state(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}

	f, err := h.uc.Flow(s)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, f.State())
}

func (h *CheckoutHandler) close(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}

	h.uc.Close(s)
	return c.NoContent(http.StatusNoContent)
}

// transition は開いているフローに操作をして、成功したら状態を返す
func (h *CheckoutHandler) transition(op func(f *checkout.Flow, c echo.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		s, err := sessionOf(c)
		if err != nil {
			return writeError(c, err)
		}

		f, err := h.uc.Flow(s)
		if err != nil {
			return writeError(c, err)
		}
		if err := op(f, c); err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, f.State())
	}
}

func (h *CheckoutHandler) updateForm(f *checkout.Flow, c echo.Context) error {
	var patch checkout.FormPatch
	if err := c.Bind(&patch); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return f.UpdateForm(patch)
}

// multipart の payment_proof を受け取る
func (h *CheckoutHandler) paymentProof(f *checkout.Flow, c echo.Context) error {
	fh, err := c.FormFile("payment_proof")
	if err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "payment_proof is required")
	}
	if fh.Size > maxPaymentProofBytes {
		return usecase.NewHTTPError(http.StatusRequestEntityTooLarge, "payment proof must be 5MB or smaller")
	}

	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") && contentType != "application/pdf" {
		return usecase.NewHTTPError(http.StatusBadRequest, "payment proof must be an image or PDF")
	}

	src, err := fh.Open()
	if err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid file")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxPaymentProofBytes+1))
	if err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid file")
	}
	if len(data) > maxPaymentProofBytes {
		return usecase.NewHTTPError(http.StatusRequestEntityTooLarge, "payment proof must be 5MB or smaller")
	}

	return f.SetPaymentProof(checkout.PaymentProof{
		Filename:    fh.Filename,
		ContentType: contentType,
		Data:        data,
	})
}

func bindCode(c echo.Context) (string, error) {
	var req selectOptionRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		return "", usecase.NewHTTPError(http.StatusBadRequest, "invalid code")
	}
	return strings.TrimSpace(req.Code), nil
}
