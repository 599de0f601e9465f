package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"sweetshop/internal/config"
	"sweetshop/internal/domain/model"
	"sweetshop/internal/middleware"
	"sweetshop/internal/usecase"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// usecaseのエラーをHTTPレスポンスへ写す。ストア内部の事情は外へ出さない。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}
	if ise, ok := usecase.AsInsufficientStock(err); ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("Insufficient stock. Only %d items available.", ise.Available),
		})
	}
	if errors.Is(err, usecase.ErrSweetNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sweet not found"})
	}
	if errors.Is(err, usecase.ErrConflict) {
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "Sweet was modified concurrently. Please try again."})
	}
	if errors.Is(err, usecase.ErrStoreUnavailable) {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Service temporarily unavailable"})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
}

// /api/sweets の利用者向けAPI（要ログイン）
type SweetHandler struct {
	inventory *usecase.InventoryUsecase
	catalog   *usecase.CatalogUsecase
}

// DI
func NewSweetHandler(inventory *usecase.InventoryUsecase, catalog *usecase.CatalogUsecase) *SweetHandler {
	return &SweetHandler{inventory: inventory, catalog: catalog}
}

// 利用者ルートを登録
func (h *SweetHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/api/sweets")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("", h.list)
	g.GET("/search", h.search)
	g.POST("/:id/purchase", h.purchase)
}

type listResponse struct {
	Sweets     []model.Sweet      `json:"sweets"`
	Pagination usecase.Pagination `json:"pagination"`
}

func (h *SweetHandler) list(c echo.Context) error {
	// page/limit は数値でなければデフォルト（1/10）に落とす
	page := 0
	if v := c.QueryParam("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			page = p
		}
	}

	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}

	out, err := h.catalog.List(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, listResponse{
		Sweets:     out.Sweets,
		Pagination: out.Pagination,
	})
}

type searchResponse struct {
	Sweets []model.Sweet `json:"sweets"`
}

func (h *SweetHandler) search(c echo.Context) error {
	in := usecase.SearchInput{
		Name:     c.QueryParam("name"),
		Category: c.QueryParam("category"),
	}

	if v := c.QueryParam("minPrice"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "minPrice must be a number"})
		}
		in.MinPrice = &d
	}
	if v := c.QueryParam("maxPrice"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "maxPrice must be a number"})
		}
		in.MaxPrice = &d
	}

	sweets, err := h.catalog.Search(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, searchResponse{Sweets: sweets})
}

type quantityRequest struct {
	Quantity *int64 `json:"quantity"`
}

type purchaseResponse struct {
	Message   string          `json:"message"`
	Sweet     model.Sweet     `json:"sweet"`
	Purchased int64           `json:"purchased"`
	Total     decimal.Decimal `json:"total"`
}

func (h *SweetHandler) purchase(c echo.Context) error {
	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}
	if req.Quantity == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Quantity is required"})
	}

	out, err := h.inventory.Purchase(c.Request().Context(), c.Param("id"), *req.Quantity)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, purchaseResponse{
		Message:   "Purchase successful",
		Sweet:     out.Sweet,
		Purchased: out.Purchased,
		Total:     out.Total,
	})
}
