package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"sweetshop/internal/config"
	"sweetshop/internal/domain/model"
	"sweetshop/internal/middleware"
	"sweetshop/internal/usecase"
)

// SweetCreateRequest は管理者の新規登録入力。
type SweetCreateRequest struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
}

// SweetUpdateRequest は部分更新。未指定（null）のフィールドは変更しない。
type SweetUpdateRequest struct {
	Name        *string          `json:"name"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Quantity    *int64           `json:"quantity"`
	Description *string          `json:"description"`
	ImageURL    *string          `json:"imageUrl"`
}

type sweetResponse struct {
	Message string      `json:"message"`
	Sweet   model.Sweet `json:"sweet"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type restockResponse struct {
	Message   string      `json:"message"`
	Sweet     model.Sweet `json:"sweet"`
	Restocked int64       `json:"restocked"`
}

// /api/sweets の管理者向けAPI
type AdminSweetHandler struct {
	inventory *usecase.InventoryUsecase
}

// DI
func NewAdminSweetHandler(inventory *usecase.InventoryUsecase) *AdminSweetHandler {
	return &AdminSweetHandler{inventory: inventory}
}

// adminルートを登録
func (h *AdminSweetHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/api/sweets")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.AdminRoleGuard())

	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.remove)
	g.POST("/:id/restock", h.restock)
}

func (h *AdminSweetHandler) create(c echo.Context) error {
	var req SweetCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}

	sweet, err := h.inventory.Create(c.Request().Context(), usecase.CreateSweetInput{
		Name:        req.Name,
		Category:    model.Category(req.Category),
		Price:       req.Price,
		Quantity:    req.Quantity,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, sweetResponse{
		Message: "Sweet created successfully",
		Sweet:   sweet,
	})
}

func (h *AdminSweetHandler) update(c echo.Context) error {
	var req SweetUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}

	in := usecase.AdjustSweetInput{
		Name:        req.Name,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if req.Category != nil {
		cat := model.Category(*req.Category)
		in.Category = &cat
	}

	sweet, err := h.inventory.Adjust(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, sweetResponse{
		Message: "Sweet updated successfully",
		Sweet:   sweet,
	})
}

func (h *AdminSweetHandler) remove(c echo.Context) error {
	if err := h.inventory.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Sweet deleted successfully"})
}

func (h *AdminSweetHandler) restock(c echo.Context) error {
	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}
	if req.Quantity == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Quantity is required"})
	}

	out, err := h.inventory.Restock(c.Request().Context(), c.Param("id"), *req.Quantity)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, restockResponse{
		Message:   "Restock successful",
		Sweet:     out.Sweet,
		Restocked: out.Restocked,
	})
}
