package handler

import (
	"fixitnow/internal/delivery/http/dto"
	"fixitnow/internal/delivery/http/middleware"
	"fixitnow/internal/domain/category"
	"fixitnow/internal/domain/user"
	"fixitnow/internal/pkg/response"
	"fixitnow/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type CategoryHandler struct {
	uc usecase.CategoryUsecase
}

func NewCategoryHandler(uc usecase.CategoryUsecase) *CategoryHandler {
	return &CategoryHandler{uc: uc}
}

func (h *CategoryHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	admin := auth.Middleware(user.RoleAdmin)
	r.Get("/", h.List)
	r.Post("/", admin, h.Create)
	r.Put("/:id", admin, h.Update)
	r.Delete("/:id", admin, h.Delete)
}

func (h *CategoryHandler) List(c fiber.Ctx) error {
	list, err := h.uc.List(c.Context())
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, list)
}

func (h *CategoryHandler) Create(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CategoryRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	cat, err := h.uc.Create(c.Context(), actor, usecase.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		PriceMin:    req.PriceMin,
		PriceMax:    req.PriceMax,
		Icon:        req.Icon,
	})
	if err != nil {
		return err
	}
	return response.Created(c, "Category created", cat)
}

func (h *CategoryHandler) Update(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateCategoryRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	cat, err := h.uc.Update(c.Context(), actor, id, category.Update{
		Name:        req.Name,
		Description: req.Description,
		PriceMin:    req.PriceMin,
		PriceMax:    req.PriceMax,
		Icon:        req.Icon,
		Active:      req.Active,
	})
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Category updated", cat)
}

func (h *CategoryHandler) Delete(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.uc.Delete(c.Context(), actor, id); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Category deleted", nil)
}
