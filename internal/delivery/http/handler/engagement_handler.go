package handler

import (
	"fixitnow/internal/delivery/http/dto"
	"fixitnow/internal/delivery/http/middleware"
	"fixitnow/internal/domain/user"
	"fixitnow/internal/pkg/response"
	"fixitnow/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type ReviewHandler struct {
	uc usecase.ReviewUsecase
}

func NewReviewHandler(uc usecase.ReviewUsecase) *ReviewHandler {
	return &ReviewHandler{uc: uc}
}

func (h *ReviewHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	r.Post("/", auth.Middleware(user.RoleUser), h.Submit)
	r.Get("/", h.List)
	r.Get("/average/:techId", h.Average)
}

func (h *ReviewHandler) Submit(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.SubmitReviewRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	rv, err := h.uc.Submit(c.Context(), actor, usecase.SubmitReviewInput{
		JobID:   req.JobID,
		Rating:  req.Rating,
		Comment: req.Comment,
		Images:  req.Images,
	})
	if err != nil {
		return err
	}
	return response.Created(c, "Review submitted", rv)
}

func (h *ReviewHandler) List(c fiber.Ctx) error {
	techID, err := queryUUID(c, "techId")
	if err != nil {
		return err
	}
	if techID == nil {
		return middleware.BadRequest("techId is required", nil)
	}

	res, err := h.uc.List(c.Context(), *techID, pageFrom(c))
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, response.NewPage(res.Items, res.Total, res.Page, res.Limit))
}

func (h *ReviewHandler) Average(c fiber.Ctx) error {
	techID, err := paramUUID(c, "techId")
	if err != nil {
		return err
	}

	sum, err := h.uc.Average(c.Context(), techID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, sum)
}

type DisputeHandler struct {
	uc usecase.DisputeUsecase
}

func NewDisputeHandler(uc usecase.DisputeUsecase) *DisputeHandler {
	return &DisputeHandler{uc: uc}
}

func (h *DisputeHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	g := r.Group("", auth.Middleware())
	g.Post("/", h.Open)
	g.Get("/", h.List)
	g.Get("/:id", h.Get)
	g.Post("/:id/messages", h.AddMessage)
}

func (h *DisputeHandler) Open(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.OpenDisputeRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	d, err := h.uc.Open(c.Context(), actor, req.JobID, req.Reason)
	if err != nil {
		return err
	}
	return response.Created(c, "Dispute opened", d)
}

func (h *DisputeHandler) List(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	list, err := h.uc.List(c.Context(), actor)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, list)
}

func (h *DisputeHandler) Get(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	d, err := h.uc.Get(c.Context(), actor, id)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, d)
}

func (h *DisputeHandler) AddMessage(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req dto.DisputeMessageRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	msg, err := h.uc.AddMessage(c.Context(), actor, id, req.Content)
	if err != nil {
		return err
	}
	return response.Created(c, "Message added", msg)
}

type ChatHandler struct {
	uc usecase.ChatUsecase
}

func NewChatHandler(uc usecase.ChatUsecase) *ChatHandler {
	return &ChatHandler{uc: uc}
}

func (h *ChatHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	g := r.Group("", auth.Middleware())
	g.Post("/create", auth.Middleware(user.RoleUser), h.Create)
	g.Post("/send", h.Send)
	g.Post("/read", h.MarkRead)
	g.Get("/list", h.List)
	g.Get("/:chatId", h.Messages)
}

func (h *ChatHandler) Create(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateChatRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ch, err := h.uc.GetOrCreate(c.Context(), actor, req.TechID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, ch)
}

func (h *ChatHandler) Send(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.SendMessageRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	msg, err := h.uc.Send(c.Context(), actor, req.ChatID, req.Content)
	if err != nil {
		return err
	}
	return response.Created(c, "Message sent", msg)
}

func (h *ChatHandler) MarkRead(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ChatRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	if err := h.uc.MarkRead(c.Context(), actor, req.ChatID); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Messages marked as read", nil)
}

func (h *ChatHandler) List(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	chats, err := h.uc.List(c.Context(), actor)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, chats)
}

func (h *ChatHandler) Messages(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	chatID, err := paramUUID(c, "chatId")
	if err != nil {
		return err
	}

	msgs, err := h.uc.Messages(c.Context(), actor, chatID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, msgs)
}

type PaymentHandler struct {
	uc usecase.PaymentUsecase
}

func NewPaymentHandler(uc usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

func (h *PaymentHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	g := r.Group("", auth.Middleware())
	g.Post("/cod", h.CreateCOD)
	g.Post("/confirm", h.Confirm)
	g.Get("/:jobId", h.Get)
}

func (h *PaymentHandler) CreateCOD(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.JobRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	p, err := h.uc.CreateCOD(c.Context(), actor, req.JobID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, p)
}

func (h *PaymentHandler) Confirm(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.JobRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	p, err := h.uc.Confirm(c.Context(), actor, req.JobID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Payment confirmed", p)
}

func (h *PaymentHandler) Get(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	jobID, err := paramUUID(c, "jobId")
	if err != nil {
		return err
	}

	p, err := h.uc.Get(c.Context(), actor, jobID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, p)
}
