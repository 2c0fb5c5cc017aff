package handler

import (
	"fixitnow/internal/delivery/http/dto"
	"fixitnow/internal/delivery/http/middleware"
	"fixitnow/internal/domain/job"
	"fixitnow/internal/pkg/response"
	"fixitnow/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type JobsHandler struct {
	uc usecase.JobUsecase
}

func NewJobsHandler(uc usecase.JobUsecase) *JobsHandler {
	return &JobsHandler{uc: uc}
}

func (h *JobsHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	g := r.Group("", auth.Middleware())
	g.Post("/create", h.Create)
	g.Put("/status", h.UpdateStatus)
	g.Post("/complete", h.Complete)
	g.Get("/list", h.List)
}

func (h *JobsHandler) Create(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateJobRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	j, err := h.uc.Create(c.Context(), actor, usecase.CreateJobInput{
		UserID:           req.UserID,
		TechID:           req.TechID,
		ServiceType:      req.ServiceType,
		Price:            req.Price,
		Description:      req.Description,
		BeneficiaryName:  req.BeneficiaryName,
		BeneficiaryPhone: req.BeneficiaryPhone,
	})
	if err != nil {
		return err
	}
	return response.Created(c, "Job created", j)
}

func (h *JobsHandler) UpdateStatus(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateJobStatusRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	j, err := h.uc.UpdateStatus(c.Context(), actor, req.JobID, job.Status(req.Status))
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Job status updated", j)
}

func (h *JobsHandler) Complete(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CompleteJobRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	j, err := h.uc.Complete(c.Context(), actor, usecase.CompleteJobInput{
		JobID:            req.JobID,
		Rating:           req.Review.Rating,
		Comment:          req.Review.Comment,
		PaymentConfirmed: req.PaymentConfirmed,
	})
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Job completed", j)
}

func (h *JobsHandler) List(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	status := job.Status(c.Query("status"))
	if status != "" && !status.Valid() {
		return middleware.BadRequest("Invalid status", nil)
	}

	res, err := h.uc.List(c.Context(), actor, status, pageFrom(c))
	if err != nil {
		return err
	}
	page := response.NewPage(res.Items, res.Total, res.Page, res.Limit)
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.JobList{
		Jobs:  res.Items,
		Total: res.Total,
		Page:  res.Page,
		Pages: page.Pages,
	})
}
