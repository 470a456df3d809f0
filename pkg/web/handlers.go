package web

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/outreach/pkg/models"
	"github.com/dukex/outreach/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	service   *services.Outreach
	validator *validator.Validate
}

func NewAPIHandlers(service *services.Outreach, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		service:   service,
		validator: validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.service.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Outreach API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Outreach API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"run":       h.service.Status(),
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	return c.JSON(h.service.Workflow())
}

// UpdateWorkflow replaces the workflow with the document in the body.
func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	workflow, err := h.service.ParseWorkflow(c.Body())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

// GetPlan validates the workflow and reports what a run would do.
func (h *APIHandlers) GetPlan(c fiber.Ctx) error {
	plan, err := h.service.Plan()
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"plan":        plan,
		"description": plan.String(),
	})
}

func (h *APIHandlers) GetSender(c fiber.Ctx) error {
	return c.JSON(h.service.Sender())
}

func (h *APIHandlers) UpdateSender(c fiber.Ctx) error {
	var req SenderRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	sender := models.SenderIdentity{Email: req.Email, Name: req.Name}
	if err := h.service.SetSender(sender); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(sender)
}

func (h *APIHandlers) GetLeads(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"leads": h.service.Leads(),
	})
}

func (h *APIHandlers) AddLead(c fiber.Ctx) error {
	var req AddLeadRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	lead, err := h.service.AddLead(req.Lead())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(lead)
}

func (h *APIHandlers) DeleteLead(c fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return badRequest(c, "Lead index must be a number")
	}

	if err := h.service.RemoveLead(index); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ImportLeads accepts a CSV upload in the "file" form field or as the raw body.
func (h *APIHandlers) ImportLeads(c fiber.Ctx) error {
	reader, err := csvBody(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.service.ImportLeads(reader)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(NewImportResponse(result))
}

func csvBody(c fiber.Ctx) (io.Reader, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return bytes.NewReader(c.Body()), nil
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(data), nil
}

func (h *APIHandlers) ResetLeads(c fiber.Ctx) error {
	if err := h.service.Reset(); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"leads": h.service.Leads(),
		"stats": h.service.Status().Stats,
	})
}

func (h *APIHandlers) StartRun(c fiber.Ctx) error {
	// the run outlives the request
	runID, err := h.service.StartRun(context.Background())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(StartRunResponse{RunID: runID})
}

func (h *APIHandlers) GetCurrentRun(c fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

func (h *APIHandlers) CancelRun(c fiber.Ctx) error {
	if !h.service.CancelRun() {
		return notFound(c, "No workflow run is in progress")
	}

	return c.SendStatus(fiber.StatusAccepted)
}

func (h *APIHandlers) GetRuns(c fiber.Ctx) error {
	runs, err := h.service.Runs(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, NewRunSummary(run))
	}

	return c.JSON(fiber.Map{
		"runs": summaries,
	})
}

func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	run, err := h.service.RunByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(run)
}

func (h *APIHandlers) GetLog(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"entries": h.service.Log(),
	})
}

func (h *APIHandlers) ClearLog(c fiber.Ctx) error {
	h.service.ClearLog()

	return c.SendStatus(fiber.StatusNoContent)
}
