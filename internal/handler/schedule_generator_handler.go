package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-scheduler-api/internal/dto"
	"github.com/noah-isme/class-scheduler-api/internal/models"
	"github.com/noah-isme/class-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/class-scheduler-api/pkg/errors"
	"github.com/noah-isme/class-scheduler-api/pkg/response"
)

type scheduleGenerator interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error)
	GetProposal(ctx context.Context, id string) (*models.ScheduleProposal, error)
	Accept(ctx context.Context, req dto.AcceptProposalRequest) (*dto.AcceptProposalResponse, error)
	ValidateLabs(ctx context.Context, req dto.ValidateLabsRequest) (*dto.ValidateLabsResponse, error)
}

type optionExporter interface {
	Option(ctx context.Context, proposalID string, ordinal int, format service.ExportFormat) (*service.ExportFile, error)
}

type acceptOptionBody struct {
	Option int `json:"option"`
}

// ScheduleGeneratorHandler exposes scheduler endpoints.
type ScheduleGeneratorHandler struct {
	service  scheduleGenerator
	exporter optionExporter
}

// NewScheduleGeneratorHandler constructs the handler.
func NewScheduleGeneratorHandler(svc scheduleGenerator, exporter optionExporter) *ScheduleGeneratorHandler {
	return &ScheduleGeneratorHandler{service: svc, exporter: exporter}
}

// Generate godoc
// @Summary Generate three ranked schedule options
// @Description Options that cannot place every requested section carry UNASSIGNED placeholders and conflict=true. The proposal is kept for later acceptance.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest true "Instructor preferences"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/generator [post]
func (h *ScheduleGeneratorHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := bindJSON(c, &req, "invalid generate payload"); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GetProposal godoc
// @Summary Get a stored schedule proposal
// @Tags Scheduler
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/proposals/{id} [get]
func (h *ScheduleGeneratorHandler) GetProposal(c *gin.Context) {
	proposal, err := h.service.GetProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Accept godoc
// @Summary Accept one option of a proposal
// @Description Placeholders are skipped. Remaining classes are re-checked against the live list and created in one transaction.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param payload body acceptOptionBody true "Option ordinal (1-3)"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/proposals/{id}/accept [post]
func (h *ScheduleGeneratorHandler) Accept(c *gin.Context) {
	var body acceptOptionBody
	if err := bindJSON(c, &body, "invalid accept payload"); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Accept(c.Request.Context(), dto.AcceptProposalRequest{ProposalID: c.Param("id"), Option: body.Option})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ExportOption godoc
// @Summary Export one option of a proposal
// @Tags Scheduler
// @Produce octet-stream
// @Param id path string true "Proposal ID"
// @Param option path int true "Option ordinal"
// @Param format query string false "csv, pdf, xlsx or ics"
// @Success 200 {file} file
// @Router /schedules/proposals/{id}/options/{option}/export [get]
func (h *ScheduleGeneratorHandler) ExportOption(c *gin.Context) {
	ordinal, err := strconv.Atoi(c.Param("option"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "option must be a number"))
		return
	}
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.Option(c.Request.Context(), c.Param("id"), ordinal, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// ValidateLabs godoc
// @Summary Preflight lab preferences
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.ValidateLabsRequest true "Instructor preferences"
// @Success 200 {object} response.Envelope
// @Router /schedules/labs/validate [post]
func (h *ScheduleGeneratorHandler) ValidateLabs(c *gin.Context) {
	var req dto.ValidateLabsRequest
	if err := bindJSON(c, &req, "invalid lab validation payload"); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.ValidateLabs(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
