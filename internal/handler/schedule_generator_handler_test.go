package handler

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/class-scheduler-api/internal/dto"
	"github.com/noah-isme/class-scheduler-api/internal/models"
	"github.com/noah-isme/class-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/class-scheduler-api/pkg/errors"
)

type fakeGenerator struct {
	generateReq dto.GenerateScheduleRequest
	generateErr error
	accepted    dto.AcceptProposalRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	f.generateReq = req
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return &dto.GenerateScheduleResponse{ProposalID: "p-1", Schedules: []models.ScheduleOption{{Option: 1}, {Option: 2}, {Option: 3}}}, nil
}

func (f *fakeGenerator) GetProposal(_ context.Context, id string) (*models.ScheduleProposal, error) {
	if id != "p-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	return &models.ScheduleProposal{ID: id}, nil
}

func (f *fakeGenerator) Accept(_ context.Context, req dto.AcceptProposalRequest) (*dto.AcceptProposalResponse, error) {
	f.accepted = req
	return &dto.AcceptProposalResponse{ProposalID: req.ProposalID, Option: req.Option}, nil
}

func (f *fakeGenerator) ValidateLabs(context.Context, dto.ValidateLabsRequest) (*dto.ValidateLabsResponse, error) {
	return &dto.ValidateLabsResponse{Valid: true}, nil
}

func generatorRouter(gen *fakeGenerator, exporter *fakeExporter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewScheduleGeneratorHandler(gen, exporter)
	router := gin.New()
	router.POST("/schedules/generator", h.Generate)
	router.GET("/schedules/proposals/:id", h.GetProposal)
	router.POST("/schedules/proposals/:id/accept", h.Accept)
	router.GET("/schedules/proposals/:id/options/:option/export", h.ExportOption)
	router.POST("/schedules/labs/validate", h.ValidateLabs)
	return router
}

func TestScheduleGeneratorHandlerGenerate(t *testing.T) {
	gen := &fakeGenerator{}
	payload := `{"instructors":[{"name":"Dr. Rahman","courseCode":"CSE101","preferredDays":["ST"],"availableTimes":["1"]}],"totalSections":2}`
	rec := serve(generatorRouter(gen, &fakeExporter{}), http.MethodPost, "/schedules/generator", bytes.NewBufferString(payload), "application/json")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, gen.generateReq.TotalSections)
	assert.Contains(t, rec.Body.String(), `"proposalId":"p-1"`)
}

func TestScheduleGeneratorHandlerGenerateValidationError(t *testing.T) {
	gen := &fakeGenerator{generateErr: appErrors.Clone(appErrors.ErrValidation, "Dr. Rahman: \"L1\" is not a standard time slot")}
	rec := serve(generatorRouter(gen, &fakeExporter{}), http.MethodPost, "/schedules/generator", bytes.NewBufferString(`{"instructors":[],"totalSections":1}`), "application/json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, appErrors.ErrValidation.Code, body.Error.Code)
	assert.Contains(t, body.Error.Message, "not a standard time slot")
}

func TestScheduleGeneratorHandlerProposalLifecycle(t *testing.T) {
	gen := &fakeGenerator{}
	router := generatorRouter(gen, &fakeExporter{})

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/schedules/proposals/p-1", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/schedules/proposals/gone", nil, "").Code)

	rec := serve(router, http.MethodPost, "/schedules/proposals/p-1/accept", bytes.NewBufferString(`{"option":2}`), "application/json")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, dto.AcceptProposalRequest{ProposalID: "p-1", Option: 2}, gen.accepted)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/schedules/labs/validate", bytes.NewBufferString(`{"instructors":[]}`), "application/json").Code)
}

func TestScheduleGeneratorHandlerExportOption(t *testing.T) {
	exporter := &fakeExporter{}
	router := generatorRouter(&fakeGenerator{}, exporter)

	rec := serve(router, http.MethodGet, "/schedules/proposals/p-1/options/1/export?format=ics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ExportICS, exporter.format)
	assert.Equal(t, "text/calendar", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodGet, "/schedules/proposals/p-1/options/one/export", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/schedules/proposals/nope/options/1/export", nil, "").Code)
}
