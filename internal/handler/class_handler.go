package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-scheduler-api/internal/dto"
	"github.com/noah-isme/class-scheduler-api/internal/middleware"
	"github.com/noah-isme/class-scheduler-api/internal/models"
	"github.com/noah-isme/class-scheduler-api/internal/scheduler"
	"github.com/noah-isme/class-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/class-scheduler-api/pkg/errors"
	"github.com/noah-isme/class-scheduler-api/pkg/response"
)

const maxImportBytes = 2 << 20

type classService interface {
	List(ctx context.Context, filter models.ClassSectionFilter) ([]models.ClassSection, *models.Pagination, bool, error)
	Get(ctx context.Context, id string) (*models.ClassSection, error)
	Create(ctx context.Context, req dto.ClassSectionRequest) (*models.ClassSection, error)
	Update(ctx context.Context, id string, req dto.ClassSectionRequest) (*models.ClassSection, error)
	Delete(ctx context.Context, id string) error
	BulkCreate(ctx context.Context, req dto.BulkCreateClassesRequest) ([]models.ClassSection, error)
	ImportCSV(ctx context.Context, r io.Reader) ([]models.ClassSection, error)
	CheckConflict(ctx context.Context, probe dto.ClassConflictProbe) (*dto.ClassConflictProbeResponse, error)
	AvailableSections(ctx context.Context, courseCode string) (*dto.AvailableSectionsResponse, error)
	AvailableRooms(ctx context.Context, query dto.AvailableRoomsQuery) ([]scheduler.RoomAvailability, error)
}

type classExporter interface {
	Classes(ctx context.Context, filter models.ClassSectionFilter, format service.ExportFormat) (*service.ExportFile, error)
}

// ClassHandler exposes class section endpoints.
type ClassHandler struct {
	service  classService
	exporter classExporter
}

// NewClassHandler constructs a class handler.
func NewClassHandler(svc classService, exporter classExporter) *ClassHandler {
	return &ClassHandler{service: svc, exporter: exporter}
}

// List godoc
// @Summary List class sections
// @Tags Classes
// @Produce json
// @Param courseCode query string false "Course code"
// @Param faculty query string false "Faculty name"
// @Param days query string false "Day pattern"
// @Param time query string false "Time slot label"
// @Param room query string false "Room"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	classes, pagination, cacheHit, err := h.service.List(c.Request.Context(), classFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, classes, pagination, responseMeta(c))
}

// Get godoc
// @Summary Get class section
// @Tags Classes
// @Produce json
// @Param id path string true "Class section ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	class, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Create godoc
// @Summary Create class section
// @Description Rejected with 409 when the room or instructor is already booked at an overlapping time.
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body dto.ClassSectionRequest true "Class section payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req dto.ClassSectionRequest
	if err := bindJSON(c, &req, "invalid class payload"); err != nil {
		response.Error(c, err)
		return
	}
	class, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Update godoc
// @Summary Update class section
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class section ID"
// @Param payload body dto.ClassSectionRequest true "Class section payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes/{id} [put]
func (h *ClassHandler) Update(c *gin.Context) {
	var req dto.ClassSectionRequest
	if err := bindJSON(c, &req, "invalid class payload"); err != nil {
		response.Error(c, err)
		return
	}
	class, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Delete godoc
// @Summary Delete class section
// @Tags Classes
// @Param id path string true "Class section ID"
// @Success 204
// @Router /classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Bulk godoc
// @Summary Bulk create class sections
// @Description All-or-nothing. Items are checked against existing classes and earlier items of the same batch.
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body dto.BulkCreateClassesRequest true "Class sections"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes/bulk [post]
func (h *ClassHandler) Bulk(c *gin.Context) {
	var req dto.BulkCreateClassesRequest
	if err := bindJSON(c, &req, "invalid bulk payload"); err != nil {
		response.Error(c, err)
		return
	}
	classes, err := h.service.BulkCreate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, classes)
}

// Import godoc
// @Summary Import class sections from CSV
// @Description Accepts a multipart "file" field or a raw text/csv body.
// @Tags Classes
// @Accept mpfd
// @Accept text/csv
// @Produce json
// @Param file formData file false "CSV file"
// @Success 201 {object} response.Envelope
// @Router /classes/import [post]
func (h *ClassHandler) Import(c *gin.Context) {
	var reader io.Reader
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file field is required"))
			return
		}
		file, err := header.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read upload"))
			return
		}
		defer file.Close()
		reader = file
	} else {
		reader = c.Request.Body
	}

	classes, err := h.service.ImportCSV(c.Request.Context(), io.LimitReader(reader, maxImportBytes))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ImportClassesResponse{Imported: len(classes), Classes: classes})
}

// Export godoc
// @Summary Export class sections
// @Tags Classes
// @Produce octet-stream
// @Param format query string false "csv, pdf, xlsx or ics"
// @Success 200 {file} file
// @Router /classes/export [get]
func (h *ClassHandler) Export(c *gin.Context) {
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.Classes(c.Request.Context(), classFilterFromQuery(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// CheckConflict godoc
// @Summary Check a proposed class for conflicts
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body dto.ClassConflictProbe true "Probe"
// @Success 200 {object} response.Envelope
// @Router /classes/conflicts/check [post]
func (h *ClassHandler) CheckConflict(c *gin.Context) {
	var probe dto.ClassConflictProbe
	if err := bindJSON(c, &probe, "invalid conflict probe"); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.CheckConflict(c.Request.Context(), probe)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AvailableSections godoc
// @Summary Free section numbers for a course
// @Tags Classes
// @Produce json
// @Param courseCode query string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /classes/sections/available [get]
func (h *ClassHandler) AvailableSections(c *gin.Context) {
	courseCode := strings.TrimSpace(c.Query("courseCode"))
	if courseCode == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "courseCode is required"))
		return
	}
	result, err := h.service.AvailableSections(c.Request.Context(), courseCode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AvailableRooms godoc
// @Summary Room occupancy for a day pattern and time slot
// @Tags Classes
// @Produce json
// @Param days query string true "Day pattern"
// @Param time query string true "Time slot label or code"
// @Param isLab query bool false "Lab course"
// @Param excludeId query string false "Class ID to ignore"
// @Success 200 {object} response.Envelope
// @Router /classes/rooms/available [get]
func (h *ClassHandler) AvailableRooms(c *gin.Context) {
	var query dto.AvailableRoomsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room availability query"))
		return
	}
	rooms, err := h.service.AvailableRooms(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}
