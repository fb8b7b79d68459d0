package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-scheduler-api/internal/scheduler"
	appErrors "github.com/noah-isme/class-scheduler-api/pkg/errors"
	"github.com/noah-isme/class-scheduler-api/pkg/response"
)

type slotCatalogResponse struct {
	Standard   []scheduler.Slot `json:"standard"`
	Lab        []scheduler.Slot `json:"lab"`
	PairedDays []string         `json:"pairedDays"`
}

type encodedSlotResponse struct {
	Token string `json:"token"`
	Label string `json:"label"`
}

// SlotHandler serves the fixed time-slot catalog and the compact slot codec.
type SlotHandler struct{}

// NewSlotHandler constructs a slot handler.
func NewSlotHandler() *SlotHandler {
	return &SlotHandler{}
}

// List godoc
// @Summary List theory and lab time slots
// @Tags Slots
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /slots [get]
func (h *SlotHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, slotCatalogResponse{
		Standard:   scheduler.StandardSlots(),
		Lab:        scheduler.LabSlots(),
		PairedDays: scheduler.PairedDays(),
	}, nil)
}

// Decode godoc
// @Summary Decode a compact slot token such as ST1 or SL2
// @Tags Slots
// @Produce json
// @Param token path string true "Slot token"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /slots/decode/{token} [get]
func (h *SlotHandler) Decode(c *gin.Context) {
	token := strings.ToUpper(strings.TrimSpace(c.Param("token")))
	decoded, ok := scheduler.Decode(token)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "malformed slot token "+token))
		return
	}
	response.JSON(c, http.StatusOK, decoded, nil)
}

// Encode godoc
// @Summary Encode days and a time slot into a compact token
// @Tags Slots
// @Produce json
// @Param days query string true "Day pattern"
// @Param time query string true "Time slot label or code"
// @Success 200 {object} response.Envelope
// @Router /slots/encode [get]
func (h *SlotHandler) Encode(c *gin.Context) {
	days := strings.ToUpper(strings.TrimSpace(c.Query("days")))
	label := strings.TrimSpace(c.Query("time"))
	if days == "" || label == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "days and time are required"))
		return
	}
	if slot, ok := scheduler.ResolveSlot(label); ok {
		label = slot.Label
	}
	response.JSON(c, http.StatusOK, encodedSlotResponse{
		Token: scheduler.Encode(days, label),
		Label: scheduler.Label(days, label),
	}, nil)
}
