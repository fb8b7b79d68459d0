package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/class-scheduler-api/internal/dto"
	"github.com/noah-isme/class-scheduler-api/internal/models"
	"github.com/noah-isme/class-scheduler-api/internal/scheduler"
	appErrors "github.com/noah-isme/class-scheduler-api/pkg/errors"
	"github.com/noah-isme/class-scheduler-api/pkg/events"
)

type classSectionStore interface {
	Existing(ctx context.Context) ([]models.ClassSection, error)
	Persist(ctx context.Context, classes []models.ClassSection) ([]models.ClassSection, error)
}

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	ProposalTTL     time.Duration
	Catalog         scheduler.Catalog
	MaxInstructors  int
	SectionCapacity int
}

// ScheduleGeneratorService validates instructor preferences, runs the generator
// against the live class list and persists accepted options.
type ScheduleGeneratorService struct {
	classes   classSectionStore
	store     ProposalStore
	metrics   *MetricsService
	events    eventEmitter
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleGeneratorConfig
	now       func() time.Time
}

// NewScheduleGeneratorService wires scheduler dependencies.
func NewScheduleGeneratorService(
	classes classSectionStore,
	store ProposalStore,
	metrics *MetricsService,
	emitter eventEmitter,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.Catalog.Empty() {
		cfg.Catalog = scheduler.DefaultCatalog()
	}
	if cfg.SectionCapacity <= 0 {
		cfg.SectionCapacity = scheduler.DefaultSectionCapacity
	}
	if store == nil {
		store = newMemoryProposalStore(cfg.ProposalTTL)
	}
	return &ScheduleGeneratorService{
		classes:   classes,
		store:     store,
		metrics:   metrics,
		events:    emitter,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Generate builds three ranked schedule options and stores them as a proposal.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}
	if s.cfg.MaxInstructors > 0 && len(req.Instructors) > s.cfg.MaxInstructors {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d instructors can be scheduled at once", s.cfg.MaxInstructors))
	}

	instructors := make([]models.InstructorPreference, 0, len(req.Instructors))
	for _, item := range req.Instructors {
		pref, err := normalizeInstructor(item.Model())
		if err != nil {
			return nil, err
		}
		instructors = append(instructors, pref)
	}

	existing, err := s.classes.Existing(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := scheduler.Generate(scheduler.GenerateInput{
		Instructors:     instructors,
		TotalSections:   req.TotalSections,
		Existing:        existing,
		Catalog:         s.cfg.Catalog,
		SectionCapacity: s.cfg.SectionCapacity,
	})
	placeholders := countPlaceholders(result.Schedules)
	s.metrics.ObserveGeneration(placeholders, time.Since(start))

	var warnings []string
	for _, pref := range instructors {
		for _, warning := range scheduler.LabTimeConflicts(pref) {
			warnings = append(warnings, warning.Message)
		}
	}

	now := s.now().UTC()
	proposal := models.ScheduleProposal{
		ID:            uuid.NewString(),
		TotalSections: req.TotalSections,
		Instructors:   instructors,
		Schedules:     result.Schedules,
		Warnings:      warnings,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.cfg.ProposalTTL),
	}
	if err := s.store.Save(ctx, proposal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule proposal")
	}

	s.logger.Info("schedule proposal generated",
		zap.String("proposal_id", proposal.ID),
		zap.Int("instructors", len(instructors)),
		zap.Int("total_sections", req.TotalSections),
		zap.Int("placeholders", placeholders),
	)

	return &dto.GenerateScheduleResponse{
		ProposalID: proposal.ID,
		Schedules:  proposal.Schedules,
		Warnings:   warnings,
		ExpiresAt:  proposal.ExpiresAt,
	}, nil
}

// GetProposal returns a stored proposal.
func (s *ScheduleGeneratorService) GetProposal(ctx context.Context, id string) (*models.ScheduleProposal, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "proposal id is required")
	}
	proposal, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule proposal")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	return &proposal, nil
}

// Option returns a single option of a stored proposal.
func (s *ScheduleGeneratorService) Option(ctx context.Context, proposalID string, ordinal int) (*models.ScheduleOption, error) {
	proposal, err := s.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	option, ok := proposal.Option(ordinal)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("option %d not found", ordinal))
	}
	return &option, nil
}

// Accept persists the placed classes of one option. Placeholders are skipped and
// every class is re-checked against a fresh read of the class list.
func (s *ScheduleGeneratorService) Accept(ctx context.Context, req dto.AcceptProposalRequest) (*dto.AcceptProposalResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid accept payload")
	}
	option, err := s.Option(ctx, req.ProposalID, req.Option)
	if err != nil {
		return nil, err
	}

	placed := option.PlacedClasses()
	if len(placed) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "option has no placeable classes")
	}

	created, err := s.classes.Persist(ctx, placed)
	if err != nil {
		if appErrors.IsCode(err, appErrors.ErrConflict.Code) {
			s.logger.Info("accept conflicted with live classes, proposal kept",
				zap.String("proposal_id", req.ProposalID), zap.Int("option", req.Option))
		}
		return nil, err
	}

	if err := s.store.Delete(ctx, req.ProposalID); err != nil {
		s.logger.Warn("delete accepted proposal failed", zap.String("proposal_id", req.ProposalID), zap.Error(err))
	}
	if s.events != nil {
		payload := map[string]interface{}{"proposalId": req.ProposalID, "option": req.Option, "classes": len(created)}
		if err := s.events.Emit(events.TypeScheduleApplied, payload); err != nil {
			s.logger.Warn("emit schedule event failed", zap.Error(err))
		}
	}

	return &dto.AcceptProposalResponse{
		ProposalID: req.ProposalID,
		Option:     req.Option,
		Created:    created,
		Skipped:    len(option.Classes) - len(placed),
	}, nil
}

// ValidateLabs reports lab-day conflicts, encoded lab days and advisory
// theory/lab overlaps without generating anything.
func (s *ScheduleGeneratorService) ValidateLabs(ctx context.Context, req dto.ValidateLabsRequest) (*dto.ValidateLabsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lab validation payload")
	}
	resp := &dto.ValidateLabsResponse{Valid: true, Results: make([]dto.LabValidationResult, 0, len(req.Instructors))}
	for _, item := range req.Instructors {
		pref := item.Model()
		result := dto.LabValidationResult{Name: strings.TrimSpace(pref.Name)}
		if pref.HasLab {
			result.LabDayConflict = scheduler.LabDayConflict(pref.LabDays)
			result.EncodedLabDays = scheduler.EncodeLabDays(pref.LabDays)
			pref.AvailableTimes = resolveTimes(pref.AvailableTimes)
			pref.LabTimes = resolveTimes(pref.LabTimes)
			for _, warning := range scheduler.LabTimeConflicts(pref) {
				result.Warnings = append(result.Warnings, warning.Message)
			}
		}
		if result.LabDayConflict != "" {
			resp.Valid = false
		}
		resp.Results = append(resp.Results, result)
	}
	return resp, nil
}

// normalizeInstructor trims and upper-cases tokens, resolves slot codes and
// rejects preferences the generator cannot honour.
func normalizeInstructor(pref models.InstructorPreference) (models.InstructorPreference, error) {
	pref.Name = strings.Join(strings.Fields(pref.Name), " ")
	pref.CourseCode = strings.ToUpper(strings.TrimSpace(pref.CourseCode))
	pref.PreferredDays = upperTokens(pref.PreferredDays)
	pref.AvailableTimes = resolveTimes(pref.AvailableTimes)

	for _, label := range pref.AvailableTimes {
		slot, ok := scheduler.SlotByLabel(label)
		if !ok || slot.Kind != scheduler.SlotStandard {
			return pref, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: %q is not a standard time slot", pref.Name, label))
		}
	}

	if !pref.HasLab {
		pref.LabDays, pref.LabTimes = nil, nil
		return pref, nil
	}
	if len(pref.LabDays) == 0 || len(pref.LabTimes) == 0 {
		return pref, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: lab days and lab times are required when a lab is enabled", pref.Name))
	}
	if msg := scheduler.LabDayConflict(pref.LabDays); msg != "" {
		return pref, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: %s", pref.Name, msg))
	}
	pref.LabDays = scheduler.EncodeLabDays(pref.LabDays)
	pref.LabTimes = resolveTimes(pref.LabTimes)
	for _, label := range pref.LabTimes {
		if _, ok := scheduler.SlotByLabel(label); !ok {
			return pref, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: %q is not a lab-eligible time slot", pref.Name, label))
		}
	}
	return pref, nil
}

func upperTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token = strings.ToUpper(strings.TrimSpace(token)); token != "" {
			out = append(out, token)
		}
	}
	return out
}

func resolveTimes(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, resolveTime(value))
	}
	return out
}

func countPlaceholders(options []models.ScheduleOption) int {
	total := 0
	for _, option := range options {
		total += len(option.Classes) - len(option.PlacedClasses())
	}
	return total
}
