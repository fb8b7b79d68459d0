package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/class-scheduler-api/internal/dto"
	"github.com/noah-isme/class-scheduler-api/internal/models"
	"github.com/noah-isme/class-scheduler-api/internal/scheduler"
	"github.com/noah-isme/class-scheduler-api/pkg/cache"
	appErrors "github.com/noah-isme/class-scheduler-api/pkg/errors"
	"github.com/noah-isme/class-scheduler-api/pkg/events"
	"github.com/noah-isme/class-scheduler-api/pkg/export"
)

type classSectionRepository interface {
	List(ctx context.Context, filter models.ClassSectionFilter) ([]models.ClassSection, int, error)
	ListAll(ctx context.Context) ([]models.ClassSection, error)
	FindByID(ctx context.Context, id string) (*models.ClassSection, error)
	Create(ctx context.Context, class *models.ClassSection) error
	Update(ctx context.Context, class *models.ClassSection) error
	Delete(ctx context.Context, id string) error
	BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, classes []models.ClassSection) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type eventEmitter interface {
	Emit(eventType string, payload interface{}) error
}

// ClassServiceConfig tunes class section defaults.
type ClassServiceConfig struct {
	Catalog         scheduler.Catalog
	DefaultCapacity int
}

// ClassService coordinates class section CRUD, conflict probes and availability queries.
type ClassService struct {
	repo      classSectionRepository
	tx        txProvider
	cache     *CacheService
	metrics   *MetricsService
	events    eventEmitter
	csv       *export.CSVCodec
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ClassServiceConfig
}

// NewClassService constructs ClassService.
func NewClassService(
	repo classSectionRepository,
	tx txProvider,
	cacheSvc *CacheService,
	metrics *MetricsService,
	emitter eventEmitter,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ClassServiceConfig,
) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Catalog.Empty() {
		cfg.Catalog = scheduler.DefaultCatalog()
	}
	if cfg.DefaultCapacity <= 0 {
		cfg.DefaultCapacity = scheduler.DefaultSectionCapacity
	}
	return &ClassService{
		repo:      repo,
		tx:        tx,
		cache:     cacheSvc,
		metrics:   metrics,
		events:    emitter,
		csv:       export.NewCSVCodec(),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

type cachedClassPage struct {
	Items []models.ClassSection `json:"items"`
	Total int                   `json:"total"`
}

func classListKey(filter models.ClassSectionFilter) string {
	return cache.Key("classes", "list", fmt.Sprintf("%s|%s|%s|%s|%s|%d|%d|%s|%s",
		filter.CourseCode, filter.Faculty, filter.Days, filter.Time, filter.Room,
		filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder))
}

var classListPattern = cache.Key("classes", "*")

// List returns class sections with pagination metadata. The bool reports a cache hit.
func (s *ClassService) List(ctx context.Context, filter models.ClassSectionFilter) ([]models.ClassSection, *models.Pagination, bool, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}

	key := classListKey(filter)
	var cached cachedClassPage
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached.Items, &models.Pagination{Page: page, PageSize: size, TotalCount: cached.Total}, true, nil
	}

	start := time.Now()
	classes, total, err := s.repo.List(ctx, filter)
	s.metrics.ObserveDBQuery("class_sections.list", time.Since(start))
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class sections")
	}
	if classes == nil {
		classes = []models.ClassSection{}
	}
	_ = s.cache.Set(ctx, key, cachedClassPage{Items: classes, Total: total}, 0)
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, false, nil
}

// Existing returns a fresh snapshot of every persisted class section.
func (s *ClassService) Existing(ctx context.Context) ([]models.ClassSection, error) {
	start := time.Now()
	classes, err := s.repo.ListAll(ctx)
	s.metrics.ObserveDBQuery("class_sections.list_all", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class sections")
	}
	return classes, nil
}

// Snapshot returns every class section matching filter, without pagination.
func (s *ClassService) Snapshot(ctx context.Context, filter models.ClassSectionFilter) ([]models.ClassSection, error) {
	classes, err := s.Existing(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ClassSection, 0, len(classes))
	for _, class := range classes {
		if matchesFilter(class, filter) {
			out = append(out, class)
		}
	}
	return out, nil
}

func matchesFilter(class models.ClassSection, filter models.ClassSectionFilter) bool {
	if filter.CourseCode != "" && !strings.HasPrefix(strings.ToUpper(class.CourseCode), strings.ToUpper(filter.CourseCode)) {
		return false
	}
	if filter.Faculty != "" && !strings.Contains(strings.ToLower(class.Faculty), strings.ToLower(filter.Faculty)) {
		return false
	}
	if filter.Days != "" && class.Days != strings.ToUpper(filter.Days) {
		return false
	}
	if filter.Time != "" && class.Time != filter.Time {
		return false
	}
	if filter.Room != "" && !strings.EqualFold(class.Room, filter.Room) {
		return false
	}
	return true
}

// Get returns a class section by id.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassSection, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class section")
	}
	return class, nil
}

// Create validates and persists a class section after a blocking conflict check.
func (s *ClassService) Create(ctx context.Context, req dto.ClassSectionRequest) (*models.ClassSection, error) {
	class, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.Existing(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoConflict(class, existing, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class section")
	}
	s.afterWrite(ctx, events.TypeClassesCreated, []models.ClassSection{class})
	return &class, nil
}

// Update modifies a class section; the section itself is excluded from the conflict scan.
func (s *ClassService) Update(ctx context.Context, id string, req dto.ClassSectionRequest) (*models.ClassSection, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	class, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	class.ID = current.ID
	class.CreatedAt = current.CreatedAt

	existing, err := s.Existing(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoConflict(class, existing, id); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &class); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class section")
	}
	s.afterWrite(ctx, events.TypeClassUpdated, class)
	return &class, nil
}

// Delete removes a class section.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class section")
	}
	s.afterWrite(ctx, events.TypeClassDeleted, map[string]string{"id": id})
	return nil
}

// BulkCreate validates every item and persists the batch atomically. The result
// has the same order and length as the request, annotated with ids.
func (s *ClassService) BulkCreate(ctx context.Context, req dto.BulkCreateClassesRequest) ([]models.ClassSection, error) {
	if len(req.Classes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classes must contain at least one entry")
	}
	classes := make([]models.ClassSection, 0, len(req.Classes))
	for i, item := range req.Classes {
		class, err := s.prepare(item)
		if err != nil {
			appErr := appErrors.FromError(err)
			return nil, appErrors.Wrap(err, appErr.Code, appErr.Status, fmt.Sprintf("classes[%d]: %s", i, appErr.Message))
		}
		classes = append(classes, class)
	}
	return s.Persist(ctx, classes)
}

// Persist re-reads the live class list, rejects the batch when any element
// collides with a persisted class or an earlier element, and inserts the rest in
// one transaction.
func (s *ClassService) Persist(ctx context.Context, classes []models.ClassSection) ([]models.ClassSection, error) {
	if len(classes) == 0 {
		return []models.ClassSection{}, nil
	}
	existing, err := s.Existing(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ensureBatchHasNoConflicts(classes, existing); err != nil {
		return nil, err
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	out := make([]models.ClassSection, len(classes))
	copy(out, classes)
	for i := range out {
		out[i].ID = ""
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	if err = s.repo.BulkCreateWithTx(ctx, tx, out); err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist class sections")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit class sections")
	}

	s.logger.Info("class sections created", zap.Int("count", len(out)))
	s.afterWrite(ctx, events.TypeClassesCreated, out)
	return out, nil
}

// CheckConflict probes the live class list for a faculty/days/time (and optional room) clash.
func (s *ClassService) CheckConflict(ctx context.Context, probe dto.ClassConflictProbe) (*dto.ClassConflictProbeResponse, error) {
	if err := s.validator.Struct(probe); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict probe")
	}
	label, err := canonicalTime(probe.Time, true)
	if err != nil {
		return nil, err
	}
	existing, err := s.Existing(ctx)
	if err != nil {
		return nil, err
	}
	candidate := models.ClassSection{
		Faculty: strings.TrimSpace(probe.Faculty),
		Days:    strings.ToUpper(strings.TrimSpace(probe.Days)),
		Time:    label,
		Room:    strings.ToUpper(strings.TrimSpace(probe.Room)),
	}
	result := scheduler.CheckConflict(candidate, existing, probe.ExcludeID)
	if !result.Conflict {
		return &dto.ClassConflictProbeResponse{Available: true}, nil
	}
	return &dto.ClassConflictProbeResponse{
		Available: false,
		Type:      string(result.Type),
		Severity:  string(result.Severity),
		Message:   result.Message,
		With:      result.With,
	}, nil
}

// AvailableSections lists the free standard section numbers of a course code and,
// once they are exhausted, the next manual number.
func (s *ClassService) AvailableSections(ctx context.Context, courseCode string) (*dto.AvailableSectionsResponse, error) {
	courseCode = strings.ToUpper(strings.TrimSpace(courseCode))
	if courseCode == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "courseCode is required")
	}
	existing, err := s.Existing(ctx)
	if err != nil {
		return nil, err
	}
	availability := scheduler.AvailableSections(courseCode, existing)
	resp := &dto.AvailableSectionsResponse{
		CourseCode:          courseCode,
		AvailableSections:   availability.AvailableSections,
		AllStandardOccupied: availability.AllStandardOccupied,
	}
	if availability.AllStandardOccupied {
		resp.NextManualSection = scheduler.NextManualSection(courseCode, existing)
	}
	return resp, nil
}

// AvailableRooms reports occupancy and universe membership for every catalog room.
func (s *ClassService) AvailableRooms(ctx context.Context, query dto.AvailableRoomsQuery) ([]scheduler.RoomAvailability, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "days and time are required")
	}
	label, err := canonicalTime(query.Time, query.IsLab)
	if err != nil {
		return nil, err
	}
	existing, err := s.Existing(ctx)
	if err != nil {
		return nil, err
	}
	days := strings.ToUpper(strings.TrimSpace(query.Days))
	return scheduler.AvailableRooms(days, label, existing, query.ExcludeID, query.IsLab, s.cfg.Catalog), nil
}

// ImportCSV decodes class rows and creates them as one batch.
func (s *ClassService) ImportCSV(ctx context.Context, r io.Reader) ([]models.ClassSection, error) {
	var rows []dto.ClassSectionRequest
	if err := s.csv.Decode(r, &rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class section csv")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "csv contains no class sections")
	}
	return s.BulkCreate(ctx, dto.BulkCreateClassesRequest{Classes: rows})
}

// prepare normalises a request at the boundary and enforces room-universe rules.
func (s *ClassService) prepare(req dto.ClassSectionRequest) (models.ClassSection, error) {
	req = normalizeClassRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return models.ClassSection{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class section payload")
	}

	isLab := scheduler.IsLabCourse(req.CourseCode)
	label, err := canonicalTime(req.Time, isLab)
	if err != nil {
		return models.ClassSection{}, err
	}
	if scheduler.IsSingleDay(req.Days) && !isLab {
		return models.ClassSection{}, appErrors.Clone(appErrors.ErrValidation, "single-day patterns are only allowed for lab sections")
	}
	if kind := scheduler.RoomKindOf(req.Room); isLab && kind != scheduler.RoomLab {
		return models.ClassSection{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("lab section %s must use a %s room", req.CourseCode, scheduler.LabBuildingPrefix))
	} else if !isLab && kind == scheduler.RoomLab {
		return models.ClassSection{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("theory section %s cannot use a %s room", req.CourseCode, scheduler.LabBuildingPrefix))
	}
	if req.MaxCapacity > 0 && req.Enrolled > req.MaxCapacity {
		return models.ClassSection{}, appErrors.Clone(appErrors.ErrValidation, "enrolled cannot exceed maxCapacity")
	}

	capacity := req.MaxCapacity
	if capacity <= 0 {
		capacity = s.cfg.DefaultCapacity
	}
	return models.ClassSection{
		CourseCode:  req.CourseCode,
		Section:     req.Section,
		Faculty:     req.Faculty,
		Days:        req.Days,
		Time:        label,
		Room:        req.Room,
		MaxCapacity: capacity,
		Enrolled:    req.Enrolled,
	}, nil
}

func normalizeClassRequest(req dto.ClassSectionRequest) dto.ClassSectionRequest {
	req.CourseCode = strings.ToUpper(strings.TrimSpace(req.CourseCode))
	req.Section = scheduler.NormalizeSection(req.Section)
	req.Faculty = strings.Join(strings.Fields(req.Faculty), " ")
	req.Days = strings.ToUpper(strings.TrimSpace(req.Days))
	req.Time = resolveTime(req.Time)
	req.Room = strings.ToUpper(strings.TrimSpace(req.Room))
	return req
}

// resolveTime maps a slot code or loosely spaced label onto its catalog label.
// Values outside the catalog are returned trimmed.
func resolveTime(value string) string {
	value = strings.TrimSpace(value)
	if slot, ok := scheduler.ResolveSlot(value); ok {
		return slot.Label
	}
	return value
}

// canonicalTime rejects anything outside the slot catalog. Lab-eligible
// callers may use 3-hour slots as well as standard ones.
func canonicalTime(value string, labEligible bool) (string, error) {
	slot, ok := scheduler.ResolveSlot(value)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time %q is not a catalog time slot", strings.TrimSpace(value)))
	}
	if !labEligible && slot.Kind != scheduler.SlotStandard {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time %q is a lab slot; theory sections need a standard slot", slot.Label))
	}
	return slot.Label, nil
}

// firstConflict checks the slot dimensions first, then section-number uniqueness.
func firstConflict(candidate models.ClassSection, existing []models.ClassSection, excludeID string) scheduler.ConflictResult {
	if result := scheduler.CheckConflict(candidate, existing, excludeID); result.Conflict {
		return result
	}
	return scheduler.SectionConflict(candidate, existing, excludeID)
}

func (s *ClassService) ensureNoConflict(candidate models.ClassSection, existing []models.ClassSection, excludeID string) error {
	result := firstConflict(candidate, existing, excludeID)
	if !result.Conflict {
		return nil
	}
	s.metrics.RecordClassConflict(string(result.Type))
	return conflictError([]scheduler.ConflictResult{result})
}

func (s *ClassService) ensureBatchHasNoConflicts(classes []models.ClassSection, existing []models.ClassSection) error {
	pool := make([]models.ClassSection, 0, len(existing)+len(classes))
	pool = append(pool, existing...)
	var found []scheduler.ConflictResult
	for i, class := range classes {
		result := firstConflict(class, pool, "")
		if result.Conflict {
			s.metrics.RecordClassConflict(string(result.Type))
			result.Message = fmt.Sprintf("%s %s: %s", class.CourseCode, class.Section, result.Message)
			found = append(found, result)
		}
		// Pending batch members carry an index-based id so they can be reported.
		pending := class
		if pending.ID == "" {
			pending.ID = fmt.Sprintf("batch-%d", i)
		}
		pool = append(pool, pending)
	}
	if len(found) == 0 {
		return nil
	}
	return conflictError(found)
}

func conflictError(results []scheduler.ConflictResult) error {
	details := make([]models.ClassConflict, 0, len(results))
	for _, result := range results {
		details = append(details, models.ClassConflict{
			Type:     string(result.Type),
			Severity: string(result.Severity),
			Message:  result.Message,
			With:     result.With,
		})
	}
	conflict := &models.ClassConflictError{
		Type:     "CONFLICT",
		Message:  details[0].Message,
		Conflict: details[0],
	}
	if len(details) > 1 {
		conflict.Errors = details
	}
	return appErrors.Wrap(conflict, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, details[0].Message)
}

func (s *ClassService) afterWrite(ctx context.Context, eventType string, payload interface{}) {
	_ = s.cache.Invalidate(ctx, classListPattern)
	if s.events == nil {
		return
	}
	if err := s.events.Emit(eventType, payload); err != nil {
		s.logger.Warn("emit class event failed", zap.String("type", eventType), zap.Error(err))
	}
}
