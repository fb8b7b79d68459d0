package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/class-scheduler-api/internal/models"
	"github.com/noah-isme/class-scheduler-api/internal/scheduler"
	appErrors "github.com/noah-isme/class-scheduler-api/pkg/errors"
	"github.com/noah-isme/class-scheduler-api/pkg/export"
)

// ExportFormat names a supported download format.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportPDF  ExportFormat = "pdf"
	ExportXLSX ExportFormat = "xlsx"
	ExportICS  ExportFormat = "ics"
)

var exportContentTypes = map[ExportFormat]string{
	ExportCSV:  "text/csv",
	ExportPDF:  "application/pdf",
	ExportXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	ExportICS:  "text/calendar",
}

// ParseExportFormat validates a format query value. Empty defaults to CSV.
func ParseExportFormat(raw string) (ExportFormat, error) {
	format := ExportFormat(strings.ToLower(strings.TrimSpace(raw)))
	if format == "" {
		return ExportCSV, nil
	}
	if _, ok := exportContentTypes[format]; !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", raw))
	}
	return format, nil
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportConfig anchors calendar exports to a term.
type ExportConfig struct {
	TermStart time.Time
	Timezone  string
	Weeks     int
}

type classSnapshotReader interface {
	Snapshot(ctx context.Context, filter models.ClassSectionFilter) ([]models.ClassSection, error)
}

type scheduleOptionReader interface {
	Option(ctx context.Context, proposalID string, ordinal int) (*models.ScheduleOption, error)
}

// ExportService renders class lists and schedule options as CSV, PDF, XLSX or ICS.
type ExportService struct {
	classes  classSnapshotReader
	options  scheduleOptionReader
	csv      *export.CSVCodec
	pdf      *export.PDFExporter
	xlsx     *export.XLSXExporter
	ics      *export.ICSExporter
	location *time.Location
	cfg      ExportConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(classes classSnapshotReader, options scheduleOptionReader, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Weeks <= 0 {
		cfg.Weeks = 14
	}
	location := time.UTC
	if cfg.Timezone != "" {
		if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
			location = loc
		} else {
			logger.Warn("unknown export timezone, using UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		}
	}
	return &ExportService{
		classes:  classes,
		options:  options,
		csv:      export.NewCSVCodec(),
		pdf:      export.NewPDFExporter(),
		xlsx:     export.NewXLSXExporter(),
		ics:      export.NewICSExporter(""),
		location: location,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Classes renders the live class list matching filter.
func (s *ExportService) Classes(ctx context.Context, filter models.ClassSectionFilter, format ExportFormat) (*ExportFile, error) {
	classes, err := s.classes.Snapshot(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.render(classes, format, "class-sections", "Class Sections", fmt.Sprintf("%d sections", len(classes)))
}

// Option renders one option of a stored proposal.
func (s *ExportService) Option(ctx context.Context, proposalID string, ordinal int, format ExportFormat) (*ExportFile, error) {
	option, err := s.options.Option(ctx, proposalID, ordinal)
	if err != nil {
		return nil, err
	}
	subtitle := fmt.Sprintf("Option %d, score %.1f", option.Option, option.Score)
	if option.Conflict {
		subtitle += ", " + option.ConflictMessage
	}
	return s.render(option.Classes, format, fmt.Sprintf("schedule-option-%d", option.Option), "Schedule Proposal", subtitle)
}

func (s *ExportService) render(classes []models.ClassSection, format ExportFormat, base, title, subtitle string) (*ExportFile, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case ExportCSV:
		if classes == nil {
			classes = []models.ClassSection{}
		}
		data, err = s.csv.Render(classes)
	case ExportPDF:
		data, err = s.pdf.Render(classDataset(classes), title, subtitle)
	case ExportXLSX:
		data, err = s.xlsx.Render(classDataset(classes), "Classes", title)
	case ExportICS:
		data, err = s.ics.Render(title, s.calendarEvents(classes))
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("%s.%s", base, format),
		ContentType: exportContentTypes[format],
		Data:        data,
	}, nil
}

var classHeaders = []string{"Course", "Section", "Faculty", "Days", "Time", "Room", "Capacity", "Enrolled"}

func classDataset(classes []models.ClassSection) export.Dataset {
	rows := make([]map[string]string, 0, len(classes))
	for _, class := range classes {
		course := class.CourseCode
		if class.IsPlaceholder() && class.RequestedCourse != "" {
			course = fmt.Sprintf("%s (%s)", class.CourseCode, class.RequestedCourse)
		}
		rows = append(rows, map[string]string{
			"Course":   course,
			"Section":  class.Section,
			"Faculty":  class.Faculty,
			"Days":     class.Days,
			"Time":     class.Time,
			"Room":     class.Room,
			"Capacity": strconv.Itoa(class.MaxCapacity),
			"Enrolled": strconv.Itoa(class.Enrolled),
		})
	}
	return export.Dataset{Headers: classHeaders, Rows: rows}
}

var dayWeekdays = map[string]time.Weekday{
	"S": time.Sunday,
	"M": time.Monday,
	"T": time.Tuesday,
	"W": time.Wednesday,
	"R": time.Thursday,
	"A": time.Saturday,
}

// calendarEvents turns placed classes into weekly recurring events starting on the
// first matching weekday on or after the term start.
func (s *ExportService) calendarEvents(classes []models.ClassSection) []export.CalendarEvent {
	termStart := s.cfg.TermStart
	if termStart.IsZero() {
		termStart = s.now()
	}
	termStart = time.Date(termStart.Year(), termStart.Month(), termStart.Day(), 0, 0, 0, 0, s.location)

	events := make([]export.CalendarEvent, 0, len(classes))
	for _, class := range classes {
		if class.IsPlaceholder() {
			continue
		}
		startMin, endMin, ok := scheduler.Interval(class.Time)
		if !ok {
			s.logger.Debug("skip class without parseable time", zap.String("course", class.CourseCode), zap.String("time", class.Time))
			continue
		}
		weekdays := make([]time.Weekday, 0, 2)
		for _, day := range scheduler.ExpandDays(class.Days) {
			weekdays = append(weekdays, dayWeekdays[day])
		}
		if len(weekdays) == 0 {
			continue
		}
		first := firstOccurrence(termStart, weekdays)
		uid := class.ID
		if uid == "" {
			uid = fmt.Sprintf("%s-%s", class.CourseCode, class.Section)
		}
		events = append(events, export.CalendarEvent{
			UID:         uid + "@class-scheduler",
			Summary:     fmt.Sprintf("%s-%s", class.CourseCode, class.Section),
			Location:    class.Room,
			Description: class.Faculty,
			Start:       first.Add(time.Duration(startMin) * time.Minute),
			End:         first.Add(time.Duration(endMin) * time.Minute),
			Weekdays:    weekdays,
			Count:       s.cfg.Weeks * len(weekdays),
		})
	}
	return events
}

func firstOccurrence(from time.Time, weekdays []time.Weekday) time.Time {
	for offset := 0; offset < 7; offset++ {
		day := from.AddDate(0, 0, offset)
		for _, weekday := range weekdays {
			if day.Weekday() == weekday {
				return day
			}
		}
	}
	return from
}
