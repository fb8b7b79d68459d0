package scheduler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/class-scheduler-api/internal/models"
)

const (
	// OptionCount is the number of ranked options every generation returns.
	OptionCount = 3
	// DefaultSectionCapacity seeds MaxCapacity on generated sections.
	DefaultSectionCapacity = 40

	maxStrategyAttempts = 12
)

// GenerateInput is an immutable snapshot consumed by Generate.
type GenerateInput struct {
	Instructors     []models.InstructorPreference
	TotalSections   int
	Existing        []models.ClassSection
	Catalog         Catalog
	SectionCapacity int
}

// GenerateResult holds the ranked options.
type GenerateResult struct {
	Schedules []models.ScheduleOption `json:"schedules"`
}

// sectionRequest is one section to place. instructor is -1 for sections that
// exceed the combined instructor capacity.
type sectionRequest struct {
	instructor int
	courseCode string
	section    string
}

type dayTimeChoice struct {
	days string
	time string
	rank int
}

// Generate assigns the requested sections to instructor/day/time/room slots and
// returns exactly OptionCount ranked options. Infeasible sections become
// placeholders; Generate never fails.
func Generate(in GenerateInput) GenerateResult {
	if in.SectionCapacity <= 0 {
		in.SectionCapacity = DefaultSectionCapacity
	}
	if in.Catalog.Empty() {
		in.Catalog = DefaultCatalog()
	}

	requests := allocateSections(in.Instructors, in.TotalSections, in.Existing)

	options := make([]models.ScheduleOption, 0, OptionCount)
	signatures := make(map[string]bool, OptionCount)
	for k := 0; k < OptionCount; k++ {
		var chosen *models.ScheduleOption
		for attempt := k; attempt < maxStrategyAttempts; attempt += OptionCount {
			option := buildOption(in, requests, attempt)
			sig := optionSignature(option)
			if chosen == nil {
				first := option
				chosen = &first
			}
			if !signatures[sig] {
				chosen = &option
				break
			}
		}
		signatures[optionSignature(*chosen)] = true
		options = append(options, *chosen)
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Score > options[j].Score
	})
	for i := range options {
		options[i].Option = i + 1
	}
	return GenerateResult{Schedules: options}
}

// allocateSections distributes totalSections round-robin over instructors in
// input order, honouring MaxSections. Section numbers are unique per course
// code and skip numbers already held by existing classes.
func allocateSections(instructors []models.InstructorPreference, totalSections int, existing []models.ClassSection) []sectionRequest {
	if totalSections <= 0 {
		return nil
	}
	numbers := newSectionNumberer(existing)
	counts := make([]int, len(instructors))
	requests := make([]sectionRequest, 0, totalSections)

	for len(requests) < totalSections {
		progressed := false
		for i, pref := range instructors {
			if len(requests) == totalSections {
				break
			}
			if counts[i] >= maxSectionsOf(pref) {
				continue
			}
			counts[i]++
			progressed = true
			code := strings.TrimSpace(pref.CourseCode)
			requests = append(requests, sectionRequest{
				instructor: i,
				courseCode: code,
				section:    numbers.next(code),
			})
		}
		if !progressed {
			break
		}
	}

	for shortfall := 0; len(requests) < totalSections; shortfall++ {
		var code string
		if len(instructors) > 0 {
			code = strings.TrimSpace(instructors[shortfall%len(instructors)].CourseCode)
		}
		requests = append(requests, sectionRequest{
			instructor: -1,
			courseCode: code,
			section:    numbers.next(code),
		})
	}
	return requests
}

func maxSectionsOf(pref models.InstructorPreference) int {
	if pref.MaxSections < 1 {
		return 1
	}
	return pref.MaxSections
}

type sectionNumberer struct {
	used map[string]map[string]bool
}

func newSectionNumberer(existing []models.ClassSection) *sectionNumberer {
	n := &sectionNumberer{used: make(map[string]map[string]bool)}
	for _, class := range existing {
		if class.IsPlaceholder() {
			continue
		}
		n.mark(class.CourseCode, NormalizeSection(class.Section))
	}
	return n
}

func (n *sectionNumberer) mark(code, section string) {
	if n.used[code] == nil {
		n.used[code] = make(map[string]bool)
	}
	n.used[code][section] = true
}

func (n *sectionNumberer) next(code string) string {
	for i := 1; ; i++ {
		section := FormatSection(i)
		if !n.used[code][section] {
			n.mark(code, section)
			return section
		}
	}
}

// optionState tracks placements for a single option.
type optionState struct {
	existing []models.ClassSection
	placed   []models.ClassSection
}

func (s *optionState) occupied(candidate models.ClassSection) bool {
	for _, pool := range [][]models.ClassSection{s.existing, s.placed} {
		if CheckConflict(candidate, pool, "").Conflict {
			return true
		}
		for _, other := range pool {
			if other.IsPlaceholder() {
				continue
			}
			if !SlotsOverlap(candidate.Days, candidate.Time, other.Days, other.Time) {
				continue
			}
			if SameRoom(candidate.Room, other.Room) || SameFaculty(candidate.Faculty, other.Faculty) {
				return true
			}
		}
	}
	return false
}

func buildOption(in GenerateInput, requests []sectionRequest, attempt int) models.ScheduleOption {
	state := &optionState{existing: in.Existing}
	classes := make([]models.ClassSection, 0, len(requests))
	var messages []string
	penalty := 0

	workload := make(map[string]int, len(in.Instructors))
	for _, pref := range in.Instructors {
		workload[strings.TrimSpace(pref.Name)] = 0
	}

	for _, req := range requests {
		if req.instructor < 0 {
			classes = append(classes, placeholder(req, "", in.SectionCapacity))
			messages = append(messages, fmt.Sprintf("%s section %s exceeds combined instructor capacity", displayCourse(req.courseCode), req.section))
			continue
		}
		pref := in.Instructors[req.instructor]
		faculty := strings.TrimSpace(pref.Name)

		theory := theoryChoices(pref)
		class, rank, ok := state.place(req.courseCode, req.section, faculty, theory, in.Catalog.TheoryRooms, attempt, in.SectionCapacity)
		if ok {
			classes = append(classes, class)
			penalty += rank
		} else {
			classes = append(classes, placeholder(req, faculty, in.SectionCapacity))
			messages = append(messages, fmt.Sprintf("Could not place %s section %s for %s", displayCourse(req.courseCode), req.section, faculty))
		}

		if !pref.HasLab {
			continue
		}
		labReq := sectionRequest{instructor: req.instructor, courseCode: LabCourseCode(req.courseCode), section: req.section}
		lab, rank, ok := state.place(labReq.courseCode, labReq.section, faculty, labChoices(pref), in.Catalog.LabRooms, attempt, in.SectionCapacity)
		if ok {
			classes = append(classes, lab)
			penalty += rank
		} else {
			classes = append(classes, placeholder(labReq, faculty, in.SectionCapacity))
			messages = append(messages, fmt.Sprintf("Could not place lab %s section %s for %s", displayCourse(labReq.courseCode), labReq.section, faculty))
		}
	}

	placed := 0
	for _, class := range classes {
		if class.IsPlaceholder() {
			continue
		}
		placed++
		workload[class.Faculty]++
	}
	placeholders := len(classes) - placed

	return models.ScheduleOption{
		Classes:         classes,
		Conflict:        placeholders > 0,
		ConflictMessage: strings.Join(messages, "; "),
		Workload:        workload,
		Score:           float64(100*placed-100*placeholders-penalty) - dayImbalance(classes),
	}
}

// place tries every (days, time, room) combination under the attempt's
// rotation and commits the first one free of conflicts.
func (s *optionState) place(courseCode, section, faculty string, choices []dayTimeChoice, rooms []Room, attempt, capacity int) (models.ClassSection, int, bool) {
	if len(choices) == 0 || len(rooms) == 0 {
		return models.ClassSection{}, 0, false
	}
	roomOffset := attempt % len(rooms)
	choiceOffset := (attempt / len(rooms)) % len(choices)

	for i := range choices {
		choice := choices[(i+choiceOffset)%len(choices)]
		for j := range rooms {
			room := rooms[(j+roomOffset)%len(rooms)]
			candidate := models.ClassSection{
				CourseCode:  courseCode,
				Section:     section,
				Faculty:     faculty,
				Days:        choice.days,
				Time:        choice.time,
				Room:        room.Code,
				MaxCapacity: capacity,
			}
			if s.occupied(candidate) {
				continue
			}
			s.placed = append(s.placed, candidate)
			return candidate, choice.rank, true
		}
	}
	return models.ClassSection{}, 0, false
}

func theoryChoices(pref models.InstructorPreference) []dayTimeChoice {
	return crossChoices(normalizeDayTokens(pref.PreferredDays), pref.AvailableTimes)
}

func labChoices(pref models.InstructorPreference) []dayTimeChoice {
	return crossChoices(EncodeLabDays(pref.LabDays), pref.LabTimes)
}

// crossChoices builds days × times in preference order; rank grows with the
// position of each component.
func crossChoices(days, times []string) []dayTimeChoice {
	cleanTimes := make([]string, 0, len(times))
	seen := make(map[string]bool, len(times))
	for _, t := range times {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		cleanTimes = append(cleanTimes, t)
	}

	choices := make([]dayTimeChoice, 0, len(days)*len(cleanTimes))
	for di, d := range days {
		for ti, t := range cleanTimes {
			choices = append(choices, dayTimeChoice{days: d, time: t, rank: di + ti})
		}
	}
	return choices
}

func placeholder(req sectionRequest, faculty string, capacity int) models.ClassSection {
	return models.ClassSection{
		CourseCode:      models.PlaceholderCourseCode,
		Section:         req.section,
		Faculty:         faculty,
		Room:            models.PlaceholderRoom,
		MaxCapacity:     capacity,
		Conflict:        true,
		RequestedCourse: req.courseCode,
	}
}

func displayCourse(code string) string {
	if code == "" {
		return "course"
	}
	return code
}

// dayImbalance is the spread between the busiest and quietest weekday.
func dayImbalance(classes []models.ClassSection) float64 {
	load := make(map[string]int, len(dayOrder))
	for day := range dayOrder {
		load[day] = 0
	}
	for _, class := range classes {
		if class.IsPlaceholder() {
			continue
		}
		for _, day := range ExpandDays(class.Days) {
			load[day]++
		}
	}
	lo, hi := -1, 0
	for _, count := range load {
		if lo < 0 || count < lo {
			lo = count
		}
		if count > hi {
			hi = count
		}
	}
	return float64(hi - lo)
}

func optionSignature(option models.ScheduleOption) string {
	var b strings.Builder
	for _, class := range option.Classes {
		fmt.Fprintf(&b, "%s|%s|%s|%s|%s|%s|%t;", class.CourseCode, class.Section, class.Faculty, class.Days, class.Time, class.Room, class.Conflict)
	}
	return b.String()
}
