package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-scheduler-api/internal/dto"
	"github.com/noah-isme/class-scheduler-api/internal/models"
	"github.com/noah-isme/class-scheduler-api/internal/scheduler"
	appErrors "github.com/noah-isme/class-scheduler-api/pkg/errors"
)

type classStoreStub struct {
	existing   []models.ClassSection
	persisted  [][]models.ClassSection
	persistErr error
}

func (s *classStoreStub) Existing(ctx context.Context) ([]models.ClassSection, error) {
	return s.existing, nil
}

func (s *classStoreStub) Persist(ctx context.Context, classes []models.ClassSection) ([]models.ClassSection, error) {
	if s.persistErr != nil {
		return nil, s.persistErr
	}
	out := append([]models.ClassSection(nil), classes...)
	for i := range out {
		out[i].ID = "saved-" + out[i].CourseCode + "-" + out[i].Section
	}
	s.persisted = append(s.persisted, out)
	return out, nil
}

func newGeneratorFixture(t *testing.T, classes *classStoreStub, cfg ScheduleGeneratorConfig) (*ScheduleGeneratorService, *recordingEmitter) {
	t.Helper()
	emitter := &recordingEmitter{}
	svc := NewScheduleGeneratorService(classes, nil, NewMetricsService(), emitter, nil, nil, cfg)
	return svc, emitter
}

func singleInstructorRequest() dto.GenerateScheduleRequest {
	return dto.GenerateScheduleRequest{
		Instructors: []dto.InstructorPreferenceRequest{{
			Name:           "Dr. Rahman",
			CourseCode:     "cse101",
			PreferredDays:  []string{"ST"},
			AvailableTimes: []string{"1"},
			MaxSections:    1,
		}},
		TotalSections: 1,
	}
}

func TestScheduleGeneratorServiceGenerateStoresProposal(t *testing.T) {
	svc, _ := newGeneratorFixture(t, &classStoreStub{}, ScheduleGeneratorConfig{ProposalTTL: time.Hour})

	resp, err := svc.Generate(context.Background(), singleInstructorRequest())
	require.NoError(t, err)
	require.Len(t, resp.Schedules, scheduler.OptionCount)
	assert.NotEmpty(t, resp.ProposalID)
	assert.Equal(t, "CSE101", resp.Schedules[0].Classes[0].CourseCode)
	assert.Equal(t, "08:00 AM - 09:30 AM", resp.Schedules[0].Classes[0].Time)
	assert.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, time.Minute)

	proposal, err := svc.GetProposal(context.Background(), resp.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, 1, proposal.TotalSections)
	assert.Len(t, proposal.Schedules, scheduler.OptionCount)
}

func TestScheduleGeneratorServiceGenerateValidation(t *testing.T) {
	svc, _ := newGeneratorFixture(t, &classStoreStub{}, ScheduleGeneratorConfig{MaxInstructors: 1})

	cases := map[string]func(*dto.GenerateScheduleRequest){
		"missing name":       func(r *dto.GenerateScheduleRequest) { r.Instructors[0].Name = "" },
		"empty days":         func(r *dto.GenerateScheduleRequest) { r.Instructors[0].PreferredDays = nil },
		"bad day token":      func(r *dto.GenerateScheduleRequest) { r.Instructors[0].PreferredDays = []string{"SM"} },
		"empty times":        func(r *dto.GenerateScheduleRequest) { r.Instructors[0].AvailableTimes = nil },
		"lab time as theory": func(r *dto.GenerateScheduleRequest) { r.Instructors[0].AvailableTimes = []string{"L1"} },
		"zero sections":      func(r *dto.GenerateScheduleRequest) { r.TotalSections = 0 },
		"too many instructors": func(r *dto.GenerateScheduleRequest) {
			r.Instructors = append(r.Instructors, r.Instructors[0])
		},
		"invalid lab pairing": func(r *dto.GenerateScheduleRequest) {
			r.Instructors[0].HasLab = true
			r.Instructors[0].LabDays = []string{"S", "W"}
			r.Instructors[0].LabTimes = []string{"L4"}
		},
		"lab without times": func(r *dto.GenerateScheduleRequest) {
			r.Instructors[0].HasLab = true
			r.Instructors[0].LabDays = []string{"S"}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := singleInstructorRequest()
			mutate(&req)
			_, err := svc.Generate(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestScheduleGeneratorServiceGenerateReturnsLabWarnings(t *testing.T) {
	svc, _ := newGeneratorFixture(t, &classStoreStub{}, ScheduleGeneratorConfig{})
	req := singleInstructorRequest()
	req.Instructors[0].HasLab = true
	req.Instructors[0].LabDays = []string{"T", "S"}
	req.Instructors[0].LabTimes = []string{"L1"}

	resp, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Warnings)

	proposal, err := svc.GetProposal(context.Background(), resp.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ST"}, proposal.Instructors[0].LabDays)
}

func TestScheduleGeneratorServiceInfeasibleIsNotAnError(t *testing.T) {
	existing := []models.ClassSection{{ID: "x", CourseCode: "MAT110", Section: "01", Faculty: "Dr. Rahman", Days: "ST", Time: "08:00 AM - 09:30 AM", Room: "ARC201"}}
	svc, _ := newGeneratorFixture(t, &classStoreStub{existing: existing}, ScheduleGeneratorConfig{})

	resp, err := svc.Generate(context.Background(), singleInstructorRequest())
	require.NoError(t, err)
	for _, option := range resp.Schedules {
		assert.True(t, option.Conflict)
		assert.Equal(t, models.PlaceholderCourseCode, option.Classes[0].CourseCode)
	}
}

func TestScheduleGeneratorServiceAcceptPersistsPlacedClasses(t *testing.T) {
	classes := &classStoreStub{}
	svc, emitter := newGeneratorFixture(t, classes, ScheduleGeneratorConfig{})
	req := singleInstructorRequest()
	req.TotalSections = 2

	resp, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	accepted, err := svc.Accept(context.Background(), dto.AcceptProposalRequest{ProposalID: resp.ProposalID, Option: 2})
	require.NoError(t, err)
	require.Len(t, accepted.Created, 1)
	assert.Equal(t, 1, accepted.Skipped)
	assert.Equal(t, "saved-CSE101-01", accepted.Created[0].ID)
	assert.Equal(t, []string{"schedules.accepted"}, emitter.types)

	_, err = svc.GetProposal(context.Background(), resp.ProposalID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceAcceptKeepsProposalOnConflict(t *testing.T) {
	conflict := appErrors.Wrap(errors.New("room taken"), appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "room taken")
	classes := &classStoreStub{persistErr: conflict}
	svc, _ := newGeneratorFixture(t, classes, ScheduleGeneratorConfig{})

	resp, err := svc.Generate(context.Background(), singleInstructorRequest())
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), dto.AcceptProposalRequest{ProposalID: resp.ProposalID, Option: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = svc.GetProposal(context.Background(), resp.ProposalID)
	assert.NoError(t, err)
}

func TestScheduleGeneratorServiceAcceptRejectsPlaceholderOnlyOption(t *testing.T) {
	existing := []models.ClassSection{{ID: "x", CourseCode: "MAT110", Section: "01", Faculty: "Dr. Rahman", Days: "ST", Time: "08:00 AM - 09:30 AM", Room: "ARC201"}}
	svc, _ := newGeneratorFixture(t, &classStoreStub{existing: existing}, ScheduleGeneratorConfig{})

	resp, err := svc.Generate(context.Background(), singleInstructorRequest())
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), dto.AcceptProposalRequest{ProposalID: resp.ProposalID, Option: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, err = svc.Accept(context.Background(), dto.AcceptProposalRequest{ProposalID: "unknown", Option: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceValidateLabs(t *testing.T) {
	svc, _ := newGeneratorFixture(t, &classStoreStub{}, ScheduleGeneratorConfig{})

	resp, err := svc.ValidateLabs(context.Background(), dto.ValidateLabsRequest{Instructors: []dto.InstructorPreferenceRequest{
		{Name: "A", CourseCode: "CSE101", PreferredDays: []string{"ST"}, AvailableTimes: []string{"1"}, HasLab: true, LabDays: []string{"s", "t"}, LabTimes: []string{"L1"}},
		{Name: "B", CourseCode: "CSE102", PreferredDays: []string{"MW"}, AvailableTimes: []string{"1"}, HasLab: true, LabDays: []string{"S", "W"}, LabTimes: []string{"L4"}},
		{Name: "C", CourseCode: "CSE103", PreferredDays: []string{"RA"}, AvailableTimes: []string{"1"}},
	}})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	require.Len(t, resp.Results, 3)

	assert.Empty(t, resp.Results[0].LabDayConflict)
	assert.Equal(t, []string{"ST"}, resp.Results[0].EncodedLabDays)
	assert.NotEmpty(t, resp.Results[0].Warnings)

	assert.NotEmpty(t, resp.Results[1].LabDayConflict)
	assert.Empty(t, resp.Results[2].LabDayConflict)
	assert.Empty(t, resp.Results[2].EncodedLabDays)
}
