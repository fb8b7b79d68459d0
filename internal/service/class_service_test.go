package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-scheduler-api/internal/dto"
	"github.com/noah-isme/class-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/class-scheduler-api/pkg/errors"
)

const slotOne = "08:00 AM - 09:30 AM"

type classRepoStub struct {
	mu      sync.Mutex
	items   []models.ClassSection
	listErr error
	created []models.ClassSection
	seq     int
}

func (r *classRepoStub) List(ctx context.Context, filter models.ClassSectionFilter) ([]models.ClassSection, int, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	return r.items, len(r.items), nil
}

func (r *classRepoStub) ListAll(ctx context.Context) ([]models.ClassSection, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ClassSection(nil), r.items...), nil
}

func (r *classRepoStub) FindByID(ctx context.Context, id string) (*models.ClassSection, error) {
	for _, item := range r.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *classRepoStub) Create(ctx context.Context, class *models.ClassSection) error {
	r.seq++
	class.ID = fmt.Sprintf("class-%d", r.seq)
	r.items = append(r.items, *class)
	r.created = append(r.created, *class)
	return nil
}

func (r *classRepoStub) Update(ctx context.Context, class *models.ClassSection) error {
	for i := range r.items {
		if r.items[i].ID == class.ID {
			r.items[i] = *class
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *classRepoStub) Delete(ctx context.Context, id string) error {
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *classRepoStub) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, classes []models.ClassSection) error {
	if tx == nil {
		return errors.New("nil transaction provided")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range classes {
		r.seq++
		classes[i].ID = fmt.Sprintf("class-%d", r.seq)
		r.items = append(r.items, classes[i])
		r.created = append(r.created, classes[i])
	}
	return nil
}

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type recordingEmitter struct {
	types    []string
	payloads []interface{}
	err      error
}

func (e *recordingEmitter) Emit(eventType string, payload interface{}) error {
	e.types = append(e.types, eventType)
	e.payloads = append(e.payloads, payload)
	return e.err
}

func newClassServiceFixture(t *testing.T, repo *classRepoStub, tx txProvider, emitter eventEmitter) *ClassService {
	t.Helper()
	if emitter == nil {
		emitter = &recordingEmitter{}
	}
	return NewClassService(repo, tx, nil, NewMetricsService(), emitter, nil, nil, ClassServiceConfig{})
}

func seededClasses() []models.ClassSection {
	return []models.ClassSection{
		{ID: "c-1", CourseCode: "CSE101", Section: "01", Faculty: "Dr. Rahman", Days: "ST", Time: slotOne, Room: "ARC201", MaxCapacity: 40},
		{ID: "c-2", CourseCode: "MAT110", Section: "01", Faculty: "Dr. Karim", Days: "MW", Time: slotOne, Room: "ARC202", MaxCapacity: 40},
	}
}

func validClassRequest() dto.ClassSectionRequest {
	return dto.ClassSectionRequest{
		CourseCode: " cse102 ",
		Section:    "1",
		Faculty:    "  Dr.   Lee ",
		Days:       "st",
		Time:       "2",
		Room:       "arc203",
	}
}

func TestClassServiceCreateNormalisesInput(t *testing.T) {
	repo := &classRepoStub{items: seededClasses()}
	emitter := &recordingEmitter{}
	svc := newClassServiceFixture(t, repo, nil, emitter)

	class, err := svc.Create(context.Background(), validClassRequest())
	require.NoError(t, err)
	assert.Equal(t, "CSE102", class.CourseCode)
	assert.Equal(t, "01", class.Section)
	assert.Equal(t, "Dr. Lee", class.Faculty)
	assert.Equal(t, "ST", class.Days)
	assert.Equal(t, "09:40 AM - 11:10 AM", class.Time)
	assert.Equal(t, "ARC203", class.Room)
	assert.Equal(t, 40, class.MaxCapacity)
	assert.NotEmpty(t, class.ID)
	assert.Equal(t, []string{"class_sections.created"}, emitter.types)
}

func TestClassServiceCreateRejectsRoomConflict(t *testing.T) {
	repo := &classRepoStub{items: seededClasses()}
	svc := newClassServiceFixture(t, repo, nil, nil)

	req := validClassRequest()
	req.Time = slotOne
	req.Room = "ARC201"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	var conflict *models.ClassConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "room", conflict.Conflict.Type)
	assert.Equal(t, "c-1", conflict.Conflict.With.ID)
	assert.Len(t, repo.created, 0)
}

func TestClassServiceCreateEnforcesRoomUniverse(t *testing.T) {
	svc := newClassServiceFixture(t, &classRepoStub{}, nil, nil)

	req := validClassRequest()
	req.Room = "LIB601"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	lab := validClassRequest()
	lab.CourseCode = "CSE102L"
	lab.Days = "S"
	lab.Time = "L1"
	_, err = svc.Create(context.Background(), lab)
	require.Error(t, err, "lab sections must use LIB rooms")

	lab.Room = "LIB601"
	class, err := svc.Create(context.Background(), lab)
	require.NoError(t, err)
	assert.Equal(t, "08:00 AM - 11:10 AM", class.Time)

	theory := validClassRequest()
	theory.Days = "S"
	_, err = svc.Create(context.Background(), theory)
	require.Error(t, err, "single days are reserved for labs")
}

func TestClassServiceUpdateExcludesSelf(t *testing.T) {
	repo := &classRepoStub{items: seededClasses()}
	svc := newClassServiceFixture(t, repo, nil, nil)

	req := dto.ClassSectionRequest{CourseCode: "CSE101", Section: "01", Faculty: "Dr. Rahman", Days: "ST", Time: slotOne, Room: "ARC201", MaxCapacity: 45}
	class, err := svc.Update(context.Background(), "c-1", req)
	require.NoError(t, err)
	assert.Equal(t, 45, class.MaxCapacity)

	_, err = svc.Update(context.Background(), "missing", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassServiceDeleteMapsNotFound(t *testing.T) {
	repo := &classRepoStub{items: seededClasses()}
	svc := newClassServiceFixture(t, repo, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "c-2"))
	err := svc.Delete(context.Background(), "c-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassServiceBulkCreatePreservesOrder(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	repo := &classRepoStub{items: seededClasses()}
	svc := newClassServiceFixture(t, repo, tx, nil)

	first := validClassRequest()
	second := validClassRequest()
	second.Section = "02"
	second.Time = "3"
	created, err := svc.BulkCreate(context.Background(), dto.BulkCreateClassesRequest{Classes: []dto.ClassSectionRequest{first, second}})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "01", created[0].Section)
	assert.Equal(t, "02", created[1].Section)
	assert.NotEmpty(t, created[0].ID)
	assert.NotEqual(t, created[0].ID, created[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassServiceBulkCreateRejectsIntraBatchConflict(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	repo := &classRepoStub{items: seededClasses()}
	svc := newClassServiceFixture(t, repo, tx, nil)

	first := validClassRequest()
	second := validClassRequest()
	second.Section = "02"
	second.Room = "ARC204"
	_, err := svc.BulkCreate(context.Background(), dto.BulkCreateClassesRequest{Classes: []dto.ClassSectionRequest{first, second}})
	require.Error(t, err)

	var conflict *models.ClassConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "instructor", conflict.Conflict.Type)
	assert.Empty(t, repo.created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassServiceBulkCreateReportsItemIndexOnValidation(t *testing.T) {
	svc := newClassServiceFixture(t, &classRepoStub{}, nil, nil)
	bad := validClassRequest()
	bad.Days = "XY"
	_, err := svc.BulkCreate(context.Background(), dto.BulkCreateClassesRequest{Classes: []dto.ClassSectionRequest{validClassRequest(), bad}})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(appErrors.FromError(err).Message, "classes[1]"), appErrors.FromError(err).Message)
}

func TestClassServiceCheckConflict(t *testing.T) {
	svc := newClassServiceFixture(t, &classRepoStub{items: seededClasses()}, nil, nil)

	resp, err := svc.CheckConflict(context.Background(), dto.ClassConflictProbe{Faculty: "dr. rahman", Days: "ST", Time: "1"})
	require.NoError(t, err)
	assert.False(t, resp.Available)
	assert.Equal(t, "instructor", resp.Type)
	assert.NotEmpty(t, resp.Message)

	resp, err = svc.CheckConflict(context.Background(), dto.ClassConflictProbe{Faculty: "dr. rahman", Days: "ST", Time: "1", ExcludeID: "c-1"})
	require.NoError(t, err)
	assert.True(t, resp.Available)

	_, err = svc.CheckConflict(context.Background(), dto.ClassConflictProbe{Days: "ST"})
	require.Error(t, err)
}

func TestClassServiceAvailableSections(t *testing.T) {
	items := make([]models.ClassSection, 0, 10)
	for i := 1; i <= 10; i++ {
		items = append(items, models.ClassSection{ID: fmt.Sprintf("c-%d", i), CourseCode: "CSE101", Section: fmt.Sprintf("%02d", i)})
	}
	svc := newClassServiceFixture(t, &classRepoStub{items: items}, nil, nil)

	resp, err := svc.AvailableSections(context.Background(), "cse101")
	require.NoError(t, err)
	assert.True(t, resp.AllStandardOccupied)
	assert.Empty(t, resp.AvailableSections)
	assert.Equal(t, "11", resp.NextManualSection)

	resp, err = svc.AvailableSections(context.Background(), "MAT110")
	require.NoError(t, err)
	assert.Len(t, resp.AvailableSections, 10)
	assert.Empty(t, resp.NextManualSection)
}

func TestClassServiceAvailableRooms(t *testing.T) {
	svc := newClassServiceFixture(t, &classRepoStub{items: seededClasses()}, nil, nil)

	rooms, err := svc.AvailableRooms(context.Background(), dto.AvailableRoomsQuery{Days: "st", Time: "1"})
	require.NoError(t, err)
	require.NotEmpty(t, rooms)
	for _, room := range rooms {
		if room.Room == "ARC201" {
			assert.True(t, room.Occupied)
		}
		if strings.HasPrefix(room.Room, "LIB") {
			assert.False(t, room.Allowed)
		}
	}
}

func TestClassServiceListCachesPages(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	repo := &classRepoStub{items: seededClasses()}
	svc := NewClassService(repo, nil, NewCacheService(cacheRepo, nil, 0, nil, true), nil, nil, nil, nil, ClassServiceConfig{})
	filter := models.ClassSectionFilter{CourseCode: "CSE"}

	items, pagination, hit, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, items, 2)
	assert.Equal(t, 50, pagination.PageSize)

	_, _, hit, err = svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.True(t, hit)

	require.NoError(t, svc.Delete(context.Background(), "c-1"))
	_, _, hit, err = svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.False(t, hit, "writes invalidate cached pages")
}

func TestClassServiceImportCSV(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	repo := &classRepoStub{}
	svc := newClassServiceFixture(t, repo, tx, nil)

	payload := "course_code,section,faculty,days,time,room,max_capacity,enrolled\n" +
		"cse101,1,Dr. Rahman,st,08:00 AM - 09:30 AM,arc201,35,0\n" +
		"cse101l,1,Dr. Rahman,s,01:00 PM - 04:10 PM,lib601,20,0\n"
	created, err := svc.ImportCSV(context.Background(), strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "CSE101L", created[1].CourseCode)
	assert.Equal(t, 35, created[0].MaxCapacity)
	require.NoError(t, mock.ExpectationsWereMet())

	_, err = svc.ImportCSV(context.Background(), strings.NewReader("course_code\n"))
	require.Error(t, err)
}

func TestClassServiceSnapshotFilters(t *testing.T) {
	svc := newClassServiceFixture(t, &classRepoStub{items: seededClasses()}, nil, nil)
	classes, err := svc.Snapshot(context.Background(), models.ClassSectionFilter{Faculty: "karim"})
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "c-2", classes[0].ID)
}

func TestClassServiceCreateRejectsTimesOutsideCatalog(t *testing.T) {
	repo := &classRepoStub{items: seededClasses()}
	svc := newClassServiceFixture(t, repo, nil, nil)

	for _, value := range []string{"banana", "07:00 AM - 07:30 AM", "L1"} {
		req := validClassRequest()
		req.Time = value
		_, err := svc.Create(context.Background(), req)
		require.Error(t, err, value)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code, value)
	}
	assert.Empty(t, repo.created)
}

func TestClassServiceCreateCanonicalisesLabelSpacing(t *testing.T) {
	repo := &classRepoStub{items: seededClasses()}
	svc := newClassServiceFixture(t, repo, nil, nil)

	req := dto.ClassSectionRequest{CourseCode: "CSE300", Section: "01", Faculty: "Dr. Rahman", Days: "ST", Time: "08:00 AM-09:30 AM", Room: "ARC201"}
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	var conflict *models.ClassConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "room", conflict.Conflict.Type)
	assert.Equal(t, "c-1", conflict.Conflict.With.ID)

	req.Room = "ARC204"
	req.Faculty = "Dr. Lee"
	class, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, slotOne, class.Time)
}

func TestClassServiceRejectsDuplicateSectionNumber(t *testing.T) {
	repo := &classRepoStub{items: seededClasses()}
	svc := newClassServiceFixture(t, repo, nil, nil)

	req := dto.ClassSectionRequest{CourseCode: "cse101", Section: "1", Faculty: "Dr. Lee", Days: "MW", Time: "3", Room: "ARC204"}
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	var conflict *models.ClassConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "section", conflict.Conflict.Type)
	assert.Equal(t, "c-1", conflict.Conflict.With.ID)

	_, err = svc.Update(context.Background(), "c-1", req)
	require.NoError(t, err, "a section keeps its own number on update")

	moved := req
	moved.CourseCode = "MAT110"
	_, err = svc.Update(context.Background(), "c-1", moved)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrConflict.Code))
}

func TestClassServiceBulkCreateRejectsDuplicateSectionInBatch(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	repo := &classRepoStub{}
	svc := newClassServiceFixture(t, repo, tx, nil)

	first := validClassRequest()
	second := validClassRequest()
	second.Faculty = "Dr. Karim"
	second.Time = "4"
	second.Room = "ARC204"
	_, err := svc.BulkCreate(context.Background(), dto.BulkCreateClassesRequest{Classes: []dto.ClassSectionRequest{first, second}})
	require.Error(t, err)

	var conflict *models.ClassConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "section", conflict.Conflict.Type)
	assert.Empty(t, repo.created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassServiceConflictAndRoomQueriesRejectUnknownTimes(t *testing.T) {
	svc := newClassServiceFixture(t, &classRepoStub{items: seededClasses()}, nil, nil)

	_, err := svc.CheckConflict(context.Background(), dto.ClassConflictProbe{Faculty: "Dr. Rahman", Days: "ST", Time: "banana"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	resp, err := svc.CheckConflict(context.Background(), dto.ClassConflictProbe{Faculty: "dr. rahman", Days: "ST", Time: "08:00 AM-09:30 AM"})
	require.NoError(t, err)
	assert.False(t, resp.Available)

	_, err = svc.AvailableRooms(context.Background(), dto.AvailableRoomsQuery{Days: "ST", Time: "L1"})
	require.Error(t, err, "theory room lookups need a standard slot")

	rooms, err := svc.AvailableRooms(context.Background(), dto.AvailableRoomsQuery{Days: "S", Time: "L1", IsLab: true})
	require.NoError(t, err)
	assert.NotEmpty(t, rooms)
}
