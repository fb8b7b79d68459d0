package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-scheduler-api/internal/models"
)

// Backing table:
//
//	CREATE TABLE class_sections (
//	    id            UUID PRIMARY KEY,
//	    course_code   VARCHAR(20)  NOT NULL,
//	    section       VARCHAR(4)   NOT NULL,
//	    faculty       VARCHAR(120) NOT NULL,
//	    days          VARCHAR(4)   NOT NULL,
//	    time          VARCHAR(32)  NOT NULL,
//	    room          VARCHAR(16)  NOT NULL,
//	    max_capacity  INT          NOT NULL DEFAULT 0,
//	    enrolled      INT          NOT NULL DEFAULT 0,
//	    created_at    TIMESTAMPTZ  NOT NULL,
//	    updated_at    TIMESTAMPTZ  NOT NULL,
//	    UNIQUE (course_code, section)
//	);
const classSectionColumns = "id, course_code, section, faculty, days, time, room, max_capacity, enrolled, created_at, updated_at"

const insertClassSection = `INSERT INTO class_sections (id, course_code, section, faculty, days, time, room, max_capacity, enrolled, created_at, updated_at) VALUES (:id, :course_code, :section, :faculty, :days, :time, :room, :max_capacity, :enrolled, :created_at, :updated_at)`

// ClassSectionRepository manages persistence for class sections.
type ClassSectionRepository struct {
	db *sqlx.DB
}

// NewClassSectionRepository constructs a class section repository.
func NewClassSectionRepository(db *sqlx.DB) *ClassSectionRepository {
	return &ClassSectionRepository{db: db}
}

// List returns class sections matching filter criteria.
func (r *ClassSectionRepository) List(ctx context.Context, filter models.ClassSectionFilter) ([]models.ClassSection, int, error) {
	base := "FROM class_sections WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CourseCode != "" {
		conditions = append(conditions, fmt.Sprintf("UPPER(course_code) LIKE $%d", len(args)+1))
		args = append(args, strings.ToUpper(filter.CourseCode)+"%")
	}
	if filter.Faculty != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(faculty) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Faculty)+"%")
	}
	if filter.Days != "" {
		conditions = append(conditions, fmt.Sprintf("days = $%d", len(args)+1))
		args = append(args, strings.ToUpper(filter.Days))
	}
	if filter.Time != "" {
		conditions = append(conditions, fmt.Sprintf("time = $%d", len(args)+1))
		args = append(args, filter.Time)
	}
	if filter.Room != "" {
		conditions = append(conditions, fmt.Sprintf("UPPER(room) = $%d", len(args)+1))
		args = append(args, strings.ToUpper(filter.Room))
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"course_code": true,
		"section":     true,
		"faculty":     true,
		"days":        true,
		"room":        true,
		"created_at":  true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "course_code"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, section ASC LIMIT %d OFFSET %d", classSectionColumns, base, sortBy, order, size, offset)
	var classes []models.ClassSection
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list class sections: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count class sections: %w", err)
	}
	return classes, total, nil
}

// ListAll returns every class section; it is the snapshot used for conflict checks.
func (r *ClassSectionRepository) ListAll(ctx context.Context) ([]models.ClassSection, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sections ORDER BY course_code, section", classSectionColumns)
	var classes []models.ClassSection
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list all class sections: %w", err)
	}
	return classes, nil
}

// FindByID returns a class section by ID.
func (r *ClassSectionRepository) FindByID(ctx context.Context, id string) (*models.ClassSection, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sections WHERE id = $1", classSectionColumns)
	var class models.ClassSection
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create persists a class section.
func (r *ClassSectionRepository) Create(ctx context.Context, class *models.ClassSection) error {
	stampNew(class, time.Now().UTC())
	if _, err := r.db.NamedExecContext(ctx, insertClassSection, class); err != nil {
		return fmt.Errorf("create class section: %w", err)
	}
	return nil
}

// Update modifies a class section. It returns sql.ErrNoRows when the id is unknown.
func (r *ClassSectionRepository) Update(ctx context.Context, class *models.ClassSection) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_sections SET course_code = :course_code, section = :section, faculty = :faculty, days = :days, time = :time, room = :room, max_capacity = :max_capacity, enrolled = :enrolled, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, class)
	if err != nil {
		return fmt.Errorf("update class section: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a class section. It returns sql.ErrNoRows when the id is unknown.
func (r *ClassSectionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM class_sections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete class section: %w", err)
	}
	return requireAffected(res)
}

// BulkCreateWithTx inserts class sections in order using an existing
// transaction and annotates each element with its assigned id.
func (r *ClassSectionRepository) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, classes []models.ClassSection) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	now := time.Now().UTC()
	for i := range classes {
		payload := classes[i]
		stampNew(&payload, now)
		if _, err := sqlx.NamedExecContext(ctx, tx, insertClassSection, &payload); err != nil {
			return fmt.Errorf("bulk insert class section %s-%s: %w", payload.CourseCode, payload.Section, err)
		}
		classes[i] = payload
	}
	return nil
}

func stampNew(class *models.ClassSection, now time.Time) {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
