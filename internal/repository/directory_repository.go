package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-records-api/internal/models"
)

// DirectoryRepository resolves human-readable codes to internal identities.
// It never writes; master data is maintained elsewhere.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository constructs the repository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ResolveStudentCodes maps each known student code to its id. Unknown codes are absent from the map.
func (r *DirectoryRepository) ResolveStudentCodes(ctx context.Context, exec sqlx.ExtContext, codes []string) (map[string]string, error) {
	resolved := make(map[string]string, len(codes))
	if len(codes) == 0 {
		return resolved, nil
	}
	const query = `SELECT id, student_code FROM students WHERE student_code = ANY($1)`
	var rows []models.StudentRef
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rows, query, pq.Array(codes)); err != nil {
		return nil, fmt.Errorf("resolve student codes: %w", err)
	}
	for _, row := range rows {
		resolved[row.StudentCode] = row.ID
	}
	return resolved, nil
}

// FindStudentByCode returns sql.ErrNoRows when the code is unknown.
func (r *DirectoryRepository) FindStudentByCode(ctx context.Context, exec sqlx.ExtContext, code string) (*models.Student, error) {
	const query = `SELECT id, student_code, full_name, class_id, behavior_score, active FROM students WHERE student_code = $1`
	var student models.Student
	if err := sqlx.GetContext(ctx, r.exec(exec), &student, query, code); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindStudentByID returns sql.ErrNoRows when the id is unknown.
func (r *DirectoryRepository) FindStudentByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, student_code, full_name, class_id, behavior_score, active FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindTeacherByCode looks a teacher up by employee code.
func (r *DirectoryRepository) FindTeacherByCode(ctx context.Context, exec sqlx.ExtContext, code string) (*models.Teacher, error) {
	const query = `SELECT id, employee_code, full_name, user_id FROM teachers WHERE employee_code = $1`
	var teacher models.Teacher
	if err := sqlx.GetContext(ctx, r.exec(exec), &teacher, query, code); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindTeacherByUserID links an authenticated user to their staff record.
func (r *DirectoryRepository) FindTeacherByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	const query = `SELECT id, employee_code, full_name, user_id FROM teachers WHERE user_id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, userID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *DirectoryRepository) FindClass(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Class, error) {
	const query = `SELECT id, name, grade, section FROM classes WHERE id = $1`
	var class models.Class
	if err := sqlx.GetContext(ctx, r.exec(exec), &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}
