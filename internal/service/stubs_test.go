package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"path"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

type sqlmockTx struct {
	db *sqlx.DB
}

func (p *sqlmockTx) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return p.db.BeginTxx(ctx, opts)
}

// newTxMock returns a transaction provider whose BEGIN/COMMIT/ROLLBACK are asserted by sqlmock.
func newTxMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &sqlmockTx{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func strPtr(v string) *string {
	return &v
}

func intPtr(v int) *int {
	return &v
}

type directoryStub struct {
	studentsByCode map[string]*models.Student
	studentsByID   map[string]*models.Student
	teachersByCode map[string]*models.Teacher
	teachersByUser map[string]*models.Teacher
	classes        map[string]*models.Class
	resolveErr     error
}

func newDirectoryStub() *directoryStub {
	return &directoryStub{
		studentsByCode: map[string]*models.Student{},
		studentsByID:   map[string]*models.Student{},
		teachersByCode: map[string]*models.Teacher{},
		teachersByUser: map[string]*models.Teacher{},
		classes:        map[string]*models.Class{},
	}
}

func (d *directoryStub) addStudent(student models.Student) {
	d.studentsByCode[student.StudentCode] = &student
	d.studentsByID[student.ID] = &student
}

func (d *directoryStub) addTeacher(teacher models.Teacher) {
	d.teachersByCode[teacher.EmployeeCode] = &teacher
	if teacher.UserID != nil {
		d.teachersByUser[*teacher.UserID] = &teacher
	}
}

func (d *directoryStub) ResolveStudentCodes(_ context.Context, _ sqlx.ExtContext, codes []string) (map[string]string, error) {
	if d.resolveErr != nil {
		return nil, d.resolveErr
	}
	resolved := map[string]string{}
	for _, code := range codes {
		if student, ok := d.studentsByCode[code]; ok {
			resolved[code] = student.ID
		}
	}
	return resolved, nil
}

func (d *directoryStub) FindStudentByCode(_ context.Context, _ sqlx.ExtContext, code string) (*models.Student, error) {
	if student, ok := d.studentsByCode[code]; ok {
		copied := *student
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (d *directoryStub) FindStudentByID(_ context.Context, id string) (*models.Student, error) {
	if student, ok := d.studentsByID[id]; ok {
		copied := *student
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (d *directoryStub) FindTeacherByCode(_ context.Context, _ sqlx.ExtContext, code string) (*models.Teacher, error) {
	if teacher, ok := d.teachersByCode[code]; ok {
		return teacher, nil
	}
	return nil, sql.ErrNoRows
}

func (d *directoryStub) FindTeacherByUserID(_ context.Context, userID string) (*models.Teacher, error) {
	if teacher, ok := d.teachersByUser[userID]; ok {
		return teacher, nil
	}
	return nil, sql.ErrNoRows
}

func (d *directoryStub) FindClass(_ context.Context, _ sqlx.ExtContext, id string) (*models.Class, error) {
	if class, ok := d.classes[id]; ok {
		return class, nil
	}
	return nil, sql.ErrNoRows
}

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *memoryCacheRepo) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

func (m *memoryCacheRepo) Ping(context.Context) error {
	return nil
}
