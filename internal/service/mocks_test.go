package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/pkg/database"
	appErrors "github.com/noah-isme/sma-fee-tracker/pkg/errors"
)

func superadmin() *models.JWTClaims {
	return &models.JWTClaims{UserID: "root", Role: models.RoleSuperAdmin}
}

func adminOf(schoolID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-" + schoolID, Role: models.RoleAdmin, SchoolID: schoolID}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

type mockSchoolRepo struct {
	schools  map[string]*models.School
	order    []string
	allCalls int
	allErr   error
}

func newMockSchoolRepo(schools ...models.School) *mockSchoolRepo {
	m := &mockSchoolRepo{schools: map[string]*models.School{}}
	for i := range schools {
		sc := schools[i]
		m.schools[sc.ID] = &sc
		m.order = append(m.order, sc.ID)
	}
	return m
}

func (m *mockSchoolRepo) All(ctx context.Context, scope models.Scope) ([]models.School, error) {
	m.allCalls++
	if m.allErr != nil {
		return nil, m.allErr
	}
	out := make([]models.School, 0, len(m.order))
	for _, id := range m.order {
		sc := m.schools[id]
		if scope.SchoolID != "" && sc.ID != scope.SchoolID {
			continue
		}
		out = append(out, *sc)
	}
	return out, nil
}

func (m *mockSchoolRepo) FindByID(ctx context.Context, id string) (*models.School, error) {
	sc, ok := m.schools[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *sc
	return &cp, nil
}

func (m *mockSchoolRepo) Create(ctx context.Context, school *models.School) error {
	for _, existing := range m.schools {
		if existing.Code == school.Code {
			return database.ErrDuplicateKey
		}
	}
	if school.ID == "" {
		school.ID = "school-" + strings.ToLower(school.Code)
	}
	cp := *school
	m.schools[school.ID] = &cp
	m.order = append(m.order, school.ID)
	return nil
}

func (m *mockSchoolRepo) Update(ctx context.Context, school *models.School) error {
	if _, ok := m.schools[school.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *school
	m.schools[school.ID] = &cp
	return nil
}

func (m *mockSchoolRepo) Deactivate(ctx context.Context, id string) error {
	sc, ok := m.schools[id]
	if !ok {
		return sql.ErrNoRows
	}
	sc.Active = false
	return nil
}

type mockStudentRepo struct {
	students map[string]*models.StudentDetail
	order    []string
	schools  *mockSchoolRepo
}

func newMockStudentRepo(schools *mockSchoolRepo, students ...models.Student) *mockStudentRepo {
	m := &mockStudentRepo{students: map[string]*models.StudentDetail{}, schools: schools}
	for _, st := range students {
		_ = m.Create(context.Background(), &st)
	}
	return m
}

func (m *mockStudentRepo) detail(st models.Student) *models.StudentDetail {
	d := &models.StudentDetail{Student: st}
	if sc, ok := m.schools.schools[st.SchoolID]; ok {
		d.School = models.SchoolRef{ID: sc.ID, Code: sc.Code, Name: sc.Name}
	}
	return d
}

func (m *mockStudentRepo) All(ctx context.Context, scope models.Scope) ([]models.StudentDetail, error) {
	out := make([]models.StudentDetail, 0, len(m.order))
	for _, id := range m.order {
		st := m.students[id]
		if scope.SchoolID != "" && st.SchoolID != scope.SchoolID {
			continue
		}
		out = append(out, *st)
	}
	return out, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	st, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *st
	return &cp, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	for _, existing := range m.students {
		if existing.SchoolID == student.SchoolID && existing.NIS == student.NIS {
			return database.ErrDuplicateKey
		}
	}
	if student.ID == "" {
		student.ID = "student-" + student.NIS
	}
	m.students[student.ID] = m.detail(*student)
	m.order = append(m.order, student.ID)
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	if _, ok := m.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	m.students[student.ID] = m.detail(*student)
	return nil
}

func (m *mockStudentRepo) Deactivate(ctx context.Context, id string) error {
	st, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	st.Active = false
	return nil
}

type mockPeriodRepo struct {
	periods map[string]*models.PaymentPeriodDetail
}

func newMockPeriodRepo(periods ...models.PaymentPeriod) *mockPeriodRepo {
	m := &mockPeriodRepo{periods: map[string]*models.PaymentPeriodDetail{}}
	for _, p := range periods {
		m.periods[p.ID] = &models.PaymentPeriodDetail{PaymentPeriod: p}
	}
	return m
}

func (m *mockPeriodRepo) All(ctx context.Context, scope models.Scope) ([]models.PaymentPeriodDetail, error) {
	out := make([]models.PaymentPeriodDetail, 0, len(m.periods))
	for _, p := range m.periods {
		if scope.SchoolID != "" && p.SchoolID != scope.SchoolID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockPeriodRepo) FindByID(ctx context.Context, id string) (*models.PaymentPeriodDetail, error) {
	p, ok := m.periods[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockPeriodRepo) Create(ctx context.Context, period *models.PaymentPeriod) error {
	if period.ID == "" {
		period.ID = "period-" + strings.ToLower(strings.ReplaceAll(period.Name, " ", "-"))
	}
	m.periods[period.ID] = &models.PaymentPeriodDetail{PaymentPeriod: *period}
	return nil
}

func (m *mockPeriodRepo) Update(ctx context.Context, period *models.PaymentPeriod) error {
	if _, ok := m.periods[period.ID]; !ok {
		return sql.ErrNoRows
	}
	m.periods[period.ID] = &models.PaymentPeriodDetail{PaymentPeriod: *period}
	return nil
}

func (m *mockPeriodRepo) Deactivate(ctx context.Context, id string) error {
	p, ok := m.periods[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Active = false
	return nil
}

type mockPaymentRepo struct {
	payments map[string]*models.PaymentDetail
	students *mockStudentRepo
	periods  *mockPeriodRepo
	seq      int
	deleted  []string
}

func newMockPaymentRepo(students *mockStudentRepo, periods *mockPeriodRepo) *mockPaymentRepo {
	return &mockPaymentRepo{payments: map[string]*models.PaymentDetail{}, students: students, periods: periods}
}

func (m *mockPaymentRepo) All(ctx context.Context, scope models.Scope) ([]models.PaymentDetail, error) {
	out := make([]models.PaymentDetail, 0, len(m.payments))
	for _, p := range m.payments {
		if scope.SchoolID != "" && p.Student.School.ID != scope.SchoolID {
			continue
		}
		if scope.StudentID != "" && p.StudentID != scope.StudentID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*models.PaymentDetail, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	m.seq++
	if payment.ID == "" {
		payment.ID = "payment-" + string(rune('0'+m.seq))
	}
	payment.ReceiptNumber = "RCP-2024-00000" + string(rune('0'+m.seq))
	payment.CreatedAt = time.Now().UTC()
	detail := &models.PaymentDetail{Payment: *payment}
	if st, ok := m.students.students[payment.StudentID]; ok {
		detail.Student = models.StudentRef{ID: st.ID, NIS: st.NIS, FullName: st.FullName, ClassName: st.ClassName, School: st.School}
	}
	if p, ok := m.periods.periods[payment.PeriodID]; ok {
		detail.Period = models.PeriodRef{ID: p.ID, Name: p.Name, DueOn: p.DueOn}
	}
	m.payments[payment.ID] = detail
	return nil
}

func (m *mockPaymentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.payments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.payments, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockUploadRepo struct {
	uploads   map[string]*models.Upload
	createErr error
}

func newMockUploadRepo() *mockUploadRepo {
	return &mockUploadRepo{uploads: map[string]*models.Upload{}}
}

func (m *mockUploadRepo) All(ctx context.Context, scope models.Scope) ([]models.Upload, error) {
	out := make([]models.Upload, 0, len(m.uploads))
	for _, u := range m.uploads {
		if scope.PaymentID != "" && u.PaymentID != scope.PaymentID {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUploadRepo) FindByID(ctx context.Context, id string) (*models.Upload, error) {
	u, ok := m.uploads[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *mockUploadRepo) Create(ctx context.Context, upload *models.Upload) error {
	if m.createErr != nil {
		return m.createErr
	}
	if upload.ID == "" {
		upload.ID = "upload-" + upload.Checksum[:8]
	}
	upload.CreatedAt = time.Now().UTC()
	cp := *upload
	m.uploads[upload.ID] = &cp
	return nil
}

func (m *mockUploadRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.uploads[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.uploads, id)
	return nil
}

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	m.sets++
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}
