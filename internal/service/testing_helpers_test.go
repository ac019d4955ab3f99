package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/campus-appeals-api/internal/database"
	"github.com/noah-isme/campus-appeals-api/internal/models"
	"github.com/noah-isme/campus-appeals-api/internal/repository"
	"github.com/noah-isme/campus-appeals-api/pkg/storage"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// fixture seeds users and academic data shared by the complaint service tests.
type fixture struct {
	db *gorm.DB

	roles map[string]models.Role

	student  models.User
	leader   models.User
	outsider models.User
	teacher  models.User
	admin    models.User
	faculty  models.User

	classA models.Classroom
	classB models.Classroom
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupServiceDB(t)
	f := &fixture{db: db, roles: map[string]models.Role{}}

	for _, name := range []string{"Student", "Teacher", "Admin", "Exam Officer", "Faculty"} {
		role := models.Role{Name: name}
		require.NoError(t, db.Create(&role).Error)
		f.roles[models.NormalizeRole(name)] = role
	}

	f.student = f.user(t, models.RoleStudent, "student")
	f.leader = f.user(t, models.RoleStudent, "leader")
	f.outsider = f.user(t, models.RoleStudent, "outsider")
	f.teacher = f.user(t, models.RoleTeacher, "teacher")
	f.admin = f.user(t, models.RoleAdmin, "admin")
	f.faculty = f.user(t, models.RoleFaculty, "faculty")

	for _, u := range []models.User{f.student, f.leader, f.outsider} {
		require.NoError(t, db.Create(&models.Student{UserID: u.ID, StudentNo: "S-" + u.Username, Name: u.FullName}).Error)
	}

	f.classA = models.Classroom{ClsNo: "A", Name: "Class A", AcademicYear: "2026"}
	f.classB = models.Classroom{ClsNo: "B", Name: "Class B", AcademicYear: "2026"}
	require.NoError(t, db.Create(&f.classA).Error)
	require.NoError(t, db.Create(&f.classB).Error)

	require.NoError(t, db.Create(&models.ClassEnrollment{ClassroomID: f.classA.ID, UserID: f.student.ID}).Error)
	require.NoError(t, db.Create(&models.ClassEnrollment{ClassroomID: f.classA.ID, UserID: f.leader.ID}).Error)
	require.NoError(t, db.Create(&models.ClassEnrollment{ClassroomID: f.classB.ID, UserID: f.outsider.ID}).Error)
	require.NoError(t, db.Create(&models.ClassLeader{ClassroomID: f.classA.ID, UserID: f.leader.ID}).Error)
	require.NoError(t, db.Create(&models.ClassTeacher{ClassroomID: f.classA.ID, UserID: f.teacher.ID}).Error)

	return f
}

func (f *fixture) user(t *testing.T, role, username string) models.User {
	t.Helper()
	user := models.User{
		Username:   username,
		FullName:   username + " name",
		SecretHash: "hash",
		RoleID:     f.roles[role].ID,
		Status:     models.UserStatusActive,
	}
	require.NoError(t, f.db.Create(&user).Error)
	return user
}

func (f *fixture) actor(user models.User) Actor {
	for _, role := range f.roles {
		if role.ID == user.RoleID {
			return NewActor(user.ID, role.Name, "session-"+user.Username, models.ChannelWeb)
		}
	}
	return Actor{ID: user.ID}
}

// ledger wires a ledger over every complaint repository of the fixture database.
func (f *fixture) ledger(publisher EventPublisher) LedgerService {
	return NewLedgerService(LedgerDependencies{
		Transactor:    repository.NewTransactor(f.db),
		Entries:       repository.NewStatusLedgerRepository(f.db),
		Assignments:   repository.NewComplaintAssignmentRepository(f.db),
		Notifications: repository.NewNotificationRepository(f.db),
		Locators: map[models.ComplaintType]ComplaintLocator{
			models.ComplaintClassIssue: repository.NewClassIssueRepository(f.db),
			models.ComplaintCampusEnv:  repository.NewCampusIssueRepository(f.db),
			models.ComplaintExamAppeal: repository.NewExamAppealRepository(f.db),
		},
		Publisher: publisher,
	}, testLogger())
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []StatusChangedEvent
	err    error
}

func (p *recordingPublisher) PublishStatusChanged(ctx context.Context, event StatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failAt  int
	saves   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (m *memoryStore) Save(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failAt > 0 && m.saves == m.failAt {
		return fmt.Errorf("store unavailable")
	}
	payload, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.objects[key] = payload
	return nil
}

func (m *memoryStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"images\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content)) + 1024)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["images"]
	require.Len(t, files, 1)
	return files[0]
}
