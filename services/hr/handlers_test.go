package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pavitra93/go-hr-management-system/shared/audit"
	"github.com/pavitra93/go-hr-management-system/shared/models"
	"github.com/pavitra93/go-hr-management-system/shared/store"
	"github.com/pavitra93/go-hr-management-system/shared/testutil"
	"github.com/pavitra93/go-hr-management-system/shared/utils"
)

const testSecret = "0123456789abcdef0123456789abcdef"

const paddedPhone = "1 - 2 - 3 - 4 - 5 - 6 - 7 - 8 - 9 - 0 - 1 - 2 - 3 - 4 - 5"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type memorySink struct {
	mu   sync.Mutex
	rows []models.Log
}

func (m *memorySink) Publish(entry models.Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, entry)
	return nil
}

func (m *memorySink) since(n int) []models.Log {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Log(nil), m.rows[n:]...)
}

func (m *memorySink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type testServer struct {
	db     *gorm.DB
	router *gin.Engine
	sink   *memorySink
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	sink := &memorySink{}
	svc, err := newHRService(
		store.New(db),
		audit.NewLogger(sink),
		utils.NewTokenService(testSecret, "hr-service", 8*time.Hour),
		nil,
		bcrypt.MinCost,
	)
	require.NoError(t, err)

	return &testServer{db: db, router: newRouter(svc, []string{"*"}), sink: sink}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

type session struct {
	Token string
	User  models.UserProfile
}

func (ts *testServer) register(t *testing.T, orgName, email string) session {
	t.Helper()
	w, env := ts.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"orgName":   orgName,
		"adminName": orgName + " Admin",
		"email":     email,
		"password":  "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	return session{Token: resp.Token, User: resp.User}
}

func (ts *testServer) createEmployee(t *testing.T, token string, body gin.H) models.Employee {
	t.Helper()
	w, env := ts.do(t, http.MethodPost, "/employees", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var e models.Employee
	require.NoError(t, json.Unmarshal(env.Data, &e))
	return e
}

func (ts *testServer) createTeam(t *testing.T, token, name string) models.Team {
	t.Helper()
	w, env := ts.do(t, http.MethodPost, "/teams", token, gin.H{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var team models.Team
	require.NoError(t, json.Unmarshal(env.Data, &team))
	return team
}

// expectOneLog checks that exactly one row with action was published since
// mark, stamped no earlier than start and owned by orgID.
func (ts *testServer) expectOneLog(t *testing.T, mark int, start time.Time, action string, orgID uuid.UUID) models.Log {
	t.Helper()
	rows := ts.sink.since(mark)
	require.Len(t, rows, 1, "expected one log for %s", action)
	row := rows[0]
	assert.Equal(t, action, row.Action)
	require.NotNil(t, row.OrganisationID)
	assert.Equal(t, orgID, *row.OrganisationID)
	assert.False(t, row.Timestamp.Before(start))
	assert.Equal(t, int64(1), testutil.CountRows(t, ts.db, &models.Log{}, "id = ?", row.ID))
	return row
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w, env := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	start := time.Now()
	s := ts.register(t, "Acme", "  Admin@Acme.test ")
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, "admin@acme.test", s.User.Email)
	assert.Equal(t, "Acme", s.User.Organisation.Name)

	row := ts.expectOneLog(t, 0, start, models.ActionOrganisationCreated, s.User.Organisation.ID)
	assert.Equal(t, s.User.ID, *row.UserID)
	assert.Equal(t, "Acme", row.Meta["orgName"])

	w, env := ts.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"orgName": "Other", "adminName": "Someone", "email": "ADMIN@acme.test", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, utils.ErrTagConflict, env.Error)
	assert.Equal(t, "Email already registered", env.Message)
	assert.Equal(t, int64(1), testutil.CountRows(t, ts.db, &models.Organisation{}, ""))
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name string
		body interface{}
	}{
		{"malformed", "{not json"},
		{"missing fields", gin.H{"email": "a@b.test"}},
		{"short password", gin.H{"orgName": "Acme", "adminName": "A", "email": "a@b.test", "password": "123"}},
		{"short org name", gin.H{"orgName": "A", "adminName": "A", "email": "a@b.test", "password": "secret123"}},
		{"bad email", gin.H{"orgName": "Acme", "adminName": "A", "email": "nope", "password": "secret123"}},
		{"blank admin", gin.H{"orgName": "Acme", "adminName": "   ", "email": "a@b.test", "password": "secret123"}},
		// 40 characters but 80 bytes, past what bcrypt can hash
		{"multibyte password over 72 bytes", gin.H{"orgName": "Acme", "adminName": "A", "email": "a@b.test", "password": strings.Repeat("é", 40)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env := ts.do(t, http.MethodPost, "/auth/register", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, env.Success)
			assert.Equal(t, utils.ErrTagBadRequest, env.Error)
		})
	}

	assert.Zero(t, testutil.CountRows(t, ts.db, &models.Organisation{}, ""))
	assert.Zero(t, ts.sink.count())
}

func TestRegisterIsAtomic(t *testing.T) {
	ts := newTestServer(t)

	err := ts.db.Callback().Create().Before("gorm:create").Register("test:fail_user_insert", func(tx *gorm.DB) {
		if tx.Statement.Table == "users" {
			_ = tx.AddError(errors.New("injected user insert failure"))
		}
	})
	require.NoError(t, err)

	w, env := ts.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"orgName": "Acme", "adminName": "Ada", "email": "ada@acme.test", "password": "secret123",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, utils.ErrTagInternal, env.Error)
	assert.Equal(t, "Registration failed", env.Message)

	assert.Zero(t, testutil.CountRows(t, ts.db, &models.Organisation{}, ""))
	assert.Zero(t, testutil.CountRows(t, ts.db, &models.User{}, ""))
	assert.Zero(t, testutil.CountRows(t, ts.db, &models.Log{}, ""))
	assert.Zero(t, ts.sink.count())
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	s := ts.register(t, "Acme", "admin@acme.test")

	mark, start := ts.sink.count(), time.Now()
	w, env := ts.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": " ADMIN@acme.test", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, s.User.ID, resp.User.ID)
	assert.Equal(t, "Acme", resp.User.Organisation.Name)
	ts.expectOneLog(t, mark, start, models.ActionUserLogin, s.User.Organisation.ID)
	assert.Equal(t, int64((8 * time.Hour).Seconds()), resp.ExpiresIn)

	w, env = ts.do(t, http.MethodGet, "/auth/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.UserProfile
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "admin@acme.test", me.Email)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "Acme", "admin@acme.test")
	mark := ts.sink.count()

	wrongPassword, _ := ts.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "admin@acme.test", "password": "not-the-password"})
	unknownEmail, _ := ts.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "nobody@acme.test", "password": "not-the-password"})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.Bytes(), unknownEmail.Body.Bytes())
	assert.JSONEq(t, `{"success":false,"message":"Invalid credentials","error":"unauthorized"}`, wrongPassword.Body.String())
	assert.Equal(t, mark, ts.sink.count())
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	s := ts.register(t, "Acme", "admin@acme.test")

	mark, start := ts.sink.count(), time.Now()
	w, env := ts.do(t, http.MethodPost, "/auth/logout", s.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged out successfully", env.Message)
	row := ts.expectOneLog(t, mark, start, models.ActionUserLogout, s.User.Organisation.ID)
	assert.Equal(t, "admin@acme.test", row.Meta["email"])

	// no revocation: the token keeps working until it expires
	w, _ = ts.do(t, http.MethodGet, "/employees", s.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/employees", "/teams", "/logs", "/organisation", "/auth/me"} {
		w, env := ts.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "No token provided", env.Message, path)
	}

	w, env := ts.do(t, http.MethodGet, "/employees", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", env.Message)
}

func TestEmployeeLifecycle(t *testing.T) {
	ts := newTestServer(t)
	s := ts.register(t, "Acme", "admin@acme.test")
	orgID := s.User.Organisation.ID

	mark, start := ts.sink.count(), time.Now()
	e := ts.createEmployee(t, s.Token, gin.H{
		"first_name": " Ada ",
		"last_name":  "Lovelace",
		"email":      "ada@acme.test",
	})
	assert.Equal(t, "Ada", e.FirstName)
	assert.Equal(t, orgID, e.OrganisationID)
	assert.Nil(t, e.Phone)
	ts.expectOneLog(t, mark, start, models.ActionEmployeeCreated, orgID)

	// partial update touches only the phone
	mark, start = ts.sink.count(), time.Now()
	w, _ := ts.do(t, http.MethodPut, "/employees/"+e.ID.String(), s.Token, gin.H{"phone": "+1 (555) 000-1234"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	row := ts.expectOneLog(t, mark, start, models.ActionEmployeeUpdated, orgID)
	assert.Contains(t, row.Meta["updates"], "phone")

	w, env := ts.do(t, http.MethodGet, "/employees/"+e.ID.String(), s.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.EmployeeView
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Ada", got.FirstName)
	assert.Equal(t, "Lovelace", got.LastName)
	require.NotNil(t, got.Email)
	assert.Equal(t, "ada@acme.test", *got.Email)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "+1 (555) 000-1234", *got.Phone)
	assert.Empty(t, got.Teams)

	// explicit null clears an optional field
	w, _ = ts.do(t, http.MethodPut, "/employees/"+e.ID.String(), s.Token, `{"email": null}`)
	require.Equal(t, http.StatusOK, w.Code)
	_, env = ts.do(t, http.MethodGet, "/employees/"+e.ID.String(), s.Token, nil)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Nil(t, got.Email)
	assert.NotNil(t, got.Phone)

	w, env = ts.do(t, http.MethodGet, "/employees", s.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.EmployeeView
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)

	mark, start = ts.sink.count(), time.Now()
	w, _ = ts.do(t, http.MethodDelete, "/employees/"+e.ID.String(), s.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	row = ts.expectOneLog(t, mark, start, models.ActionEmployeeDeleted, orgID)
	assert.Equal(t, "Ada Lovelace", row.Meta["name"])

	w, env = ts.do(t, http.MethodGet, "/employees/"+e.ID.String(), s.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Employee not found", env.Message)
}

func TestEmployeeValidation(t *testing.T) {
	ts := newTestServer(t)
	s := ts.register(t, "Acme", "admin@acme.test")
	e := ts.createEmployee(t, s.Token, gin.H{"first_name": "Ada", "last_name": "Lovelace"})
	mark := ts.sink.count()

	creates := []gin.H{
		{"last_name": "Lovelace"},
		{"first_name": "  ", "last_name": "Lovelace"},
		{"first_name": "Ada", "last_name": "Lovelace", "email": "not-an-email"},
		{"first_name": "Ada", "last_name": "Lovelace", "phone": "555"},
		{"first_name": "Ada", "last_name": "Lovelace", "phone": paddedPhone},
	}
	for _, body := range creates {
		w, env := ts.do(t, http.MethodPost, "/employees", s.Token, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, utils.ErrTagBadRequest, env.Error)
	}

	updates := []string{
		`{"first_name": ""}`,
		`{"last_name": null}`,
		`{"email": "still-not-an-email"}`,
		`{"phone": "555"}`,
		`{"phone": "1 - 2 - 3 - 4 - 5 - 6 - 7 - 8 - 9 - 0 - 1 - 2 - 3 - 4 - 5"}`,
		`{"first_name": 42}`,
	}
	for _, body := range updates {
		w, _ := ts.do(t, http.MethodPut, "/employees/"+e.ID.String(), s.Token, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	assert.Equal(t, mark, ts.sink.count())
	assert.Equal(t, int64(1), testutil.CountRows(t, ts.db, &models.Employee{}, ""))
}

func TestTeamLifecycleAndMembership(t *testing.T) {
	ts := newTestServer(t)
	s := ts.register(t, "Acme", "admin@acme.test")
	orgID := s.User.Organisation.ID

	e1 := ts.createEmployee(t, s.Token, gin.H{"first_name": "Ada", "last_name": "Lovelace"})
	e2 := ts.createEmployee(t, s.Token, gin.H{"first_name": "Alan", "last_name": "Turing"})

	mark, start := ts.sink.count(), time.Now()
	team := ts.createTeam(t, s.Token, "Research")
	ts.expectOneLog(t, mark, start, models.ActionTeamCreated, orgID)

	teamPath := "/teams/" + team.ID.String()

	mark, start = ts.sink.count(), time.Now()
	w, _ := ts.do(t, http.MethodPost, teamPath+"/assign", s.Token, gin.H{"employeeIds": []string{e1.ID.String(), e2.ID.String()}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ts.expectOneLog(t, mark, start, models.ActionEmployeesAssigned, orgID)

	// assigning again is a no-op that still succeeds
	w, _ = ts.do(t, http.MethodPost, teamPath+"/assign", s.Token, gin.H{"employeeIds": []string{e1.ID.String()}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), testutil.CountRows(t, ts.db, &models.EmployeeTeam{}, "team_id = ? AND employee_id = ?", team.ID, e1.ID))

	w, env := ts.do(t, http.MethodGet, teamPath, s.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view models.TeamView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Len(t, view.Employees, 2)

	mark, start = ts.sink.count(), time.Now()
	w, _ = ts.do(t, http.MethodPost, teamPath+"/unassign", s.Token, gin.H{"employeeId": e2.ID.String()})
	require.Equal(t, http.StatusOK, w.Code)
	row := ts.expectOneLog(t, mark, start, models.ActionEmployeeUnassigned, orgID)
	assert.Equal(t, true, row.Meta["removed"])

	// unassigning a non-member succeeds without changing anything
	before := testutil.CountRows(t, ts.db, &models.EmployeeTeam{}, "")
	w, _ = ts.do(t, http.MethodPost, teamPath+"/unassign", s.Token, gin.H{"employeeId": e2.ID.String()})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before, testutil.CountRows(t, ts.db, &models.EmployeeTeam{}, ""))

	mark, start = ts.sink.count(), time.Now()
	w, _ = ts.do(t, http.MethodPut, teamPath, s.Token, gin.H{"description": "Analytical engines"})
	require.Equal(t, http.StatusOK, w.Code)
	ts.expectOneLog(t, mark, start, models.ActionTeamUpdated, orgID)

	w, env = ts.do(t, http.MethodGet, "/teams", s.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var teams []models.TeamView
	require.NoError(t, json.Unmarshal(env.Data, &teams))
	require.Len(t, teams, 1)
	assert.Equal(t, "Research", teams[0].Name)
	require.NotNil(t, teams[0].Description)
	assert.Equal(t, "Analytical engines", *teams[0].Description)

	w, _ = ts.do(t, http.MethodPut, teamPath, s.Token, gin.H{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mark, start = ts.sink.count(), time.Now()
	w, _ = ts.do(t, http.MethodDelete, teamPath, s.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	ts.expectOneLog(t, mark, start, models.ActionTeamDeleted, orgID)

	// the employees outlive the team
	w, _ = ts.do(t, http.MethodGet, "/employees/"+e1.ID.String(), s.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, testutil.CountRows(t, ts.db, &models.EmployeeTeam{}, ""))
}

func TestEmployeePhoneLengthMatchesOnCreateAndUpdate(t *testing.T) {
	ts := newTestServer(t)
	s := ts.register(t, "Acme", "admin@acme.test")
	e := ts.createEmployee(t, s.Token, gin.H{"first_name": "Ada", "last_name": "Lovelace"})

	// 15 digits is a valid phone, but the separators push it past the column
	require.True(t, utils.ValidatePhone(paddedPhone))
	require.Greater(t, len(paddedPhone), 50)

	w, env := ts.do(t, http.MethodPost, "/employees", s.Token, gin.H{"first_name": "Alan", "last_name": "Turing", "phone": paddedPhone})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "phone must be at most 50 characters", env.Message)

	w, env = ts.do(t, http.MethodPut, "/employees/"+e.ID.String(), s.Token, gin.H{"phone": paddedPhone})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "phone must be at most 50 characters", env.Message)
}

func TestAssignAcceptsUppercaseIDs(t *testing.T) {
	ts := newTestServer(t)
	s := ts.register(t, "Acme", "admin@acme.test")
	e := ts.createEmployee(t, s.Token, gin.H{"first_name": "Ada", "last_name": "Lovelace"})
	team := ts.createTeam(t, s.Token, "Ops")

	teamPath := "/teams/" + strings.ToUpper(team.ID.String())
	upper := strings.ToUpper(e.ID.String())

	w, _ := ts.do(t, http.MethodPost, teamPath+"/assign", s.Token, gin.H{"employeeIds": []string{upper}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(1), testutil.CountRows(t, ts.db, &models.EmployeeTeam{}, "team_id = ? AND employee_id = ?", team.ID, e.ID))

	w, _ = ts.do(t, http.MethodPost, teamPath+"/unassign", s.Token, gin.H{"employeeId": upper})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Zero(t, testutil.CountRows(t, ts.db, &models.EmployeeTeam{}, ""))
}

func TestAssignValidation(t *testing.T) {
	ts := newTestServer(t)
	s := ts.register(t, "Acme", "admin@acme.test")
	team := ts.createTeam(t, s.Token, "Ops")
	path := "/teams/" + team.ID.String() + "/assign"

	for _, body := range []interface{}{
		gin.H{},
		gin.H{"employeeIds": []string{}},
		gin.H{"employeeIds": []string{"not-a-uuid"}},
		gin.H{"employeeIds": "x"},
	} {
		w, _ := ts.do(t, http.MethodPost, path, s.Token, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w, _ := ts.do(t, http.MethodPost, "/teams/"+team.ID.String()+"/unassign", s.Token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCrossTenantAccessLooksLikeNotFound(t *testing.T) {
	ts := newTestServer(t)
	acme := ts.register(t, "Acme", "admin@acme.test")
	globex := ts.register(t, "Globex", "admin@globex.test")

	theirEmployee := ts.createEmployee(t, globex.Token, gin.H{"first_name": "Hank", "last_name": "Scorpio"})
	theirTeam := ts.createTeam(t, globex.Token, "Villainy")
	ourEmployee := ts.createEmployee(t, acme.Token, gin.H{"first_name": "Wile", "last_name": "Coyote"})
	ourTeam := ts.createTeam(t, acme.Token, "Roadrunner Task Force")
	mark := ts.sink.count()

	requests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/employees/" + theirEmployee.ID.String(), nil},
		{http.MethodPut, "/employees/" + theirEmployee.ID.String(), gin.H{"first_name": "Mallory"}},
		{http.MethodDelete, "/employees/" + theirEmployee.ID.String(), nil},
		{http.MethodGet, "/teams/" + theirTeam.ID.String(), nil},
		{http.MethodPut, "/teams/" + theirTeam.ID.String(), gin.H{"name": "Heroes"}},
		{http.MethodDelete, "/teams/" + theirTeam.ID.String(), nil},
		{http.MethodPost, "/teams/" + theirTeam.ID.String() + "/assign", gin.H{"employeeIds": []string{ourEmployee.ID.String()}}},
		{http.MethodPost, "/teams/" + ourTeam.ID.String() + "/unassign", gin.H{"employeeId": theirEmployee.ID.String()}},
		{http.MethodGet, "/employees/not-a-uuid", nil},
	}
	for _, r := range requests {
		w, env := ts.do(t, r.method, r.path, acme.Token, r.body)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", r.method, r.path)
		assert.Equal(t, utils.ErrTagNotFound, env.Error)
	}

	// one foreign employee sinks the whole batch
	w, env := ts.do(t, http.MethodPost, "/teams/"+ourTeam.ID.String()+"/assign", acme.Token, gin.H{
		"employeeIds": []string{ourEmployee.ID.String(), theirEmployee.ID.String()},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Some employees not found or do not belong to your organisation", env.Message)
	assert.Zero(t, testutil.CountRows(t, ts.db, &models.EmployeeTeam{}, ""))

	assert.Equal(t, mark, ts.sink.count())

	_, env = ts.do(t, http.MethodGet, "/employees/"+theirEmployee.ID.String(), globex.Token, nil)
	assert.True(t, env.Success)
}

func TestLogsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	acme := ts.register(t, "Acme", "admin@acme.test")
	globex := ts.register(t, "Globex", "admin@globex.test")

	ts.createTeam(t, acme.Token, "One")
	ts.createTeam(t, acme.Token, "Two")
	ts.createTeam(t, globex.Token, "Theirs")

	w, env := ts.do(t, http.MethodGet, "/logs", acme.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []models.LogView
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	require.Len(t, logs, 3)
	assert.Equal(t, models.ActionTeamCreated, logs[0].Action)
	assert.Equal(t, "Two", logs[0].Meta["name"])
	assert.Equal(t, models.ActionOrganisationCreated, logs[2].Action)
	require.NotNil(t, logs[0].User)
	assert.Equal(t, "admin@acme.test", logs[0].User.Email)
	for _, l := range logs {
		assert.Equal(t, acme.User.Organisation.ID, *l.OrganisationID)
	}

	w, env = ts.do(t, http.MethodGet, "/logs?action=team_created&limit=1", acme.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "Two", logs[0].Meta["name"])

	w, _ = ts.do(t, http.MethodGet, "/logs?limit=zero", acme.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrganisationDeleteCascades(t *testing.T) {
	ts := newTestServer(t)
	acme := ts.register(t, "Acme", "admin@acme.test")
	globex := ts.register(t, "Globex", "admin@globex.test")

	e := ts.createEmployee(t, acme.Token, gin.H{"first_name": "Ada", "last_name": "Lovelace"})
	team := ts.createTeam(t, acme.Token, "Ops")
	w, _ := ts.do(t, http.MethodPost, "/teams/"+team.ID.String()+"/assign", acme.Token, gin.H{"employeeIds": []string{e.ID.String()}})
	require.Equal(t, http.StatusOK, w.Code)

	w, env := ts.do(t, http.MethodGet, "/organisation", acme.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var org models.OrganisationView
	require.NoError(t, json.Unmarshal(env.Data, &org))
	assert.Equal(t, "Acme", org.Name)
	require.Len(t, org.Users, 1)

	mark := ts.sink.count()
	w, _ = ts.do(t, http.MethodDelete, "/organisation", acme.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	rows := ts.sink.since(mark)
	require.Len(t, rows, 1)
	assert.Equal(t, models.ActionOrganisationDeleted, rows[0].Action)
	assert.Nil(t, rows[0].OrganisationID)
	assert.Nil(t, rows[0].UserID)

	orgID := acme.User.Organisation.ID
	assert.Zero(t, testutil.CountRows(t, ts.db, &models.Organisation{}, "id = ?", orgID))
	assert.Zero(t, testutil.CountRows(t, ts.db, &models.User{}, "organisation_id = ?", orgID))
	assert.Zero(t, testutil.CountRows(t, ts.db, &models.Employee{}, "id = ?", e.ID))
	assert.Zero(t, testutil.CountRows(t, ts.db, &models.Team{}, "id = ?", team.ID))
	assert.Zero(t, testutil.CountRows(t, ts.db, &models.EmployeeTeam{}, ""))
	assert.Zero(t, testutil.CountRows(t, ts.db, &models.Log{}, "organisation_id = ?", orgID))

	// the old credential no longer maps to a user
	w, env = ts.do(t, http.MethodGet, "/employees/"+e.ID.String(), acme.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "User not found", env.Message)

	w, _ = ts.do(t, http.MethodGet, "/organisation", globex.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
