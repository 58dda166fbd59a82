package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

type stubAuthService struct {
	jwt jwt.Service
}

func (s stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (auth.TokenResponse, error) {
	return auth.TokenResponse{}, auth.ErrInvalidCredentials
}

func (s stubAuthService) Logout(ctx context.Context, accessToken string) error {
	s.jwt.RevokeToken(accessToken)
	return nil
}

type stubUserService struct {
	user.UserService
}

func (stubUserService) GetByID(ctx context.Context, id string) (user.UserResponse, error) {
	return user.UserResponse{ID: id}, nil
}

type stubAttendanceService struct {
	attendance.AttendanceService
	lastIdentity user.Identity
	lastRequest  attendance.PunchRequest
}

func (s *stubAttendanceService) CheckIn(ctx context.Context, identity user.Identity, req attendance.PunchRequest) (attendance.AttendanceResponse, error) {
	s.lastIdentity = identity
	s.lastRequest = req
	return attendance.AttendanceResponse{UserID: identity.UserID, State: attendance.StateCheckedIn.String()}, nil
}

func (s *stubAttendanceService) CheckOut(ctx context.Context, identity user.Identity, req attendance.PunchRequest) (attendance.AttendanceResponse, error) {
	return attendance.AttendanceResponse{}, attendance.ErrNoCheckInFound
}

type stubLeaveService struct {
	leave.LeaveService
}

func (stubLeaveService) RequestLeave(ctx context.Context, identity user.Identity, req leave.CreateLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	return leave.LeaveRequestResponse{}, fmt.Errorf("%w: %s to %s (%s)", leave.ErrOverlapConflict, req.FromDate, req.ToDate, leave.StatusPending)
}

type stubPayrollService struct {
	got payroll.DeductionPreviewRequest
}

func (s *stubPayrollService) PreviewDeduction(ctx context.Context, req payroll.DeductionPreviewRequest) (payroll.DeductionPreviewResponse, error) {
	s.got = req
	return payroll.DeductionPreviewResponse{UserID: req.UserID, Days: req.Days}, nil
}

type stubReportService struct {
	report.ReportService
}

func (stubReportService) GenerateLeaveBalanceReport(ctx context.Context) (report.LeaveBalanceReport, error) {
	return report.LeaveBalanceReport{}, nil
}

func (stubReportService) Render(rep any, format report.Format) (report.File, error) {
	return report.File{Filename: "leave-balances.csv", ContentType: "text/csv", Content: []byte("Name\n")}, nil
}

type testServer struct {
	router     http.Handler
	jwt        jwt.Service
	attendance *stubAttendanceService
	payroll    *stubPayrollService
	events     *sse.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	jwtService := jwt.NewJWTService(handlerTestSecret, "1h")
	ts := &testServer{
		jwt:        jwtService,
		attendance: &stubAttendanceService{},
		payroll:    &stubPayrollService{},
		events:     sse.NewHub(),
	}
	ts.router = NewRouter(RouterConfig{}, jwtService, Handlers{
		Auth:       NewAuthHandler(stubAuthService{jwt: jwtService}),
		User:       NewUserHandler(stubUserService{}),
		Attendance: NewAttendanceHandler(ts.attendance),
		Leave:      NewLeaveHandler(stubLeaveService{}),
		Payroll:    NewPayrollHandler(ts.payroll),
		Report:     NewReportHandler(stubReportService{}),
		Events:     NewEventsHandler(ts.events),
	})
	return ts
}

func (ts *testServer) token(t *testing.T, userID string, userType user.UserType) string {
	t.Helper()
	token, _, err := ts.jwt.GenerateAccessToken(userID, userID+"@example.com", userType)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("User-Agent", "test-agent")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestRouter_Health(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RequiresToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/users/me", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_AdminOnly(t *testing.T) {
	ts := newTestServer(t)
	employee := ts.token(t, "emp-1", user.UserTypeEmployee)
	admin := ts.token(t, "admin-1", user.UserTypeAdmin)

	rec := ts.do(http.MethodGet, "/api/v1/reports/leave-balances?format=csv", employee, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/reports/leave-balances?format=csv", admin, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "leave-balances.csv")

	rec = ts.do(http.MethodGet, "/api/v1/reports/leave-balances?format=xml", admin, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_CheckIn(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "emp-1", user.UserTypeEmployee)

	rec := ts.do(http.MethodPost, "/api/v1/attendance/check-in", token, `{"location":"HQ"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.Identity{UserID: "emp-1", UserType: user.UserTypeEmployee, Email: "emp-1@example.com"}, ts.attendance.lastIdentity)
	require.NotNil(t, ts.attendance.lastRequest.Location)
	assert.Equal(t, "HQ", *ts.attendance.lastRequest.Location)
	require.NotNil(t, ts.attendance.lastRequest.IPAddress)
	require.NotNil(t, ts.attendance.lastRequest.UserAgent)
	assert.Equal(t, "test-agent", *ts.attendance.lastRequest.UserAgent)

	// an empty body is accepted
	rec = ts.do(http.MethodPost, "/api/v1/attendance/check-in", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CheckOutWithoutCheckIn(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "emp-1", user.UserTypeEmployee)

	rec := ts.do(http.MethodPost, "/api/v1/attendance/check-out", token, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, attendance.ErrNoCheckInFound.Error(), body.Error.Message)
}

func TestRouter_LeaveOverlap(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "emp-1", user.UserTypeEmployee)

	rec := ts.do(http.MethodPost, "/api/v1/leave/requests", token,
		`{"leave_type":"annual","from_date":"2030-06-03","to_date":"2030-06-05","reason":"family trip"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	require.NotNil(t, body.Error)
	assert.Contains(t, body.Error.Message, "2030-06-03 to 2030-06-05 (pending)")
}

func TestRouter_PayrollPreview(t *testing.T) {
	ts := newTestServer(t)
	employee := ts.token(t, "emp-1", user.UserTypeEmployee)
	admin := ts.token(t, "admin-1", user.UserTypeAdmin)

	rec := ts.do(http.MethodGet, "/api/v1/payroll/deduction-preview?days=2.5", employee, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payroll.DeductionPreviewRequest{UserID: "emp-1", Days: 2.5}, ts.payroll.got)

	rec = ts.do(http.MethodGet, "/api/v1/payroll/deduction-preview?days=1&user_id=emp-2", employee, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/payroll/deduction-preview?days=1&user_id=emp-2", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "emp-2", ts.payroll.got.UserID)

	rec = ts.do(http.MethodGet, "/api/v1/payroll/deduction-preview?days=abc", employee, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_LogoutRevokesToken(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "emp-1", user.UserTypeEmployee)

	rec := ts.do(http.MethodGet, "/api/v1/users/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/api/v1/auth/logout", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/users/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/metrics", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_EventStream(t *testing.T) {
	// Setup
	ts := newTestServer(t)
	server := httptest.NewServer(ts.router)
	defer server.Close()
	token := ts.token(t, "emp-1", user.UserTypeEmployee)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/events?jwt="+token, nil)
	require.NoError(t, err)

	// Act
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)
	_, err = reader.ReadString('\n')
	require.NoError(t, err)
	_, err = reader.ReadString('\n')
	require.NoError(t, err)

	require.Eventually(t, func() bool { return ts.events.SubscriberCount("emp-1") == 1 }, time.Second, 10*time.Millisecond)
	ts.events.Publish("emp-1", sse.Event{Name: "leave.approved", Data: map[string]string{"id": "lv-1"}})

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: leave.approved\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "data: {\"id\":\"lv-1\"}\n", line)
}

func TestRouter_EventStreamRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/events", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
