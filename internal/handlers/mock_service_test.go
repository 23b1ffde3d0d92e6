package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"controlling_window/internal/models"
	"controlling_window/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockWindow struct {
	openErr  error
	closeErr error

	openCalls  []time.Duration
	closeCalls []time.Duration
	shutdowns  int
}

func (m *mockWindow) Restore(ctx context.Context) error { return nil }
func (m *mockWindow) RequestOpen(ctx context.Context, d time.Duration) error {
	m.openCalls = append(m.openCalls, d)
	return m.openErr
}
func (m *mockWindow) RequestClose(ctx context.Context, rest time.Duration) error {
	m.closeCalls = append(m.closeCalls, rest)
	return m.closeErr
}
func (m *mockWindow) TriggerShutdown(ctx context.Context) error {
	m.shutdowns++
	return nil
}

type mockMonitoring struct {
	mu    sync.Mutex
	state models.WindowState
	err   error
	calls int
}

func (m *mockMonitoring) GetState(ctx context.Context) (models.WindowState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.state, m.err
}

func (m *mockMonitoring) set(st models.WindowState, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state, m.err = st, err
}

type mockEventLog struct {
	resp     []models.WindowEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.WindowEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockSampleLog struct {
	resp       []models.SensorSample
	err        error
	lastFilter service.SampleFilter
}

func (m *mockSampleLog) List(ctx context.Context, f service.SampleFilter) ([]models.SensorSample, error) {
	m.lastFilter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
