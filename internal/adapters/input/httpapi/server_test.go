package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"task-wallet/internal/config"
	"task-wallet/internal/core/domain/entities"
	"task-wallet/internal/core/domain/exceptions"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTaskUseCases struct {
	available  []entities.Task
	fetchErr   error
	loadErr    error
	fetchCalls int
	forced     bool
	completion *entities.CompletionResult
	submitErr  error
	gotUserID  string
	gotTaskID  int64
}

func (f *fakeTaskUseCases) FetchTasks(ctx context.Context, category entities.TaskCategory, forceRefresh bool) ([]entities.Task, error) {
	f.fetchCalls++
	f.forced = forceRefresh
	return f.available, f.fetchErr
}

func (f *fakeTaskUseCases) LoadAvailableTasks(ctx context.Context, category entities.TaskCategory) ([]entities.Task, error) {
	return f.available, f.loadErr
}

func (f *fakeTaskUseCases) CompleteTask(ctx context.Context, userID string, category entities.TaskCategory, taskID int64, annotation *entities.Annotation) (*entities.CompletionResult, error) {
	f.gotUserID = userID
	f.gotTaskID = taskID
	return f.completion, f.submitErr
}

type fakeLedgerUseCases struct {
	balance     *entities.WalletBalance
	withdrawErr error
	gotAmount   decimal.Decimal
	gotMethod   string
}

func (f *fakeLedgerUseCases) CreditReward(ctx context.Context, userID string, amount decimal.Decimal, description string) error {
	return nil
}

func (f *fakeLedgerUseCases) RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, method string) error {
	f.gotAmount = amount
	f.gotMethod = method
	return f.withdrawErr
}

func (f *fakeLedgerUseCases) GetBalance(ctx context.Context, userID string) (*entities.WalletBalance, error) {
	if f.balance == nil {
		return entities.NewZeroBalance(userID), nil
	}
	return f.balance, nil
}

func (f *fakeLedgerUseCases) ListTransactions(ctx context.Context, userID string, limit int) ([]*entities.Transaction, error) {
	return []*entities.Transaction{
		{ID: "tx-1", UserID: userID, Type: entities.TransactionTaskReward, Amount: decimal.NewFromFloat(0.05), Status: entities.TransactionCompleted},
	}, nil
}

type fakeAuthenticator struct {
	session   *entities.Session
	signInErr error
}

func (f *fakeAuthenticator) SignIn(ctx context.Context, email, password string) (*entities.Session, error) {
	return f.session, f.signInErr
}

func (f *fakeAuthenticator) SignUp(ctx context.Context, email, password string) (*entities.Session, error) {
	return f.session, f.signInErr
}

func (f *fakeAuthenticator) SignOut(ctx context.Context, accessToken string) error { return nil }

func (f *fakeAuthenticator) ResetPassword(ctx context.Context, email string) error { return nil }

type fakeReconfigurer struct {
	applied *config.SourceConfig
}

func (f *fakeReconfigurer) Configure(cfg config.SourceConfig) { f.applied = &cfg }

type fakeTTLSetter struct {
	ttl time.Duration
}

func (f *fakeTTLSetter) SetTTL(ttl time.Duration) { f.ttl = ttl }

type fixture struct {
	router *gin.Engine
	tasks  *fakeTaskUseCases
	ledger *fakeLedgerUseCases
	auth   *fakeAuthenticator
	source *fakeReconfigurer
	cache  *fakeTTLSetter
	cfg    *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	f := &fixture{
		tasks:  &fakeTaskUseCases{},
		ledger: &fakeLedgerUseCases{},
		auth:   &fakeAuthenticator{},
		source: &fakeReconfigurer{},
		cache:  &fakeTTLSetter{},
		cfg:    cfg,
	}
	server := NewServer(f.tasks, f.ledger, f.auth, cfg, f.source, f.cache, zap.NewNop())
	f.router = server.Router()
	return f
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestListTasksReturnsAvailable(t *testing.T) {
	f := newFixture(t)
	f.tasks.available = []entities.Task{
		{ID: 1, Category: entities.CategorySurvey, Data: json.RawMessage(`{"q":"?"}`)},
	}

	w := f.do(http.MethodGet, "/api/v1/tasks/survey", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, f.tasks.fetchCalls, "no forced fetch without refresh flag")

	var body struct {
		Tasks []struct {
			ID int64 `json:"id"`
		} `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Tasks, 1)
	assert.Equal(t, int64(1), body.Tasks[0].ID)
}

func TestListTasksRefreshQueryForcesFetch(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/tasks/survey?refresh=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.tasks.fetchCalls)
	assert.True(t, f.tasks.forced)
}

func TestListTasksUnknownCategoryIsBadRequest(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/tasks/knitting", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTasksSourceDownIsServiceUnavailable(t *testing.T) {
	f := newFixture(t)
	f.tasks.loadErr = exceptions.ErrTaskSourceUnavailable

	w := f.do(http.MethodGet, "/api/v1/tasks/survey", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSubmitTaskCreatedWithCompletionResult(t *testing.T) {
	f := newFixture(t)
	f.tasks.completion = &entities.CompletionResult{
		Ack:            &entities.SubmissionAck{ID: 900, TaskID: 42},
		RewardAmount:   "0.25",
		RewardCredited: true,
	}

	w := f.do(http.MethodPost, "/api/v1/tasks/survey/42/submit", map[string]any{
		"user_id": "user-1",
		"result":  []map[string]string{{"answer": "yes"}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "user-1", f.tasks.gotUserID)
	assert.Equal(t, int64(42), f.tasks.gotTaskID)
	assert.Contains(t, w.Body.String(), "0.25")
}

func TestSubmitTaskMissingBodyFieldsIsBadRequest(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/tasks/survey/42/submit", map[string]any{
		"user_id": "user-1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitTaskNonNumericIDIsBadRequest(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/tasks/survey/abc/submit", map[string]any{
		"user_id": "user-1",
		"result":  []map[string]string{{"answer": "yes"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitTaskRejectionIsBadGateway(t *testing.T) {
	f := newFixture(t)
	f.tasks.submitErr = exceptions.ErrSubmissionRejected

	w := f.do(http.MethodPost, "/api/v1/tasks/survey/42/submit", map[string]any{
		"user_id": "user-1",
		"result":  []map[string]string{{"answer": "yes"}},
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGetBalanceFormatsDecimals(t *testing.T) {
	f := newFixture(t)
	f.ledger.balance = &entities.WalletBalance{
		UserID:      "user-1",
		Available:   decimal.NewFromFloat(1.5),
		Pending:     decimal.NewFromFloat(0.25),
		TotalEarned: decimal.NewFromFloat(12),
	}

	w := f.do(http.MethodGet, "/api/v1/wallet/user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Available   string `json:"available"`
		Pending     string `json:"pending"`
		TotalEarned string `json:"total_earned"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "1.50", body.Available)
	assert.Equal(t, "0.25", body.Pending)
	assert.Equal(t, "12.00", body.TotalEarned)
}

func TestWithdrawAccepted(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/wallet/user-1/withdraw", map[string]any{
		"amount": 2.5,
		"method": "bank_transfer",
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "bank_transfer", f.ledger.gotMethod)
	assert.True(t, f.ledger.gotAmount.Equal(decimal.NewFromFloat(2.5)))
}

func TestWithdrawInsufficientIsUnprocessable(t *testing.T) {
	f := newFixture(t)
	f.ledger.withdrawErr = exceptions.ErrInsufficientBalance

	w := f.do(http.MethodPost, "/api/v1/wallet/user-1/withdraw", map[string]any{
		"amount": 100.0,
		"method": "bank_transfer",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestWithdrawNonPositiveAmountRejectedByBinding(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/wallet/user-1/withdraw", map[string]any{
		"amount": -1.0,
		"method": "bank_transfer",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, f.ledger.gotAmount.IsZero(), "ledger never called")
}

func TestListTransactionsRejectsNonNumericLimit(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/wallet/user-1/transactions?limit=lots", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginReturnsSession(t *testing.T) {
	f := newFixture(t)
	f.auth.session = &entities.Session{UserID: "user-1", AccessToken: "at-1"}

	w := f.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "worker@example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "at-1")
}

func TestLoginBadCredentialsIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.auth.signInErr = exceptions.ErrInvalidCredentials

	w := f.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "worker@example.com",
		"password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginShortPasswordRejectedByBinding(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "worker@example.com",
		"password": "abc",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSettingsNeverEchoesToken(t *testing.T) {
	f := newFixture(t)
	f.cfg.Source.APIToken = "super-secret"

	w := f.do(http.MethodGet, "/api/v1/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "super-secret")
}

func TestUpdateSettingsAppliesToSourceAndCache(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPut, "/api/v1/settings", map[string]any{
		"base_url":     "https://labeling.example.com",
		"max_attempts": 5,
		"cache_ttl":    "6h",
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, f.source.applied)
	assert.Equal(t, "https://labeling.example.com", f.source.applied.BaseURL)
	assert.Equal(t, 5, f.source.applied.MaxAttempts)
	assert.Equal(t, 6*time.Hour, f.cache.ttl)
	assert.Equal(t, 6*time.Hour, f.cfg.Cache.TTL)
}

func TestUpdateSettingsInvalidDurationIsBadRequest(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPut, "/api/v1/settings", map[string]any{
		"request_timeout": "soon",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, f.source.applied)
}
