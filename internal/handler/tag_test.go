package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkshield/backend/internal/domain"
	"github.com/parkshield/backend/internal/handler"
)

// mockTagServicer is a test double for handler.TagServicer.
// Set only the method fields your test needs.
type mockTagServicer struct {
	register   func(ctx context.Context, vehicleNumber, ownerPhone, code string) (domain.Tag, error)
	lookup     func(ctx context.Context, code string) (domain.Contact, error)
	alert      func(ctx context.Context, req domain.AlertRequest) (domain.Alert, error)
	history    func(ctx context.Context, code string, p domain.PaginationParams) ([]domain.Alert, int64, error)
	deactivate func(ctx context.Context, code string) error
}

func (m *mockTagServicer) Register(ctx context.Context, vehicleNumber, ownerPhone, code string) (domain.Tag, error) {
	return m.register(ctx, vehicleNumber, ownerPhone, code)
}
func (m *mockTagServicer) Lookup(ctx context.Context, code string) (domain.Contact, error) {
	return m.lookup(ctx, code)
}
func (m *mockTagServicer) Alert(ctx context.Context, req domain.AlertRequest) (domain.Alert, error) {
	return m.alert(ctx, req)
}
func (m *mockTagServicer) History(ctx context.Context, code string, p domain.PaginationParams) ([]domain.Alert, int64, error) {
	return m.history(ctx, code, p)
}
func (m *mockTagServicer) Deactivate(ctx context.Context, code string) error {
	return m.deactivate(ctx, code)
}

// compile-time check: mockTagServicer must satisfy handler.TagServicer.
var _ handler.TagServicer = (*mockTagServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mock into the chi router.
// This mirrors exactly how main.go wires it in production.
func newHTTPHandler(svc handler.TagServicer) http.Handler {
	return handler.NewServer(svc).Routes()
}

func tagFixture() domain.Tag {
	return domain.Tag{
		ID:            uuid.New(),
		TagID:         "ABCD2345",
		VehicleNumber: "KA-01-AB-1234",
		OwnerPhone:    "+919876500000",
		Active:        true,
		CreatedAt:     time.Now().UTC(),
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body *bytes.Buffer) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ---- POST /tags ------------------------------------------------------------

func TestRegisterTag_201(t *testing.T) {
	fixture := tagFixture()
	svc := &mockTagServicer{
		register: func(_ context.Context, vehicleNumber, ownerPhone, code string) (domain.Tag, error) {
			assert.Equal(t, "KA-01-AB-1234", vehicleNumber)
			assert.Equal(t, "+919876500000", ownerPhone)
			assert.Empty(t, code)
			return fixture, nil
		},
	}

	body := jsonBody(t, map[string]any{
		"vehicleNumber": "KA-01-AB-1234",
		"ownerPhone":    "+919876500000",
	})
	rec := doJSON(t, newHTTPHandler(svc), http.MethodPost, "/tags", body)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		TagID string `json:"tagId"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, fixture.TagID, resp.TagID)
}

func TestRegisterTag_PassesClaimedCode(t *testing.T) {
	svc := &mockTagServicer{
		register: func(_ context.Context, _, _, code string) (domain.Tag, error) {
			assert.Equal(t, "WXYZ7890", code)
			return domain.Tag{TagID: code}, nil
		},
	}

	body := jsonBody(t, map[string]any{
		"vehicleNumber": "KA-01-AB-1234",
		"ownerPhone":    "+919876500000",
		"tagId":         "WXYZ7890",
	})
	rec := doJSON(t, newHTTPHandler(svc), http.MethodPost, "/tags", body)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRegisterTag_400_Validation(t *testing.T) {
	svc := &mockTagServicer{
		register: func(_ context.Context, _, _, _ string) (domain.Tag, error) {
			return domain.Tag{}, fmt.Errorf("service.TagService.Register: %w: invalid phone number format", domain.ErrValidation)
		},
	}

	rec := doJSON(t, newHTTPHandler(svc), http.MethodPost, "/tags", jsonBody(t, map[string]any{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "validation_error", resp.Error.Code)
	assert.Equal(t, "invalid phone number format", resp.Error.Message)
}

func TestRegisterTag_409_AlreadyRegistered(t *testing.T) {
	svc := &mockTagServicer{
		register: func(_ context.Context, _, _, _ string) (domain.Tag, error) {
			return domain.Tag{}, fmt.Errorf("service.TagService.Register: %w", domain.ErrConflict)
		},
	}

	rec := doJSON(t, newHTTPHandler(svc), http.MethodPost, "/tags", jsonBody(t, map[string]any{
		"vehicleNumber": "KA-01-AB-1234",
		"ownerPhone":    "+919876500000",
		"tagId":         "WXYZ7890",
	}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already_registered")
}

func TestRegisterTag_400_MalformedBody(t *testing.T) {
	svc := &mockTagServicer{}

	req := httptest.NewRequest(http.MethodPost, "/tags", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	newHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---- GET /tags/{tagID} -----------------------------------------------------

func TestLookupTag_200_MaskComplete(t *testing.T) {
	svc := &mockTagServicer{
		lookup: func(_ context.Context, code string) (domain.Contact, error) {
			assert.Equal(t, "ABCD2345", code)
			return domain.Contact{VehicleNumber: "KA-01-AB-1234", OwnerPhone: "+919876500000"}, nil
		},
	}

	rec := doJSON(t, newHTTPHandler(svc), http.MethodGet, "/tags/ABCD2345", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	// Decode into a loose map so extra fields can't hide behind a struct.
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, true, resp["found"])
	assert.Equal(t, "KA-01-AB-1234", resp["vehicleNumber"])
	assert.Equal(t, "+919876500000", resp["ownerPhone"])
	assert.NotContains(t, resp, "alerts")
	assert.NotContains(t, resp, "createdAt")
	assert.NotContains(t, resp, "active")
}

func TestLookupTag_404_ClaimSignal(t *testing.T) {
	svc := &mockTagServicer{
		lookup: func(_ context.Context, _ string) (domain.Contact, error) {
			return domain.Contact{}, fmt.Errorf("service.TagService.Lookup: %w", domain.ErrNotFound)
		},
	}

	rec := doJSON(t, newHTTPHandler(svc), http.MethodGet, "/tags/FRESH234", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, false, resp["found"])
	assert.Equal(t, "FRESH234", resp["tagId"])
	assert.NotContains(t, resp, "error", "unregistered code is a claim signal, not an error")
}

func TestLookupTag_403_Disabled(t *testing.T) {
	svc := &mockTagServicer{
		lookup: func(_ context.Context, _ string) (domain.Contact, error) {
			return domain.Contact{}, fmt.Errorf("service.TagService.Lookup: %w", domain.ErrForbidden)
		},
	}

	rec := doJSON(t, newHTTPHandler(svc), http.MethodGet, "/tags/ABCD2345", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "+91", "phone must not leak on forbidden responses")
}

// ---- POST /tags/{tagID}/alerts ----------------------------------------------

func TestSendAlert_200(t *testing.T) {
	svc := &mockTagServicer{
		alert: func(_ context.Context, req domain.AlertRequest) (domain.Alert, error) {
			assert.Equal(t, "ABCD2345", req.Code)
			assert.Equal(t, "blocking", req.Kind)
			assert.NotEmpty(t, req.OriginAddress)
			return domain.Alert{ID: uuid.New(), Kind: domain.KindBlocking, CreatedAt: time.Now()}, nil
		},
	}

	rec := doJSON(t, newHTTPHandler(svc), http.MethodPost, "/tags/ABCD2345/alerts",
		jsonBody(t, map[string]any{"kind": "blocking"}))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
}

func TestSendAlert_400_MissingKind(t *testing.T) {
	svc := &mockTagServicer{}

	rec := doJSON(t, newHTTPHandler(svc), http.MethodPost, "/tags/ABCD2345/alerts",
		jsonBody(t, map[string]any{"message": "no kind"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendAlert_404(t *testing.T) {
	svc := &mockTagServicer{
		alert: func(_ context.Context, _ domain.AlertRequest) (domain.Alert, error) {
			return domain.Alert{}, fmt.Errorf("service.TagService.Alert: %w", domain.ErrNotFound)
		},
	}

	rec := doJSON(t, newHTTPHandler(svc), http.MethodPost, "/tags/GONE2345/alerts",
		jsonBody(t, map[string]any{"kind": "blocking"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendAlert_403_Disabled(t *testing.T) {
	svc := &mockTagServicer{
		alert: func(_ context.Context, _ domain.AlertRequest) (domain.Alert, error) {
			return domain.Alert{}, fmt.Errorf("service.TagService.Alert: %w", domain.ErrForbidden)
		},
	}

	rec := doJSON(t, newHTTPHandler(svc), http.MethodPost, "/tags/ABCD2345/alerts",
		jsonBody(t, map[string]any{"kind": "lights-on"}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSendAlert_429_WithRetryAfter(t *testing.T) {
	svc := &mockTagServicer{
		alert: func(_ context.Context, _ domain.AlertRequest) (domain.Alert, error) {
			return domain.Alert{}, fmt.Errorf("service.TagService.Alert: %w",
				&domain.RateLimitError{RetryAfter: 42 * time.Second})
		},
	}

	rec := doJSON(t, newHTTPHandler(svc), http.MethodPost, "/tags/ABCD2345/alerts",
		jsonBody(t, map[string]any{"kind": "blocking"}))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limited")
}

func TestSendAlert_400_CustomWithoutMessage(t *testing.T) {
	svc := &mockTagServicer{
		alert: func(_ context.Context, _ domain.AlertRequest) (domain.Alert, error) {
			return domain.Alert{}, fmt.Errorf("service.TagService.Alert: %w: custom alert requires a message", domain.ErrValidation)
		},
	}

	rec := doJSON(t, newHTTPHandler(svc), http.MethodPost, "/tags/ABCD2345/alerts",
		jsonBody(t, map[string]any{"kind": "custom"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "custom alert requires a message")
}

// ---- GET /tags/{tagID}/alerts -----------------------------------------------

func TestListAlerts_200_Paged(t *testing.T) {
	alerts := []domain.Alert{
		{ID: uuid.New(), Kind: domain.KindLightsOn, CreatedAt: time.Now()},
		{ID: uuid.New(), Kind: domain.KindBlocking, CreatedAt: time.Now().Add(-time.Hour)},
	}
	svc := &mockTagServicer{
		history: func(_ context.Context, code string, p domain.PaginationParams) ([]domain.Alert, int64, error) {
			assert.Equal(t, "ABCD2345", code)
			assert.Equal(t, 2, p.Page)
			assert.Equal(t, 5, p.Limit)
			return alerts, 12, nil
		},
	}

	rec := doJSON(t, newHTTPHandler(svc), http.MethodGet, "/tags/ABCD2345/alerts?page=2&limit=5", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data       []domain.Alert `json:"data"`
		Pagination struct {
			Page  int   `json:"page"`
			Limit int   `json:"limit"`
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.EqualValues(t, 12, resp.Pagination.Total)
}

func TestListAlerts_404(t *testing.T) {
	svc := &mockTagServicer{
		history: func(_ context.Context, _ string, _ domain.PaginationParams) ([]domain.Alert, int64, error) {
			return nil, 0, fmt.Errorf("service.TagService.History: %w", domain.ErrNotFound)
		},
	}

	rec := doJSON(t, newHTTPHandler(svc), http.MethodGet, "/tags/GONE2345/alerts", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- POST /tags/{tagID}/disable ----------------------------------------------

func TestDisableTag_204(t *testing.T) {
	var got string
	svc := &mockTagServicer{
		deactivate: func(_ context.Context, code string) error {
			got = code
			return nil
		},
	}

	rec := doJSON(t, newHTTPHandler(svc), http.MethodPost, "/tags/ABCD2345/disable", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "ABCD2345", got)
	assert.Empty(t, rec.Body.String())
}

func TestDisableTag_404(t *testing.T) {
	svc := &mockTagServicer{
		deactivate: func(_ context.Context, _ string) error {
			return fmt.Errorf("service.TagService.Deactivate: %w", domain.ErrNotFound)
		},
	}

	rec := doJSON(t, newHTTPHandler(svc), http.MethodPost, "/tags/GONE2345/disable", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
