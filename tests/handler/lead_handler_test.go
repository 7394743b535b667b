package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/fixpoint-as/repair-api/internal/http/handler"
	"github.com/fixpoint-as/repair-api/internal/http/middleware"
	"github.com/fixpoint-as/repair-api/internal/repository"
	"github.com/fixpoint-as/repair-api/internal/service"
	"github.com/fixpoint-as/repair-api/tests/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// handlerMetrics is shared across the package because NewMetrics registers
// against the default prometheus registry
var handlerMetrics = middleware.NewMetrics()

func createLeadHandler(db *gorm.DB) *handler.LeadHandler {
	logger := zap.NewNop()
	svc := service.NewLeadService(
		repository.NewLeadRepository(db),
		repository.NewLeadRemarkRepository(db),
		repository.NewStaffRepository(db),
		repository.NewNotificationRepository(db),
		logger,
	)
	return handler.NewLeadHandler(svc, handlerMetrics, logger)
}

// withURLParam attaches a chi route parameter to the request context
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func authedRequest(t *testing.T, db *gorm.DB, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	staff := testutil.CreateTestStaff(t, db, "Handler Tester", domain.RoleManager)
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(testutil.StaffContextFrom(req.Context(), staff.ID, domain.RoleManager))
}

func TestLeadHandler_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createLeadHandler(db)

	t.Run("valid lead returns 201", func(t *testing.T) {
		created := promtestutil.ToFloat64(handlerMetrics.LeadsCreated)

		req := authedRequest(t, db, http.MethodPost, "/api/v1/leads", domain.CreateLeadRequest{
			CustomerName:  "Ola Nordmann",
			CustomerPhone: "91234567",
			DeviceType:    domain.DeviceTypeLaptop,
			ReportedIssue: "will not boot",
		})
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var dto domain.LeadDTO
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&dto))
		assert.Equal(t, "Ola Nordmann", dto.CustomerName)
		assert.Equal(t, domain.LeadStatusNew, dto.Status)
		assert.Equal(t, created+1, promtestutil.ToFloat64(handlerMetrics.LeadsCreated))
	})

	t.Run("missing required fields return 400 with field errors", func(t *testing.T) {
		req := authedRequest(t, db, http.MethodPost, "/api/v1/leads", domain.CreateLeadRequest{
			CustomerName: "No Phone",
			DeviceType:   domain.DeviceTypePhone,
		})
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var apiErr domain.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Contains(t, apiErr.Errors, "customerPhone")
		assert.Contains(t, apiErr.Errors, "reportedIssue")
	})

	t.Run("malformed json returns 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/leads", bytes.NewBufferString("{nope"))
		rec := httptest.NewRecorder()
		h.Create(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLeadHandler_Get(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createLeadHandler(db)
	lead := testutil.CreateTestLead(t, db, "Lookup Target", domain.LeadStatusNew)

	t.Run("existing lead returns lead with remarks", func(t *testing.T) {
		req := authedRequest(t, db, http.MethodGet, "/api/v1/leads/"+lead.ID.String(), nil)
		req = withURLParam(req, "id", lead.ID.String())
		rec := httptest.NewRecorder()
		h.Get(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Lead    domain.LeadDTO         `json:"lead"`
			Remarks []domain.LeadRemarkDTO `json:"remarks"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, lead.ID, body.Lead.ID)
		assert.Empty(t, body.Remarks)
	})

	t.Run("unknown lead returns 404", func(t *testing.T) {
		id := uuid.New().String()
		req := authedRequest(t, db, http.MethodGet, "/api/v1/leads/"+id, nil)
		req = withURLParam(req, "id", id)
		rec := httptest.NewRecorder()
		h.Get(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid uuid returns 400", func(t *testing.T) {
		req := authedRequest(t, db, http.MethodGet, "/api/v1/leads/not-a-uuid", nil)
		req = withURLParam(req, "id", "not-a-uuid")
		rec := httptest.NewRecorder()
		h.Get(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLeadHandler_AddRemark(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createLeadHandler(db)

	post := func(t *testing.T, leadID uuid.UUID, body interface{}) *httptest.ResponseRecorder {
		req := authedRequest(t, db, http.MethodPost,
			fmt.Sprintf("/api/v1/leads/%s/remarks", leadID), body)
		req = withURLParam(req, "id", leadID.String())
		rec := httptest.NewRecorder()
		h.AddRemark(rec, req)
		return rec
	}

	t.Run("remark with status change returns 201", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Remarked", domain.LeadStatusNew)
		contacted := domain.LeadStatusContacted
		added := promtestutil.ToFloat64(handlerMetrics.RemarksAdded)

		rec := post(t, lead.ID, domain.AddRemarkRequest{
			Note:   "called the customer, they will come by tomorrow",
			Status: &contacted,
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp domain.AddRemarkResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, resp.LeadUpdated)
		assert.Empty(t, resp.Warning)
		require.NotNil(t, resp.Remark.StatusChangedTo)
		assert.Equal(t, contacted, *resp.Remark.StatusChangedTo)
		assert.Equal(t, added+1, promtestutil.ToFloat64(handlerMetrics.RemarksAdded))
	})

	t.Run("illegal status jump returns 400", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "No Jumps", domain.LeadStatusNew)
		delivered := domain.LeadStatusDelivered

		rec := post(t, lead.ID, domain.AddRemarkRequest{
			Note:   "trying to skip the pipeline",
			Status: &delivered,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty note returns 400", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Empty Note", domain.LeadStatusNew)
		rec := post(t, lead.ID, domain.AddRemarkRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown lead returns 404", func(t *testing.T) {
		rec := post(t, uuid.New(), domain.AddRemarkRequest{Note: "ghost lead"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestLeadHandler_Cancel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createLeadHandler(db)

	t.Run("cancel active lead returns 200", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Doomed", domain.LeadStatusInRepair)
		req := authedRequest(t, db, http.MethodPost,
			fmt.Sprintf("/api/v1/leads/%s/cancel", lead.ID),
			map[string]string{"reason": "customer bought a new device"})
		req = withURLParam(req, "id", lead.ID.String())
		rec := httptest.NewRecorder()
		h.Cancel(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var dto domain.LeadDTO
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&dto))
		assert.Equal(t, domain.LeadStatusCancelled, dto.Status)
	})

	t.Run("cancel delivered lead returns 400", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Already Done", domain.LeadStatusDelivered)
		req := authedRequest(t, db, http.MethodPost,
			fmt.Sprintf("/api/v1/leads/%s/cancel", lead.ID), nil)
		req = withURLParam(req, "id", lead.ID.String())
		rec := httptest.NewRecorder()
		h.Cancel(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLeadHandler_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createLeadHandler(db)

	testutil.CreateTestLead(t, db, "First", domain.LeadStatusNew)
	testutil.CreateTestLead(t, db, "Second", domain.LeadStatusContacted)

	t.Run("lists all leads paginated", func(t *testing.T) {
		req := authedRequest(t, db, http.MethodGet, "/api/v1/leads", nil)
		rec := httptest.NewRecorder()
		h.List(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp domain.PaginatedResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, int64(2), resp.Total)
		assert.Equal(t, 1, resp.Page)
	})

	t.Run("status filter narrows results", func(t *testing.T) {
		req := authedRequest(t, db, http.MethodGet, "/api/v1/leads?status=contacted", nil)
		rec := httptest.NewRecorder()
		h.List(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp domain.PaginatedResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, int64(1), resp.Total)
	})

	t.Run("bogus status filter returns 400", func(t *testing.T) {
		req := authedRequest(t, db, http.MethodGet, "/api/v1/leads?status=vaporized", nil)
		rec := httptest.NewRecorder()
		h.List(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
