package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plannerhub/marketplace/internal/app/api/middleware"
	"github.com/plannerhub/marketplace/internal/app/service/actor"
	"github.com/plannerhub/marketplace/internal/app/service/billing"
	reqsvc "github.com/plannerhub/marketplace/internal/app/service/request"
	"github.com/plannerhub/marketplace/internal/app/service/subscription"
	wh "github.com/plannerhub/marketplace/internal/app/service/webhookhandler"
	"github.com/plannerhub/marketplace/internal/app/service/webhooklog"
	"github.com/plannerhub/marketplace/internal/models"
	"github.com/plannerhub/marketplace/internal/platform/paypal"
	"github.com/plannerhub/marketplace/pkg/config"
	"github.com/plannerhub/marketplace/pkg/response"
	"github.com/plannerhub/marketplace/pkg/tool"
	"github.com/plannerhub/marketplace/pkg/types"
)

func TestRegisterInvoiceRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterInvoiceRoutes(r.Group("/api/v1/invoices"), nil)

	routes := r.Routes()
	contains := func(target string) bool {
		for _, rt := range routes {
			if rt.Method+" "+rt.Path == target {
				return true
			}
		}
		return false
	}

	require.True(t, contains("POST /api/v1/invoices"))
	require.True(t, contains("POST /api/v1/invoices/:id/send"))
	require.True(t, contains("POST /api/v1/invoices/:id/pay"))
	require.True(t, contains("POST /api/v1/invoices/:id/confirm"))
	require.True(t, contains("DELETE /api/v1/invoices/:id"))
}

type stubProvider struct{}

func (stubProvider) CreateProduct(_ context.Context, req *paypal.CreateProductRequest) (*paypal.Product, error) {
	return &paypal.Product{ID: "PROD-1", Name: req.Name}, nil
}

func (stubProvider) CreatePlan(_ context.Context, req *paypal.CreatePlanRequest) (*paypal.Plan, error) {
	return &paypal.Plan{ID: "P-1", ProductID: req.ProductID, Name: req.Name, Status: "ACTIVE"}, nil
}

func (stubProvider) CreateSubscription(_ context.Context, req *paypal.CreateSubscriptionRequest) (*paypal.Subscription, error) {
	return &paypal.Subscription{
		ID:     "I-1000",
		PlanID: req.PlanID,
		Status: "APPROVAL_PENDING",
		Links:  []paypal.Link{{Href: "https://www.sandbox.paypal.com/webapps/billing/subscriptions?ba_token=BA-1", Rel: "approve", Method: "GET"}},
	}, nil
}

func (stubProvider) CancelSubscription(_ context.Context, _ string, _ string) error { return nil }

// fakeAuth stands in for the JWT middleware in tests.
func fakeAuth(userID string, role types.ActorRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
		c.Set(middleware.ContextKeyRole, string(role))
		c.Next()
	}
}

func newMarketplaceRouter(t *testing.T) (*gin.Engine, *gorm.DB, *models.Planner) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Planner{}, &models.Helper{}, &models.Client{},
		&models.Plan{}, &models.Subscription{},
		&models.Request{}, &models.Invoice{},
		&models.WebhookEventLog{}, &models.WebhookEvent{},
	))

	planner := &models.Planner{ID: tool.GenerateUUIDV7(), UserID: "user-1", BusinessName: "Velvet Events"}
	require.NoError(t, db.Create(planner).Error)

	log := zap.NewNop().Sugar()
	cfg := &config.Config{}
	subSvc := subscription.NewService(db, log)
	logSvc := webhooklog.New(db, log)
	billingSvc := billing.NewService(db, log, stubProvider{}, subSvc)
	requestSvc := reqsvc.NewService(db, log)
	handler := wh.NewHandler(cfg, log, subSvc, logSvc, nil)

	r := gin.New()
	authed := r.Group("/api/v1/billing", fakeAuth("user-1", types.ActorRolePlanner))
	RegisterBillingRoutes(authed, authed, billingSvc)
	RegisterWebhookRoutes(r.Group("/api/v1/webhooks"), handler)

	resolved := middleware.ActorMiddleware(actor.NewService(db))
	requests := r.Group("/api/v1/requests", fakeAuth("user-1", types.ActorRolePlanner), resolved)
	RegisterRequestRoutes(requests, requestSvc)
	return r, db, planner
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Walks the full subscription journey over HTTP: create a plan, subscribe,
// then deliver the provider's ACTIVATED webhook and observe the planner's
// mirrored state flip to active.
func TestSubscriptionJourney_PlanSubscribeActivate(t *testing.T) {
	r, db, planner := newMarketplaceRouter(t)

	w := postJSON(t, r, "/api/v1/billing/plans", map[string]any{
		"plan_name":     "Pro Monthly",
		"monthly_price": "49.00",
		"currency":      "EUR",
		"trial_days":    14,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var planResp response.APIResponse[paypal.Plan]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &planResp))
	require.Equal(t, response.APIResponseCodeOK, planResp.Code)
	require.Equal(t, "P-1", planResp.Data.ID)

	w = postJSON(t, r, "/api/v1/billing/subscriptions", map[string]any{
		"plan_id":    "P-1",
		"return_url": "https://plannerhub.example/billing/return",
		"cancel_url": "https://plannerhub.example/billing/cancel",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var subResp response.APIResponse[billing.CreateSubscriptionResult]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &subResp))
	require.Equal(t, response.APIResponseCodeOK, subResp.Code)
	assert.Equal(t, "I-1000", subResp.Data.SubscriptionID)
	assert.Contains(t, subResp.Data.ApprovalURL, "ba_token=BA-1")

	event := map[string]any{
		"id":          "WH-1",
		"event_type":  "BILLING.SUBSCRIPTION.ACTIVATED",
		"create_time": "2026-09-01T12:00:00Z",
		"resource": map[string]any{
			"id":           "I-1000",
			"status":       "ACTIVE",
			"billing_info": map[string]any{"next_billing_time": "2026-10-01T00:00:00Z"},
		},
	}
	w = postJSON(t, r, "/api/v1/webhooks/paypal", event)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	var got models.Planner
	require.NoError(t, db.First(&got, "id = ?", planner.ID).Error)
	assert.Equal(t, types.SubscriptionStatusActive, got.SubscriptionStatus)
	require.NotNil(t, got.SubscriptionExpiresAt)
}

// Approving a request over HTTP must store the planner's profile row id as
// the owner, not the auth subject from the token.
func TestApproveRequestRoute_StoresPlannerRowID(t *testing.T) {
	r, db, planner := newMarketplaceRouter(t)

	request := &models.Request{
		ID:          tool.GenerateUUIDV7(),
		Kind:        types.RequestKindPlanner,
		ClientID:    tool.GenerateUUIDV7(),
		Title:       "Garden wedding",
		BudgetCents: 250000,
		Currency:    "EUR",
		Status:      types.RequestStatusPending,
	}
	require.NoError(t, db.Create(request).Error)

	w := postJSON(t, r, "/api/v1/requests/"+request.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Request
	require.NoError(t, db.First(&got, "id = ?", request.ID).Error)
	require.NotNil(t, got.PlannerID)
	assert.Equal(t, planner.ID, *got.PlannerID)
	assert.NotEqual(t, planner.UserID, *got.PlannerID)

	var owners int64
	require.NoError(t, db.Model(&models.Planner{}).Where("id = ?", *got.PlannerID).Count(&owners).Error)
	assert.Equal(t, int64(1), owners)
}

func TestRequestRoutes_UserWithoutProfileIsRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Planner{}, &models.Helper{}, &models.Client{}, &models.Request{}, &models.Invoice{}))

	r := gin.New()
	requests := r.Group("/api/v1/requests",
		fakeAuth("ghost", types.ActorRolePlanner),
		middleware.ActorMiddleware(actor.NewService(db)),
	)
	RegisterRequestRoutes(requests, reqsvc.NewService(db, zap.NewNop().Sugar()))

	w := postJSON(t, r, "/api/v1/requests/some-id/approve", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebhookRoute_MalformedBodyIsRejected(t *testing.T) {
	r, _, _ := newMarketplaceRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paypal", bytes.NewReader([]byte("not-json")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
