//go:build !integration

package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"salesInsight/business/refresh"
	"salesInsight/domain"
	"salesInsight/internal/middleware"
)

type fakeRFMService struct {
	views []domain.RFMSegmentView
	recs  map[int64]domain.RFMRecord
}

func (f *fakeRFMService) ListSegments(ctx context.Context) ([]domain.RFMSegmentView, error) {
	return f.views, nil
}

func (f *fakeRFMService) GetCustomer(ctx context.Context, id int64) (domain.RFMRecord, error) {
	rec, ok := f.recs[id]
	if !ok {
		return domain.RFMRecord{}, fmt.Errorf("customer %d: %w", id, domain.ErrNotFound)
	}
	return rec, nil
}

func (f *fakeRFMService) SegmentCounts(ctx context.Context) (map[domain.Segment]int, error) {
	counts := map[domain.Segment]int{}
	for _, v := range f.views {
		counts[v.Segment]++
	}
	return counts, nil
}

type fakePredictor struct {
	loaded bool
	calls  int
}

func (f *fakePredictor) Predict(recency, frequency float64) (domain.CLVPrediction, error) {
	f.calls++
	if recency < 0 {
		return domain.CLVPrediction{}, &domain.InvalidFeatureError{Feature: "Recency", Value: recency}
	}
	if !f.loaded {
		return domain.CLVPrediction{PredictedCLV: math.NaN()}, nil
	}
	return domain.CLVPrediction{PredictedCLV: 100 + recency + 10*frequency, Available: true, ModelVersion: "v1"}, nil
}

type fakeModelService struct{ info *domain.ModelInfo }

func (f *fakeModelService) ModelInfo(ctx context.Context) (domain.ModelInfo, error) {
	if f.info == nil {
		return domain.ModelInfo{}, fmt.Errorf("clv model: %w", domain.ErrNotFound)
	}
	return *f.info, nil
}

func newTestServer(rfmSvc RFMService, pred CLVPredictor, models ModelService) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler

	api := e.Group("/api/v1")
	api.GET("/health", NewHealthHandler().Health)

	rfmHandler := NewRFMHandler(rfmSvc)
	api.GET("/rfm/segments", rfmHandler.ListSegments)
	api.GET("/rfm/segments/summary", rfmHandler.SegmentSummary)
	api.GET("/rfm/segments/:customer_id", rfmHandler.GetCustomer)

	clvHandler := NewCLVHandler(pred, models)
	api.POST("/predict/clv", clvHandler.Predict)
	api.GET("/model", clvHandler.ModelInfo)
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e := newTestServer(&fakeRFMService{}, &fakePredictor{}, &fakeModelService{})
	rec := do(e, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"status":"ok"}` {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}
}

func TestListSegments(t *testing.T) {
	svc := &fakeRFMService{views: []domain.RFMSegmentView{
		{CustomerID: 1, Recency: 2, Frequency: 5, Monetary: 500, Segment: domain.SegmentVIP},
		{CustomerID: 2, Recency: 90, Frequency: 1, Monetary: 10, Segment: domain.SegmentAtRisk},
	}}
	e := newTestServer(svc, &fakePredictor{}, &fakeModelService{})

	rec := do(e, http.MethodGet, "/api/v1/rfm/segments", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{`"CustomerID":1`, `"CustomerID":2`, `"Segment":"At_Risk"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %s: %s", want, body)
		}
	}
	if strings.Contains(body, "R_score") {
		t.Fatalf("listing must not expose score columns: %s", body)
	}

	rec = do(e, http.MethodGet, "/api/v1/rfm/segments?segment=VIP", "")
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), `"CustomerID":2`) {
		t.Fatalf("segment filter: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/api/v1/rfm/segments?segment=Gold", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown segment: want 400 got %d", rec.Code)
	}
}

func TestListSegmentsEmpty(t *testing.T) {
	e := newTestServer(&fakeRFMService{views: []domain.RFMSegmentView{}}, &fakePredictor{}, &fakeModelService{})
	rec := do(e, http.MethodGet, "/api/v1/rfm/segments", "")
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), "CustomerID") {
		t.Fatalf("empty listing: %d %s", rec.Code, rec.Body.String())
	}
}

func TestGetCustomer(t *testing.T) {
	svc := &fakeRFMService{recs: map[int64]domain.RFMRecord{
		7: {CustomerID: 7, RScore: 4, FScore: 4, MScore: 3, RFMScore: 11, Segment: domain.SegmentVIP},
	}}
	e := newTestServer(svc, &fakePredictor{}, &fakeModelService{})

	rec := do(e, http.MethodGet, "/api/v1/rfm/segments/7", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"RFM_score":11`) {
		t.Fatalf("get customer: %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(e, http.MethodGet, "/api/v1/rfm/segments/8", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing customer: want 404 got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/v1/rfm/segments/abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: want 400 got %d", rec.Code)
	}
}

func TestSegmentSummary(t *testing.T) {
	svc := &fakeRFMService{views: []domain.RFMSegmentView{{CustomerID: 1, Segment: domain.SegmentLoyal}}}
	e := newTestServer(svc, &fakePredictor{}, &fakeModelService{})

	rec := do(e, http.MethodGet, "/api/v1/rfm/segments/summary", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"Loyal":1`) {
		t.Fatalf("summary: %d %s", rec.Code, rec.Body.String())
	}
}

func TestPredictCLV(t *testing.T) {
	pred := &fakePredictor{loaded: true}
	e := newTestServer(&fakeRFMService{}, pred, &fakeModelService{})

	rec := do(e, http.MethodPost, "/api/v1/predict/clv", `{"recency": 10, "frequency": 2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d %s", rec.Code, rec.Body.String())
	}
	var got struct {
		PredictedCLV *float64 `json:"predicted_clv"`
		Available    bool     `json:"available"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.PredictedCLV == nil || *got.PredictedCLV != 130 || !got.Available {
		t.Fatalf("unexpected prediction: %s", rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/api/v1/predict/clv", `{"recency": 0, "frequency": 0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("zero features are valid: %d %s", rec.Code, rec.Body.String())
	}
}

func TestPredictCLVValidation(t *testing.T) {
	pred := &fakePredictor{loaded: true}
	e := newTestServer(&fakeRFMService{}, pred, &fakeModelService{})

	for _, body := range []string{
		`{"recency": -1, "frequency": 5}`,
		`{"recency": 3, "frequency": -0.5}`,
		`{"frequency": 5}`,
		`{"recency": "soon", "frequency": 5}`,
		`not json`,
	} {
		rec := do(e, http.MethodPost, "/api/v1/predict/clv", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: want 400 got %d", body, rec.Code)
		}
	}
	if pred.calls != 0 {
		t.Fatalf("invalid requests must not reach the predictor")
	}
}

func TestPredictCLVWithoutModel(t *testing.T) {
	e := newTestServer(&fakeRFMService{}, &fakePredictor{}, &fakeModelService{})

	rec := do(e, http.MethodPost, "/api/v1/predict/clv", `{"recency": 10, "frequency": 2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"predicted_clv":null`) || !strings.Contains(rec.Body.String(), `"available":false`) {
		t.Fatalf("want null sentinel, got %s", rec.Body.String())
	}
}

func TestModelInfo(t *testing.T) {
	e := newTestServer(&fakeRFMService{}, &fakePredictor{}, &fakeModelService{})
	if rec := do(e, http.MethodGet, "/api/v1/model", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("no model: want 404 got %d", rec.Code)
	}

	info := &domain.ModelInfo{Version: "abc", Algorithm: "ols-standardized", Metrics: domain.ModelMetrics{R2: 0.7, RMSE: 12}}
	e = newTestServer(&fakeRFMService{}, &fakePredictor{}, &fakeModelService{info: info})
	rec := do(e, http.MethodGet, "/api/v1/model", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"version":"abc"`) {
		t.Fatalf("model info: %d %s", rec.Code, rec.Body.String())
	}
}

type fakeReloader struct {
	err    error
	loaded bool
}

func (f *fakeReloader) Reload(ctx context.Context) error { return f.err }
func (f *fakeReloader) Loaded() bool                     { return f.loaded }

type fakeRefresher struct{ err error }

func (f *fakeRefresher) Run(ctx context.Context) (refresh.Result, error) {
	if f.err != nil {
		return refresh.Result{}, f.err
	}
	return refresh.Result{Customers: 20, ModelVersion: "v2", Duration: 1500 * time.Millisecond}, nil
}

func TestAdminReload(t *testing.T) {
	e := echo.New()
	h := NewAdminHandler(map[string]Reloader{
		"rfm_table": &fakeReloader{loaded: true},
		"clv_model": &fakeReloader{err: errors.New("store offline")},
	}, nil)
	e.POST("/admin/reload", h.Reload)
	e.POST("/admin/refresh", h.Refresh)

	rec := do(e, http.MethodPost, "/admin/reload", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("partial failure: want 500 got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"rfm_table":true`) || !strings.Contains(body, `"clv_model":"store offline"`) {
		t.Fatalf("unexpected body: %s", body)
	}

	if rec := do(e, http.MethodPost, "/admin/refresh", ""); rec.Code != http.StatusNotImplemented {
		t.Fatalf("refresh without job: want 501 got %d", rec.Code)
	}
}

func TestAdminRefresh(t *testing.T) {
	e := echo.New()
	h := NewAdminHandler(nil, &fakeRefresher{})
	e.POST("/admin/refresh", h.Refresh)

	rec := do(e, http.MethodPost, "/admin/refresh", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"duration_ms":1500`) {
		t.Fatalf("refresh: %d %s", rec.Code, rec.Body.String())
	}

	e = echo.New()
	h = NewAdminHandler(nil, &fakeRefresher{err: &domain.InsufficientPopulationError{Metric: "Frequency", Distinct: 2, Required: 4}})
	e.POST("/admin/refresh", h.Refresh)
	if rec := do(e, http.MethodPost, "/admin/refresh", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("failed refresh: want 422 got %d", rec.Code)
	}
}

type fakeStatsService struct {
	summary domain.SalesSummary
	block   bool
}

func (f *fakeStatsService) Summary(ctx context.Context) (domain.SalesSummary, error) {
	if f.block {
		<-ctx.Done()
		return domain.SalesSummary{}, fmt.Errorf("load transactions: %w", ctx.Err())
	}
	return f.summary, nil
}

func TestStatsSummary(t *testing.T) {
	territory := "Australia"
	svc := &fakeStatsService{summary: domain.SalesSummary{TotalRevenue: 1250.5, TotalCustomers: 3, TopTerritory: &territory}}

	e := echo.New()
	e.GET("/api/v1/stats/summary", NewStatsHandler(svc, time.Second).Summary)

	rec := do(e, http.MethodGet, "/api/v1/stats/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	for _, want := range []string{`"total_revenue":1250.5`, `"total_customers":3`, `"top_territory":"Australia"`, `"top_product":null`} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("body missing %s: %s", want, rec.Body.String())
		}
	}
}

func TestStatsSummaryTimeout(t *testing.T) {
	e := echo.New()
	e.GET("/api/v1/stats/summary", NewStatsHandler(&fakeStatsService{block: true}, 10*time.Millisecond).Summary)

	rec := do(e, http.MethodGet, "/api/v1/stats/summary", "")
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status: want=504 got=%d", rec.Code)
	}
}
