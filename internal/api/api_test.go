package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rgehrsitz/payoutgo/internal/breakeven"
	"github.com/rgehrsitz/payoutgo/internal/calculation"
	"github.com/rgehrsitz/payoutgo/internal/compare"
	"github.com/rgehrsitz/payoutgo/internal/config"
	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/rgehrsitz/payoutgo/internal/mortality"
	"github.com/shopspring/decimal"
)

// createTestServer creates a server over the embedded life table and regulatory data,
// with "today" pinned to 2025-09-01.
func createTestServer(t *testing.T) *Server {
	t.Helper()
	table, err := mortality.Default()
	if err != nil {
		t.Fatalf("failed to load life table: %v", err)
	}
	reg, err := config.DefaultRegulatory()
	if err != nil {
		t.Fatalf("failed to load regulatory config: %v", err)
	}

	server := NewServer(DefaultConfig(), calculation.NewCalculationEngine(table, reg), "test-v1")
	server.Handler().now = func() time.Time { return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC) }
	return server
}

func doRequest(t *testing.T, server *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code domain.ReasonCode) ErrorResponse {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rr.Code, rr.Body.String())
	}
	var resp ErrorResponse
	decodeBody(t, rr, &resp)
	if resp.Code != code {
		t.Errorf("expected code %s, got %s (%s)", code, resp.Code, resp.Error)
	}
	if resp.Error == "" {
		t.Error("expected error message")
	}
	return resp
}

const scenarioBody = `{"principal": 20000, "age": 65, "sex": "female", "technical_rate_percent": 5, "valuation_date": "2025-09-01"`

func TestHealthEndpoint(t *testing.T) {
	server := createTestServer(t)

	rr := doRequest(t, server, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp HealthResponse
	decodeBody(t, rr, &resp)
	if resp.Status != "healthy" {
		t.Errorf("expected healthy, got %s", resp.Status)
	}
	if resp.Version != "test-v1" {
		t.Errorf("expected version test-v1, got %s", resp.Version)
	}
	if resp.LifeTable == "" {
		t.Error("expected life table name")
	}
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Error("expected generated X-Request-ID header")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	server := createTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("expected request id req-123, got %q", got)
	}
	// No tracer provider is registered in tests, so the trace ID falls back to the request ID.
	if got := rr.Header().Get(TraceIDHeader); got != "req-123" {
		t.Errorf("expected trace id req-123, got %q", got)
	}
}

func TestQuoteEndpoint(t *testing.T) {
	server := createTestServer(t)

	t.Run("Lifetime", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/v1/quote", scenarioBody+`}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp domain.QuoteResult
		decodeBody(t, rr, &resp)
		if !resp.MonthlyAmount.Equal(decimal.NewFromFloat(144.12)) {
			t.Errorf("expected 144.12, got %s", resp.MonthlyAmount)
		}
		if resp.Classification.Regime != domain.RegimeFullAnnuityMenu {
			t.Errorf("expected full annuity menu, got %s", resp.Classification.Regime)
		}
		if resp.TableAge != 65 {
			t.Errorf("expected table age 65, got %d", resp.TableAge)
		}
	})

	t.Run("GuaranteedYears", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/v1/quote",
			scenarioBody+`, "structure": {"kind": "guaranteed_years", "years": 10}}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp domain.QuoteResult
		decodeBody(t, rr, &resp)
		if !resp.MonthlyAmount.Equal(decimal.NewFromFloat(137.76)) {
			t.Errorf("expected 137.76, got %s", resp.MonthlyAmount)
		}
		if resp.BoundaryAge != 75 {
			t.Errorf("expected boundary age 75, got %d", resp.BoundaryAge)
		}
	})

	t.Run("DefaultValuationDate", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/v1/quote",
			`{"principal": 20000, "age": 65, "sex": "F", "fund": "rodina"}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp domain.QuoteResult
		decodeBody(t, rr, &resp)
		if resp.ValuationDate.Format(dateLayout) != "2025-09-01" {
			t.Errorf("expected valuation date 2025-09-01, got %s", resp.ValuationDate)
		}
		if resp.TechnicalRatePercent != 3 {
			t.Errorf("expected the fund's 3%% rate, got %v", resp.TechnicalRatePercent)
		}
	})

	t.Run("InstallmentOutOfBounds", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/v1/quote",
			`{"principal": 5000, "age": 65, "sex": "female", "technical_rate_percent": 5, "valuation_date": "2025-09-01", "installment_amount": 50}`)

		resp := expectError(t, rr, http.StatusUnprocessableEntity, domain.ReasonOutOfBoundsInstallment)
		if resp.Bounds == nil {
			t.Fatal("expected installment bounds in the response")
		}
		if !resp.Bounds.Min.Equal(decimal.NewFromFloat(95.4)) || !resp.Bounds.Max.Equal(decimal.NewFromInt(636)) {
			t.Errorf("expected bounds [95.40, 636], got [%s, %s]", resp.Bounds.Min, resp.Bounds.Max)
		}
	})

	t.Run("UnknownFund", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/v1/quote",
			`{"principal": 20000, "age": 65, "sex": "female", "fund": "nope", "valuation_date": "2025-09-01"}`)
		expectError(t, rr, http.StatusUnprocessableEntity, domain.ReasonUnknownFund)
	})

	t.Run("InfeasibleSchedule", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/v1/quote",
			scenarioBody+`, "structure": {"kind": "scheduled_installments", "months": 120, "monthly_amount": 300}}`)
		expectError(t, rr, http.StatusUnprocessableEntity, domain.ReasonInfeasibleResult)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/v1/quote", `{"principal": `)
		expectError(t, rr, http.StatusBadRequest, domain.ReasonInvalidInput)
	})

	t.Run("UnknownField", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/v1/quote", scenarioBody+`, "salary": 1}`)
		expectError(t, rr, http.StatusBadRequest, domain.ReasonInvalidInput)
	})

	t.Run("BadDate", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/v1/quote",
			`{"principal": 20000, "age": 65, "sex": "female", "technical_rate_percent": 5, "valuation_date": "01/09/2025"}`)
		expectError(t, rr, http.StatusBadRequest, domain.ReasonInvalidInput)
	})

	t.Run("BadSex", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/v1/quote",
			`{"principal": 20000, "age": 65, "sex": "x", "technical_rate_percent": 5}`)
		expectError(t, rr, http.StatusBadRequest, domain.ReasonInvalidInput)
	})
}

func TestClassifyEndpoint(t *testing.T) {
	server := createTestServer(t)

	rr := doRequest(t, server, http.MethodPost, "/api/v1/classify",
		`{"principal": 5000, "age": 65, "sex": "female", "technical_rate_percent": 5, "valuation_date": "2025-09-01"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp domain.Classification
	decodeBody(t, rr, &resp)
	if resp.Regime != domain.RegimeInstallment {
		t.Errorf("expected installment regime, got %s", resp.Regime)
	}
	if !resp.MinimumPension.Equal(decimal.NewFromInt(636)) {
		t.Errorf("expected minimum pension 636, got %s", resp.MinimumPension)
	}
	if resp.InstallmentBounds == nil {
		t.Error("expected installment bounds")
	}
}

func TestMenuEndpoint(t *testing.T) {
	server := createTestServer(t)

	t.Run("DefaultAlternatives", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/v1/menu", scenarioBody+`}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp compare.ComparisonSet
		decodeBody(t, rr, &resp)
		if resp.BaseResult == nil || !resp.BaseResult.MonthlyAmount.Equal(decimal.NewFromFloat(144.12)) {
			t.Errorf("expected lifetime base of 144.12, got %+v", resp.BaseResult)
		}
		if len(resp.AlternativeResults) != 3 {
			t.Errorf("expected 3 alternatives, got %d", len(resp.AlternativeResults))
		}
		if len(resp.Recommendations) == 0 {
			t.Error("expected recommendations")
		}
	})

	t.Run("RequestedAlternatives", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/v1/menu",
			scenarioBody+`, "guarantees": [10], "schedules": [{"months": 60, "amount": 300}, {"months": 120, "amount": 300}]}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp compare.ComparisonSet
		decodeBody(t, rr, &resp)
		if len(resp.AlternativeResults) != 3 {
			t.Fatalf("expected 3 alternatives, got %d", len(resp.AlternativeResults))
		}
		if !resp.AlternativeResults[1].MonthlyAmount.Equal(decimal.NewFromFloat(46.62)) {
			t.Errorf("expected 46.62 after 60 x 300, got %s", resp.AlternativeResults[1].MonthlyAmount)
		}
		if resp.AlternativeResults[2].Rejection == nil || resp.AlternativeResults[2].Rejection.Code != domain.ReasonInfeasibleResult {
			t.Errorf("expected 120 x 300 to be infeasible, got %+v", resp.AlternativeResults[2].Rejection)
		}
	})

	t.Run("SmallFund", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/v1/menu",
			`{"principal": 5000, "age": 65, "sex": "female", "technical_rate_percent": 5, "valuation_date": "2025-09-01"}`)
		expectError(t, rr, http.StatusUnprocessableEntity, domain.ReasonInvalidInput)
	})
}

func TestSolveEndpoint(t *testing.T) {
	server := createTestServer(t)

	t.Run("MaxInstallment", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/v1/solve",
			scenarioBody+`, "target": "max_installment", "months": 60}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp breakeven.OptimizationResult
		decodeBody(t, rr, &resp)
		if resp.OptimalInstallment == nil {
			t.Fatal("expected an optimal installment")
		}
		if diff := resp.OptimalInstallment.Sub(decimal.NewFromFloat(376.40)).Abs(); diff.GreaterThan(decimal.NewFromFloat(0.02)) {
			t.Errorf("expected about 376.40, got %s", resp.OptimalInstallment)
		}
	})

	t.Run("All", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/v1/solve",
			scenarioBody+`, "target": "all", "months": 60, "target_monthly": 130}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp breakeven.MultiDimensionalResult
		decodeBody(t, rr, &resp)
		if len(resp.Results) != 3 {
			t.Errorf("expected 3 results, got %d", len(resp.Results))
		}
	})

	t.Run("UnknownTarget", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/v1/solve", scenarioBody+`, "target": "tsp_rate"}`)
		expectError(t, rr, http.StatusBadRequest, domain.ReasonInvalidInput)
	})

	t.Run("Unreachable", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodPost, "/api/v1/solve",
			scenarioBody+`, "target": "guarantee_years", "target_monthly": 500}`)
		expectError(t, rr, http.StatusUnprocessableEntity, domain.ReasonInfeasibleResult)
	})
}

func TestReferenceEndpoints(t *testing.T) {
	server := createTestServer(t)

	t.Run("Funds", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/api/v1/funds", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		var resp FundsResponse
		decodeBody(t, rr, &resp)
		if len(resp.Funds) != 3 {
			t.Errorf("expected 3 funds, got %d", len(resp.Funds))
		}
	})

	t.Run("MinimumPension", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/api/v1/minimum-pension?date=2025-09-01", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var resp MinimumPensionResponse
		decodeBody(t, rr, &resp)
		if !resp.MinimumPension.Equal(decimal.NewFromInt(636)) {
			t.Errorf("expected 636, got %s", resp.MinimumPension)
		}
		if !resp.SmallFundThreshold.Equal(decimal.NewFromFloat(95.4)) {
			t.Errorf("expected 95.40, got %s", resp.SmallFundThreshold)
		}
		if !resp.LumpSumThreshold.Equal(decimal.NewFromInt(1908)) {
			t.Errorf("expected 1908, got %s", resp.LumpSumThreshold)
		}
	})

	t.Run("MinimumPensionBeforeFirstStep", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/api/v1/minimum-pension?date=2000-01-01", "")
		expectError(t, rr, http.StatusUnprocessableEntity, domain.ReasonNoMinimumPension)
	})

	t.Run("MinimumPensionBadDate", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/api/v1/minimum-pension?date=yesterday", "")
		expectError(t, rr, http.StatusBadRequest, domain.ReasonInvalidInput)
	})

	t.Run("LifeTable", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/api/v1/life-table/female?rate=5", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var resp LifeTableResponse
		decodeBody(t, rr, &resp)
		if len(resp.Rows) != 100 {
			t.Fatalf("expected 100 rows, got %d", len(resp.Rows))
		}
		if !resp.Rows[65].PerThousand.Equal(decimal.NewFromFloat(7.21)) {
			t.Errorf("expected 7.21 per thousand at 65, got %s", resp.Rows[65].PerThousand)
		}
	})

	t.Run("LifeTableBadSex", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/api/v1/life-table/other", "")
		expectError(t, rr, http.StatusBadRequest, domain.ReasonInvalidInput)
	})

	t.Run("LifeTableBadRate", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/api/v1/life-table/male?rate=five", "")
		expectError(t, rr, http.StatusBadRequest, domain.ReasonInvalidInput)
	})

	t.Run("RetirementAge", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/api/v1/retirement-age?sex=female&date=2025-09-01", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var resp RetirementAgeResponse
		decodeBody(t, rr, &resp)
		if resp.RetirementAge != (domain.AgeSpec{Years: 62, Months: 4}) {
			t.Errorf("expected 62y 4m, got %s", resp.RetirementAge)
		}
		if resp.RequiredService == nil || !resp.RequiredService.Equal(decimal.RequireFromString("36.67")) {
			t.Errorf("expected 36.67 years of service, got %v", resp.RequiredService)
		}
	})

	t.Run("RetirementAgeBeforeRules", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/api/v1/retirement-age?sex=male&date=1990-01-01", "")
		expectError(t, rr, http.StatusUnprocessableEntity, domain.ReasonInvalidInput)
	})
}

func TestCancelledRequest(t *testing.T) {
	server := createTestServer(t)

	for _, path := range []string{"/api/v1/quote", "/api/v1/solve"} {
		t.Run(path, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			body := scenarioBody + `}`
			if path == "/api/v1/solve" {
				body = scenarioBody + `, "target": "max_installment", "months": 60}`
			}
			req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body)).WithContext(ctx)
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			server.Router().ServeHTTP(rr, req)

			expectError(t, rr, http.StatusServiceUnavailable, domain.ReasonCanceled)
		})
	}
}

func TestRecoverMiddleware(t *testing.T) {
	handler := RecoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "INTERNAL") {
		t.Errorf("expected INTERNAL code, got %s", rr.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	server := createTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/quote", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("expected Access-Control-Allow-Origin header on preflight")
	}
}
