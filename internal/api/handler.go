package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rgehrsitz/payoutgo/internal/breakeven"
	"github.com/rgehrsitz/payoutgo/internal/calculation"
	"github.com/rgehrsitz/payoutgo/internal/compare"
	"github.com/rgehrsitz/payoutgo/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxBodyBytes bounds request bodies; a quote request is a few hundred bytes.
const maxBodyBytes = 1 << 20

// services are the engines built on one life table and regulatory config.
type services struct {
	engine  *calculation.CalculationEngine
	compare *compare.CompareEngine
	solver  *breakeven.Solver
}

// Handler contains HTTP handlers for the API.
type Handler struct {
	current atomic.Pointer[services]
	version string
	now     func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(engine *calculation.CalculationEngine, version string) *Handler {
	h := &Handler{
		version: version,
		now:     time.Now,
	}
	h.SetEngine(engine)
	return h
}

// SetEngine swaps the engine used by requests that start after the call.
// In-flight requests finish on the engine they started with.
func (h *Handler) SetEngine(engine *calculation.CalculationEngine) {
	h.current.Store(&services{
		engine:  engine,
		compare: compare.NewCompareEngine(engine),
		solver:  breakeven.NewDefaultSolver(engine),
	})
}

// Engine returns the engine currently serving requests.
func (h *Handler) Engine() *calculation.CalculationEngine {
	return h.current.Load().engine
}

func (h *Handler) today() time.Time {
	y, m, d := h.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		LifeTable: h.Engine().Table.Name(),
	})
}

// Quote handles POST /api/v1/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var body QuoteRequest
	req, ok := h.decodeQuote(w, r, &body, &body)
	if !ok {
		return
	}

	result, err := h.Engine().Quote(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Classify handles POST /api/v1/classify.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var body QuoteRequest
	req, ok := h.decodeQuote(w, r, &body, &body)
	if !ok {
		return
	}

	classification, err := h.Engine().Classify(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, classification)
}

// Menu handles POST /api/v1/menu.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	var body MenuRequest
	req, ok := h.decodeQuote(w, r, &body, &body.QuoteRequest)
	if !ok {
		return
	}

	set, err := h.current.Load().compare.Compare(r.Context(), req, body.Options())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// Solve handles POST /api/v1/solve.
func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	var body SolveRequest
	req, ok := h.decodeQuote(w, r, &body, &body.QuoteRequest)
	if !ok {
		return
	}

	target, err := breakeven.ParseTarget(body.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	solver := h.current.Load().solver
	if target == breakeven.TargetAll {
		result, err := solver.OptimizeAllTargets(r.Context(), req, body.Constraints())
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	result, err := solver.Optimize(r.Context(), breakeven.OptimizationRequest{
		Base:        req,
		Target:      target,
		Constraints: body.Constraints(),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Funds handles GET /api/v1/funds.
func (h *Handler) Funds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FundsResponse{Funds: h.Engine().Regulatory.Funds})
}

// MinimumPension handles GET /api/v1/minimum-pension?date=YYYY-MM-DD.
func (h *Handler) MinimumPension(w http.ResponseWriter, r *http.Request) {
	on, ok := h.queryDate(w, r)
	if !ok {
		return
	}

	reg := h.Engine().Regulatory
	amount, err := reg.MinimumPensionOn(on)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	t := reg.Eligibility
	writeJSON(w, http.StatusOK, MinimumPensionResponse{
		Date:               on.Format(dateLayout),
		MinimumPension:     amount,
		SmallFundThreshold: amount.Mul(t.SmallFundRatio).Round(2),
		LumpSumThreshold:   amount.Mul(t.LumpSumMultiple).Round(2),
	})
}

// LifeTable handles GET /api/v1/life-table/{sex}?rate=5.
func (h *Handler) LifeTable(w http.ResponseWriter, r *http.Request) {
	sex, err := domain.ParseSex(chi.URLParam(r, "sex"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var rate *float64
	if s := r.URL.Query().Get("rate"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest,
				domain.NewFieldError("rate", fmt.Sprintf("must be a number, got %q", s), domain.ErrInvalidInput))
			return
		}
		rate = &v
	}

	engine := h.Engine()
	rows, err := engine.TableRows(sex, rate)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LifeTableResponse{
		Table:                engine.Table.Name(),
		Sex:                  sex,
		TechnicalRatePercent: rate,
		Rows:                 rows,
	})
}

// RetirementAge handles GET /api/v1/retirement-age?sex=&date=.
func (h *Handler) RetirementAge(w http.ResponseWriter, r *http.Request) {
	sex, err := domain.ParseSex(r.URL.Query().Get("sex"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	on, ok := h.queryDate(w, r)
	if !ok {
		return
	}

	engine := h.Engine()
	age, found := engine.StatutoryRetirementAge(sex, on)
	if !found {
		writeDomainError(w, r, fmt.Errorf("%w: no retirement age rule for %d", domain.ErrInvalidInput, on.Year()))
		return
	}

	resp := RetirementAgeResponse{
		Sex:           sex,
		Date:          on.Format(dateLayout),
		RetirementAge: age,
		Fractional:    age.Fractional(),
	}
	if service, ok := engine.RequiredService(sex, on.Year()); ok {
		resp.RequiredService = &service
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeQuote reads body into dst and converts the embedded quote fields. It writes a
// 400 response and returns false when the body is malformed.
func (h *Handler) decodeQuote(w http.ResponseWriter, r *http.Request, dst any, quote *QuoteRequest) (domain.QuoteRequest, bool) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidInput, err))
		return domain.QuoteRequest{}, false
	}

	req, err := quote.ToDomain(h.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return domain.QuoteRequest{}, false
	}
	return req, true
}

func (h *Handler) queryDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	s := r.URL.Query().Get("date")
	if s == "" {
		return h.today(), true
	}
	on, err := parseDate("date", s)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return time.Time{}, false
	}
	return on, true
}

// writeDomainError maps engine rejections to 422, cancelled or timed out requests to
// 503 and anything else to 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ReasonCodeOf(err)
	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("payout.reason_code", string(code)))

	status := http.StatusUnprocessableEntity
	switch code {
	case domain.ReasonCanceled:
		status = http.StatusServiceUnavailable
		slog.Debug("request abandoned",
			"error", err,
			"path", r.URL.Path,
			"request_id", RequestIDFrom(r.Context()),
		)
	case domain.ReasonInternal:
		status = http.StatusInternalServerError
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", RequestIDFrom(r.Context()),
			"trace_id", TraceIDFrom(r.Context()),
		)
	}
	writeError(w, status, err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Code: domain.ReasonCodeOf(err), Error: err.Error()}
	var be *domain.InstallmentBoundsError
	if errors.As(err, &be) {
		b := be.Bounds
		resp.Bounds = &b
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
