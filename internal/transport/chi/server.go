// Package chi exposes the lost-items API over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mylost-cloud/mylost/internal/domain"
	domitem "github.com/mylost-cloud/mylost/internal/domain/item"
	"github.com/mylost-cloud/mylost/internal/domain/query"
	healthuc "github.com/mylost-cloud/mylost/internal/usecase/health"
	ratelimituc "github.com/mylost-cloud/mylost/internal/usecase/ratelimit"
	searchuc "github.com/mylost-cloud/mylost/internal/usecase/search"
	submituc "github.com/mylost-cloud/mylost/internal/usecase/submit"
)

// ErrorCode identifies an error class in API responses.
type ErrorCode string

const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeRateLimited      ErrorCode = "rate_limited"
	CodeNotFound         ErrorCode = "not_found"
	CodeStoreUnavailable ErrorCode = "store_unavailable"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server routes lost-items API requests to the use case services.
type Server struct {
	submit        *submituc.Service
	search        *searchuc.Service
	limiter       *ratelimituc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	validate      *validator.Validate
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	submit *submituc.Service,
	search *searchuc.Service,
	limiter *ratelimituc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		submit:   submit,
		search:   search,
		limiter:  limiter,
		health:   health,
		logger:   logger,
		validate: validator.New(),
	}
	s.errorHandlers = []errorHandler{
		s.rateLimitHandler,
		sentinelHandler(domain.ErrValidation, http.StatusUnprocessableEntity, CodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, CodeBadRequest),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, CodeStoreUnavailable),
	}
	return s
}

// Routes registers all API routes on a fresh router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/api/v1/health", s.HealthCheck)
	r.Route("/api/v1/lost-items", func(r chi.Router) {
		r.Post("/", s.CreateLostItem)
		r.Get("/", s.ListLostItems)
		r.Get("/nearby/", s.NearbyLostItems)
		r.Get("/{id}", s.GetLostItem)
	})
	r.Get("/metrics", s.Metrics)
	return r
}

// createItemRequest is the POST /lost-items body.
type createItemRequest struct {
	Latitude       *float64          `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude      *float64          `json:"longitude" validate:"required,min=-180,max=180"`
	Category       string            `json:"category" validate:"required,max=50"`
	Description    string            `json:"description" validate:"required,min=10,max=500"`
	FoundAtAddress string            `json:"found_at_address" validate:"required,min=5,max=200"`
	Notes          string            `json:"notes,omitempty" validate:"max=1000"`
	ImageURL       string            `json:"image_url,omitempty" validate:"omitempty,url"`
	Finder         finderInfoRequest `json:"finder_info" validate:"required"`
}

type finderInfoRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,min=10,max=15"`
}

// CreateLostItem handles POST /api/v1/lost-items/.
func (s *Server) CreateLostItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, CodeValidationFailed, "invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, CodeValidationFailed, validationMessage(err))
		return
	}

	deviceID := DeviceID(r)
	it, err := s.submit.Submit(r.Context(), draftFromRequest(req), deviceID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if remaining, err := s.limiter.Remaining(r.Context(), deviceID); err == nil && remaining >= 0 {
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	}
	writeJSON(w, http.StatusCreated, it)
}

// ListLostItems handles GET /api/v1/lost-items/.
func (s *Server) ListLostItems(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	items, err := s.search.List(r.Context(), f)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// GetLostItem handles GET /api/v1/lost-items/{id}.
func (s *Server) GetLostItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "item id is required")
		return
	}

	it, err := s.search.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, it)
}

// NearbyLostItems handles GET /api/v1/lost-items/nearby/.
func (s *Server) NearbyLostItems(w http.ResponseWriter, r *http.Request) {
	n, err := nearbyFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	items, err := s.search.Nearby(r.Context(), n)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// healthResponse is the GET /health body.
type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /api/v1/health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func draftFromRequest(req createItemRequest) domitem.Draft {
	// Both coordinates are non-nil past struct validation.
	return domitem.Draft{
		Latitude:       *req.Latitude,
		Longitude:      *req.Longitude,
		Category:       req.Category,
		Description:    req.Description,
		FoundAtAddress: req.FoundAtAddress,
		Notes:          req.Notes,
		ImageURL:       req.ImageURL,
		Finder: domitem.FinderInfo{
			Name:  req.Finder.Name,
			Email: req.Finder.Email,
			Phone: req.Finder.Phone,
		},
	}
}

// filterFromQuery parses the list query parameters. Region bounds are
// all-or-none: a partial set is a client error, not a silent ignore.
func filterFromQuery(r *http.Request) (query.Filter, error) {
	q := r.URL.Query()
	f := query.Filter{
		Category: q.Get("category"),
		Text:     q.Get("search"),
	}

	var err error
	if f.Skip, err = intParam(q.Get("skip"), 0); err != nil {
		return query.Filter{}, errors.New("skip must be an integer")
	}
	if f.Limit, err = intParam(q.Get("limit"), 0); err != nil {
		return query.Filter{}, errors.New("limit must be an integer")
	}

	bounds := []string{q.Get("min_lat"), q.Get("max_lat"), q.Get("min_lng"), q.Get("max_lng")}
	present := 0
	for _, b := range bounds {
		if b != "" {
			present++
		}
	}
	switch present {
	case 0:
		return f, nil
	case 4:
	default:
		return query.Filter{}, errors.New("all region bounds (min_lat, max_lat, min_lng, max_lng) must be provided together")
	}

	vals := make([]float64, 4)
	names := []string{"min_lat", "max_lat", "min_lng", "max_lng"}
	for i, b := range bounds {
		if vals[i], err = strconv.ParseFloat(b, 64); err != nil {
			return query.Filter{}, errors.New(names[i] + " must be a number")
		}
	}
	f.Region = &query.Region{MinLat: vals[0], MaxLat: vals[1], MinLng: vals[2], MaxLng: vals[3]}
	return f, nil
}

// nearbyFromQuery parses the nearby query parameters. latitude and longitude
// are required; radius defaults to 10 km.
func nearbyFromQuery(r *http.Request) (query.Nearby, error) {
	q := r.URL.Query()

	lat, err := requiredFloat(q.Get("latitude"), "latitude")
	if err != nil {
		return query.Nearby{}, err
	}
	lng, err := requiredFloat(q.Get("longitude"), "longitude")
	if err != nil {
		return query.Nearby{}, err
	}

	radius := 10.0
	if raw := q.Get("radius"); raw != "" {
		if radius, err = strconv.ParseFloat(raw, 64); err != nil {
			return query.Nearby{}, errors.New("radius must be a number")
		}
	}

	return query.Nearby{Latitude: lat, Longitude: lng, RadiusKm: radius}, nil
}

func requiredFloat(raw, name string) (float64, error) {
	if raw == "" {
		return 0, errors.New(name + " is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New(name + " must be a number")
	}
	return v, nil
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// validationMessage flattens validator errors into one client-readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	msg := "validation failed:"
	for _, fe := range verrs {
		msg += " " + fe.Namespace() + " (" + fe.Tag() + ")"
	}
	return msg
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrRateLimited,
		domain.ErrNotFound,
		domain.ErrInvalidArgument,
		domain.ErrStoreUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// rateLimitHandler handles ErrRateLimited with a Retry-After header pointing
// at the next UTC midnight.
func (s *Server) rateLimitHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrRateLimited) {
		return false
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(s.limiter.RetryAfter().Seconds())))
	writeError(w, http.StatusTooManyRequests, CodeRateLimited, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
