package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/companyhub/companyhub/internal/auth"
	"github.com/companyhub/companyhub/internal/handler/dto"
	"github.com/companyhub/companyhub/internal/middleware"
	"github.com/companyhub/companyhub/internal/service"
)

// CompanyHandler handles HTTP requests for company operations.
type CompanyHandler struct {
	svc     *service.CompanyService
	logger  *slog.Logger
	baseURL string
}

// NewCompanyHandler creates a new CompanyHandler. baseURL is the public
// origin used to build absolute pagination links.
func NewCompanyHandler(svc *service.CompanyService, logger *slog.Logger, baseURL string) *CompanyHandler {
	return &CompanyHandler{
		svc:     svc,
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Create handles POST /create/.
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCompanyRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		writeError(w, http.StatusBadRequest, codeInvalidJSON, msg)
		return
	}

	identity := auth.AuthFromContext(r.Context())
	company, err := h.svc.CreateCompany(r.Context(), identity, service.CreateCompanyInput{
		Name:          req.Name,
		Description:   req.Description,
		EmployeeCount: req.EmployeeCount,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("company_created",
		"company_id", company.ID,
		"owner_id", company.OwnerID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusCreated, dto.ToCompanyResponse(company))
}

// List handles GET /.
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	input := service.ListCompaniesInput{
		Ordering: query.Get("ordering"),
		Page:     queryInt(query, "page"),
		PageSize: queryInt(query, "page_size"),
	}

	result, err := h.svc.ListCompanies(r.Context(), auth.AuthFromContext(r.Context()), input)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	next := h.pageURL(r, result.NextPage)
	previous := h.pageURL(r, result.PreviousPage)

	writeJSON(w, http.StatusOK, dto.ToCompanyListResponse(result.Companies, result.Total, next, previous))
}

// Retrieve handles GET /{id}/.
func (h *CompanyHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	company, err := h.svc.RetrieveCompany(r.Context(), auth.AuthFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCompanyResponse(company))
}

// Update handles PATCH and PUT /{id}/update/.
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, codeInvalidJSON, "Invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	result, err := h.svc.UpdateCompany(r.Context(), auth.AuthFromContext(r.Context()), id, payload)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("company_updated",
		"company_id", result.Company.ID,
		"number_of_employees", result.Company.EmployeeCount,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.UpdateCompanyResponse{
		Message: result.Message,
		Company: dto.ToCompanyResponse(result.Company),
	})
}

// pageURL rebuilds the request URL pointing at page, keeping every other
// query parameter. Page one is expressed by omitting the parameter.
func (h *CompanyHandler) pageURL(r *http.Request, page *int) *string {
	if page == nil {
		return nil
	}

	query := r.URL.Query()
	if *page <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(*page))
	}

	u := url.URL{Path: r.URL.Path, RawQuery: query.Encode()}
	link := h.baseURL + u.String()
	return &link
}

// queryInt parses an integer query parameter. Missing or malformed values
// yield zero, which the service treats as "use the default".
func queryInt(query url.Values, key string) int {
	v, err := strconv.Atoi(query.Get(key))
	if err != nil {
		return 0
	}
	return v
}
