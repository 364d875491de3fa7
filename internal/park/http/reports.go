package http

import (
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/caremypark/caremypark/internal/park/domain"
	"github.com/caremypark/caremypark/internal/park/policy"
	"github.com/caremypark/caremypark/internal/park/service"
	"github.com/caremypark/caremypark/pkg/httpx"
	"github.com/caremypark/caremypark/pkg/slogx"
)

// maxUploadBytes caps the total multipart payload on report creation.
const maxUploadBytes = 32 << 20 // 32 MiB

// ReportsHandler covers the report lifecycle endpoints.
type ReportsHandler struct {
	ReportService *service.ReportService
}

type createReportRequest struct {
	ProblemType string `json:"problem_type"`
	Description string `json:"description"`
	Location    string `json:"location"`
	IsAnonymous bool   `json:"is_anonymous"`
}

type updateStatusRequest struct {
	Status   string  `json:"status"`
	Priority *string `json:"priority,omitempty"`
}

type reportResponse struct {
	ReferenceID string    `json:"reference_id"`
	SubmitterID *string   `json:"submitter_id,omitempty"`
	IsAnonymous bool      `json:"is_anonymous"`
	ProblemType string    `json:"problem_type"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	PhotoRefs   []string  `json:"photo_refs,omitempty"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type statusChangeResponse struct {
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	ActorID    string    `json:"actor_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// HandleCreate handles POST /api/reports. Accepts multipart/form-data with
// photo attachments, or a plain JSON body when there are none.
func (h *ReportsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	input, cleanup, err := parseCreateRequest(r)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	rep, err := h.ReportService.Create(ctx, principalFromCtx(r), input)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	log.Info("report created", "reference_id", rep.ReferenceID, "problem_type", rep.ProblemType)
	httpx.WriteJSON(w, http.StatusCreated, toReportResponse(rep))
}

// HandleList handles GET /api/reports.
func (h *ReportsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var filter service.ListFilter
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		st := domain.Status(v)
		filter.Status = &st
	}
	if v := q.Get("problem_type"); v != "" {
		pt := domain.ProblemType(v)
		filter.ProblemType = &pt
	}
	if v := q.Get("priority"); v != "" {
		pr := domain.Priority(v)
		filter.Priority = &pr
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	reports, err := h.ReportService.List(ctx, principalFromCtx(r), filter)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	views := make([]reportResponse, 0, len(reports))
	for _, rep := range reports {
		views = append(views, toReportResponse(rep))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"reports": views})
}

// HandleGet handles GET /api/reports/{referenceID}.
func (h *ReportsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	rep, err := h.ReportService.GetByReference(ctx, principalFromCtx(r), r.PathValue("referenceID"))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toReportResponse(rep))
}

// HandleHistory handles GET /api/reports/{referenceID}/history.
func (h *ReportsHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	changes, err := h.ReportService.History(ctx, principalFromCtx(r), r.PathValue("referenceID"))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	views := make([]statusChangeResponse, 0, len(changes))
	for _, c := range changes {
		views = append(views, statusChangeResponse{
			FromStatus: string(c.FromStatus),
			ToStatus:   string(c.ToStatus),
			ActorID:    c.ActorID,
			CreatedAt:  c.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"history": views})
}

// HandleUpdateStatus handles PUT /api/reports/{referenceID}/status.
func (h *ReportsHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	var priority *domain.Priority
	if req.Priority != nil {
		pr := domain.Priority(*req.Priority)
		priority = &pr
	}

	ref := r.PathValue("referenceID")
	rep, err := h.ReportService.UpdateStatus(ctx, principalFromCtx(r), ref, domain.Status(req.Status), priority)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	log.Info("report status updated", "reference_id", ref, "status", rep.Status)
	httpx.WriteJSON(w, http.StatusOK, toReportResponse(rep))
}

// parseCreateRequest extracts a CreateInput from either a multipart form or a
// JSON body. The returned cleanup closes any opened photo files.
func parseCreateRequest(r *http.Request) (service.CreateInput, func(), error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "multipart/form-data" {
		var req createReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return service.CreateInput{}, nil, err
		}
		return service.CreateInput{
			ProblemType: domain.ProblemType(req.ProblemType),
			Description: req.Description,
			Location:    req.Location,
			IsAnonymous: req.IsAnonymous,
		}, nil, nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return service.CreateInput{}, nil, err
	}

	input := service.CreateInput{
		ProblemType: domain.ProblemType(r.FormValue("problem_type")),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
		IsAnonymous: parseBool(r.FormValue("is_anonymous")),
	}

	var opened []multipart.File
	cleanup := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["photos"] {
			f, err := fh.Open()
			if err != nil {
				return service.CreateInput{}, cleanup, err
			}
			opened = append(opened, f)
			input.Photos = append(input.Photos, service.PhotoUpload{
				Filename: fh.Filename,
				Content:  f,
			})
		}
	}
	return input, cleanup, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// principalFromCtx builds the policy principal from whatever identity the
// authn middleware injected. Zero value means anonymous.
func principalFromCtx(r *http.Request) policy.Principal {
	ctx := r.Context()
	return policy.Principal{
		UserID: httpx.UserIDFromCtx(ctx),
		Role:   domain.Role(httpx.RoleFromCtx(ctx)),
	}
}

func toReportResponse(rep domain.Report) reportResponse {
	return reportResponse{
		ReferenceID: rep.ReferenceID,
		SubmitterID: rep.SubmitterID,
		IsAnonymous: rep.IsAnonymous,
		ProblemType: string(rep.ProblemType),
		Description: rep.Description,
		Location:    rep.Location,
		PhotoRefs:   rep.PhotoRefs,
		Priority:    string(rep.Priority),
		Status:      string(rep.Status),
		CreatedAt:   rep.CreatedAt,
		UpdatedAt:   rep.UpdatedAt,
	}
}
