package http

import (
	"net/http"

	"github.com/caremypark/caremypark/internal/park/service"
	"github.com/caremypark/caremypark/pkg/httpx"
	"github.com/caremypark/caremypark/pkg/slogx"
)

// TrackHandler serves the public reduced view for following up a report by
// its reference ID. No identity fields ever leave this endpoint.
type TrackHandler struct {
	ReportService *service.ReportService
}

// HandleGet handles GET /api/track/{referenceID}.
func (h *TrackHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	view, err := h.ReportService.Track(ctx, principalFromCtx(r), r.PathValue("referenceID"))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"reference_id": view.ReferenceID,
		"problem_type": string(view.ProblemType),
		"status":       string(view.Status),
		"priority":     string(view.Priority),
		"created_at":   view.CreatedAt,
		"updated_at":   view.UpdatedAt,
	})
}
