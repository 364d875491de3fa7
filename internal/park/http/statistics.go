package http

import (
	"net/http"

	"github.com/caremypark/caremypark/internal/park/service"
	"github.com/caremypark/caremypark/pkg/httpx"
	"github.com/caremypark/caremypark/pkg/slogx"
)

// StatisticsHandler serves the authority dashboard summary.
type StatisticsHandler struct {
	ReportService *service.ReportService
}

type trendPointResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// HandleGet handles GET /api/statistics.
func (h *StatisticsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	stats, err := h.ReportService.Statistics(ctx, principalFromCtx(r))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	byStatus := make(map[string]int, len(stats.ByStatus))
	for k, v := range stats.ByStatus {
		byStatus[string(k)] = v
	}
	byType := make(map[string]int, len(stats.ByProblemType))
	for k, v := range stats.ByProblemType {
		byType[string(k)] = v
	}
	trend := make([]trendPointResponse, 0, len(stats.WeeklyTrend))
	for _, p := range stats.WeeklyTrend {
		trend = append(trend, trendPointResponse{Date: p.Date, Count: p.Count})
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"total":           stats.Total,
		"by_status":       byStatus,
		"by_problem_type": byType,
		"resolution_rate": stats.ResolutionRate,
		"weekly_trend":    trend,
	})
}
