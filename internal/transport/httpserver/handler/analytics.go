package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	analyticsdomain "carbon-tracker-go/internal/domain/analytics"
	companydomain "carbon-tracker-go/internal/domain/company"
	"carbon-tracker-go/internal/transport/httpserver/middleware"
)

const (
	scopeUser    = "user"
	scopeCompany = "company"
)

type dateRange struct {
	from time.Time
	to   time.Time
}

func (h *Handlers) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.analyticsScope(w, r, "analytics.summary")
	if !ok {
		return
	}

	query := r.URL.Query()
	period, err := parseDateRange(query, "from", "to")
	if err != nil {
		invalidRequest(w, err.Error())
		return
	}
	activityTypeIDs, err := parseCSVIDs("activity_type_ids", query.Get("activity_type_ids"))
	if err != nil {
		invalidRequest(w, err.Error())
		return
	}

	result, err := h.Analytics.Summary(r.Context(), scope, analyticsdomain.SummaryFilter{
		From:            period.from,
		To:              period.to,
		ActivityTypeIDs: activityTypeIDs,
	})
	if err != nil {
		h.writeAnalyticsError(w, "analytics.summary", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_co2":   result.TotalCO2,
		"count":       result.Count,
		"avg_per_day": result.AvgPerDay,
		"from":        period.from.Format(time.DateOnly),
		"to":          period.to.Format(time.DateOnly),
	})
}

func (h *Handlers) AnalyticsTimeseries(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.analyticsScope(w, r, "analytics.timeseries")
	if !ok {
		return
	}

	query := r.URL.Query()
	period, err := parseDateRange(query, "from", "to")
	if err != nil {
		invalidRequest(w, err.Error())
		return
	}
	activityTypeIDs, err := parseCSVIDs("activity_type_ids", query.Get("activity_type_ids"))
	if err != nil {
		invalidRequest(w, err.Error())
		return
	}

	points, err := h.Analytics.Timeseries(r.Context(), scope, analyticsdomain.TimeseriesFilter{
		From:            period.from,
		To:              period.to,
		GroupBy:         strings.ToLower(strings.TrimSpace(query.Get("group_by"))),
		ActivityTypeIDs: activityTypeIDs,
	})
	if err != nil {
		h.writeAnalyticsError(w, "analytics.timeseries", err)
		return
	}

	writeJSON(w, http.StatusOK, points)
}

func (h *Handlers) AnalyticsByActivity(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.analyticsScope(w, r, "analytics.by_activity")
	if !ok {
		return
	}

	query := r.URL.Query()
	period, err := parseDateRange(query, "from", "to")
	if err != nil {
		invalidRequest(w, err.Error())
		return
	}
	limit, err := parseIntParam("limit", query.Get("limit"), 0)
	if err != nil {
		invalidRequest(w, err.Error())
		return
	}
	activityTypeIDs, err := parseCSVIDs("activity_type_ids", query.Get("activity_type_ids"))
	if err != nil {
		invalidRequest(w, err.Error())
		return
	}

	rows, err := h.Analytics.ByActivity(r.Context(), scope, analyticsdomain.ByActivityFilter{
		From:            period.from,
		To:              period.to,
		ActivityTypeIDs: activityTypeIDs,
		Limit:           limit,
	})
	if err != nil {
		h.writeAnalyticsError(w, "analytics.by_activity", err)
		return
	}

	writeJSON(w, http.StatusOK, rows)
}

func (h *Handlers) AnalyticsCompare(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.analyticsScope(w, r, "analytics.compare")
	if !ok {
		return
	}

	query := r.URL.Query()
	periodA, err := parseDateRange(query, "from_a", "to_a")
	if err != nil {
		invalidRequest(w, err.Error())
		return
	}
	periodB, err := parseDateRange(query, "from_b", "to_b")
	if err != nil {
		invalidRequest(w, err.Error())
		return
	}
	activityTypeIDs, err := parseCSVIDs("activity_type_ids", query.Get("activity_type_ids"))
	if err != nil {
		invalidRequest(w, err.Error())
		return
	}

	result, err := h.Analytics.Compare(r.Context(), scope, analyticsdomain.CompareFilter{
		FromA:           periodA.from,
		ToA:             periodA.to,
		FromB:           periodB.from,
		ToB:             periodB.to,
		ActivityTypeIDs: activityTypeIDs,
	})
	if err != nil {
		h.writeAnalyticsError(w, "analytics.compare", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) AnalyticsTopActivities(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.analyticsScope(w, r, "analytics.top_activities")
	if !ok {
		return
	}

	result, err := h.Analytics.TopActivities(r.Context(), scope)
	if err != nil {
		h.writeAnalyticsError(w, "analytics.top_activities", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// analyticsScope resolves ?scope=user|company into the set of user ids to
// aggregate over.
func (h *Handlers) analyticsScope(w http.ResponseWriter, r *http.Request, op string) (analyticsdomain.Scope, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return analyticsdomain.Scope{}, false
	}

	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("scope"))) {
	case "", scopeUser:
		return analyticsdomain.UserScope(user.ID), true
	case scopeCompany:
		ids, err := h.Companies.MemberIDs(r.Context(), user.ID)
		if err != nil {
			if errors.Is(err, companydomain.ErrCompanyNotFound) {
				h.log.BusinessError(op+": company not found", err, "user_id", user.ID)
				writeError(w, http.StatusNotFound, "company_not_found", "company not found")
				return analyticsdomain.Scope{}, false
			}
			h.log.InternalError(op+": list members failed", err, "user_id", user.ID)
			internalError(w)
			return analyticsdomain.Scope{}, false
		}
		return analyticsdomain.Scope{UserIDs: ids}, true
	default:
		invalidRequest(w, "scope must be user or company")
		return analyticsdomain.Scope{}, false
	}
}

func (h *Handlers) writeAnalyticsError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, analyticsdomain.ErrInvalidRange),
		errors.Is(err, analyticsdomain.ErrInvalidGroupBy),
		errors.Is(err, analyticsdomain.ErrEmptyScope):
		h.log.BusinessError(op+": invalid request", err)
		invalidRequest(w, err.Error())
	default:
		h.log.InternalError(op+": failed", err)
		internalError(w)
	}
}

func parseDateRange(query url.Values, fromKey, toKey string) (dateRange, error) {
	from, err := parseDateRequired(fromKey, query.Get(fromKey))
	if err != nil {
		return dateRange{}, err
	}
	to, err := parseDateRequired(toKey, query.Get(toKey))
	if err != nil {
		return dateRange{}, err
	}
	if to.Before(from) {
		return dateRange{}, &paramError{name: fromKey, reason: "must be <= " + toKey}
	}
	return dateRange{from: from, to: to}, nil
}
