package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	consumptiondomain "carbon-tracker-go/internal/domain/consumption"
	"carbon-tracker-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type consumptionResponse struct {
	ID                  int64                `json:"id"`
	UserID              int64                `json:"user_id"`
	Amount              float64              `json:"amount"`
	ActivityTypeTableID int64                `json:"activity_type_table_id"`
	UnitID              *int64               `json:"unit_id"`
	CO2Equivalent       float64              `json:"co2_equivalent"`
	Date                string               `json:"date"`
	CreatedAt           time.Time            `json:"created_at"`
	DeletedAt           *time.Time           `json:"deleted_at"`
	Activity            *activityRefResponse `json:"activity_table"`
	Unit                *unitRefResponse     `json:"unit_table"`
}

type activityRefResponse struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	EmissionFactor *float64 `json:"emission_factor"`
	ActivityTypeID *int64   `json:"activity_type_id"`
}

type unitRefResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type consumptionListResponse struct {
	Data []consumptionResponse `json:"data"`
	Meta paginationResponse    `json:"meta"`
}

type createConsumptionRequest struct {
	UserID              int64    `json:"user_id"`
	Amount              float64  `json:"amount"`
	ActivityTypeTableID int64    `json:"activity_type_table_id"`
	UnitID              *int64   `json:"unit_id"`
	Date                string   `json:"date"`
	CO2Equivalent       *float64 `json:"co2_equivalent"`
}

type patchConsumptionRequest struct {
	Amount              *float64 `json:"amount"`
	ActivityTypeTableID *int64   `json:"activity_type_table_id"`
	UnitID              *int64   `json:"unit_id"`
	Date                *string  `json:"date"`
}

type deleteConsumptionResponse struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
}

func (h *Handlers) ListUserConsumption(w http.ResponseWriter, r *http.Request) {
	params, ok := h.userQueryParams(w, r, "consumption.list")
	if !ok {
		return
	}

	result, err := h.Consumption.GetUserConsumption(r.Context(), params)
	if err != nil {
		h.writeConsumptionError(w, "consumption.list", err, "user_id", params.UserID)
		return
	}

	writeJSON(w, http.StatusOK, toConsumptionListResponse(result))
}

func (h *Handlers) GetConsumption(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}

	id, err := parseIDParam("id", chi.URLParam(r, "id"))
	if err != nil {
		invalidRequest(w, err.Error())
		return
	}

	item, ok := h.ownedConsumption(w, r, "consumption.get", user, id)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, toConsumptionResponse(*item))
}

func (h *Handlers) CreateConsumption(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}

	var req createConsumptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if req.UserID == 0 {
		req.UserID = user.ID
	}
	if req.UserID != user.ID {
		h.log.BusinessError("consumption.create: foreign user", errForbidden, "user_id", user.ID, "target_user_id", req.UserID)
		forbidden(w)
		return
	}

	req.Date = strings.TrimSpace(req.Date)
	if req.Date == "" {
		invalidRequest(w, "date is required")
		return
	}
	date, err := parseFlexibleDate(req.Date)
	if err != nil {
		invalidRequest(w, "date must be a YYYY-MM-DD date")
		return
	}

	created, err := h.Consumption.CreateConsumption(r.Context(), consumptiondomain.CreateInput{
		UserID:              req.UserID,
		Amount:              req.Amount,
		ActivityTypeTableID: req.ActivityTypeTableID,
		UnitID:              req.UnitID,
		Date:                date,
		CO2Equivalent:       req.CO2Equivalent,
	})
	if err != nil {
		h.writeConsumptionError(w, "consumption.create", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusCreated, toConsumptionResponse(*created))
}

func (h *Handlers) PatchConsumption(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}

	id, err := parseIDParam("id", chi.URLParam(r, "id"))
	if err != nil {
		invalidRequest(w, err.Error())
		return
	}

	var req patchConsumptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	input := consumptiondomain.PatchInput{
		Amount:              req.Amount,
		ActivityTypeTableID: req.ActivityTypeTableID,
		UnitID:              req.UnitID,
	}
	if req.Date != nil {
		date, err := parseFlexibleDate(strings.TrimSpace(*req.Date))
		if err != nil {
			invalidRequest(w, "date must be a YYYY-MM-DD date")
			return
		}
		input.Date = &date
	}

	if _, ok := h.ownedConsumption(w, r, "consumption.patch", user, id); !ok {
		return
	}

	updated, err := h.Consumption.PatchConsumption(r.Context(), id, input)
	if err != nil {
		h.writeConsumptionError(w, "consumption.patch", err, "user_id", user.ID, "id", id)
		return
	}

	writeJSON(w, http.StatusOK, toConsumptionResponse(*updated))
}

func (h *Handlers) DeleteConsumption(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}

	id, err := parseIDParam("id", chi.URLParam(r, "id"))
	if err != nil {
		invalidRequest(w, err.Error())
		return
	}

	if _, ok := h.ownedConsumption(w, r, "consumption.delete", user, id); !ok {
		return
	}

	result, err := h.Consumption.DeleteConsumption(r.Context(), id)
	if err != nil {
		h.writeConsumptionError(w, "consumption.delete", err, "user_id", user.ID, "id", id)
		return
	}

	writeJSON(w, http.StatusOK, deleteConsumptionResponse{Success: result.Success, ID: result.ID})
}

// userQueryParams reads the path user id and the listing query string. The
// caller may only list their own rows.
func (h *Handlers) userQueryParams(w http.ResponseWriter, r *http.Request, op string) (consumptiondomain.QueryParams, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return consumptiondomain.QueryParams{}, false
	}

	userID, err := parseIDParam("user_id", chi.URLParam(r, "user_id"))
	if err != nil {
		invalidRequest(w, err.Error())
		return consumptiondomain.QueryParams{}, false
	}
	if userID > 0 && userID != user.ID {
		h.log.BusinessError(op+": foreign user", errForbidden, "user_id", user.ID, "target_user_id", userID)
		forbidden(w)
		return consumptiondomain.QueryParams{}, false
	}

	params, err := parseQueryParams(r.URL.Query())
	if err != nil {
		invalidRequest(w, err.Error())
		return consumptiondomain.QueryParams{}, false
	}
	params.UserID = userID
	return params, true
}

func parseQueryParams(query url.Values) (consumptiondomain.QueryParams, error) {
	var (
		params consumptiondomain.QueryParams
		err    error
	)

	if params.Page, err = parseIntParam("page", query.Get("page"), 0); err != nil {
		return params, err
	}
	if params.Limit, err = parseIntParam("limit", query.Get("limit"), 0); err != nil {
		return params, err
	}
	params.SortBy = strings.TrimSpace(query.Get("sortBy"))
	params.SortOrder = strings.TrimSpace(query.Get("sortOrder"))

	if params.DateFrom, err = parseDateParam("dateFrom", query.Get("dateFrom")); err != nil {
		return params, err
	}
	if params.DateTo, err = parseDateParam("dateTo", query.Get("dateTo")); err != nil {
		return params, err
	}
	if params.AmountMin, err = parseFloatParam("amountMin", query.Get("amountMin")); err != nil {
		return params, err
	}
	if params.AmountMax, err = parseFloatParam("amountMax", query.Get("amountMax")); err != nil {
		return params, err
	}
	if params.CO2Min, err = parseFloatParam("co2Min", query.Get("co2Min")); err != nil {
		return params, err
	}
	if params.CO2Max, err = parseFloatParam("co2Max", query.Get("co2Max")); err != nil {
		return params, err
	}
	if params.ActivityType, err = parseOptionalID("activityType", query.Get("activityType")); err != nil {
		return params, err
	}
	return params, nil
}

func (h *Handlers) ownedConsumption(w http.ResponseWriter, r *http.Request, op string, user middleware.User, id int64) (*consumptiondomain.Consumption, bool) {
	item, err := h.Consumption.GetConsumption(r.Context(), id)
	if err != nil {
		h.writeConsumptionError(w, op, err, "user_id", user.ID, "id", id)
		return nil, false
	}
	if item.UserID != user.ID {
		h.log.BusinessError(op+": foreign record", errForbidden, "user_id", user.ID, "id", id)
		forbidden(w)
		return nil, false
	}
	return item, true
}

func (h *Handlers) writeConsumptionError(w http.ResponseWriter, op string, err error, args ...any) {
	var validationErr *consumptiondomain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.log.BusinessError(op+": invalid request", err, args...)
		invalidRequest(w, validationErr.Field+" "+validationErr.Message)
	case consumptiondomain.IsNotFound(err):
		h.log.BusinessError(op+": not found", err, args...)
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		h.log.InternalError(op+": failed", err, args...)
		internalError(w)
	}
}

func toConsumptionListResponse(result consumptiondomain.ListResult) consumptionListResponse {
	data := make([]consumptionResponse, 0, len(result.Data))
	for _, item := range result.Data {
		data = append(data, toConsumptionResponse(item))
	}
	return consumptionListResponse{
		Data: data,
		Meta: paginationResponse{
			Total:      result.Meta.Total,
			Page:       result.Meta.Page,
			Limit:      result.Meta.Limit,
			TotalPages: result.Meta.TotalPages,
		},
	}
}

func toConsumptionResponse(item consumptiondomain.Consumption) consumptionResponse {
	resp := consumptionResponse{
		ID:                  item.ID,
		UserID:              item.UserID,
		Amount:              item.Amount,
		ActivityTypeTableID: item.ActivityTypeTableID,
		UnitID:              item.UnitID,
		CO2Equivalent:       item.CO2Equivalent,
		Date:                item.Date.Format(time.DateOnly),
		CreatedAt:           item.CreatedAt,
		DeletedAt:           item.DeletedAt,
	}
	if item.Activity != nil {
		resp.Activity = &activityRefResponse{
			ID:             item.Activity.ID,
			Name:           item.Activity.Name,
			EmissionFactor: item.Activity.EmissionFactor,
			ActivityTypeID: item.Activity.ActivityTypeID,
		}
	}
	if item.Unit != nil {
		resp.Unit = &unitRefResponse{ID: item.Unit.ID, Name: item.Unit.Name}
	}
	return resp
}
