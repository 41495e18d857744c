package handler

import (
	"errors"
	"net/http"

	catalogdomain "carbon-tracker-go/internal/domain/catalog"
	"github.com/go-chi/chi/v5"
)

type activityTypeResponse struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	EmissionFactor float64 `json:"emission_factor"`
	ActivityTypeID *int64  `json:"activity_type_id"`
	UnitID         *int64  `json:"unit_id"`
	UnitName       *string `json:"unit_name"`
	Description    *string `json:"description"`
}

type unitResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (h *Handlers) ListActivityTypes(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.ListActivityTypes(r.Context())
	if err != nil {
		h.log.InternalError("catalog.activity_types: list failed", err)
		internalError(w)
		return
	}

	units, err := h.Catalog.ListUnits(r.Context())
	if err != nil {
		h.log.InternalError("catalog.activity_types: list units failed", err)
		internalError(w)
		return
	}
	unitNames := make(map[int64]string, len(units))
	for _, unit := range units {
		unitNames[unit.ID] = unit.Name
	}

	resp := make([]activityTypeResponse, 0, len(items))
	for _, item := range items {
		entry := toActivityTypeResponse(item)
		if item.UnitID != nil {
			if name, ok := unitNames[*item.UnitID]; ok {
				entry.UnitName = &name
			}
		}
		resp = append(resp, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetActivityType(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam("id", chi.URLParam(r, "id"))
	if err != nil {
		invalidRequest(w, err.Error())
		return
	}

	item, err := h.Catalog.GetActivityType(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalogdomain.ErrActivityTypeNotFound) {
			h.log.BusinessError("catalog.activity_type: not found", err, "id", id)
			writeError(w, http.StatusNotFound, "activity_type_not_found", "activity type not found")
			return
		}
		h.log.InternalError("catalog.activity_type: get failed", err, "id", id)
		internalError(w)
		return
	}

	resp := toActivityTypeResponse(*item)
	resp.UnitName = h.Catalog.UnitName(r.Context(), item.UnitID)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) ListUnits(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.ListUnits(r.Context())
	if err != nil {
		h.log.InternalError("catalog.units: list failed", err)
		internalError(w)
		return
	}

	resp := make([]unitResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, unitResponse{ID: item.ID, Name: item.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

func toActivityTypeResponse(item catalogdomain.ActivityType) activityTypeResponse {
	return activityTypeResponse{
		ID:             item.ID,
		Name:           item.Name,
		EmissionFactor: item.EmissionFactor,
		ActivityTypeID: item.ActivityTypeID,
		UnitID:         item.UnitID,
		Description:    item.Description,
	}
}
