package handler

import (
	"errors"
	"net/http"
	"time"

	companydomain "carbon-tracker-go/internal/domain/company"
	"carbon-tracker-go/internal/transport/httpserver/middleware"
)

type companyResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type companyMemberResponse struct {
	UserID   int64     `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

func (h *Handlers) GetCompanyMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}

	result, err := h.Companies.GetCompanyByUser(r.Context(), user.ID)
	if err != nil {
		h.writeCompanyError(w, "companies.get_me", err, user.ID)
		return
	}

	writeJSON(w, http.StatusOK, toCompanyResponse(result))
}

func (h *Handlers) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req companydomain.CreateInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}

	result, err := h.Companies.CreateCompany(r.Context(), user.ID, req)
	if err != nil {
		h.writeCompanyError(w, "companies.create", err, user.ID)
		return
	}

	writeJSON(w, http.StatusCreated, toCompanyResponse(result))
}

func (h *Handlers) JoinCompany(w http.ResponseWriter, r *http.Request) {
	var req companydomain.JoinInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}

	result, err := h.Companies.JoinCompany(r.Context(), user.ID, req)
	if err != nil {
		h.writeCompanyError(w, "companies.join", err, user.ID)
		return
	}

	writeJSON(w, http.StatusOK, toCompanyResponse(result))
}

func (h *Handlers) LeaveCompany(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}

	if err := h.Companies.LeaveCompany(r.Context(), user.ID); err != nil {
		h.writeCompanyError(w, "companies.leave", err, user.ID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListCompanyMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}

	members, err := h.Companies.ListMembers(r.Context(), user.ID)
	if err != nil {
		h.writeCompanyError(w, "companies.members", err, user.ID)
		return
	}

	resp := make([]companyMemberResponse, 0, len(members))
	for _, member := range members {
		resp = append(resp, companyMemberResponse{
			UserID:   member.UserID,
			Role:     member.Role,
			JoinedAt: member.JoinedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) writeCompanyError(w http.ResponseWriter, op string, err error, userID int64) {
	var inputErr *companydomain.InputError
	switch {
	case errors.As(err, &inputErr):
		h.log.BusinessError(op+": invalid input", err, "user_id", userID)
		invalidRequest(w, inputErr.Error())
	case errors.Is(err, companydomain.ErrCompanyNotFound):
		h.log.BusinessError(op+": company not found", err, "user_id", userID)
		writeError(w, http.StatusNotFound, "company_not_found", "company not found")
	case errors.Is(err, companydomain.ErrCompanyCodeNotFound):
		h.log.BusinessError(op+": company code not found", err, "user_id", userID)
		writeError(w, http.StatusNotFound, "company_code_not_found", "company code not found")
	case errors.Is(err, companydomain.ErrAlreadyInCompany):
		h.log.BusinessError(op+": user already in company", err, "user_id", userID)
		writeError(w, http.StatusConflict, "already_in_company", "already in company")
	case errors.Is(err, companydomain.ErrOwnerMustLeaveLast):
		h.log.BusinessError(op+": owner cannot leave", err, "user_id", userID)
		writeError(w, http.StatusConflict, "owner_must_leave_last", err.Error())
	default:
		h.log.InternalError(op+": failed", err, "user_id", userID)
		internalError(w)
	}
}

func toCompanyResponse(company *companydomain.Company) companyResponse {
	return companyResponse{
		ID:        company.ID,
		Name:      company.Name,
		Code:      company.Code,
		OwnerID:   company.OwnerID,
		CreatedAt: company.CreatedAt,
	}
}
