package handler

import (
	"net/http"
	"time"

	"github.com/xenking/storefront/internal/domain/member"
)

type memberResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func newMemberResponse(m *member.Member) memberResponse {
	return memberResponse{
		ID:        m.ID,
		Email:     m.Email,
		Name:      m.Name,
		Phone:     m.Phone,
		Address:   m.Address,
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt,
	}
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := make([]memberResponse, len(members))
	for i := range members {
		resp[i] = newMemberResponse(&members[i])
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) getMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "memberID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	m, err := h.members.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newMemberResponse(m))
}

type createMemberRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (h *Handler) createMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "email and name are required")
		return
	}

	m := &member.Member{
		Email:   req.Email,
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Status:  member.StatusActive,
	}
	if err := h.members.Create(r.Context(), m); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newMemberResponse(m))
}

type setMemberStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) setMemberStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "memberID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	var req setMemberStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	st := member.Status(req.Status)
	if st != member.StatusActive && st != member.StatusSuspended {
		respondError(w, http.StatusBadRequest, "invalid member status")
		return
	}

	if err := h.members.SetStatus(r.Context(), id, st); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
