package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MonkeyElite/Production-Planner/internal/domain"
)

type createLineParams struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateLineParams struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type addLineProductParams struct {
	ProductID string `json:"product_id"`
}

type lineListResponse struct {
	Lines         []lineResponse `json:"lines"`
	Total         int64          `json:"total"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

func (h *Handler) listLines(w http.ResponseWriter, r *http.Request) {
	principal, _ := domain.PrincipalFromContext(r.Context())
	page := pageFromQuery(r)

	lines, total, err := h.lines.List(r.Context(), principal, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := lineListResponse{
		Lines:         make([]lineResponse, 0, len(lines)),
		Total:         total,
		NextPageToken: page.NextPageToken(len(lines)),
	}
	for i := range lines {
		resp.Lines = append(resp.Lines, lineToAPI(&lines[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) createLine(w http.ResponseWriter, r *http.Request) {
	principal, _ := domain.PrincipalFromContext(r.Context())

	var params createLineParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	line, err := h.lines.Create(r.Context(), principal, domain.CreateLineRequest{
		Name:        params.Name,
		Description: params.Description,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeVersioned(w, http.StatusCreated, line.Version, lineToAPI(line))
}

func (h *Handler) getLine(w http.ResponseWriter, r *http.Request) {
	principal, _ := domain.PrincipalFromContext(r.Context())

	line, err := h.lines.Get(r.Context(), principal, chi.URLParam(r, "lineID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeVersioned(w, http.StatusOK, line.Version, lineToAPI(line))
}

func (h *Handler) updateLine(w http.ResponseWriter, r *http.Request) {
	principal, _ := domain.PrincipalFromContext(r.Context())

	ifVersion, ok := ifMatchVersion(r)
	if !ok {
		writeError(w, r, h.logger, domain.ErrPreconditionFailed("production line version mismatch"))
		return
	}

	var params updateLineParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	line, err := h.lines.Update(r.Context(), principal, chi.URLParam(r, "lineID"), domain.UpdateLineRequest{
		Name:        params.Name,
		Description: params.Description,
		IfVersion:   ifVersion,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeVersioned(w, http.StatusOK, line.Version, lineToAPI(line))
}

func (h *Handler) deleteLine(w http.ResponseWriter, r *http.Request) {
	principal, _ := domain.PrincipalFromContext(r.Context())

	ifVersion, ok := ifMatchVersion(r)
	if !ok {
		writeError(w, r, h.logger, domain.ErrPreconditionFailed("production line version mismatch"))
		return
	}

	if err := h.lines.Delete(r.Context(), principal, chi.URLParam(r, "lineID"), ifVersion); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addLineProduct(w http.ResponseWriter, r *http.Request) {
	principal, _ := domain.PrincipalFromContext(r.Context())

	ifVersion, ok := ifMatchVersion(r)
	if !ok {
		writeError(w, r, h.logger, domain.ErrPreconditionFailed("production line version mismatch"))
		return
	}

	var params addLineProductParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if params.ProductID == "" {
		writeError(w, r, h.logger, domain.ErrValidation("product_id is required"))
		return
	}

	line, err := h.lines.AddProduct(r.Context(), principal, chi.URLParam(r, "lineID"), params.ProductID, ifVersion)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeVersioned(w, http.StatusOK, line.Version, lineToAPI(line))
}

func (h *Handler) removeLineProduct(w http.ResponseWriter, r *http.Request) {
	principal, _ := domain.PrincipalFromContext(r.Context())

	ifVersion, ok := ifMatchVersion(r)
	if !ok {
		writeError(w, r, h.logger, domain.ErrPreconditionFailed("production line version mismatch"))
		return
	}

	line, err := h.lines.RemoveProduct(r.Context(), principal,
		chi.URLParam(r, "lineID"), chi.URLParam(r, "productID"), ifVersion)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeVersioned(w, http.StatusOK, line.Version, lineToAPI(line))
}
