package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MonkeyElite/Production-Planner/internal/domain"
)

type createProductParams struct {
	Name     string `json:"name"`
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

type updateProductParams struct {
	Name     string `json:"name"`
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

type productListResponse struct {
	Products      []productResponse `json:"products"`
	Total         int64             `json:"total"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	principal, _ := domain.PrincipalFromContext(r.Context())
	page := pageFromQuery(r)

	products, total, err := h.products.List(r.Context(), principal, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := productListResponse{
		Products:      make([]productResponse, 0, len(products)),
		Total:         total,
		NextPageToken: page.NextPageToken(len(products)),
	}
	for i := range products {
		resp.Products = append(resp.Products, productToAPI(&products[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	principal, _ := domain.PrincipalFromContext(r.Context())

	var params createProductParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	product, err := h.products.Create(r.Context(), principal, domain.CreateProductRequest{
		Name:     params.Name,
		SKU:      params.SKU,
		Quantity: params.Quantity,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeVersioned(w, http.StatusCreated, product.Version, productToAPI(product))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	principal, _ := domain.PrincipalFromContext(r.Context())

	product, err := h.products.Get(r.Context(), principal, chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeVersioned(w, http.StatusOK, product.Version, productToAPI(product))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	principal, _ := domain.PrincipalFromContext(r.Context())

	ifVersion, ok := ifMatchVersion(r)
	if !ok {
		writeError(w, r, h.logger, domain.ErrPreconditionFailed("product version mismatch"))
		return
	}

	var params updateProductParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	product, err := h.products.Update(r.Context(), principal, chi.URLParam(r, "productID"), domain.UpdateProductRequest{
		Name:      params.Name,
		SKU:       params.SKU,
		Quantity:  params.Quantity,
		IfVersion: ifVersion,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeVersioned(w, http.StatusOK, product.Version, productToAPI(product))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	principal, _ := domain.PrincipalFromContext(r.Context())

	ifVersion, ok := ifMatchVersion(r)
	if !ok {
		writeError(w, r, h.logger, domain.ErrPreconditionFailed("product version mismatch"))
		return
	}

	if err := h.products.Delete(r.Context(), principal, chi.URLParam(r, "productID"), ifVersion); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
