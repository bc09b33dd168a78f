package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/MonkeyElite/Production-Planner/internal/domain"
	"github.com/MonkeyElite/Production-Planner/internal/etag"
)

// decodeJSON decodes the request body into dst. Malformed or trailing input
// is a validation error.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.ErrValidation("invalid request body: %v", err)
	}
	return nil
}

// pageFromQuery extracts a PageRequest from max_results/page_token params.
func pageFromQuery(r *http.Request) domain.PageRequest {
	p := domain.PageRequest{PageToken: r.URL.Query().Get("page_token")}
	if v := r.URL.Query().Get("max_results"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.MaxResults = n
		}
	}
	return p
}

// ifMatchVersion decodes an optional If-Match header. An absent header means
// the write is unconditional. A malformed tag reports ok=false; callers treat
// it exactly like a version mismatch so the response shape cannot be used to
// probe tag validity.
func ifMatchVersion(r *http.Request) (version *int64, ok bool) {
	tag := r.Header.Get("If-Match")
	if tag == "" {
		return nil, true
	}
	v, ok := etag.Parse(tag)
	if !ok {
		return nil, false
	}
	return &v, true
}

type productResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func productToAPI(p *domain.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		SKU:       p.SKU,
		Quantity:  p.Quantity,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type lineResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ProductIDs  []string  `json:"product_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func lineToAPI(l *domain.ProductionLine) lineResponse {
	return lineResponse{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		ProductIDs:  l.ProductIDs,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

// writeVersioned writes a resource response with its version exposed only
// through the ETag header. Bodies never carry the raw version counter.
func writeVersioned(w http.ResponseWriter, status int, version int64, body interface{}) {
	w.Header().Set("ETag", etag.FromVersion(version))
	writeJSON(w, status, body)
}
