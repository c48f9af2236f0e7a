package catalog

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/rmendes/storefront-api/internal/domain"
)

type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	product, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

type addReviewRequest struct {
	Author  string `json:"user"`
	Comment string `json:"comment"`
	Rating  int    `json:"rating"`
}

func (h *Handler) HandleAddReview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	var req addReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Rating < 1 || req.Rating > 5 {
		h.writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	product, err := h.repo.AddReview(r.Context(), id, req.Author, req.Comment, req.Rating)
	if err != nil {
		h.logger.Error("failed to add review", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.Info("review added", "product_id", id, "rating", req.Rating)
	h.writeJSON(w, http.StatusCreated, product)
}

func parseFilter(r *http.Request) (domain.ProductFilter, error) {
	q := r.URL.Query()
	filter := domain.ProductFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}

	for _, f := range []struct {
		param string
		dest  **decimal.Decimal
	}{
		{"min_price", &filter.MinPrice},
		{"max_price", &filter.MaxPrice},
		{"min_rating", &filter.MinRating},
	} {
		if raw := q.Get(f.param); raw != "" {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return domain.ProductFilter{}, errInvalidParam(f.param)
			}
			*f.dest = &d
		}
	}

	switch sort := domain.ProductSort(q.Get("sort")); sort {
	case domain.SortDefault, domain.SortPriceAsc, domain.SortPriceDesc, domain.SortRatingDesc:
		filter.Sort = sort
	default:
		return domain.ProductFilter{}, errInvalidParam("sort")
	}

	return filter, nil
}

type errInvalidParam string

func (e errInvalidParam) Error() string { return "invalid query parameter: " + string(e) }

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
