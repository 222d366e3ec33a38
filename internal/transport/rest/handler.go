// Package rest provides HTTP handlers for product-related operations.
package rest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/productapi/internal/model"
	"github.com/abgdnv/productapi/internal/parser"
	"github.com/abgdnv/productapi/internal/service"
	"github.com/abgdnv/productapi/internal/store"
	"github.com/abgdnv/productapi/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	service  service.ProductService
	pinger   store.Pinger
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates the product REST handler. pinger backs the health check and may be nil.
func NewHandler(service service.ProductService, pinger store.Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		pinger:   pinger,
		validate: newValidator(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the product API.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.FindProducts)
		r.Post("/", h.SaveProduct)
		r.Get("/search", h.SearchProducts)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.UpdateProduct)
			r.Delete("/", h.DeleteProduct)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// FindProducts lists every product. The count header carries the list length.
// @Summary List products
// @Tags products
// @Produce json
// @Success 200 {array} model.ProductDto
// @Header 200 {string} count "Number of products in the body"
// @Failure 500 {object} web.ErrorResponse
// @Router /products [get]
func (h *Handler) FindProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.logger
	list, err := h.service.FindProducts(r.Context())
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Error retrieving product list")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondList(w, mLogger, list)
}

// SaveProduct creates a product. Any id in the body is ignored.
// @Summary Create a product
// @Description The id in the body is ignored, a new one is assigned.
// @Tags products
// @Accept json
// @Produce json
// @Param product body model.ProductDto true "Product to create"
// @Success 201 {object} model.ProductDto
// @Failure 400 {object} web.ValidationErrorResponse
// @Failure 500 {object} web.ErrorResponse
// @Router /products [post]
func (h *Handler) SaveProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.logger
	dto, ok := h.decodeAndValidate(w, r, mLogger)
	if !ok {
		return
	}

	saved, err := h.service.SaveProduct(r.Context(), dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Error creating product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", saved.ID, "Name", saved.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, saved)
}

// FindByID retrieves a product by its ID.
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path string true "Product ID" format(uuid)
// @Success 200 {object} model.ProductDto
// @Failure 400 {object} web.ErrorResponse
// @Failure 404 {object} web.ErrorResponse
// @Failure 500 {object} web.ErrorResponse
// @Router /products/{id} [get]
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.logger
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	found, err := h.service.FindByExternalID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Error retrieving product", "ID", id)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, parser.ToProductDto(*found))
}

// UpdateProduct fully replaces the product's name, description and price.
// @Summary Replace a product
// @Description Name, description and price are replaced; omitted fields become empty. The id in the body is ignored.
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID" format(uuid)
// @Param product body model.ProductDto true "New product content"
// @Success 200 {object} model.ProductDto
// @Failure 400 {object} web.ValidationErrorResponse
// @Failure 404 {object} web.ErrorResponse
// @Failure 500 {object} web.ErrorResponse
// @Router /products/{id} [put]
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.logger
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	dto, ok := h.decodeAndValidate(w, r, mLogger)
	if !ok {
		return
	}

	updated, err := h.service.UpdateProduct(r.Context(), id, dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Error updating product", "ID", id)
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteProduct deletes a product by its ID, answering 404 when it does not exist.
// @Summary Delete a product
// @Tags products
// @Param id path string true "Product ID" format(uuid)
// @Success 204
// @Failure 400 {object} web.ErrorResponse
// @Failure 404 {object} web.ErrorResponse
// @Failure 500 {object} web.ErrorResponse
// @Router /products/{id} [delete]
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.logger
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	if _, err := h.service.FindByExternalID(store.WithoutCache(r.Context()), id); err != nil {
		h.respondServiceError(w, r, mLogger, err, "Error looking up product for deletion", "ID", id)
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.respondServiceError(w, r, mLogger, err, "Error deleting product", "ID", id)
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// SearchProducts handles GET /products/search?q=&min_price=&max_price=.
// q defaults to the empty string; both prices are required decimals.
// @Summary Search products
// @Description Products whose name or description contains q (case-sensitive) and whose price lies strictly between the bounds.
// @Tags products
// @Produce json
// @Param q query string false "Substring to match"
// @Param min_price query number true "Exclusive lower price bound"
// @Param max_price query number true "Exclusive upper price bound"
// @Success 200 {array} model.ProductDto
// @Failure 400 {object} web.ErrorResponse
// @Failure 500 {object} web.ErrorResponse
// @Router /products/search [get]
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.logger
	q := r.URL.Query().Get("q")
	if !model.IsStorableText(q) {
		mLogger.WarnContext(r.Context(), "Rejected malformed search query", "q", q)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid q url parameter")
		return
	}
	minPrice, ok := web.ParseDecimalParam(r, w, mLogger, "min_price")
	if !ok {
		return
	}
	maxPrice, ok := web.ParseDecimalParam(r, w, mLogger, "max_price")
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received product search", "q", q, "min_price", minPrice, "max_price", maxPrice)
	list, err := h.service.SearchProducts(r.Context(), q, minPrice, maxPrice)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Error searching products")
		return
	}
	web.RespondList(w, mLogger, list)
}

// HealthCheck answers 200 when the store is reachable and 503 otherwise.
// @Summary Health check
// @Tags health
// @Success 200
// @Failure 503 {object} web.ErrorResponse
// @Router /healthz [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			mLogger := h.logger
			mLogger.ErrorContext(r.Context(), "Health check failed", "error", err)
			web.RespondError(w, mLogger, http.StatusServiceUnavailable, "Store unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (model.ProductDto, bool) {
	var dto model.ProductDto
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&dto); err != nil {
		mLogger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return dto, false
	}
	if err := h.validate.Struct(dto); err != nil {
		if fields, ok := validationErrors(err); ok {
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", fields)
			web.RespondValidationError(w, mLogger, fields)
			return dto, false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return dto, false
	}
	dto.ID = uuid.Nil
	return dto, true
}

// respondServiceError logs err and writes the body chosen by MapError.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error, msg string, attrs ...any) {
	status, message := MapError(err)
	attrs = append(attrs, "error", err)
	if status >= http.StatusInternalServerError {
		mLogger.ErrorContext(r.Context(), msg, attrs...)
	} else {
		mLogger.WarnContext(r.Context(), msg, attrs...)
	}
	if id := chi.URLParam(r, "id"); id != "" && status == http.StatusNotFound {
		message = fmt.Sprintf("Product with ID %s not found", id)
	}
	web.RespondError(w, mLogger, status, message)
}
