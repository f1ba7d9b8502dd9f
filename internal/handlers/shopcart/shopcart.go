package shopcarthandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"reflect"
	"time"

	"shopcarts/internal/models"
	serviceerrors "shopcarts/internal/service"
	"shopcarts/pkg/lib/logger/sl"
	"shopcarts/pkg/lib/urlparser"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const StatusClientClosedRequest = 499

const maxBodyBytes = 1 << 20

type ShopcartItemService interface {
	ListItems(ctx context.Context, filter models.ListFilter) ([]models.ShopcartItem, error)
	ReadShopcart(ctx context.Context, shopcartId int) ([]models.ShopcartItem, error)
	ReadItem(ctx context.Context, key models.ItemKey) (models.ShopcartItem, error)
	CreateItem(ctx context.Context, item models.ShopcartItem) (models.ShopcartItem, error)
	UpdateItem(ctx context.Context, key models.ItemKey, changes models.ItemChanges) (models.ShopcartItem, error)
	DeleteItem(ctx context.Context, key models.ItemKey) error
	DeleteShopcart(ctx context.Context, shopcartId int) error
	CheckoutItem(ctx context.Context, key models.ItemKey) (models.ShopcartItem, error)
	CheckoutShopcart(ctx context.Context, shopcartId int) ([]models.ShopcartItem, error)
	Ping(ctx context.Context) error
}

// itemRequest is the body of POST and PUT requests.
type itemRequest struct {
	ShopcartId *int          `json:"shopcart_id" validate:"omitempty,gte=0,lte=2147483647"`
	ProductId  *int          `json:"product_id" validate:"required,gte=0,lte=2147483647"`
	Quantity   *int          `json:"quantity" validate:"omitempty,gte=0,lte=2147483647"`
	Price      *models.Price `json:"price" validate:"omitempty,gte=0,lt=10000000000"`
	TimeAdded  *time.Time    `json:"time_added"`
	Checkout   *int          `json:"checkout" validate:"omitempty,oneof=0 1"`
}

type Handler struct {
	log      *slog.Logger
	service  ShopcartItemService
	validate *validator.Validate
}

func New(log *slog.Logger, service ShopcartItemService) *Handler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
		if p, ok := v.Interface().(models.Price); ok {
			return p.InexactFloat64()
		}
		return nil
	}, models.Price{})

	return &Handler{
		log:      log,
		service:  service,
		validate: validate,
	}
}

// GET /shopcarts?shopcart_id=&product_id=
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.shopcart.ListItems"
	log := h.log.With("op", op)

	filter, err := urlparser.ParseListFilter(r.URL.Query())
	if err != nil {
		log.Warn("Invalid query filter", sl.Err(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	items, err := h.service.ListItems(r.Context(), filter)
	if err != nil {
		h.serviceError(w, r, log, err, "Failed to list shopcart items")
		return
	}

	h.writeJSON(w, log, http.StatusOK, items)
}

// GET /shopcarts/{shopcart_id}
func (h *Handler) ReadShopcart(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.shopcart.ReadShopcart"
	log := h.log.With("op", op)

	shopcartId, err := urlparser.ParseShopcartId(chi.URLParam(r, "shopcart_id"))
	if err != nil {
		log.Warn("Invalid shopcart id", sl.Err(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	items, err := h.service.ReadShopcart(r.Context(), shopcartId)
	if err != nil {
		h.serviceError(w, r, log, err, "Failed to read shopcart")
		return
	}

	h.writeJSON(w, log, http.StatusOK, items)
}

// GET /shopcarts/{shopcart_id}/items/{product_id}
func (h *Handler) ReadItem(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.shopcart.ReadItem"
	log := h.log.With("op", op)

	params, ok := h.itemParams(w, r, log)
	if !ok {
		return
	}

	item, err := h.service.ReadItem(r.Context(), params.Key())
	if err != nil {
		h.serviceError(w, r, log, err, "Failed to read shopcart item")
		return
	}

	h.writeJSON(w, log, http.StatusOK, item)
}

// POST /shopcarts/{shopcart_id}
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.shopcart.CreateItem"
	log := h.log.With("op", op)

	if !h.requireJSON(w, r, log) {
		return
	}

	shopcartId, err := urlparser.ParseShopcartId(chi.URLParam(r, "shopcart_id"))
	if err != nil {
		log.Warn("Invalid shopcart id", sl.Err(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req, ok := h.decodeItem(w, r, log)
	if !ok {
		return
	}

	if req.ShopcartId != nil && *req.ShopcartId != shopcartId {
		log.Warn("Shopcart id mismatch", "path", shopcartId, "body", *req.ShopcartId)
		http.Error(w, "shopcart_id in body does not match path", http.StatusBadRequest)
		return
	}

	item := models.ShopcartItem{
		ShopcartId: shopcartId,
		ProductId:  *req.ProductId,
		Checkout:   models.NotCheckedOut,
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.TimeAdded != nil {
		item.TimeAdded = req.TimeAdded.UTC()
	}
	if req.Checkout != nil {
		item.Checkout = *req.Checkout
	}

	created, err := h.service.CreateItem(r.Context(), item)
	if err != nil {
		h.serviceError(w, r, log, err, "Failed to create shopcart item")
		return
	}

	w.Header().Set("Location", itemLocation(created.Key()))
	h.writeJSON(w, log, http.StatusCreated, created)
}

// PUT /shopcarts/{shopcart_id}/items/{product_id}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.shopcart.UpdateItem"
	log := h.log.With("op", op)

	if !h.requireJSON(w, r, log) {
		return
	}

	params, ok := h.itemParams(w, r, log)
	if !ok {
		return
	}

	req, ok := h.decodeItem(w, r, log, "ProductId")
	if !ok {
		return
	}

	if (req.ProductId != nil && *req.ProductId != params.ProductId) ||
		(req.ShopcartId != nil && *req.ShopcartId != params.ShopcartId) {
		log.Warn("Item key mismatch", "shopcart_id", params.ShopcartId, "product_id", params.ProductId)
		http.Error(w, "item key in body does not match path", http.StatusBadRequest)
		return
	}

	changes := models.ItemChanges{
		Price:    req.Price,
		Checkout: req.Checkout,
	}
	if req.TimeAdded != nil {
		t := req.TimeAdded.UTC()
		changes.TimeAdded = &t
	}

	updated, err := h.service.UpdateItem(r.Context(), params.Key(), changes)
	if err != nil {
		h.serviceError(w, r, log, err, "Failed to update shopcart item")
		return
	}

	h.writeJSON(w, log, http.StatusOK, updated)
}

// DELETE /shopcarts/{shopcart_id}/items/{product_id}
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.shopcart.DeleteItem"
	log := h.log.With("op", op)

	params, ok := h.itemParams(w, r, log)
	if !ok {
		return
	}

	if err := h.service.DeleteItem(r.Context(), params.Key()); err != nil {
		h.serviceError(w, r, log, err, "Failed to delete shopcart item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DELETE /shopcarts/{shopcart_id}
func (h *Handler) DeleteShopcart(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.shopcart.DeleteShopcart"
	log := h.log.With("op", op)

	shopcartId, err := urlparser.ParseShopcartId(chi.URLParam(r, "shopcart_id"))
	if err != nil {
		log.Warn("Invalid shopcart id", sl.Err(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteShopcart(r.Context(), shopcartId); err != nil {
		h.serviceError(w, r, log, err, "Failed to delete shopcart")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PUT /shopcarts/{shopcart_id}/items/{product_id}/checkout
func (h *Handler) CheckoutItem(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.shopcart.CheckoutItem"
	log := h.log.With("op", op)

	params, ok := h.itemParams(w, r, log)
	if !ok {
		return
	}

	item, err := h.service.CheckoutItem(r.Context(), params.Key())
	if err != nil {
		h.serviceError(w, r, log, err, "Failed to checkout shopcart item")
		return
	}

	h.writeJSON(w, log, http.StatusOK, item)
}

// PUT /shopcarts/{shopcart_id}/checkout
func (h *Handler) CheckoutShopcart(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.shopcart.CheckoutShopcart"
	log := h.log.With("op", op)

	shopcartId, err := urlparser.ParseShopcartId(chi.URLParam(r, "shopcart_id"))
	if err != nil {
		log.Warn("Invalid shopcart id", sl.Err(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	items, err := h.service.CheckoutShopcart(r.Context(), shopcartId)
	if err != nil {
		h.serviceError(w, r, log, err, "Failed to checkout shopcart")
		return
	}

	h.writeJSON(w, log, http.StatusOK, items)
}

// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.shopcart.Index"

	h.writeJSON(w, h.log.With("op", op), http.StatusOK, map[string]string{
		"name":    "Shopcarts RESTful Service",
		"version": "1.0",
		"paths":   "/shopcarts",
	})
}

// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.shopcart.Health"
	log := h.log.With("op", op)

	if err := h.service.Ping(r.Context()); err != nil {
		log.Error("Health check failed", sl.Err(err))
		h.writeJSON(w, log, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	h.writeJSON(w, log, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) itemParams(w http.ResponseWriter, r *http.Request, log *slog.Logger) (urlparser.PathParams, bool) {
	params, err := urlparser.ParseItemPath(chi.URLParam(r, "shopcart_id"), chi.URLParam(r, "product_id"))
	if err != nil {
		log.Warn("Invalid item path", sl.Err(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return params, false
	}
	return params, true
}

func (h *Handler) requireJSON(w http.ResponseWriter, r *http.Request, log *slog.Logger) bool {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		log.Warn("Unsupported content type", "content_type", contentType)
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}
	return true
}

// decodeItem reads and validates the request body, skipping validation of the except fields.
func (h *Handler) decodeItem(w http.ResponseWriter, r *http.Request, log *slog.Logger, except ...string) (itemRequest, bool) {
	var req itemRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Cannot decode request body", sl.Err(err))
		http.Error(w, "Invalid shopcart item: body of request contained bad or no data", http.StatusBadRequest)
		return req, false
	}

	if err := h.validate.StructExcept(req, except...); err != nil {
		log.Warn("Failed to validate", sl.Err(err))

		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			http.Error(w, fmt.Sprintf("Invalid shopcart item: %s failed on %s", verrs[0].Field(), verrs[0].Tag()), http.StatusBadRequest)
			return req, false
		}
		http.Error(w, "Invalid shopcart item", http.StatusBadRequest)
		return req, false
	}

	return req, true
}

func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, msg string) {
	switch {
	case errors.Is(err, serviceerrors.ErrContextCanceled):
		log.Warn("Context canceled", sl.Err(err))
		http.Error(w, "Context canceled", StatusClientClosedRequest)
	case errors.Is(err, serviceerrors.ErrDeadlineExceeded):
		log.Warn("Deadline exceeded", sl.Err(err))
		http.Error(w, "Deadline exceeded", http.StatusGatewayTimeout)
	case errors.Is(err, serviceerrors.ErrNotFound):
		log.Warn("Shopcart item not found", sl.Err(err))
		http.NotFound(w, r)
	case errors.Is(err, serviceerrors.ErrAlreadyExists):
		log.Warn("Shopcart item already exists", sl.Err(err))
		http.Error(w, "Shopcart item already exists", http.StatusConflict)
	case errors.Is(err, serviceerrors.ErrQuantityLimit):
		log.Warn("Quantity limit reached", sl.Err(err))
		http.Error(w, "Shopcart item quantity limit reached", http.StatusConflict)
	case errors.Is(err, serviceerrors.ErrUnavailable):
		log.Error("Storage unavailable", sl.Err(err))
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
	default:
		log.Error(msg, sl.Err(err))
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to responde user", sl.Err(err))
	}
}

func itemLocation(key models.ItemKey) string {
	return fmt.Sprintf("/shopcarts/%d/items/%d", key.ShopcartId, key.ProductId)
}
