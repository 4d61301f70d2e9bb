// Package resthttp содержит HTTP API сервиса продаж.
package resthttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/medisupply/sales/internal/domain"
	"github.com/medisupply/sales/internal/service/orders"
)

// Handler обрабатывает HTTP-запросы к заказам.
type Handler struct {
	service *orders.Service
	logger  *log.Entry
}

// NewHandler создаёт HTTP-обработчик заказов.
func NewHandler(service *orders.Service, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Handler{
		service: service,
		logger:  logger.WithField("component", "http_handler"),
	}
}

// Register монтирует маршруты заказов на router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Route("/{orderID}", func(r chi.Router) {
			r.Get("/", h.getOrder)
			r.Patch("/", h.updateOrder)
			r.Delete("/", h.deleteOrder)
			r.Get("/timeline", h.timeline)
		})
	})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	order, err := h.service.CreateOrder(r.Context(), req.toServiceRequest())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	filter := domain.OrderFilter{
		CustomerID: r.URL.Query().Get("customer_id"),
		SellerID:   r.URL.Query().Get("seller_id"),
		Status:     domain.OrderStatus(r.URL.Query().Get("status")),
	}
	if filter.Status != "" && !filter.Status.Known() {
		h.writeError(w, http.StatusBadRequest, "Unknown status filter: "+string(filter.Status))
		return
	}

	list, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	responses := make([]orderResponse, 0, len(list))
	for _, order := range list {
		responses = append(responses, toOrderResponse(order))
	}
	h.writeJSON(w, http.StatusOK, orderListResponse{Orders: responses, Count: len(responses)})
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	order, err := h.service.UpdateOrder(r.Context(), chi.URLParam(r, "orderID"), req.toPatch())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteOrder(r.Context(), chi.URLParam(r, "orderID")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.Timeline(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toTimelineResponse(events))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message, StatusCode: status})
}

// writeServiceError переводит доменную ошибку в HTTP-статус по её категории.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("Internal error")
	}
	h.writeError(w, status, err.Error())
}
