package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/log"
	"github.com/go-foreman/ordersaga/order"
	"github.com/go-foreman/ordersaga/saga"
)

//go:generate mockgen --build_flags=--mod=mod -destination ./mock_test.go -package api . OrderCreator,EventFinder

type OrderCreator interface {
	CreateOrder(ctx context.Context, req order.OrderRequest) (saga.Order, error)
}

type EventFinder interface {
	FindAll(ctx context.Context) ([]*saga.Event, error)
	FindByFilters(ctx context.Context, filter order.Filter) (*saga.Event, error)
}

// Handler serves order placement and saga event lookups
type Handler struct {
	creator OrderCreator
	finder  EventFinder
	logger  log.Logger
}

func NewHandler(logger log.Logger, creator OrderCreator, finder EventFinder) *Handler {
	return &Handler{creator: creator, finder: finder, logger: logger}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/order", h.CreateOrder)
		r.Get("/event", h.FindByFilters)
		r.Get("/event/all", h.FindAll)
	})

	return r
}

func (h *Handler) CreateOrder(resp http.ResponseWriter, r *http.Request) {
	var req order.OrderRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		NewResponseWriterFromError(NewResponseError(http.StatusBadRequest, errors.Wrap(err, "decoding order request"))).write(resp, h.logger)
		return
	}

	created, err := h.creator.CreateOrder(r.Context(), req)
	if err != nil {
		h.writeErr(resp, err)
		return
	}

	NewResponseWriter(created, http.StatusOK).write(resp, h.logger)
}

func (h *Handler) FindByFilters(resp http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	ev, err := h.finder.FindByFilters(r.Context(), order.Filter{
		OrderID:       query.Get("orderId"),
		TransactionID: query.Get("transactionId"),
	})
	if err != nil {
		h.writeErr(resp, err)
		return
	}

	NewResponseWriter(ev, http.StatusOK).write(resp, h.logger)
}

func (h *Handler) FindAll(resp http.ResponseWriter, r *http.Request) {
	events, err := h.finder.FindAll(r.Context())
	if err != nil {
		h.writeErr(resp, err)
		return
	}

	if events == nil {
		events = []*saga.Event{}
	}

	NewResponseWriter(events, http.StatusOK).write(resp, h.logger)
}

func (h *Handler) writeErr(resp http.ResponseWriter, err error) {
	rw := NewResponseWriterFromError(err)
	if rw.status == http.StatusInternalServerError {
		h.logger.Logf(log.ErrorLevel, "%+v", err)
	}

	rw.write(resp, h.logger)
}
