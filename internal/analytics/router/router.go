package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jasirilabs/lats-backend/internal/analytics/types"
	"github.com/jasirilabs/lats-backend/internal/purchase"
	"github.com/jasirilabs/lats-backend/internal/sales"
	"github.com/jasirilabs/lats-backend/internal/shipping"
	"github.com/jasirilabs/lats-backend/pkg/enums"
	"github.com/jasirilabs/lats-backend/pkg/logger"
)

var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer delivers BigQuery rows produced by analytics handlers.
type Writer interface {
	InsertSalesFacts(ctx context.Context, rows []types.SalesFactRow) error
	InsertPurchaseFacts(ctx context.Context, rows []types.PurchaseFactRow) error
	InsertEventLog(ctx context.Context, row types.EventLogRow) error
}

// Handler receives an envelope plus its decoded payload.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope, payload any) error
}

type handlerEntry struct {
	factory func() any
	handler Handler
}

// Router dispatches domain events to the fact handler per event type.
type Router struct {
	handlers map[enums.OutboxEventType]handlerEntry
	logg     *logger.Logger
}

// NewRouter wires the fact handlers.
func NewRouter(writer Writer, logg *logger.Logger) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	entries := map[enums.OutboxEventType]handlerEntry{
		enums.EventSaleRecorded: {
			factory: func() any { return &sales.SaleRecordedEvent{} },
			handler: newSaleRecordedHandler(writer, logg),
		},
		enums.EventPurchaseOrderSubmitted: {
			factory: func() any { return &purchase.SubmittedEvent{} },
			handler: newPurchaseSubmittedHandler(writer, logg),
		},
		enums.EventShipmentDelivered: {
			factory: func() any { return &shipping.DeliveredEvent{} },
			handler: newShipmentDeliveredHandler(writer, logg),
		},
	}

	return &Router{handlers: entries, logg: logg}, nil
}

// Handle dispatches the incoming envelope to the configured handler.
func (r *Router) Handle(ctx context.Context, envelope types.Envelope) error {
	entry, ok := r.handlers[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	if len(envelope.Data) == 0 {
		return fmt.Errorf("empty payload for %s", envelope.EventType)
	}
	payload := entry.factory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", envelope.EventType, err)
	}

	return entry.handler.Handle(ctx, envelope, payload)
}
