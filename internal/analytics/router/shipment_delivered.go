package router

import (
	"context"
	"fmt"

	"github.com/jasirilabs/lats-backend/internal/analytics/types"
	"github.com/jasirilabs/lats-backend/internal/shipping"
	"github.com/jasirilabs/lats-backend/pkg/logger"
)

type shipmentDeliveredHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newShipmentDeliveredHandler(w Writer, logg *logger.Logger) Handler {
	return &shipmentDeliveredHandler{writer: w, logg: logg}
}

// Deliveries have no fact table of their own; the event log row is what the
// lead-time queries aggregate over.
func (h *shipmentDeliveredHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*shipping.DeliveredEvent)
	if !ok {
		return fmt.Errorf("invalid payload for shipment_delivered")
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":  envelope.EventType,
		"shipment_id": event.ShipmentID,
		"order_id":    event.PurchaseOrderID,
	})

	logRow, err := buildEventLogRow(envelope)
	if err != nil {
		h.logg.Error(logCtx, "failed to build event log row", err)
		return err
	}
	if err := h.writer.InsertEventLog(logCtx, logRow); err != nil {
		h.logg.Error(logCtx, "failed to insert event log row", err)
		return err
	}

	h.logg.Info(logCtx, "shipment_delivered handler inserted event log row")
	return nil
}
