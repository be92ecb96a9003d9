package router

import (
	"context"
	"fmt"

	"github.com/jasirilabs/lats-backend/internal/analytics/types"
	"github.com/jasirilabs/lats-backend/internal/purchase"
	"github.com/jasirilabs/lats-backend/pkg/logger"
)

type purchaseSubmittedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newPurchaseSubmittedHandler(w Writer, logg *logger.Logger) Handler {
	return &purchaseSubmittedHandler{writer: w, logg: logg}
}

func (h *purchaseSubmittedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*purchase.SubmittedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for purchase_order_submitted")
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":   envelope.EventType,
		"order_id":     event.OrderID,
		"order_number": event.OrderNumber,
	})

	row := types.PurchaseFactRow{
		EventID:         envelope.EventID,
		OrderID:         event.OrderID.String(),
		OrderNumber:     event.OrderNumber,
		SupplierID:      stringPtr(event.SupplierID.String()),
		Currency:        string(event.Currency),
		Subtotal:        event.SubtotalAmount.InexactFloat64(),
		Tax:             event.TaxAmount.InexactFloat64(),
		Discount:        event.DiscountAmount.InexactFloat64(),
		Total:           event.TotalAmount.InexactFloat64(),
		TotalBaseAmount: event.TotalBaseAmount.InexactFloat64(),
		ItemCount:       int64(event.ItemCount),
		SubmittedAt:     envelope.OccurredAt.UTC(),
		OccurredAt:      envelope.OccurredAt,
	}

	if err := h.writer.InsertPurchaseFacts(logCtx, []types.PurchaseFactRow{row}); err != nil {
		h.logg.Error(logCtx, "failed to insert purchase fact row", err)
		return err
	}

	logRow, err := buildEventLogRow(envelope)
	if err != nil {
		h.logg.Error(logCtx, "failed to build event log row", err)
		return err
	}
	if err := h.writer.InsertEventLog(logCtx, logRow); err != nil {
		h.logg.Error(logCtx, "failed to insert event log row", err)
		return err
	}

	h.logg.Info(logCtx, "purchase_order_submitted handler inserted fact row")
	return nil
}
