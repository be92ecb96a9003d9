package router

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jasirilabs/lats-backend/internal/analytics/types"
	"github.com/jasirilabs/lats-backend/internal/analytics/writer"
	"github.com/jasirilabs/lats-backend/internal/sales"
	"github.com/jasirilabs/lats-backend/pkg/logger"
)

type saleRecordedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newSaleRecordedHandler(w Writer, logg *logger.Logger) Handler {
	return &saleRecordedHandler{writer: w, logg: logg}
}

func (h *saleRecordedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*sales.SaleRecordedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for sale_recorded")
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":  envelope.EventType,
		"sale_id":     event.SaleID,
		"sale_number": event.SaleNumber,
		"lines":       len(event.Items),
	})

	rows := make([]types.SalesFactRow, 0, len(event.Items))
	for _, item := range event.Items {
		quantity := int64(item.Quantity)
		rows = append(rows, types.SalesFactRow{
			EventID:    envelope.EventID,
			SaleID:     event.SaleID.String(),
			SaleNumber: event.SaleNumber,
			ProductID:  item.ProductID.String(),
			VariantID:  item.VariantID.String(),
			SKU:        item.SKU,
			Name:       item.Name,
			Quantity:   quantity,
			UnitPrice:  item.UnitPrice.InexactFloat64(),
			UnitCost:   item.UnitCost.InexactFloat64(),
			Revenue:    item.LineTotal.InexactFloat64(),
			Cost:       item.UnitCost.Mul(decimal.NewFromInt(quantity)).InexactFloat64(),
			SoldAt:     event.SoldAt,
			OccurredAt: envelope.OccurredAt,
		})
	}

	if err := h.writer.InsertSalesFacts(logCtx, rows); err != nil {
		h.logg.Error(logCtx, "failed to insert sales fact rows", err)
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

	h.logg.Info(logCtx, "sale_recorded handler inserted fact rows")
	return nil
}

func buildEventLogRow(envelope types.Envelope) (types.EventLogRow, error) {
	encoded, err := writer.EncodeJSON(envelope.Data)
	if err != nil {
		return types.EventLogRow{}, err
	}
	return types.EventLogRow{
		EventID:       envelope.EventID,
		EventType:     string(envelope.EventType),
		AggregateType: string(envelope.AggregateType),
		AggregateID:   envelope.AggregateID,
		OccurredAt:    envelope.OccurredAt,
		Payload:       encoded,
	}, nil
}
