package purchase

import (
	"github.com/jasirilabs/lats-backend/internal/purchase/cart"
	"github.com/jasirilabs/lats-backend/pkg/db/models"
	"github.com/jasirilabs/lats-backend/pkg/enums"
)

// stateFromOrder rebuilds the reducer state from the persisted draft. Item ID
// and cart line ID are the same value, so actions address rows directly.
func stateFromOrder(order *models.PurchaseOrder) cart.State {
	state := cart.NewState()
	state.SupplierID = order.SupplierID
	state.Currency = order.Currency
	state.ExchangeRate = order.ExchangeRate
	state.ExpectedDelivery = order.ExpectedDelivery
	state.Discount = order.DiscountAmount
	if order.Notes != nil {
		state.Notes = *order.Notes
	}
	if order.Currency == "" {
		state.Currency = enums.BaseCurrency
	}
	for _, item := range order.Items {
		line := cart.Line{
			ID:         item.ID,
			ProductID:  item.ProductID,
			VariantID:  item.VariantID,
			SKU:        item.SKU,
			Name:       item.Name,
			Quantity:   item.Quantity,
			CostPrice:  item.CostPrice,
			TotalPrice: item.TotalPrice,
		}
		if item.Notes != nil {
			line.Notes = *item.Notes
		}
		state.Lines = append(state.Lines, line)
	}
	return state
}

func itemsFromState(state cart.State) []models.PurchaseOrderItem {
	items := make([]models.PurchaseOrderItem, 0, len(state.Lines))
	for i, line := range state.Lines {
		item := models.PurchaseOrderItem{
			ID:         line.ID,
			ProductID:  line.ProductID,
			VariantID:  line.VariantID,
			SKU:        line.SKU,
			Name:       line.Name,
			Quantity:   line.Quantity,
			CostPrice:  line.CostPrice,
			TotalPrice: line.TotalPrice,
			Position:   i,
		}
		if line.Notes != "" {
			notes := line.Notes
			item.Notes = &notes
		}
		items = append(items, item)
	}
	return items
}

func totalsUpdates(totals cart.Totals) map[string]any {
	return map[string]any{
		"subtotal_amount":   totals.Subtotal,
		"tax_amount":        totals.Tax,
		"discount_amount":   totals.Discount,
		"total_amount":      totals.Total,
		"total_base_amount": totals.TotalInBase,
	}
}
