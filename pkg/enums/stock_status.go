package enums

// StockStatus classifies a variant's on-hand quantity against its minimum level.
type StockStatus string

const (
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusLow        StockStatus = "low"
	StockStatusInStock    StockStatus = "in_stock"
)

// StockStatusFor derives the status from quantity and the configured minimum.
func StockStatusFor(quantity, minLevel int) StockStatus {
	switch {
	case quantity <= 0:
		return StockStatusOutOfStock
	case minLevel > 0 && quantity <= minLevel:
		return StockStatusLow
	default:
		return StockStatusInStock
	}
}
