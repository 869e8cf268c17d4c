package domain

import "errors"

var (
	ErrVariantNotFound = errors.New("product variant not found")
	// ErrVariantUnavailable means the variant exists but is not sold
	// anymore; it cannot be checked out at any quantity.
	ErrVariantUnavailable = errors.New("product variant is not available")
	ErrAddressNotFound    = errors.New("address not found")
)

// Variant is the fully-materialized view of a product variant the
// checkout needs: price, sale price and current stock. No lazy loading.
type Variant struct {
	ID            int64
	SKU           string
	Price         int64
	SalePrice     int64
	StockQuantity int
	WeightKg      float64
	Active        bool
}

// UnitPrice is the price captured onto an order item: the sale price
// when one is set and positive, the regular price otherwise.
func (v *Variant) UnitPrice() int64 {
	if v.SalePrice > 0 {
		return v.SalePrice
	}
	return v.Price
}

type CartItem struct {
	VariantID int64
	Quantity  int
	Selected  bool
}

type Address struct {
	ID          int64
	UserID      int64
	Recipient   string
	Phone       string
	AddressLine string
}
