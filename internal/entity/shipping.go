package domain

import "errors"

var ErrShippingMethodNotFound = errors.New("shipping method not found")

type ShippingMethod struct {
	ID                int64
	Name              string
	BaseFee           int64
	ExtraFeePerKg     int64
	EstimatedDelivery string
}

// FeeFor returns the method's fee for an optional total weight.
// A zero weight charges the base fee only.
func (m *ShippingMethod) FeeFor(weightKg float64) int64 {
	fee := m.BaseFee
	if weightKg > 0 {
		fee += int64(float64(m.ExtraFeePerKg) * weightKg)
	}
	return fee
}
