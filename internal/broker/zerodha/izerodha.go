package zerodha

import (
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

// KiteAPI is the subset of *kiteconnect.Client the adapter calls
type KiteAPI interface {
	// GetHistoricalData returns bars for an instrument token between from and to, oldest first
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)

	// PlaceOrder places an order of the given variety and returns the exchange order id
	PlaceOrder(variety string, orderParams kiteconnect.OrderParams) (kiteconnect.OrderResponse, error)
}

var _ KiteAPI = (*kiteconnect.Client)(nil)
