package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStats is a point-in-time aggregate over the product set.
// It is recomputed out-of-band and only read by the catalog store.
type ProductStats struct {
	ID                int64
	TotalProducts     int
	AveragePrice      decimal.Decimal
	TotalStockValue   decimal.Decimal
	LowStockCount     int
	DiscontinuedCount int
	LastUpdated       time.Time
}
