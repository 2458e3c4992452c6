package sqs

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/shopspring/decimal"
)

// auditNamespace scopes the event ids derived from history ids.
var auditNamespace = uuid.MustParse("6f1c2a4e-8d3b-4f7a-9c2e-5b8d1a0e7c41")

// AuditMessage is the wire form of a product history entry.
type AuditMessage struct {
	// EventID is derived from HistoryID, so redeliveries of the same entry share it.
	EventID    string           `json:"event_id"`
	HistoryID  int64            `json:"history_id"`
	ProductID  int64            `json:"product_id"`
	Action     string           `json:"action"`
	OldPrice   *decimal.Decimal `json:"old_price,omitempty"`
	NewPrice   *decimal.Decimal `json:"new_price,omitempty"`
	OldStock   *int             `json:"old_stock,omitempty"`
	NewStock   *int             `json:"new_stock,omitempty"`
	ActionDate time.Time        `json:"action_date"`
	ModifiedBy string           `json:"modified_by"`
}

// NewAuditMessage converts a history entry into its message.
func NewAuditMessage(entry *model.ProductHistory) AuditMessage {
	return AuditMessage{
		EventID:    uuid.NewSHA1(auditNamespace, []byte(strconv.FormatInt(entry.ID, 10))).String(),
		HistoryID:  entry.ID,
		ProductID:  entry.ProductID,
		Action:     string(entry.Action),
		OldPrice:   entry.OldPrice,
		NewPrice:   entry.NewPrice,
		OldStock:   entry.OldStock,
		NewStock:   entry.NewStock,
		ActionDate: entry.ActionDate,
		ModifiedBy: entry.ModifiedBy,
	}
}
