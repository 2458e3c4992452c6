package model

import "time"

type Supplier struct {
	ID          int64
	Name        string
	ContactName string
	Email       string
	Phone       string
	Address     string
	Country     string
	IsActive    bool
	CreatedDate time.Time
}
