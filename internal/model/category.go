package model

import "time"

// Category is a node of the category tree. A nil ParentCategoryID marks a root.
type Category struct {
	ID               int64
	Name             string
	Description      string
	ParentCategoryID *int64
	CreatedDate      time.Time

	// SubCategories is only populated by the hierarchy view.
	SubCategories []*Category
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentCategoryID == nil
}
