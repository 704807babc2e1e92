package domain

import (
	"slices"
	"time"
)

// Category is a node in the category tree. Ancestors lists the ids from the
// root down to and including the category itself.
type Category struct {
	ID        string    `json:"_id" bson:"_id"`
	Parent    *string   `json:"parent,omitempty" bson:"parent,omitempty"`
	Ancestors []string  `json:"ancestors" bson:"ancestors"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// NewCategory builds a category under parent, or a root when parent is nil.
// The ancestors path is copied from the parent, so later changes to the
// parent's path do not propagate.
func NewCategory(id string, parent *Category) *Category {
	c := &Category{
		ID:        id,
		CreatedAt: time.Now().UTC(),
	}
	if parent == nil {
		c.Ancestors = []string{id}
		return c
	}

	parentID := parent.ID
	c.Parent = &parentID
	c.Ancestors = append(slices.Clone(parent.Ancestors), id)
	return c
}

// IsRoot reports whether the category has no parent
func (c *Category) IsRoot() bool {
	return c.Parent == nil
}

// Snapshot copies the id and ancestors path for embedding in a product
func (c *Category) Snapshot() CategorySnapshot {
	return CategorySnapshot{
		ID:        c.ID,
		Ancestors: slices.Clone(c.Ancestors),
	}
}

// CategorySnapshot is the category as seen by a product at categorization
// time. It is not a live reference.
type CategorySnapshot struct {
	ID        string   `json:"_id,omitempty" bson:"_id,omitempty"`
	Ancestors []string `json:"ancestors" bson:"ancestors"`
}

// InSubtree reports whether the snapshot lies under (or is) categoryID
func (s CategorySnapshot) InSubtree(categoryID string) bool {
	return slices.Contains(s.Ancestors, categoryID)
}
