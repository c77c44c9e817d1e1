package model

import "time"

// Item is a single tracked household object.
type Item struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	ImagePath string     `json:"image_path,omitempty"`
	Location  string     `json:"location"`
	Category  string     `json:"category"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Draft holds the user-editable fields of an item that has not been stored yet.
type Draft struct {
	Name      string     `json:"name"`
	ImagePath string     `json:"image_path,omitempty"`
	Location  string     `json:"location"`
	Category  string     `json:"category"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// Draft returns the editable fields of the item.
func (i Item) Draft() Draft {
	return Draft{
		Name:      i.Name,
		ImagePath: i.ImagePath,
		Location:  i.Location,
		Category:  i.Category,
		ExpiresAt: i.ExpiresAt,
		Notes:     i.Notes,
	}
}

// Apply replaces the editable fields of the item with those of d.
// ID and CreatedAt are left untouched.
func (i Item) Apply(d Draft) Item {
	i.Name = d.Name
	i.ImagePath = d.ImagePath
	i.Location = d.Location
	i.Category = d.Category
	i.ExpiresAt = d.ExpiresAt
	i.Notes = d.Notes
	return i
}

// Stats summarizes the inventory for the dashboard.
type Stats struct {
	TotalItems    int `json:"total_items"`
	LocationCount int `json:"location_count"`
	ExpiringCount int `json:"expiring_count"`
}
