package model

import (
	"fmt"
	"time"
)

// ExpiryStatus classifies how close an item is to its expiry date.
type ExpiryStatus string

// Expiry statuses.
const (
	ExpiryExpired  ExpiryStatus = "expired"
	ExpiryCritical ExpiryStatus = "critical"
	ExpiryWarning  ExpiryStatus = "warning"
	ExpirySafe     ExpiryStatus = "safe"
)

// Status thresholds, in whole days remaining.
const (
	CriticalDays = 7
	WarningDays  = 30
)

const millisPerDay = 24 * 60 * 60 * 1000

// Expiry is the derived expiry state of an item at a given moment.
type Expiry struct {
	Status   ExpiryStatus `json:"status"`
	DaysLeft *int         `json:"days_left,omitempty"`
}

// ExpiryOf computes the expiry state of item at now. Items without an expiry
// date are always safe and carry no day count.
func ExpiryOf(item Item, now time.Time) Expiry {
	if item.ExpiresAt == nil {
		return Expiry{Status: ExpirySafe}
	}

	// Integer division truncates toward zero, so anything less than a full
	// day overdue still counts as day 0.
	days := int((item.ExpiresAt.UnixMilli() - now.UnixMilli()) / millisPerDay)

	var status ExpiryStatus
	switch {
	case days < 0:
		status = ExpiryExpired
	case days <= CriticalDays:
		status = ExpiryCritical
	case days <= WarningDays:
		status = ExpiryWarning
	default:
		status = ExpirySafe
	}
	return Expiry{Status: status, DaysLeft: &days}
}

// Label returns the short badge text shown next to an item, or "" when no
// badge should be shown.
func (e Expiry) Label() string {
	if e.Status == ExpirySafe || e.DaysLeft == nil {
		return ""
	}
	if *e.DaysLeft < 0 {
		return "expired"
	}
	if *e.DaysLeft == 1 {
		return "1 day left"
	}
	return fmt.Sprintf("%d days left", *e.DaysLeft)
}

// ItemView is an item together with its derived expiry state.
type ItemView struct {
	Item
	Expiry Expiry `json:"expiry"`
	Label  string `json:"expiry_label,omitempty"`
	Icon   string `json:"icon"`
}

// Annotate derives the expiry state of every item against the same now, so
// that all rows of one result agree with each other.
func Annotate(items []Item, now time.Time, icons map[string]string) []ItemView {
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		e := ExpiryOf(item, now)
		views = append(views, ItemView{
			Item:   item,
			Expiry: e,
			Label:  e.Label(),
			Icon:   CategoryIcon(icons, item.Category),
		})
	}
	return views
}
