package model

// Group is a named run of items sharing a location or category.
type Group struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Grouping keys.
const (
	GroupByLocation = "location"
	GroupByCategory = "category"
)

// GroupBy groups items by location or category. Groups appear in order of
// their first item and items keep their relative order.
func GroupBy(items []Item, key string) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, item := range items {
		name := item.Location
		if key == GroupByCategory {
			name = item.Category
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Name: name})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}
