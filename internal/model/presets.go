package model

// Preset storage locations offered when adding an item.
var PresetLocations = []string{"Kitchen", "Bedroom", "Study", "Living Room", "Storage Room"}

// Preset categories offered when adding an item.
var PresetCategories = []string{"Food", "Medicine", "Daily Goods", "Documents", "Tools", "Other"}

// CategoryOther is the fallback category for icons.
const CategoryOther = "Other"

// DefaultCategoryIcons maps preset categories to their display icon.
var DefaultCategoryIcons = map[string]string{
	"Food":        "🥛",
	"Medicine":    "💊",
	"Daily Goods": "🧴",
	"Documents":   "📄",
	"Tools":       "🔧",
	CategoryOther: "📦",
}

// CategoryIcon returns the icon for category, falling back to the icon of
// CategoryOther. A nil map uses DefaultCategoryIcons.
func CategoryIcon(icons map[string]string, category string) string {
	if icons == nil {
		icons = DefaultCategoryIcons
	}
	if icon, ok := icons[category]; ok {
		return icon
	}
	if icon, ok := icons[CategoryOther]; ok {
		return icon
	}
	return DefaultCategoryIcons[CategoryOther]
}

// Suggestions returns presets followed by every in-use value that is not a
// preset, without duplicates.
func Suggestions(presets, inUse []string) []string {
	seen := make(map[string]bool, len(presets)+len(inUse))
	out := make([]string, 0, len(presets)+len(inUse))
	for _, list := range [][]string{presets, inUse} {
		for _, v := range list {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
