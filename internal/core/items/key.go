package items

import "strings"

// CategoryPrefix is the product-category tag some documents put in front of a
// line item description. It never distinguishes two items.
const CategoryPrefix = "culture "

// NormalizeKey maps a raw description to the key used to group line items:
// trimmed, lower-cased, with a leading CategoryPrefix removed.
// Callers drop items whose description is blank before asking for a key.
func NormalizeKey(description string) string {
	key := strings.ToLower(strings.TrimSpace(description))
	return strings.TrimPrefix(key, CategoryPrefix)
}

// HasDescription reports whether a raw description is usable for grouping.
func HasDescription(description string) bool {
	return strings.TrimSpace(description) != ""
}
