package shopping

import (
	"sort"

	"github.com/sadopc/mealdeck/internal/model"
)

// Group is one rendered category section of unchecked items.
type Group struct {
	Name  string
	Items []model.ShoppingItem
}

// GroupUnchecked buckets unchecked items by effective label. Groups come out
// alphabetical with the "Other" catch-all forced last regardless of where it
// would sort.
func GroupUnchecked(items []model.ShoppingItem) []Group {
	byLabel := make(map[string][]model.ShoppingItem)
	for _, it := range items {
		if it.Checked {
			continue
		}
		name := it.EffectiveLabel()
		byLabel[name] = append(byLabel[name], it)
	}

	names := make([]string, 0, len(byLabel))
	for name := range byLabel {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == "Other" {
			return false
		}
		if names[j] == "Other" {
			return true
		}
		return names[i] < names[j]
	})

	groups := make([]Group, 0, len(names))
	for _, name := range names {
		groups = append(groups, Group{Name: name, Items: byLabel[name]})
	}
	return groups
}

// SortChecked returns the checked items most-recently-updated first. Items
// without a timestamp sort as least-recently updated. The updateAt strings
// are RFC 3339, so lexicographic order is chronological order.
func SortChecked(items []model.ShoppingItem) []model.ShoppingItem {
	var checked []model.ShoppingItem
	for _, it := range items {
		if it.Checked {
			checked = append(checked, it)
		}
	}
	sort.SliceStable(checked, func(i, j int) bool {
		return checked[i].UpdateAt > checked[j].UpdateAt
	})
	return checked
}
