package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sadopc/mealdeck/internal/model"
	"github.com/sadopc/mealdeck/internal/shopping"
)

type jsonItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Note     string  `json:"note,omitempty"`
	Checked  bool    `json:"checked"`
}

type jsonGroup struct {
	Category string     `json:"category"`
	Items    []jsonItem `json:"items"`
}

// ToJSON writes the list as category groups, unchecked first, with the
// checked items under a trailing "Done" group.
func ToJSON(items []model.ShoppingItem, path string) error {
	var groups []jsonGroup
	for _, g := range shopping.GroupUnchecked(items) {
		jg := jsonGroup{Category: g.Name}
		for _, it := range g.Items {
			jg.Items = append(jg.Items, jsonItem{
				Name:     it.DisplayName(),
				Quantity: it.Quantity,
				Note:     it.Note,
				Checked:  false,
			})
		}
		groups = append(groups, jg)
	}
	checked := shopping.SortChecked(items)
	if len(checked) > 0 {
		jg := jsonGroup{Category: "Done"}
		for _, it := range checked {
			jg.Items = append(jg.Items, jsonItem{
				Name:     it.DisplayName(),
				Quantity: it.Quantity,
				Note:     it.Note,
				Checked:  true,
			})
		}
		groups = append(groups, jg)
	}

	data, err := json.MarshalIndent(groups, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
