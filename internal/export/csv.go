package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sadopc/mealdeck/internal/model"
	"github.com/sadopc/mealdeck/internal/shopping"
)

func ToCSV(items []model.ShoppingItem, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Category", "Name", "Quantity", "Note", "Checked"}); err != nil {
		return err
	}

	writeRow := func(category string, it model.ShoppingItem) error {
		return w.Write([]string{
			category,
			it.DisplayName(),
			strconv.FormatFloat(it.Quantity, 'f', -1, 64),
			it.Note,
			strconv.FormatBool(it.Checked),
		})
	}

	for _, g := range shopping.GroupUnchecked(items) {
		for _, it := range g.Items {
			if err := writeRow(g.Name, it); err != nil {
				return err
			}
		}
	}
	for _, it := range shopping.SortChecked(items) {
		if err := writeRow(it.EffectiveLabel(), it); err != nil {
			return err
		}
	}

	return w.Error()
}
