package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sadopc/mealdeck/internal/model"
)

func testItems() []model.ShoppingItem {
	dairy := &model.Label{ID: "l1", Name: "Dairy"}
	return []model.ShoppingItem{
		{ID: "1", Label: dairy, Quantity: 2, Food: &model.Food{Name: "Milk"}},
		{ID: "2", Note: "batteries"},
		{ID: "3", Label: dairy, Checked: true, Food: &model.Food{Name: "Butter"}, UpdateAt: "2026-08-31T10:00:00Z"},
	}
}

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.csv")
	if err := ToCSV(testItems(), path); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 4 { // header + 3 items
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0][0] != "Category" {
		t.Fatalf("missing header: %v", rows[0])
	}
	// Unchecked first (Dairy before Other), checked last.
	if rows[1][1] != "Milk" || rows[1][0] != "Dairy" || rows[1][2] != "2" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if rows[2][1] != "batteries" || rows[2][0] != "Other" {
		t.Fatalf("unexpected second row: %v", rows[2])
	}
	if rows[3][1] != "Butter" || rows[3][4] != "true" {
		t.Fatalf("unexpected checked row: %v", rows[3])
	}
}

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.json")
	if err := ToJSON(testItems(), path); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var groups []struct {
		Category string `json:"category"`
		Items    []struct {
			Name    string `json:"name"`
			Checked bool   `json:"checked"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &groups); err != nil {
		t.Fatal(err)
	}

	want := []string{"Dairy", "Other", "Done"}
	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(groups))
	}
	for i, name := range want {
		if groups[i].Category != name {
			t.Fatalf("group %d: expected %q, got %q", i, name, groups[i].Category)
		}
	}
	if groups[2].Items[0].Name != "Butter" || !groups[2].Items[0].Checked {
		t.Fatalf("unexpected done group: %+v", groups[2])
	}
}
