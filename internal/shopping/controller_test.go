package shopping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/sadopc/mealdeck/internal/api"
	"github.com/sadopc/mealdeck/internal/model"
	"github.com/sadopc/mealdeck/internal/resolve"
	"github.com/sadopc/mealdeck/internal/store"
	syncpkg "github.com/sadopc/mealdeck/internal/sync"
)

// fakeServer is a minimal in-memory Mealie good enough for controller flows.
type fakeServer struct {
	mu     sync.Mutex
	items  map[string]model.ShoppingItem
	foods  []model.Food
	labels []model.Label
	nextID int

	failUpdates bool
	deleted     []string
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")

		path := r.URL.Path
		switch {
		case path == "/api/groups/labels":
			json.NewEncoder(w).Encode(map[string]any{"items": f.labels})

		case path == "/api/households/shopping/lists":
			json.NewEncoder(w).Encode(map[string]any{"items": []model.ShoppingList{{ID: "l1", Name: "Groceries"}}})

		case path == "/api/households/shopping/lists/l1":
			var items []model.ShoppingItem
			for _, it := range f.items {
				items = append(items, it)
			}
			json.NewEncoder(w).Encode(map[string]any{"listItems": items})

		case path == "/api/households/shopping/items" && r.Method == http.MethodPost:
			var it model.ShoppingItem
			json.NewDecoder(r.Body).Decode(&it)
			f.nextID++
			it.ID = "srv" + strconv.Itoa(f.nextID)
			if it.FoodID != "" {
				for i := range f.foods {
					if f.foods[i].ID == it.FoodID {
						food := f.foods[i]
						it.Food = &food
					}
				}
			}
			f.items[it.ID] = it
			json.NewEncoder(w).Encode(it)

		case strings.HasPrefix(path, "/api/households/shopping/items/"):
			id := strings.TrimPrefix(path, "/api/households/shopping/items/")
			switch r.Method {
			case http.MethodPut:
				if f.failUpdates {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				var it model.ShoppingItem
				json.NewDecoder(r.Body).Decode(&it)
				f.items[id] = it
				json.NewEncoder(w).Encode(it)
			case http.MethodDelete:
				f.deleted = append(f.deleted, id)
				delete(f.items, id)
				w.Write([]byte(`{}`))
			}

		case path == "/api/foods" && r.Method == http.MethodGet:
			query := strings.ToLower(r.URL.Query().Get("search"))
			var out []model.Food
			for _, fd := range f.foods {
				if strings.Contains(strings.ToLower(fd.Name), query) {
					out = append(out, fd)
				}
			}
			json.NewEncoder(w).Encode(map[string]any{"items": out})

		case path == "/api/foods" && r.Method == http.MethodPost:
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			food := model.Food{ID: "food-" + body["name"], Name: body["name"], LabelID: body["labelId"]}
			f.foods = append(f.foods, food)
			json.NewEncoder(w).Encode(food)

		default:
			t.Logf("fake server: unhandled %s %s", r.Method, path)
			w.Write([]byte(`{}`))
		}
	})
}

type fixture struct {
	ctrl   *Controller
	eng    *syncpkg.Engine
	srv    *fakeServer
	notes  *[]string
	active *store.Cell[string]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := &fakeServer{items: make(map[string]model.ShoppingItem)}
	ts := httptest.NewServer(fake.handler(t))
	t.Cleanup(ts.Close)

	client := api.NewClient(ts.URL, func() string { return "tok" })
	items := store.NewCell([]model.ShoppingItem(nil))
	var notes []string
	eng := syncpkg.New(items, func(msg string) { notes = append(notes, msg) })

	lists := store.NewCell([]model.ShoppingList(nil))
	active := store.NewCell("")
	labels := store.NewCell([]model.Label(nil))

	ctrl := NewController(client, eng, resolve.New(client), lists, active, labels,
		func(msg string) { notes = append(notes, msg) })
	return &fixture{ctrl: ctrl, eng: eng, srv: fake, notes: &notes, active: active}
}

// ============================================================
// Loading
// ============================================================

func TestLoadListsSelectsFirst(t *testing.T) {
	fx := newFixture(t)
	if err := fx.ctrl.LoadLists(context.Background()); err != nil {
		t.Fatal(err)
	}
	if fx.active.Get() != "l1" {
		t.Fatalf("expected first list auto-selected, got %q", fx.active.Get())
	}
}

func TestRefreshSkippedWhilePending(t *testing.T) {
	fx := newFixture(t)
	fx.ctrl.LoadLists(context.Background())
	fx.eng.Replace([]model.ShoppingItem{{ID: "local"}})

	fx.eng.BeginBatch()
	if err := fx.ctrl.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	items := fx.eng.Items()
	if len(items) != 1 || items[0].ID != "local" {
		t.Fatalf("refresh must not clobber pending state: %+v", items)
	}
	fx.eng.EndBatch()
}

// ============================================================
// Toggle
// ============================================================

func TestToggleStampsUpdateAt(t *testing.T) {
	fx := newFixture(t)
	fx.ctrl.LoadLists(context.Background())
	fx.srv.items["i1"] = model.ShoppingItem{ID: "i1"}
	fx.ctrl.Refresh(context.Background())

	if err := fx.ctrl.Toggle(context.Background(), "i1", true); err != nil {
		t.Fatal(err)
	}
	got, _ := fx.eng.Get("i1")
	if !got.Checked {
		t.Fatal("item should be checked")
	}
	if got.UpdateAt == "" {
		t.Fatal("toggle must stamp the update time")
	}
}

func TestToggleRevertsOnServerError(t *testing.T) {
	fx := newFixture(t)
	fx.ctrl.LoadLists(context.Background())
	fx.srv.items["i1"] = model.ShoppingItem{ID: "i1", UpdateAt: "2026-08-01T00:00:00Z"}
	fx.ctrl.Refresh(context.Background())
	fx.srv.failUpdates = true

	if err := fx.ctrl.Toggle(context.Background(), "i1", true); err == nil {
		t.Fatal("expected error")
	}
	got, _ := fx.eng.Get("i1")
	if got.Checked || got.UpdateAt != "2026-08-01T00:00:00Z" {
		t.Fatalf("item should be restored exactly: %+v", got)
	}
	if len(*fx.notes) != 1 {
		t.Fatalf("expected one notification, got %v", *fx.notes)
	}
}

// ============================================================
// Quantity
// ============================================================

func TestAdjustQuantityClampsToOne(t *testing.T) {
	fx := newFixture(t)
	fx.ctrl.LoadLists(context.Background())
	fx.srv.items["i1"] = model.ShoppingItem{ID: "i1", Quantity: 2}
	fx.ctrl.Refresh(context.Background())

	fx.ctrl.AdjustQuantity(context.Background(), "i1", -5)
	got, _ := fx.eng.Get("i1")
	if got.Quantity != 1 {
		t.Fatalf("expected clamp to 1, got %v", got.Quantity)
	}
}

func TestAdjustQuantityNoOpSkipsNetwork(t *testing.T) {
	fx := newFixture(t)
	fx.ctrl.LoadLists(context.Background())
	fx.srv.items["i1"] = model.ShoppingItem{ID: "i1", Quantity: 1}
	fx.ctrl.Refresh(context.Background())
	fx.srv.failUpdates = true // any network write would fail loudly

	if err := fx.ctrl.AdjustQuantity(context.Background(), "i1", -1); err != nil {
		t.Fatalf("clamped no-op must not hit the network: %v", err)
	}
	if len(*fx.notes) != 0 {
		t.Fatalf("unexpected notifications: %v", *fx.notes)
	}
}

func TestAdjustQuantityRevertsToTruePriorValue(t *testing.T) {
	fx := newFixture(t)
	fx.ctrl.LoadLists(context.Background())
	fx.srv.items["i1"] = model.ShoppingItem{ID: "i1", Quantity: 0.5}
	fx.ctrl.Refresh(context.Background())
	fx.srv.failUpdates = true

	if err := fx.ctrl.AdjustQuantity(context.Background(), "i1", 1); err == nil {
		t.Fatal("expected error")
	}
	got, _ := fx.eng.Get("i1")
	if got.Quantity != 0.5 {
		t.Fatalf("revert must restore the sub-unit quantity, got %v", got.Quantity)
	}
}

// ============================================================
// Add
// ============================================================

func TestAddLinksExistingFood(t *testing.T) {
	fx := newFixture(t)
	fx.ctrl.LoadLabels(context.Background())
	fx.ctrl.LoadLists(context.Background())
	fx.srv.foods = []model.Food{{ID: "f1", Name: "Milk", LabelID: "l-dairy", Label: &model.Label{ID: "l-dairy", Name: "Dairy"}}}

	needsLabel, err := fx.ctrl.Add(context.Background(), "milk", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if needsLabel != nil {
		t.Fatalf("labeled food must not ask for a label: %+v", needsLabel)
	}
	items := fx.eng.Items()
	if len(items) != 1 || items[0].FoodID != "f1" {
		t.Fatalf("expected linked item: %+v", items)
	}
}

func TestAddUnlabeledAsksForLabel(t *testing.T) {
	fx := newFixture(t)
	fx.ctrl.LoadLabels(context.Background())
	fx.ctrl.LoadLists(context.Background())

	needsLabel, err := fx.ctrl.Add(context.Background(), "dragonfruit", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if needsLabel == nil {
		t.Fatal("expected the created item back for labeling")
	}
	if needsLabel.DisplayName() != "dragonfruit" {
		t.Fatalf("wrong item located: %+v", needsLabel)
	}
}

func TestAddEmptyTextIsNoOp(t *testing.T) {
	fx := newFixture(t)
	fx.ctrl.LoadLists(context.Background())
	item, err := fx.ctrl.Add(context.Background(), "   ", "", nil)
	if err != nil || item != nil {
		t.Fatalf("empty add must do nothing: %v %v", item, err)
	}
}

func TestFindAddedMatchesNoteCaseInsensitive(t *testing.T) {
	items := []model.ShoppingItem{
		{ID: "1", Checked: true, Note: "Milk"},
		{ID: "2", Note: "Milk"},
	}
	got := FindAdded(items, "milk")
	if got == nil || got.ID != "2" {
		t.Fatalf("expected the unchecked match, got %+v", got)
	}
}

// ============================================================
// ClearChecked
// ============================================================

func TestClearCheckedRemovesAndDeletes(t *testing.T) {
	fx := newFixture(t)
	fx.ctrl.LoadLists(context.Background())
	fx.srv.items["a"] = model.ShoppingItem{ID: "a", Checked: true}
	fx.srv.items["b"] = model.ShoppingItem{ID: "b"}
	fx.srv.items["c"] = model.ShoppingItem{ID: "c", Checked: true}
	fx.ctrl.Refresh(context.Background())

	n := fx.ctrl.ClearChecked(context.Background())
	if n != 2 {
		t.Fatalf("expected 2 cleared, got %d", n)
	}
	items := fx.eng.Items()
	if len(items) != 1 || items[0].ID != "b" {
		t.Fatalf("mirror should keep only unchecked: %+v", items)
	}
	if len(fx.srv.deleted) != 2 {
		t.Fatalf("expected 2 server deletes, got %v", fx.srv.deleted)
	}
}
