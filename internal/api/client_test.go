package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sadopc/mealdeck/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, func() string { return "tok" })
	return c, srv
}

// ============================================================
// Call
// ============================================================

func TestCallSendsBearerAndDecodes(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/foods" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "1"})
	}))

	var out struct {
		ID string `json:"id"`
	}
	if err := c.Call(context.Background(), http.MethodGet, "/foods", nil, &out); err != nil {
		t.Fatal(err)
	}
	if out.ID != "1" {
		t.Fatalf("expected id 1, got %q", out.ID)
	}
}

func TestCallErrorKeepsStatusAndBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte("already exists"))
	}))

	err := c.Call(context.Background(), http.MethodPost, "/groups/labels", map[string]string{"name": "x"}, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Body != "already exists" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestCallTextResponseIntoString(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("hello"))
	}))

	var out string
	if err := c.Call(context.Background(), http.MethodGet, "/x", nil, &out); err != nil {
		t.Fatal(err)
	}
	if out != "hello" {
		t.Fatalf("expected hello, got %q", out)
	}
}

// ============================================================
// 401 refresh-and-retry
// ============================================================

func TestCallRefreshesOnceOn401(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[]}`))
	}))

	refreshed := 0
	c.SetCallbacks(func(context.Context) bool {
		refreshed++
		return true
	}, nil)

	var p page[model.Label]
	if err := c.Call(context.Background(), http.MethodGet, "/groups/labels", nil, &p); err != nil {
		t.Fatal(err)
	}
	if refreshed != 1 {
		t.Fatalf("expected one refresh, got %d", refreshed)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", calls.Load())
	}
}

func TestCallSecond401TearsDown(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	torn := false
	c.SetCallbacks(func(context.Context) bool { return true }, func() { torn = true })

	err := c.Call(context.Background(), http.MethodGet, "/x", nil, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 error, got %v", err)
	}
	if !torn {
		t.Fatal("expected unauthorized callback")
	}
}

func TestCallFailedRefreshTearsDown(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	torn := false
	c.SetCallbacks(func(context.Context) bool { return false }, func() { torn = true })

	if err := c.Call(context.Background(), http.MethodGet, "/x", nil, nil); err == nil {
		t.Fatal("expected error")
	}
	if !torn {
		t.Fatal("expected unauthorized callback")
	}
	if calls.Load() != 1 {
		t.Fatalf("no retry after failed refresh, got %d calls", calls.Load())
	}
}

// ============================================================
// Response envelopes
// ============================================================

func TestPageAcceptsBareArray(t *testing.T) {
	var p page[model.Label]
	if err := json.Unmarshal([]byte(`[{"id":"1","name":"Dairy"}]`), &p); err != nil {
		t.Fatal(err)
	}
	if len(p.Items) != 1 || p.Items[0].Name != "Dairy" {
		t.Fatalf("unexpected items: %+v", p.Items)
	}
}

func TestPageAcceptsItemsEnvelope(t *testing.T) {
	var p page[model.Label]
	if err := json.Unmarshal([]byte(`{"items":[{"id":"1","name":"Dairy"}],"total":1}`), &p); err != nil {
		t.Fatal(err)
	}
	if len(p.Items) != 1 || p.Items[0].Name != "Dairy" {
		t.Fatalf("unexpected items: %+v", p.Items)
	}
}

func TestShoppingListItemsDecodesDetail(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/households/shopping/lists/l1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"l1","listItems":[{"id":"i1","note":"milk","checked":false}]}`))
	}))

	items, err := c.ShoppingListItems(context.Background(), "l1")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Note != "milk" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

// ============================================================
// Slug unwrapping
// ============================================================

func TestSlugFromResponse(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`"tomato-soup"`, "tomato-soup"},
		{`"\"tomato-soup\""`, "tomato-soup"},
		{`{"slug":"tomato-soup"}`, "tomato-soup"},
		{`tomato-soup`, "tomato-soup"},
	}
	for _, tc := range cases {
		if got := slugFromResponse(json.RawMessage(tc.raw)); got != tc.want {
			t.Errorf("slugFromResponse(%s) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestCreateRecipeReturnsSlug(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["name"] != "Soup" {
			t.Errorf("unexpected body: %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`"soup"`))
	}))

	slug, err := c.CreateRecipe(context.Background(), "Soup")
	if err != nil {
		t.Fatal(err)
	}
	if slug != "soup" {
		t.Fatalf("expected soup, got %q", slug)
	}
}

// ============================================================
// Login
// ============================================================

func TestLoginSendsForm(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type %q", ct)
		}
		r.ParseForm()
		if r.PostForm.Get("username") != "a@b.c" || r.PostForm.Get("remember_me") != "true" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "t1"})
	}))

	tok, err := c.Login(context.Background(), "a@b.c", "pw", true)
	if err != nil {
		t.Fatal(err)
	}
	if tok != "t1" {
		t.Fatalf("expected t1, got %q", tok)
	}
}

func TestLoginSurfacesDetail(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect login credentials"})
	}))

	_, err := c.Login(context.Background(), "a@b.c", "bad", false)
	if err == nil || err.Error() != "Incorrect login credentials" {
		t.Fatalf("expected server detail, got %v", err)
	}
}
