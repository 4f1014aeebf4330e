package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/mealdeck/internal/api"
	"github.com/sadopc/mealdeck/internal/auth"
	"github.com/sadopc/mealdeck/internal/config"
	"github.com/sadopc/mealdeck/internal/mealplan"
	"github.com/sadopc/mealdeck/internal/model"
	"github.com/sadopc/mealdeck/internal/resolve"
	"github.com/sadopc/mealdeck/internal/shopping"
	"github.com/sadopc/mealdeck/internal/store"
	syncpkg "github.com/sadopc/mealdeck/internal/sync"
	"github.com/sadopc/mealdeck/internal/transfer"
	"github.com/sadopc/mealdeck/internal/tui"
)

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	s, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	// The terminal belongs to the UI; background noise goes to a log file
	// next to the database.
	logPath := filepath.Join(filepath.Dir(dbPath), "mealdeck.log")
	if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		defer f.Close()
		log.SetOutput(f)
	}

	durable := s.Durable()
	sessionScope := store.NewSessionScope()

	remember := store.NewCachedCell(durable, store.KeyRemember, false)
	tokenScope := store.Scope(sessionScope)
	if remember.Get() {
		tokenScope = durable
	}
	token := store.NewCachedCell(tokenScope, store.KeyToken, "")

	lists := store.NewCachedCell(durable, store.KeyLists, []model.ShoppingList(nil))
	items := store.NewCachedCell(durable, store.KeyListItems, []model.ShoppingItem(nil))
	labels := store.NewCachedCell(durable, store.KeyLabels, []model.Label(nil))
	units := store.NewCachedCell(durable, store.KeyUnits, []model.Unit(nil))
	plan := store.NewCachedCell(durable, store.KeyMealPlan, []model.MealPlanEntry(nil))
	activeList := store.NewCachedCell(durable, store.KeyActiveList, "")
	activeTab := store.NewCachedCell(durable, store.KeyActiveTab, 0)

	client := api.NewClient(cfg.ServerURL, token.Get)

	notifier := tui.NewNotifier()
	items.Subscribe(notifier.Items)

	session := auth.NewSession(client, token, remember, durable, sessionScope)
	session.SetOnExpired(notifier.SessionExpired)
	client.SetCallbacks(session.Refresh, session.Expire)
	if session.LoggedIn() {
		session.Start()
	}

	engine := syncpkg.New(items, notifier.Error)
	resolver := resolve.New(client)

	shopCtrl := shopping.NewController(client, engine, resolver, lists, activeList, labels, notifier.Error)
	planCtrl := mealplan.NewController(client, plan)
	xferCtrl := transfer.NewController(client, resolver, engine, units)

	app := tui.NewApp(session, client, shopCtrl, planCtrl, xferCtrl, resolver, activeTab)
	p := tea.NewProgram(app, tea.WithAltScreen())
	notifier.Bind(p)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
