// Package resolve turns free text into food catalog entries. It backs the
// three autocomplete surfaces (shopping add, ingredient edit, bulk transfer)
// with one search-and-rank and one find-or-create implementation.
package resolve

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/sadopc/mealdeck/internal/api"
	"github.com/sadopc/mealdeck/internal/model"
)

// searchPageSize is how many candidates are pulled from the server before
// local ranking trims them to the caller's limit.
const searchPageSize = 25

type Resolver struct {
	client *api.Client
}

func New(client *api.Client) *Resolver {
	return &Resolver{client: client}
}

// SearchAndRank runs a catalog search and orders candidates: exact
// case-insensitive match first, then prefix matches, then the rest,
// alphabetically within each tier. At most limit results are returned.
func (r *Resolver) SearchAndRank(ctx context.Context, query string, limit int) ([]model.Food, error) {
	foods, err := r.client.SearchFoods(ctx, query, searchPageSize)
	if err != nil {
		return nil, err
	}
	rankFoods(foods, query)
	if len(foods) > limit {
		foods = foods[:limit]
	}
	return foods, nil
}

func rankFoods(foods []model.Food, query string) {
	q := strings.ToLower(query)
	tier := func(f model.Food) int {
		name := strings.ToLower(f.Name)
		switch {
		case name == q:
			return 0
		case strings.HasPrefix(name, q):
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(foods, func(i, j int) bool {
		ti, tj := tier(foods[i]), tier(foods[j])
		if ti != tj {
			return ti < tj
		}
		return strings.ToLower(foods[i].Name) < strings.ToLower(foods[j].Name)
	})
}

// FindOrCreate returns the catalog entry matching name exactly
// (case-insensitive), creating it with the optional label when none exists.
// Any network failure returns nil; callers fall back to a free-text,
// unlinked item rather than aborting.
func (r *Resolver) FindOrCreate(ctx context.Context, name, labelID string) *model.Food {
	foods, err := r.client.SearchFoods(ctx, name, 20)
	if err != nil {
		log.Printf("food search %q: %v", name, err)
		return nil
	}
	for i := range foods {
		if strings.EqualFold(foods[i].Name, name) {
			return &foods[i]
		}
	}
	created, err := r.client.CreateFood(ctx, name, labelID)
	if err != nil {
		log.Printf("food create %q: %v", name, err)
		return nil
	}
	return &created
}
