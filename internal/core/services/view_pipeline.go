package services

import (
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lorrc/user-directory/internal/core/domain"
	"github.com/lorrc/user-directory/internal/core/ports"
)

// ComputeView filters users by country, then sorts them by key, using root
// collation. users is never modified; with no filter and SortNone it is
// returned as is.
func ComputeView(users []domain.User, filter string, key domain.SortKey) []domain.User {
	return sortUsers(filterByCountry(users, filter), key, collate.New(language.Und))
}

// filterByCountry keeps the users whose country contains filter, compared
// after Unicode case folding. Relative order is preserved.
func filterByCountry(users []domain.User, filter string) []domain.User {
	if filter == "" {
		return users
	}

	fold := cases.Fold()
	needle := fold.String(filter)
	filtered := make([]domain.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(fold.String(u.Country), needle) {
			filtered = append(filtered, u)
		}
	}
	return filtered
}

// sortUsers returns a stably sorted copy of users.
func sortUsers(users []domain.User, key domain.SortKey, col *collate.Collator) []domain.User {
	field, ok := key.Field()
	if !ok {
		return users
	}

	sorted := slices.Clone(users)
	slices.SortStableFunc(sorted, func(a, b domain.User) int {
		return col.CompareString(field.Value(a), field.Value(b))
	})
	return sorted
}

// ViewPipeline computes the derived view for a locale and memoizes the last
// result: it recomputes only when the collection, the filter or the key change.
type ViewPipeline struct {
	mu           sync.Mutex
	collator     *collate.Collator
	last         *viewResult
	computations int
}

type viewResult struct {
	generation uint64
	version    uint64
	filter     string
	key        domain.SortKey
	users      []domain.User
}

var _ ports.ViewComputer = (*ViewPipeline)(nil)

// NewViewPipeline creates a pipeline collating for tag.
func NewViewPipeline(tag language.Tag) *ViewPipeline {
	return &ViewPipeline{collator: collate.New(tag)}
}

// Compute returns the derived view of c. The result is shared between
// callers and must not be modified.
func (p *ViewPipeline) Compute(c domain.Collection, filter string, key domain.SortKey) []domain.User {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r := p.last; r != nil &&
		r.generation == c.Generation &&
		r.version == c.Version &&
		r.filter == filter &&
		r.key == key {
		return r.users
	}

	users := sortUsers(filterByCountry(c.Users, filter), key, p.collator)
	p.computations++
	p.last = &viewResult{
		generation: c.Generation,
		version:    c.Version,
		filter:     filter,
		key:        key,
		users:      users,
	}
	return users
}

// Computations returns how many times the view was actually recomputed.
func (p *ViewPipeline) Computations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.computations
}
