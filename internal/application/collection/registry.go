package collection

import (
	"context"
	"errors"
	"slices"

	"github.com/schoolerp/backend/internal/domain/accounts"
	"github.com/schoolerp/backend/internal/domain/cafeteria"
	"github.com/schoolerp/backend/internal/domain/hostel"
	"github.com/schoolerp/backend/internal/domain/library"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/transport"
	"go.uber.org/zap"
)

// Dashboard modules
const (
	ModuleAccounts  = "accounts"
	ModuleLibrary   = "library"
	ModuleHostel    = "hostel"
	ModuleTransport = "transport"
	ModuleCafeteria = "cafeteria"
)

// Students is the student roster source shared by every module.
var Students = Source{
	Collection: school.CollectionUsers,
	Filter:     shared.Eq("role", school.RoleStudent),
}

func plain(names ...string) []Source {
	out := make([]Source, 0, len(names)+1)
	for _, n := range names {
		out = append(out, Source{Collection: n})
	}
	return append(out, Students)
}

// ModuleSources lists the collections each module reads.
func ModuleSources() map[string][]Source {
	return map[string][]Source{
		ModuleAccounts: append(plain(
			accounts.CollectionTransactions,
			accounts.CollectionInvoices,
			accounts.CollectionChalans,
			accounts.CollectionClassFeeAmounts,
		), Source{Collection: school.CollectionClasses}),
		ModuleLibrary: plain(library.CollectionBooks, library.CollectionIssues),
		ModuleHostel: plain(
			hostel.CollectionRooms,
			hostel.CollectionAllocations,
			hostel.CollectionPayments,
		),
		ModuleTransport: plain(
			transport.CollectionVehicles,
			transport.CollectionDrivers,
			transport.CollectionRoutes,
			transport.CollectionAssignments,
			transport.CollectionTrips,
			transport.CollectionPayments,
		),
		ModuleCafeteria: plain(
			cafeteria.CollectionMenu,
			cafeteria.CollectionInventory,
			cafeteria.CollectionOrders,
		),
	}
}

// Registry owns one cache per module.
type Registry struct {
	caches map[string]*Cache
}

// NewRegistry creates a cache for every module in sources.
func NewRegistry(store shared.DocumentStore, sources map[string][]Source, logger *zap.Logger) *Registry {
	r := &Registry{caches: make(map[string]*Cache, len(sources))}
	for module, srcs := range sources {
		r.caches[module] = NewCache(module, store, srcs, logger)
	}
	return r
}

// Module returns the cache of a module.
func (r *Registry) Module(name string) (*Cache, bool) {
	c, ok := r.caches[name]
	return c, ok
}

// Modules returns the module names in sorted order.
func (r *Registry) Modules() []string {
	names := make([]string, 0, len(r.caches))
	for n := range r.caches {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Reading returns every cache that reads collection.
func (r *Registry) Reading(collection string) []*Cache {
	var out []*Cache
	for _, name := range r.Modules() {
		if c := r.caches[name]; c.Reads(collection) {
			out = append(out, c)
		}
	}
	return out
}

// Remove patches every loaded cache reading collection after a delete.
func (r *Registry) Remove(collection, id string) {
	for _, c := range r.Reading(collection) {
		c.Remove(collection, id)
	}
}

// Patch merges fields into every cache reading collection.
func (r *Registry) Patch(collection, id string, fields shared.Document) {
	for _, c := range r.Reading(collection) {
		c.Patch(collection, id, fields)
	}
}

// Reload refreshes the loaded caches reading collection after a create
// or multi-field edit. Caches never loaded stay cold. Every cache is
// attempted; the failures are returned together.
func (r *Registry) Reload(ctx context.Context, collection string) error {
	var errs []error
	for _, c := range r.Reading(collection) {
		if !c.Loaded() {
			continue
		}
		if err := c.Reload(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
