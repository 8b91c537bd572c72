package index

import (
	"sync"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/samscott89/rudy-sub002/internal/types"
)

// LookupType finds a named type's TypeEntry across every debug file, the
// anchor behind lookup_type_by_name and discover_methods_for_type (by name).
func (idx *Index) LookupType(qualifiedName string) (*DebugFileIndex, *TypeEntry, bool) {
	for _, dfi := range idx.DebugFiles {
		if e, ok := dfi.Types[qualifiedName]; ok {
			return dfi, e, true
		}
	}
	return nil, nil, false
}

// DiscoverAllFunctions returns every indexed function across every debug
// file (discover_all_functions).
func (idx *Index) DiscoverAllFunctions() []*FunctionEntry {
	var out []*FunctionEntry
	for _, dfi := range idx.DebugFiles {
		for _, fe := range dfi.BySymbolName {
			out = append(out, fe)
		}
	}
	return out
}

// DiscoverAllMethods implements discover_all_methods: every
// recognized type's methods, keyed by the type's qualified name. Resolving
// a type's layout and walking its impl blocks is independent per type, so
// the work fans out across a worker pool rather than running one type at a
// time.
func (idx *Index) DiscoverAllMethods(resolver *types.Resolver) map[string][]DiscoveredMethod {
	var mu sync.Mutex
	out := map[string][]DiscoveredMethod{}

	p := pool.New().WithMaxGoroutines(8)
	for _, dfi := range idx.DebugFiles {
		dfi := dfi
		names := maps.Keys(dfi.Types)
		slices.Sort(names)
		for _, name := range names {
			name, entry := name, dfi.Types[name]
			p.Go(func() {
				layout := resolver.ResolveDeep(entry.Die)
				methods := dfi.DiscoverMethods(name, layout, resolver)
				mu.Lock()
				out[name] = methods
				mu.Unlock()
			})
		}
	}
	p.Wait()
	return out
}
