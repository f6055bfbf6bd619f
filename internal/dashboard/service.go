package dashboard

import (
	"sync/atomic"

	"github.com/sells-group/inetdash/internal/model"
)

// Service answers view requests against one dataset, memoizing views of
// known entities. The dataset can be swapped while requests are in flight.
type Service struct {
	state     atomic.Pointer[serviceState]
	cache     *ViewCache
	zoomScale float64
}

type serviceState struct {
	data  *Dataset
	known map[string]struct{}
}

func newServiceState(data *Dataset) *serviceState {
	known := make(map[string]struct{}, len(data.Entities))
	for _, e := range data.Entities {
		known[e] = struct{}{}
	}
	return &serviceState{data: data, known: known}
}

// NewService returns a Service over data. cache may be nil.
func NewService(data *Dataset, cache *ViewCache, zoomScale float64) *Service {
	s := &Service{cache: cache, zoomScale: zoomScale}
	s.state.Store(newServiceState(data))
	return s
}

// Dataset returns the current dataset.
func (s *Service) Dataset() *Dataset { return s.state.Load().data }

// Reload replaces the dataset and drops every cached view built from the
// previous one.
func (s *Service) Reload(data *Dataset) {
	s.state.Store(newServiceState(data))
	if s.cache != nil {
		s.cache.Purge()
	}
}

// KnowsEntity reports whether entity is one of the selectable names.
func (s *Service) KnowsEntity(entity string) bool {
	_, ok := s.state.Load().known[entity]
	return ok
}

// View returns the view model for sel. Unknown entities yield an empty,
// zoom-less view and are not cached.
func (s *Service) View(sel model.Selection) model.ViewModel {
	st := s.state.Load()
	_, known := st.known[sel.Entity]
	cacheable := s.cache != nil && (sel.IsAll() || known)
	if cacheable {
		if vm, ok := s.cache.Get(sel); ok {
			return vm
		}
	}
	vm := st.data.View(sel, s.zoomScale)
	if cacheable {
		s.cache.Put(sel, vm)
	}
	return vm
}
