package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/client"
	"github.com/mesh-intelligence/tally/pkg/store"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// viewFlags select a view over a resource.
type viewFlags struct {
	search  string
	sorts   []string
	filters []string
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.search, "search", "", "free-text search over the display fields")
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "filter as field=value or field:op:value (repeatable)")
	cmd.Flags().StringArrayVar(&f.sorts, "sort", nil, "sort as field[:asc|desc] (repeatable, first is primary)")
}

func (f *viewFlags) empty() bool {
	return f.search == "" && len(f.filters) == 0
}

// apply parses the flags onto s.
func (f *viewFlags) apply(s *store.Store[types.Entity]) error {
	s.SetSearchQuery(f.search)

	filters := make([]types.FilterRule, 0, len(f.filters))
	for _, raw := range f.filters {
		rule, err := types.ParseFilter(raw)
		if err != nil {
			return userError(err)
		}
		filters = append(filters, rule)
	}
	if err := s.SetFilters(filters); err != nil {
		return userError(err)
	}

	sorts := make([]types.SortRule, 0, len(f.sorts))
	for _, raw := range f.sorts {
		rule, err := types.ParseSort(raw)
		if err != nil {
			return userError(err)
		}
		sorts = append(sorts, rule)
	}
	if err := s.SetSortRules(sorts); err != nil {
		return userError(err)
	}
	return nil
}

// endpoint returns the REST endpoint for resource on the configured server.
func (a *app) endpoint(resource string) (*client.Endpoint[types.Entity], error) {
	c := client.New(a.settings.ServerURL, client.WithLogger(a.log))
	return client.Entities(c, resource)
}

// newStore builds a Store for resource backed by the REST endpoint.
func (a *app) newStore(resource string, pageSize int) (*store.Store[types.Entity], error) {
	ep, err := a.endpoint(resource)
	if err != nil {
		return nil, err
	}
	return store.New[types.Entity](resource, ep,
		store.WithSearch(store.MatchFields[types.Entity](types.SearchFields(resource)...)),
		store.WithPageSize[types.Entity](pageSize),
		store.WithLogger[types.Entity](a.log),
	), nil
}

func resourceList() string {
	return strings.Join(types.StandardResourceNames, ", ")
}
