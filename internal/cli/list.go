package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/store"
	"github.com/mesh-intelligence/tally/pkg/types"
)

func (a *app) newListCmd() *cobra.Command {
	var (
		view     viewFlags
		page     int
		pageSize int
	)
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List a resource through the API",
		Long: `List loads every record of a resource from the API server, then applies
search, filters and sort rules locally and prints one page.

Filter operators: equals, contains, before, after, in.

Example:
  tally list employees --search ada
  tally list invoices --filter status=open --sort due_at:asc
  tally list salaries --filter amount:after:5000 --sort amount:desc --page 2`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := resourceArg(args)
			if err != nil {
				return err
			}
			if page < 1 {
				return userErrorf("--page must be at least 1")
			}
			s, err := a.newStore(resource, pageSize)
			if err != nil {
				return err
			}
			if err := s.Load(cmd.Context()); err != nil {
				return fmt.Errorf("load %s: %w", resource, err)
			}
			if err := view.apply(s); err != nil {
				return err
			}
			s.SetPage(page - 1)

			result := s.Page()
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), pageJSON(resource, result))
			}
			renderPage(cmd.OutOrStdout(), resource, result)
			return nil
		},
	}
	view.register(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&pageSize, "page-size", store.DefaultPageSize, "items per page")
	return cmd
}

// pageJSON is the --json form of a page.
func pageJSON(resource string, p store.PageResult[types.Entity]) map[string]any {
	items := p.Items
	if items == nil {
		items = []types.Entity{}
	}
	return map[string]any{
		resource: items,
		"page":   p.Page + 1,
		"pages":  p.Pages,
		"total":  p.Total,
	}
}
