package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newRmCmd() *cobra.Command {
	var (
		view viewFlags
		all  bool
		dry  bool
	)
	cmd := &cobra.Command{
		Use:   "rm <resource> [id...]",
		Short: "Bulk-delete records through the API",
		Long: `Rm selects records and removes them with a single bulk-delete request.
With ids, exactly those records are selected. Without ids, every record in
the view chosen by --search and --filter is selected; --all is required
when neither is given.

Example:
  tally rm vendors 0190a1b2-... 0190a1b3-...
  tally rm jobs --filter status=closed`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return userErrorf("requires a resource argument")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := resourceArg(args)
			if err != nil {
				return err
			}
			ids := args[1:]
			if len(ids) > 0 && !view.empty() {
				return userErrorf("ids cannot be combined with --search or --filter")
			}
			if len(ids) == 0 && view.empty() && !all {
				return userErrorf("refusing to delete every %s without --all", resource)
			}

			s, err := a.newStore(resource, 0)
			if err != nil {
				return err
			}
			if err := s.Load(cmd.Context()); err != nil {
				return fmt.Errorf("load %s: %w", resource, err)
			}

			if len(ids) > 0 {
				for _, id := range ids {
					if _, ok := s.Get(id); !ok {
						return userErrorf("%s %s not found", resource, id)
					}
					if !s.IsSelected(id) {
						s.ToggleSelect(id)
					}
				}
			} else {
				if err := view.apply(s); err != nil {
					return err
				}
				s.SelectAll()
			}

			selected := s.Selection()
			out := cmd.OutOrStdout()
			if len(selected) == 0 {
				fmt.Fprintf(out, "no %s matched\n", resource)
				return nil
			}
			if dry {
				for _, id := range selected {
					fmt.Fprintln(out, id)
				}
				fmt.Fprintf(out, "would delete %d %s\n", len(selected), resource)
				return nil
			}
			if err := s.DeleteSelected(cmd.Context()); err != nil {
				return fmt.Errorf("delete %s: %w", resource, err)
			}
			if a.flags.jsonMode {
				return writeJSON(out, map[string]any{"deleted": selected})
			}
			fmt.Fprintf(out, "deleted %d %s\n", len(selected), resource)
			return nil
		},
	}
	view.register(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "allow deleting every record when no filter is given")
	cmd.Flags().BoolVar(&dry, "dry-run", false, "print the selected ids without deleting")
	return cmd
}
