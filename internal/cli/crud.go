package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func (a *app) newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Print one record as JSON",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := resourceArg(args)
			if err != nil {
				return err
			}
			ep, err := a.endpoint(resource)
			if err != nil {
				return err
			}
			e, err := ep.Get(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), e)
		},
	}
}

func (a *app) newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <resource> <json>",
		Short: "Create a record",
		Example: `  tally create employees '{"first_name":"Ada","last_name":"Lovelace"}'
  tally create salaries '{"employee_id":"...","amount":"4200.00","currency":"EUR"}'`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := resourceArg(args)
			if err != nil {
				return err
			}
			entity, err := types.NewEntity(resource)
			if err != nil {
				return err
			}
			if err := json.Unmarshal([]byte(args[1]), entity); err != nil {
				return userErrorf("invalid JSON: %v", err)
			}
			s, err := a.newStore(resource, 0)
			if err != nil {
				return err
			}
			created, err := s.Create(cmd.Context(), entity)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), created)
		},
	}
}

func (a *app) newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "update <resource> <id> <json>",
		Short:   "Patch fields of a record",
		Example: `  tally update invoices 0190a1b2-... '{"status":"paid"}'`,
		Args:    exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := resourceArg(args)
			if err != nil {
				return err
			}
			var patch map[string]any
			if err := json.Unmarshal([]byte(args[2]), &patch); err != nil {
				return userErrorf("invalid JSON object: %v", err)
			}
			s, err := a.newStore(resource, 0)
			if err != nil {
				return err
			}
			updated, err := s.Update(cmd.Context(), args[1], patch)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), updated)
		},
	}
}

func (a *app) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete one record",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := resourceArg(args)
			if err != nil {
				return err
			}
			s, err := a.newStore(resource, 0)
			if err != nil {
				return err
			}
			if err := s.Delete(cmd.Context(), args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", resource, args[1])
			return nil
		},
	}
}
