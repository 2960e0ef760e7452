package main

import (
	"fmt"

	"github.com/spf13/cobra"

	pb "github.com/joseph-ayodele/custody-tracker/internal/api/custodyv1"
	"github.com/joseph-ayodele/custody-tracker/internal/client"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var name, tz string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Register a journal author and print a bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(c *client.Client) error {
				resp, err := c.CreateUser(cmd.Context(), &pb.CreateUserRequest{DisplayName: name, Timezone: tz})
				if err != nil {
					return err
				}
				if ctx.jsonOut {
					return printJSON(cmd.OutOrStdout(), resp)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "user %s (%s)\n", resp.User.Id, resp.User.DisplayName)
				fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&tz, "timezone", "", "IANA zone or UTC offset, e.g. America/Chicago or -05:00")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newCaseCommand(ctx *commandContext) *cobra.Command {
	caseCmd := &cobra.Command{Use: "case", Short: "Manage custody cases"}

	var (
		title, jurisdiction string
		goals, risks        []string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a case that entries can reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ctx.requireToken(); err != nil {
				return err
			}
			return ctx.withClient(func(c *client.Client) error {
				resp, err := c.CreateCase(cmd.Context(), &pb.CreateCaseRequest{Case: &pb.Case{
					Title:        title,
					Jurisdiction: jurisdiction,
					Goals:        goals,
					RiskFlags:    risks,
				}})
				if err != nil {
					return err
				}
				if ctx.jsonOut {
					return printJSON(cmd.OutOrStdout(), resp.Case)
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Case.Id)
				return nil
			})
		},
	}
	create.Flags().StringVar(&title, "title", "", "case title")
	create.Flags().StringVar(&jurisdiction, "jurisdiction", "", "e.g. \"Travis County, TX\"")
	create.Flags().StringSliceVar(&goals, "goal", nil, "case goal (repeatable)")
	create.Flags().StringSliceVar(&risks, "risk", nil, "risk flag (repeatable)")
	_ = create.MarkFlagRequired("title")

	caseCmd.AddCommand(create)
	return caseCmd
}
