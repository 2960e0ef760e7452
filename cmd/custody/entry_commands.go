package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	pb "github.com/joseph-ayodele/custody-tracker/internal/api/custodyv1"
	"github.com/joseph-ayodele/custody-tracker/internal/client"
)

func newEntryCommand(ctx *commandContext) *cobra.Command {
	entryCmd := &cobra.Command{Use: "entry", Short: "Manage journal entries"}

	var text, file, date, caseID string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a draft journal entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ctx.requireToken(); err != nil {
				return err
			}
			body, err := readText(text, file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return ctx.withClient(func(c *client.Client) error {
				resp, err := c.CreateEntry(cmd.Context(), &pb.CreateEntryRequest{Text: body, ReferenceDate: date, CaseId: caseID})
				if err != nil {
					return err
				}
				if ctx.jsonOut {
					return printJSON(cmd.OutOrStdout(), resp.Entry)
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Entry.Id)
				return nil
			})
		},
	}
	create.Flags().StringVar(&text, "text", "", "entry text")
	create.Flags().StringVarP(&file, "file", "f", "", "read entry text from a file (- for stdin)")
	create.Flags().StringVar(&date, "date", "", "when the entry was written, e.g. 2026-01-30")
	create.Flags().StringVar(&caseID, "case", "", "case id")

	entryCmd.AddCommand(create)
	return entryCmd
}

func readText(text, file string, stdin io.Reader) (string, error) {
	switch {
	case text != "" && file != "":
		return "", errors.New("use either --text or --file")
	case text != "":
		return text, nil
	case file == "-":
		b, err := io.ReadAll(stdin)
		return strings.TrimSpace(string(b)), err
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return "", errors.New("entry text is required (--text or --file)")
}

func newEvidenceCommand(ctx *commandContext) *cobra.Command {
	evCmd := &cobra.Command{Use: "evidence", Short: "Attach and summarize evidence"}

	var (
		source, summary, annotation string
		tags                        []string
		order                       int
	)
	add := &cobra.Command{
		Use:   "add <entry-id> <storage-ref>",
		Short: "Attach evidence to an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.requireToken(); err != nil {
				return err
			}
			return ctx.withClient(func(c *client.Client) error {
				resp, err := c.AddEvidence(cmd.Context(), &pb.AddEvidenceRequest{
					EntryId:    args[0],
					StorageRef: args[1],
					SourceType: source,
					Summary:    summary,
					Annotation: annotation,
					Tags:       tags,
					SortOrder:  order,
				})
				if err != nil {
					return err
				}
				if ctx.jsonOut {
					return printJSON(cmd.OutOrStdout(), resp.Evidence)
				}
				state := "pending processing"
				if resp.Evidence.Processed {
					state = "processed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %s)\n", resp.Evidence.Id, resp.Evidence.SourceType, state)
				return nil
			})
		},
	}
	add.Flags().StringVar(&source, "type", "", "image, text or document (default: from extension)")
	add.Flags().StringVar(&summary, "summary", "", "processed summary, if already available")
	add.Flags().StringVar(&annotation, "note", "", "author's note about the evidence")
	add.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	add.Flags().IntVar(&order, "order", 0, "display order")

	summarize := &cobra.Command{
		Use:   "summarize <entry-id> <evidence-id> <summary>",
		Short: "Record the processed summary for an evidence item",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.requireToken(); err != nil {
				return err
			}
			return ctx.withClient(func(c *client.Client) error {
				resp, err := c.SetEvidenceSummary(cmd.Context(), &pb.SetEvidenceSummaryRequest{
					EntryId: args[0], EvidenceId: args[1], Summary: args[2],
				})
				if err != nil {
					return err
				}
				if ctx.jsonOut {
					return printJSON(cmd.OutOrStdout(), resp.Evidence)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s processed=%t\n", resp.Evidence.Id, resp.Evidence.Processed)
				return nil
			})
		},
	}

	evCmd.AddCommand(add, summarize)
	return evCmd
}
