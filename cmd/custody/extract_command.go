package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	pb "github.com/joseph-ayodele/custody-tracker/internal/api/custodyv1"
	"github.com/joseph-ayodele/custody-tracker/internal/contextbuilder"
	"github.com/joseph-ayodele/custody-tracker/internal/entity"
	"github.com/joseph-ayodele/custody-tracker/internal/llm"
	"github.com/joseph-ayodele/custody-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/custody-tracker/internal/mapper"
	"github.com/joseph-ayodele/custody-tracker/internal/utils"
)

// newExtractCommand runs one extraction locally against the provider without
// touching the daemon or the database.
func newExtractCommand(ctx *commandContext) *cobra.Command {
	var (
		text, file, date, tz, model, jurisdiction string
		timeout                                   time.Duration
		showPrompt, verbose                       bool
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Dry-run extraction on a piece of text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := readText(text, file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if os.Getenv("OPENAI_API_KEY") == "" {
				return fmt.Errorf("OPENAI_API_KEY env var is required")
			}
			logOut := io.Discard
			if verbose {
				logOut = cmd.ErrOrStderr()
			}
			logger := slog.New(slog.NewTextHandler(logOut, nil))

			in := contextbuilder.Input{EntryText: body, ReferenceDate: date, Timezone: tz}
			if jurisdiction != "" {
				in.Case = &entity.Case{Title: "Dry run", Jurisdiction: jurisdiction}
			}
			built, err := contextbuilder.New().Build(in)
			if err != nil {
				return err
			}
			if showPrompt {
				fmt.Fprintf(cmd.ErrOrStderr(), "--- system\n%s\n--- user\n%s\n---\n", built.Request.SystemPrompt, built.Request.UserPrompt)
			}

			inv, err := llm.NewInvoker(openai.NewClient(openai.Config{Model: model, Timeout: timeout + 5*time.Second}, logger), logger, llm.WithTimeout(timeout))
			if err != nil {
				return err
			}
			res, _, err := inv.Extract(cmd.Context(), built.Request)
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return printJSON(cmd.OutOrStdout(), res)
			}

			events, items, err := mapper.New().ToRecords(entity.ExtractionJob{ID: uuid.New(), JournalEntryID: uuid.New()}, res)
			if err != nil {
				return err
			}
			rows := make([]*pb.Event, 0, len(events))
			for i := range events {
				rows = append(rows, utils.ToPBEvent(&events[i]))
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(eventHeaders, eventRows(rows), nil))
			for _, a := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", a.Priority, a.Type, a.Description)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "confidence %.2f, %d ambiguities\n", res.Metadata.ExtractionConfidence, len(res.Metadata.Ambiguities))
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "entry text")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read entry text from a file (- for stdin)")
	cmd.Flags().StringVar(&date, "date", "", "reference date (default: today)")
	cmd.Flags().StringVar(&tz, "timezone", "", "author's timezone")
	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", "", "case jurisdiction for guidance")
	cmd.Flags().StringVar(&model, "model", envOr("OPENAI_MODEL", "gpt-4o-mini"), "model name")
	cmd.Flags().DurationVar(&timeout, "timeout", 45*time.Second, "provider call timeout")
	cmd.Flags().BoolVar(&showPrompt, "show-prompt", false, "print the prompts to stderr")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log provider calls to stderr")
	return cmd
}
