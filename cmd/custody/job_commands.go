package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	pb "github.com/joseph-ayodele/custody-tracker/internal/api/custodyv1"
	"github.com/joseph-ayodele/custody-tracker/internal/client"
	"github.com/joseph-ayodele/custody-tracker/internal/tracker"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		wait    bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "submit <entry-id>",
		Short: "Queue an entry for event extraction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.requireToken(); err != nil {
				return err
			}
			return ctx.withClient(func(c *client.Client) error {
				resp, err := c.SubmitEntry(cmd.Context(), &pb.SubmitEntryRequest{EntryId: args[0]})
				if err != nil {
					return err
				}
				if !wait {
					if ctx.jsonOut {
						return printJSON(cmd.OutOrStdout(), resp.Job)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "job %s %s\n", resp.Job.Id, resp.Job.Status)
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "job %s queued, waiting...\n", resp.Job.Id)
				return waitForJob(cmd.Context(), c, uuid.MustParse(resp.Job.Id), timeout, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the job to finish")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "how long --wait waits")
	return cmd
}

// waitForJob follows one job with the tracker and prints its outcome.
func waitForJob(ctx context.Context, c *client.Client, jobID uuid.UUID, timeout time.Duration, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var failure error
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := tracker.New(client.NewWatcher(ctx, c, logger), c.FetchJob, tracker.SinkFuncs{
		OnSuccess: func(_ uuid.UUID, summary string) { fmt.Fprintln(out, summary) },
		OnFailure: func(_ uuid.UUID, msg string) { failure = errors.New(msg) },
	}, logger)
	reg.Track(ctx, jobID)

	select {
	case <-reg.Wait(jobID):
		return failure
	case <-ctx.Done():
		reg.Teardown()
		return fmt.Errorf("job %s still running: %w", jobID, ctx.Err())
	}
}

func newJobCommand(ctx *commandContext) *cobra.Command {
	jobCmd := &cobra.Command{Use: "job", Short: "Inspect and cancel extraction jobs"}

	status := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.requireToken(); err != nil {
				return err
			}
			return ctx.withClient(func(c *client.Client) error {
				resp, err := c.GetJob(cmd.Context(), &pb.GetJobRequest{JobId: args[0]})
				if err != nil {
					return err
				}
				return ctx.printJob(cmd, resp.Job)
			})
		},
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a job that has not started",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.requireToken(); err != nil {
				return err
			}
			return ctx.withClient(func(c *client.Client) error {
				resp, err := c.CancelJob(cmd.Context(), &pb.CancelJobRequest{JobId: args[0]})
				if err != nil {
					return err
				}
				return ctx.printJob(cmd, resp.Job)
			})
		},
	}

	jobCmd.AddCommand(status, cancelCmd)
	return jobCmd
}

func (c *commandContext) printJob(cmd *cobra.Command, j *pb.Job) error {
	if c.jsonOut {
		return printJSON(cmd.OutOrStdout(), j)
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, jobRows(j), nil))
	return nil
}

func newEventsCommand(ctx *commandContext) *cobra.Command {
	eventsCmd := &cobra.Command{Use: "events", Short: "Browse extracted events"}
	list := &cobra.Command{
		Use:   "list <entry-id>",
		Short: "List the events extracted from an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.requireToken(); err != nil {
				return err
			}
			return ctx.withClient(func(c *client.Client) error {
				resp, err := c.ListEvents(cmd.Context(), &pb.ListEventsRequest{EntryId: args[0]})
				if err != nil {
					return err
				}
				if ctx.jsonOut {
					return printJSON(cmd.OutOrStdout(), resp.Events)
				}
				if len(resp.Events) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No events.")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(eventHeaders, eventRows(resp.Events), nil))
				return nil
			})
		},
	}
	eventsCmd.AddCommand(list)
	return eventsCmd
}
