package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/survextract/survextract/pkg/client"
	"github.com/survextract/survextract/pkg/session"
)

func newClient() *client.Client {
	if serverURL != "" {
		return client.NewHTTPClient(serverURL)
	}
	return client.NewClient(unixSocketPath)
}

// NewCtlCommand drives a running session server.
func NewCtlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ctl",
		Short:   "Control a running session server",
		GroupID: gSession,
	}

	run := func(use, short string, f func(c *client.Client, ctx context.Context) (*session.Result, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				res, err := f(newClient(), cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to %s: %w", use, err)
				}
				printState(cmd, res.State)
				if res.Message != "" {
					cmd.Println(res.Message)
				}
				return nil
			},
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "state",
			Short: "Print the current session state",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c := newClient()
				st, err := c.State(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to get state: %w", err)
				}
				printState(cmd, *st)
				rows, err := c.View(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to get values: %w", err)
				}
				if len(rows) > 0 {
					cmd.Println()
					printRows(cmd, rows)
				}
				return nil
			},
		},
		run("next", "Go to the next image", (*client.Client).Next),
		run("prev", "Go to the previous image", (*client.Client).Prev),
		run("done", "Mark the current image as done", (*client.Client).MarkDone),
		run("undone", "Clear the status of the current image", (*client.Client).MarkUndone),
		run("export", "Export the current image", (*client.Client).Export),
		&cobra.Command{
			Use:   "open <dataset>",
			Short: "Open a dataset folder",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := newClient().OpenDataset(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to open dataset: %w", err)
				}
				printState(cmd, res.State)
				cmd.Println(res.Message)
				return nil
			},
		},
		&cobra.Command{
			Use:   "error <message>",
			Short: "Report the current image as unusable",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := newClient().ReportError(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to report error: %w", err)
				}
				cmd.Println(res.Message)
				return nil
			},
		},
		&cobra.Command{
			Use:   "watch",
			Short: "Print session events as they happen",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
				defer stop()

				evs, err := newClient().SubscribeEvents(ctx)
				if err != nil {
					return err
				}
				for ev := range evs {
					cmd.Printf("%s %s\n", bold("%s", ev.Name), string(ev.Data))
				}
				return nil
			},
		},
	)

	return cmd
}

func printState(cmd *cobra.Command, st session.State) {
	if st.ImageID == "" {
		cmd.Println("No image loaded.")
		return
	}
	cmd.Printf("%s %s (%d/%d)", statusText(st.Status), bold("%s", st.ImageID), st.Index+1, st.Count)
	if st.FilterEnabled {
		cmd.Print(" [incomplete only]")
	}
	cmd.Println()
	cmd.Printf("  Progress: %d%% (%d/%d)\n", st.Progress.Percentage, st.Progress.Completed, st.Progress.Total)
	cmd.Printf("  Phase: %s\n", st.Phase)
	if st.Prompt != "" {
		cmd.Printf("  %s\n", st.Prompt)
	}
}
