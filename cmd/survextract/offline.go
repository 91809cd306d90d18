package main

import (
	"fmt"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/survextract/survextract/pkg/dataset"
	"github.com/survextract/survextract/pkg/record"
	"github.com/survextract/survextract/pkg/session"
	"github.com/survextract/survextract/pkg/store"
)

// openImage starts a session on root positioned on id. Only status
// changes are written by it.
func openImage(root, id string) (*session.Session, error) {
	ids, err := store.New(root).ImageIDs()
	if err != nil {
		return nil, err
	}
	idx := slices.Index(ids, id)
	if idx < 0 {
		return nil, fmt.Errorf("image %q not found in %s", id, root)
	}

	opts := session.DefaultOptions()
	opts.Axis = conf.Axis()
	opts.Autosave = false
	sess := session.New(opts)
	if _, err := sess.Dispatch(session.OpenDataset{Root: root}); err != nil {
		return nil, err
	}
	if _, err := sess.Dispatch(session.Navigate{Index: idx}); err != nil {
		return nil, err
	}
	return sess, nil
}

func NewProgressCommand() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:     "progress <dataset>",
		Short:   "Show review progress of a dataset",
		GroupID: gOffline,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := store.New(args[0])
			ids, err := st.ImageIDs()
			if err != nil {
				return err
			}
			nav := dataset.New(ids, st.Statuses(ids))

			if list {
				for _, id := range nav.All() {
					cmd.Printf("  %s %s\n", statusText(nav.Status(id)), id)
				}
				cmd.Println()
			}

			p := nav.Progress()
			cmd.Printf("Progress: %s (%d/%d)\n", bold("%d%%", p.Percentage), p.Completed, p.Total)
			cmd.Printf("  Done: %s\n", color.GreenString("%d", p.Done))
			cmd.Printf("  Errors: %s\n", color.RedString("%d", p.Errors))
			cmd.Printf("  Remaining: %d\n", p.Total-p.Completed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list every image with its status")

	return cmd
}

func NewViewCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "view <dataset> <image-id>",
		Short:   "Print the extracted values of an image",
		GroupID: gOffline,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openImage(args[0], args[1])
			if err != nil {
				return err
			}
			st := sess.State()

			cmd.Printf("%s %s\n", statusText(st.Status), bold("%s", st.ImageID))
			if st.Description != "" {
				cmd.Printf("  %s\n", st.Description)
			}
			if st.Error != "" {
				cmd.Printf("  Error: %s\n", color.RedString(st.Error))
			}
			cmd.Printf("  Axis: x=%s (%s), y=%s (%s)\n",
				st.Axis.XAxisType, st.Axis.XAxisUnits, st.Axis.YAxisType, st.Axis.YAxisUnits)
			cmd.Printf("  Calibrated: %s\n", bool2Text(st.Calibration.IsComplete()))
			cmd.Println()

			rows := sess.View()
			if len(rows) == 0 {
				cmd.Println("No groups defined.")
				return nil
			}
			printRows(cmd, rows)
			return nil
		},
	}
}

func NewExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "export <dataset> <image-id>",
		Short:   "Write the standalone export file of an image",
		GroupID: gOffline,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openImage(args[0], args[1])
			if err != nil {
				return err
			}
			res, err := sess.Dispatch(session.Export{})
			if err != nil {
				return fmt.Errorf("failed to export %s: %w", args[1], err)
			}
			cmd.Println(res.Message)
			return nil
		},
	}
}

func NewMarkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mark",
		Short:   "Set the review status of an image",
		GroupID: gOffline,
	}

	mark := func(use, short string, args cobra.PositionalArgs, c func(args []string) session.Command) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				sess, err := openImage(args[0], args[1])
				if err != nil {
					return err
				}
				res, err := sess.Dispatch(c(args))
				if err != nil {
					return fmt.Errorf("failed to mark %s: %w", args[1], err)
				}
				cmd.Println(res.Message)
				return nil
			},
		}
	}

	cmd.AddCommand(
		mark("done <dataset> <image-id>", "Mark an image as done", cobra.ExactArgs(2),
			func([]string) session.Command { return session.MarkDone{} }),
		mark("undone <dataset> <image-id>", "Clear the status of an image", cobra.ExactArgs(2),
			func([]string) session.Command { return session.MarkUndone{} }),
		mark("error <dataset> <image-id> <message>", "Mark an image as unusable", cobra.ExactArgs(3),
			func(args []string) session.Command { return session.ReportError{Message: args[2]} }),
	)

	return cmd
}

func printRows(cmd *cobra.Command, rows []session.Row) {
	var level string
	for _, r := range rows {
		if string(r.Level) != level {
			level = string(r.Level)
			cmd.Println(bold("%s survival:", level))
		}
		switch {
		case r.Value != nil:
			cmd.Printf("  %s: %.2f\n", r.Group, *r.Value)
		case r.Set:
			cmd.Printf("  %s: %s\n", r.Group, color.YellowString("not convertible"))
		default:
			cmd.Printf("  %s: -\n", r.Group)
		}
	}
}

func statusText(s record.Status) string {
	switch s {
	case record.StatusDone:
		return color.New(color.Bold, color.FgGreen).Sprint(s.Indicator())
	case record.StatusError:
		return color.New(color.Bold, color.FgRed).Sprint(s.Indicator())
	}
	return s.Indicator()
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
