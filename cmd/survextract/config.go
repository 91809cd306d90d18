package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewConfigCommand edits the defaults used by new sessions.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Show or change the session defaults",
		GroupID: gSession,
		Long: `Show or change the session defaults.

Changes apply to sessions started afterwards. Images that already have a
record keep their own axis settings.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the configuration",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				axis := conf.Axis()
				cmd.Println(bold("Configuration:"), configPath)
				cmd.Printf("  X axis: %s (%s)\n", bold("%s", axis.XAxisType), axis.XAxisUnits)
				cmd.Printf("  Y axis: %s (%s)\n", bold("%s", axis.YAxisType), axis.YAxisUnits)
				cmd.Printf("  Autosave: %s\n", bool2Text(conf.Autosave()))
				cmd.Printf("  Anchor radius: %s\n", bold("%g px", conf.AnchorRadius()))
				if conf.Listen() != "" {
					cmd.Printf("  Listen: %s\n", conf.Listen())
				} else {
					cmd.Printf("  Socket: %s\n", conf.Socket())
				}
				if conf.Dataset() != "" {
					cmd.Printf("  Dataset: %s\n", conf.Dataset())
				}
			},
		},
		newAxisCommand(),
		newEnableDisableCommand(
			"autosave",
			"saving after every change",
			"Write the record of the current image after every change. Status changes are always written.",
			func() error {
				conf.SetAutosave(true)
				return conf.Save()
			},
			func() error {
				conf.SetAutosave(false)
				return conf.Save()
			},
		),
	)

	return cmd
}

func newAxisCommand() *cobra.Command {
	var xUnits, yUnits string

	cmd := &cobra.Command{
		Use:   "axis <time|survival>",
		Short: "Set what the X axis measures by default",
		Long: `Set what the X axis measures by default. The Y axis takes the
other type. Units are kept unless given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			axis, err := conf.Axis().WithXAxisType(args[0])
			if err != nil {
				return err
			}
			if xUnits != "" {
				axis.XAxisUnits = xUnits
			}
			if yUnits != "" {
				axis.YAxisUnits = yUnits
			}

			conf.SetAxis(axis)
			if err := conf.Save(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			logrus.WithFields(logrus.Fields{
				"xAxisType":  axis.XAxisType,
				"xAxisUnits": axis.XAxisUnits,
				"yAxisUnits": axis.YAxisUnits,
			}).Info("default axis saved")
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&xUnits, "x-units", "", "X axis units")
	f.StringVar(&yUnits, "y-units", "", "Y axis units")

	return cmd
}

func newEnableDisableCommand(use, short, long string, enableFunc, disableFunc func() error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: "Enable or disable " + short,
		Long:  long,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "enable",
			Short: "Enable " + short,
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				if err := enableFunc(); err != nil {
					return fmt.Errorf("failed to enable %s: %w", use, err)
				}
				logrus.Infof("successfully enabled %s", use)
				return nil
			},
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Disable " + short,
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				if err := disableFunc(); err != nil {
					return fmt.Errorf("failed to disable %s: %w", use, err)
				}
				logrus.Infof("successfully disabled %s", use)
				return nil
			},
		},
	)

	return cmd
}
