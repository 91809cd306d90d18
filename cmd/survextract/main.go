package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/survextract/survextract/pkg/client"
	"github.com/survextract/survextract/pkg/config"
	"github.com/survextract/survextract/pkg/store"
)

const (
	envDataset = "SURVEXTRACT_DATASET"
	envConfig  = "SURVEXTRACT_CONFIG"
)

var (
	logLevel       = "info"
	unixSocketPath = ""
	configPath     = config.DefaultPath()
	// serverURL is set when the server listens on TCP instead of the socket.
	serverURL = ""

	conf *config.File
)

var (
	gSession      = "Session:"
	gOffline      = "Offline:"
	commandGroups = []string{
		gSession,
		gOffline,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrServerNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: survextract server is not running")
		fmt.Fprintln(os.Stderr, "Start it with 'survextract serve --dataset <folder>'")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Check the permissions of the socket file")
	} else if errors.Is(err, store.ErrNoDataset) {
		fmt.Fprintln(os.Stderr, "\nError: not a dataset folder")
		fmt.Fprintln(os.Stderr, "  - A dataset folder holds the images in its 'png' subfolder")
	}
}

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()
	if p := os.Getenv(envConfig); p != "" {
		configPath = p
	}

	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "survextract",
		Short: "survextract digitizes survival curves from plot images",
		Long: `survextract digitizes survival curves from plot images.

Run 'survextract serve' to start an editing session for a dataset folder,
then drive it from a front end or with 'survextract ctl'. Offline commands
work on a dataset folder directly.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := setupLogger()
			if err != nil {
				return err
			}

			conf, err = config.NewFile(configPath)
			if err != nil {
				return err
			}
			// An explicit --socket wins over a configured TCP address.
			serverURL = ""
			if !cmd.Flags().Changed("socket") {
				unixSocketPath = conf.Socket()
				if listen := conf.Listen(); listen != "" {
					serverURL = "http://" + listen
				}
			}
			logrus.WithFields(conf.LogrusFields()).Debug("config loaded")

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&unixSocketPath, "socket", config.DefaultSocket, "session server unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewServeCommand(),
		NewCtlCommand(),
		NewProgressCommand(),
		NewViewCommand(),
		NewExportCommand(),
		NewMarkCommand(),
		NewConfigCommand(),
		NewVersionCommand(),
	)

	return cmd
}
