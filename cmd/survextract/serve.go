package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/survextract/survextract/pkg/events"
	"github.com/survextract/survextract/pkg/server"
	"github.com/survextract/survextract/pkg/session"
	"github.com/survextract/survextract/pkg/version"
)

// NewServeCommand .
func NewServeCommand() *cobra.Command {
	var (
		dataset string
		listen  string
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the editing session server in the foreground",
		GroupID: gSession,
		Long: `Run the editing session server in the foreground.

The server listens on the unix socket unless --listen gives a TCP address.
The dataset defaults to $SURVEXTRACT_DATASET, then to the last dataset saved
in the config file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("survextract server starting")

			if !cmd.Flags().Changed("listen") {
				listen = conf.Listen()
			}
			if dataset == "" {
				dataset = os.Getenv(envDataset)
			}
			if dataset == "" {
				dataset = conf.Dataset()
			}

			hub := events.NewEventHub()
			sess := session.New(session.Options{
				Axis:         conf.Axis(),
				Autosave:     conf.Autosave(),
				AnchorRadius: conf.AnchorRadius(),
				Publisher:    hub,
			})

			if dataset != "" {
				res, err := sess.Dispatch(session.OpenDataset{Root: dataset})
				if err != nil {
					logrus.WithError(err).Fatalf("failed to open dataset %s", dataset)
				}
				logrus.Info(res.Message)

				conf.SetDataset(dataset)
				if err := conf.Save(); err != nil {
					logrus.WithError(err).Warn("failed to remember dataset in config")
				}
			}

			socket := unixSocketPath
			if listen != "" {
				socket = ""
			}
			l, err := server.Listen(socket, listen)
			if err != nil {
				logrus.WithError(err).Fatal("failed to start server")
			}

			return server.New(sess, hub).Run(l)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&dataset, "dataset", "d", "", "dataset folder to open at startup")
	f.StringVar(&listen, "listen", "", "TCP address to listen on instead of the unix socket")

	return cmd
}
