// Package server exposes a session over HTTP, on a unix socket or TCP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/survextract/survextract/pkg/events"
	"github.com/survextract/survextract/pkg/session"
)

type Server struct {
	sess   *session.Session
	hub    *events.EventHub
	router *gin.Engine
}

// New creates a server for sess. hub is the hub sess publishes to.
func New(sess *session.Session, hub *events.EventHub) *Server {
	s := &Server{sess: sess, hub: hub}
	s.router = s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))

	router.GET("/state", s.getState)
	router.GET("/view", s.getView)
	router.GET("/progress", s.getProgress)
	router.GET("/events", s.streamEvents)
	router.GET("/version", getVersion)

	router.POST("/dataset", s.openDataset)
	router.POST("/navigate", s.navigate)
	router.POST("/next", s.next)
	router.POST("/prev", s.prev)
	router.PUT("/filter", s.setFilter)

	router.POST("/click", s.click)
	router.POST("/calibration/value", s.setCalibrationValue)
	router.DELETE("/calibration", s.resetCalibration)
	router.GET("/calibration/anchor", s.hitAnchor)
	router.PUT("/calibration/anchor", s.dragAnchor)
	router.PUT("/axis", s.setAxis)
	router.PUT("/units", s.setUnits)

	router.PUT("/groups", s.setGroups)
	router.PUT("/selection", s.setSelection)
	router.PUT("/points/value", s.setPointValue)
	router.DELETE("/points", s.clearPoints)

	router.POST("/status/done", s.markDone)
	router.DELETE("/status", s.markUndone)
	router.POST("/status/toggle", s.toggleDone)
	router.POST("/status/error", s.reportError)
	router.POST("/export", s.export)

	return router
}

// Listen opens a unix socket when socketPath is set, a TCP listener on addr
// otherwise. A stale socket file is removed first.
func Listen(socketPath, addr string) (net.Listener, error) {
	if socketPath == "" {
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to listen on %s", addr)
		}
		return l, nil
	}

	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return nil, pkgerrors.Wrapf(err, "failed to remove stale socket %s", socketPath)
	}
	l, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to listen on %s", socketPath)
	}
	return l, nil
}

// Run serves on l until SIGINT or SIGTERM, then shuts down, writes the
// current record and closes the event streams.
func (s *Server) Run(l net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	var serveErr error
	select {
	case sig := <-sigc:
		logrus.Infof("caught signal \"%s\": shutting down.", sig)
	case serveErr = <-errc:
		logrus.WithError(serveErr).Error("http server failed")
	}

	// SSE streams end when the hub closes, so close it before shutdown
	// waits for active connections.
	s.hub.Close()

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}

	logrus.Info("saving current image")
	if err := s.sess.Close(); err != nil {
		logrus.Errorf("failed to save current image: %v", err)
	}

	logrus.Info("exiting")
	return serveErr
}
