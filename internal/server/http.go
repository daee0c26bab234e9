// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/agriardyan/phasmo-larp-companion/pkg/handler"
	"github.com/sirupsen/logrus"
)

// APIServer serves the JSON API used by the UI layer.
type APIServer struct {
	server *http.Server
	port   int
	state  *handler.State
	lights *handler.Lights
}

// NewAPIServer creates a new API server instance.
func NewAPIServer(port int, state *handler.State, lights *handler.Lights) *APIServer {
	return &APIServer{
		port:   port,
		state:  state,
		lights: lights,
	}
}

// Setup registers the state and light routes.
func (a *APIServer) Setup() error {
	mux := http.NewServeMux()
	a.state.Register(mux)
	a.lights.Register(mux)

	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", a.port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logrus.Infof("registered API routes: /state, /lights")
	return nil
}

// Start begins serving the API on the configured port.
func (a *APIServer) Start(ctx context.Context) error {
	go func() {
		logrus.Infof("API server listening on port %d", a.port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("API server failed: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the API server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down API server...")
	if err := a.server.Shutdown(ctx); err != nil {
		return err
	}
	logrus.Info("API server stopped")
	return nil
}
