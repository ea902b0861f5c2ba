// Package grpc hosts the standard gRPC health service for the hub process.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer serves grpc.health.v1 on its own listener. The overall ("")
// entry and every named service report SERVING while Serve runs.
type HealthServer struct {
	listener net.Listener
	server   *gogrpc.Server
	health   *health.Server
	services []string
}

// ListenHealth binds addr and prepares a health server for services.
func ListenHealth(addr string, services ...string) (*HealthServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	server := gogrpc.NewServer(gogrpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	for _, name := range append([]string{""}, services...) {
		healthServer.SetServingStatus(name, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}
	return &HealthServer{
		listener: listener,
		server:   server,
		health:   healthServer,
		services: services,
	}, nil
}

// Addr returns the bound listener address.
func (h *HealthServer) Addr() string {
	if h == nil || h.listener == nil {
		return ""
	}
	return h.listener.Addr().String()
}

// Serve reports SERVING and blocks until Stop or Close.
func (h *HealthServer) Serve() error {
	if h == nil {
		return errors.New("health server is nil")
	}
	h.health.Resume()
	for _, name := range append([]string{""}, h.services...) {
		h.health.SetServingStatus(name, grpc_health_v1.HealthCheckResponse_SERVING)
	}
	if err := h.server.Serve(h.listener); err != nil && !errors.Is(err, gogrpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC health: %w", err)
	}
	return nil
}

// Stop reports NOT_SERVING and drains in-flight checks.
func (h *HealthServer) Stop() {
	if h == nil {
		return
	}
	h.health.Shutdown()
	h.server.GracefulStop()
}

// Close stops the server immediately and releases the listener.
func (h *HealthServer) Close() {
	if h == nil {
		return
	}
	h.health.Shutdown()
	h.server.Stop()
	_ = h.listener.Close()
}

// WaitForHealth blocks until the gRPC health check reports SERVING or the context ends.
func WaitForHealth(ctx context.Context, conn *gogrpc.ClientConn, service string, logf func(string, ...any)) error {
	if conn == nil {
		return fmt.Errorf("gRPC connection is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	healthClient := grpc_health_v1.NewHealthClient(conn)
	backoff := 20 * time.Millisecond
	for {
		callCtx, cancel := context.WithTimeout(ctx, time.Second)
		response, err := healthClient.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
		cancel()
		if err == nil && response.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING {
			return nil
		}
		if logf != nil {
			if err != nil {
				logf("waiting for gRPC health: %v", err)
			} else {
				logf("waiting for gRPC health: status %s", response.GetStatus().String())
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for gRPC health: %w", ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < 500*time.Millisecond {
			backoff *= 2
		}
	}
}
