// Standalone mock fleet for trying the CLI locally.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/statustally run -c example/config.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// mockServer describes how one port of the fleet answers /status.
type mockServer struct {
	port    int
	app     string
	version string
	// failFirst is how many requests get a 500 before the server recovers.
	failFirst int
	// noStatus serves 404 on /status.
	noStatus bool
	// garbled serves a 200 with a body that is not a status record.
	garbled bool
}

var fleet = []mockServer{
	{port: 9001, app: "billing", version: "1.2.0"},
	{port: 9002, app: "billing", version: "1.2.0"},
	{port: 9003, app: "billing", version: "1.3.0-rc1", failFirst: 2},
	{port: 9004, app: "search", version: "4.0.1"},
	{port: 9005, app: "search", version: "4.0.1", noStatus: true},
	{port: 9006, app: "search", version: "4.1.0", garbled: true},
}

type statusBody struct {
	Application  string `json:"Application"`
	Version      string `json:"Version"`
	SuccessCount int64  `json:"Success_Count"`
}

func newEcho(m mockServer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	var (
		mu    sync.Mutex
		calls int
	)

	e.GET("/status", func(c echo.Context) error {
		time.Sleep(time.Duration(20+rand.Intn(80)) * time.Millisecond)

		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		switch {
		case m.noStatus:
			return c.NoContent(http.StatusNotFound)
		case n <= m.failFirst:
			slog.Info("failing request", "port", m.port, "call", n)
			return c.String(http.StatusInternalServerError, "warming up")
		case m.garbled:
			return c.String(http.StatusOK, "<html>maintenance</html>")
		}

		return c.JSON(http.StatusOK, statusBody{
			Application:  m.app,
			Version:      m.version,
			SuccessCount: int64(100 + rand.Intn(900)),
		})
	})

	return e
}

func main() {
	fmt.Println("Mock status fleet starting")
	for _, m := range fleet {
		fmt.Printf("  localhost:%d  %s %s\n", m.port, m.app, m.version)
	}
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	servers := make([]*echo.Echo, 0, len(fleet))
	errCh := make(chan error, len(fleet))
	for _, m := range fleet {
		e := newEcho(m)
		servers = append(servers, e)
		go func(addr string) {
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(fmt.Sprintf(":%d", m.port))
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, e := range servers {
		_ = e.Shutdown(shutdownCtx)
	}
}
