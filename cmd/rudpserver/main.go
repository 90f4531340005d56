// Command rudpserver is the demo listener for pkg/rudp, adapted from the
// teacher's core/main.go: same banner/config/start/signal-wait shape, with
// the SA-MP server.Server swapped for a transport.Dispatcher over an
// echo.Room.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ventos-labs/rudp/internal/echo"
	"github.com/ventos-labs/rudp/pkg/config"
	"github.com/ventos-labs/rudp/pkg/logger"
	"github.com/ventos-labs/rudp/pkg/transport"
)

const version = "1.0.0"

func main() {
	logger.Banner("Reliable UDP Server", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Fatal("rudpserver: load config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	logger.Info("Binding on %s:%d", cfg.Host, cfg.Port)
	logger.Info("Window size: %d, segment size: %d", cfg.WindowSize, cfg.SegmentSize)
	logger.Info("Packet timeout: %s, keep-alive: %s", cfg.PacketTimeout, cfg.KeepAliveTimeout)

	socket, err := transport.Listen(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), nil)
	if err != nil {
		logger.Fatal("rudpserver: %v", err)
	}

	room := echo.NewRoom()
	logger.Success("Echo room initialized")

	dispatcher := transport.NewDispatcher(socket, room, nil, cfg.RUDPConfig(), nil)

	logger.Success("Configuration loaded successfully")
	logger.Info("Listening for RUDP connections on %s:%d", cfg.Host, cfg.Port)

	if err := dispatcher.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("rudpserver: dispatcher stopped: %v", err)
	}

	logger.Success("Server stopped")
}
