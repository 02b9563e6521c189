package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coregrid/rfbshare"
	"github.com/coregrid/rfbshare/capture"
	"github.com/coregrid/rfbshare/logging"
	"github.com/coregrid/rfbshare/version"
)

func main() {
	var (
		port        = flag.Int("port", 5900, "TCP port to listen on")
		desktopName = flag.String("desktop-name", "rfbshare", "Desktop name reported in ServerInit")
		pattern     = flag.String("pattern", "wheel", "Synthetic capture pattern: wheel, plasma, orbits, gradient, waves")
		width       = flag.Int("width", 1280, "Synthetic framebuffer width")
		height      = flag.Int("height", 720, "Synthetic framebuffer height")
		verbose     = flag.Bool("verbose", false, "Log a debug line at startup (the standard logger writes every level either way)")
		showVersion = flag.Bool("version", false, "Show version information")
		help        = flag.Bool("help", false, "Show this help message")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("rfbserver %s\n", version.Get())
		os.Exit(0)
	}

	if *help {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "rfbserver - serves a synthetic desktop over RFB-over-WebSocket\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s -port 5900 -pattern plasma -width 1920 -height 1080\n", os.Args[0])
		os.Exit(0)
	}

	logger := logging.NewStandardLogger()

	cfg := rfbshare.Config{
		Port:        *port,
		DesktopName: *desktopName,
		Logger:      logger,
		Adapter:     capture.NewSyntheticAdapter(*width, *height, *pattern, 33*time.Millisecond),
		OnClientConnected: func(meta rfbshare.ClientMeta) {
			logger.Info("client connected", logging.Field{Key: "session", Value: meta.ID}, logging.Field{Key: "remote", Value: meta.RemoteAddr})
		},
		OnClientDisconnected: func(meta rfbshare.ClientMeta) {
			logger.Info("client disconnected", logging.Field{Key: "session", Value: meta.ID}, logging.Field{Key: "remote", Value: meta.RemoteAddr})
		},
		OnError: func(err error) {
			logger.Error("server error", logging.Field{Key: "err", Value: err})
		},
	}
	if *verbose {
		logger.Debug("verbose logging enabled")
	}

	server := rfbshare.New(cfg)

	if err := server.Start(); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("rfbserver listening", logging.Field{Key: "port", Value: *port}, logging.Field{Key: "desktop_name", Value: *desktopName})
	<-sigChan

	logger.Info("shutting down")
	if err := server.Stop(); err != nil {
		log.Fatalf("failed to stop server cleanly: %v", err)
	}
}
