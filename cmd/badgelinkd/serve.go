// Copyright 2025 The BadgeLink Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/badgelink/badgelink"
	"github.com/badgelink/badgelink/internal/metrics"
	"github.com/badgelink/badgelink/internal/transport"
	"github.com/badgelink/badgelink/storage"
	"github.com/badgelink/badgelink/storage/diskfs"
	"github.com/badgelink/badgelink/storage/memappfs"
	"github.com/badgelink/badgelink/storage/memfs"
	"github.com/go-chi/chi/v5"
	"github.com/jacobsa/timeutil"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	device        string
	listen        string
	wsListen      string
	metricsListen string

	root        string
	memFS       bool
	fsCapacity  int64
	appCapacity int64

	maxVersion uint16
	legacy     bool
	debug      bool
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the protocol until interrupted",
		Long: `Serve the BadgeLink device protocol over one or more transports.

Files live in a directory on disk (--root) or in memory (--memfs). Apps
always live in an in-memory partition of --app-capacity bytes.

Examples:
  badgelinkd serve --device=/dev/ttyGS0 --root=/srv/badge
  badgelinkd serve --listen=:7000 --memfs --max-version=1
  badgelinkd serve --ws-listen=:8080 --memfs --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), &opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.device, "device", "", "Serial device to serve on")
	f.StringVar(&opts.listen, "listen", "", "TCP address to serve on, e.g. :7000")
	f.StringVar(&opts.wsListen, "ws-listen", "", "HTTP address for the websocket bridge and /metrics")
	f.StringVar(&opts.metricsListen, "metrics-listen", "", "HTTP address serving only /metrics")
	f.StringVar(&opts.root, "root", "", "Directory holding the badge's files")
	f.BoolVar(&opts.memFS, "memfs", false, "Keep files in memory instead of --root")
	f.Int64Var(&opts.fsCapacity, "fs-capacity", 16<<20, "Size in bytes of the in-memory file system")
	f.Int64Var(&opts.appCapacity, "app-capacity", 4<<20, "Size in bytes of the app partition")
	f.Uint16Var(&opts.maxVersion, "max-version", badgelink.ServerVersion, "Highest protocol version to negotiate")
	f.BoolVar(&opts.legacy, "legacy", false, "Behave like firmware without version negotiation")
	f.BoolVar(&opts.debug, "debug", false, "Log every packet to stderr")

	return cmd
}

func openFileSystem(opts *serveOptions, logger *log.Logger) (storage.FileSystem, error) {
	switch {
	case opts.memFS:
		return memfs.NewMemFS(timeutil.RealClock(), opts.fsCapacity), nil

	case opts.root != "":
		return diskfs.New(opts.root, logger)

	default:
		return nil, errors.New("one of --root and --memfs is required")
	}
}

func runServe(ctx context.Context, opts *serveOptions) (err error) {
	if opts.device == "" && opts.listen == "" && opts.wsListen == "" {
		err = errors.New("nothing to serve on; set --device, --listen or --ws-listen")
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	const logFlags = log.Ldate | log.Ltime | log.Lmicroseconds
	errorLogger := log.New(os.Stderr, "badgelinkd: ", logFlags)

	debugLogger := log.New(io.Discard, "", 0)
	if opts.debug {
		debugLogger = log.New(os.Stderr, "badgelinkd: ", logFlags|log.Lshortfile)
	}

	fs, err := openFileSystem(opts, errorLogger)
	if err != nil {
		err = fmt.Errorf("file system: %w", err)
		return
	}

	cfg := &badgelink.ServerConfig{
		MaxVersion:  opts.maxVersion,
		LegacyMode:  opts.legacy,
		ErrorLogger: errorLogger,
		DebugLogger: debugLogger,
	}

	server := badgelink.NewServer(fs, memappfs.New(opts.appCapacity), cfg)

	serve := func(ctx context.Context, rw io.ReadWriter) error {
		return server.Serve(ctx, badgelink.NewConnection(rw, cfg))
	}

	// Run each transport until the first fails or we are interrupted.
	errc := make(chan error, 4)
	var httpServers []*http.Server

	if opts.device != "" {
		go func() { errc <- serveDevice(ctx, opts.device, serve) }()
	}

	if opts.listen != "" {
		var l net.Listener
		if l, err = transport.ListenTCP(opts.listen); err != nil {
			return
		}

		defer l.Close()
		errorLogger.Printf("Serving TCP on %v", l.Addr())
		go func() { errc <- serveListener(ctx, l, serve, errorLogger) }()
	}

	if opts.wsListen != "" {
		bridge := transport.NewBridge(serve, debugLogger)
		hs := &http.Server{
			Addr:    opts.wsListen,
			Handler: transport.NewRouter(bridge, metrics.Handler()),
		}

		httpServers = append(httpServers, hs)
		errorLogger.Printf("Serving websockets on %s%s", opts.wsListen, transport.BridgePath)
		go func() { errc <- hs.ListenAndServe() }()
	}

	if opts.metricsListen != "" {
		r := chi.NewRouter()
		r.Handle("/metrics", metrics.Handler())

		hs := &http.Server{Addr: opts.metricsListen, Handler: r}
		httpServers = append(httpServers, hs)
		go func() { errc <- hs.ListenAndServe() }()
	}

	select {
	case <-ctx.Done():
	case err = <-errc:
	}

	for _, hs := range httpServers {
		hs.Close()
	}

	return
}

// Serve a serial device until it reports EOF or an error.
func serveDevice(
	ctx context.Context,
	path string,
	serve transport.ServeFunc) (err error) {
	f, err := transport.OpenSerial(path)
	if err != nil {
		err = fmt.Errorf("OpenSerial: %w", err)
		return
	}

	defer f.Close()

	if err = serve(ctx, f); err != nil {
		err = fmt.Errorf("serving %s: %w", path, err)
		return
	}

	return
}

// Accept and serve connections one at a time until the listener is closed.
func serveListener(
	ctx context.Context,
	l net.Listener,
	serve transport.ServeFunc,
	logger *log.Logger) (err error) {
	for {
		var c net.Conn
		if c, err = l.Accept(); err != nil {
			err = fmt.Errorf("Accept: %w", err)
			return
		}

		logger.Printf("Serving TCP peer %v", c.RemoteAddr())
		if err := serve(ctx, c); err != nil {
			logger.Printf("Serving %v: %v", c.RemoteAddr(), err)
		}

		c.Close()
	}
}
