// Command transit-monitor runs the Live Transport Network Monitor: it
// subscribes to an upstream passenger-events feed over STOMP, maintains the
// transport network in memory, and answers quiet-route requests from
// downstream clients over its own STOMP-over-websocket endpoint.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"github.com/livetransit/network-monitor/certs"
	"github.com/livetransit/network-monitor/cmn/nlog"
	"github.com/livetransit/network-monitor/config"
	"github.com/livetransit/network-monitor/hk"
	"github.com/livetransit/network-monitor/monitor"
	"github.com/livetransit/network-monitor/transport"
)

const (
	exitOk          = 0
	exitConfigError = -1
	exitRuntimeErr  = -2
)

func main() {
	os.Exit(run())
}

func run() int {
	app := cli.NewApp()
	app.Name = "transit-monitor"
	app.Usage = "live transport network monitor: STOMP feed in, quiet routes out"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "metrics-addr", Value: ":9090", Usage: "accepted but not used: /metrics is served on the quiet-route listener"},
	}

	exit := exitOk
	app.Action = func(c *cli.Context) error {
		exit = runMonitor(c.String("metrics-addr"))
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("transit-monitor: %v", err))
		return exitConfigError
	}
	return exit
}

func runMonitor(metricsAddr string) int {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("transit-monitor: configuration error: %v", err))
		return exitConfigError
	}

	nlog.SetTitle("transit-monitor")
	go hk.DefaultHK.Run()
	hk.WaitStarted()

	var bg errgroup.Group
	gc := transport.NewCollector(0)
	bg.Go(func() error {
		gc.Run()
		return nil
	})

	mon := monitor.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if code := mon.Configure(ctx, cfg, &transport.LiveDialer{Collector: gc}); code != monitor.Ok {
		fmt.Fprintln(os.Stderr, color.RedString("transit-monitor: configure failed: %v", code))
		return exitConfigError
	}
	fmt.Println(color.GreenString("transit-monitor: configured, listening on %s:%d", cfg.QuietIP, cfg.QuietPort))

	cert, err := certs.GenerateTestServerCertificate(cfg.QuietHostname)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("transit-monitor: could not generate test certificate: %v", err))
		return exitConfigError
	}

	listener := transport.NewLiveListener(gc)
	mux := http.NewServeMux()
	mux.Handle("/quiet-route", listener.ServeHTTP("/quiet-route"))
	mux.Handle("/metrics", promhttp.HandlerFor(mon.Registry(), promhttp.HandlerOpts{}))

	httpSrv := &http.Server{
		Addr:      fmt.Sprintf("%s:%d", cfg.QuietIP, cfg.QuietPort),
		Handler:   mux,
		TLSConfig: &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12},
	}
	bg.Go(func() error {
		if err := httpSrv.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("quiet-route listener: %w", err)
		}
		return nil
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		mon.Stop()
	}()

	mon.Run(ctx)

	gc.Stop(nil)
	_ = httpSrv.Close()
	if err := bg.Wait(); err != nil {
		nlog.Errorf("transit-monitor: background service error: %v", err)
	}

	if code := mon.LastError(); code != monitor.Ok {
		fmt.Fprintln(os.Stderr, color.RedString("transit-monitor: exiting with last error %v", code))
		return exitRuntimeErr
	}
	return exitOk
}
