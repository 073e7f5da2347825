// SPDX-License-Identifier: GPL-3.0-or-later

// Command dnsfwd runs a UDP DNS forwarder: it listens for query
// packets, forwards each question to an upstream recursive resolver,
// and relays the merged answers back to the client.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bassosimone/dnsfwd"
)

func main() {
	listenAddr := flag.String("listen", ":2053", "UDP address to listen on")
	resolverAddr := flag.String("resolver", "8.8.8.8:53", "upstream resolver address")
	timeout := flag.Duration("timeout", dnsfwd.DefaultForwardTimeout, "per-query upstream timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	server := &dnsfwd.Server{
		Addr: *listenAddr,
		Handler: &dnsfwd.Handler{
			Processor: &dnsfwd.Processor{
				Exchanger: &dnsfwd.Forwarder{
					Resolver: *resolverAddr,
					Timeout:  *timeout,
				},
			},
		},
		Logger: logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("dnsfwd: server failed", "err", err.Error())
		os.Exit(1)
	}
}
