// sockets-demo opens one OPC UA-style TCP listener and logs every output
// event the core emits, until interrupted. Grounded on go-ublk's
// cmd/ublk-mem/main.go (flag parsing, logger setup, signal-driven
// shutdown).
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/s2opc-go/sockets"
	"github.com/s2opc-go/sockets/internal/logging"
)

func main() {
	var (
		endpoint = flag.String("endpoint", "opc.tcp://0.0.0.0:4840", "endpoint URI to listen on")
		verbose  = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)

	core, err := sockets.Initialize(sockets.Options{Logger: logger})
	if err != nil {
		logger.Error("failed to initialize sockets core", "error", err)
		os.Exit(1)
	}
	defer core.Clear()

	core.SetEventHandler(sockets.OutputHandlerFunc(func(ev sockets.OutputEvent) {
		switch ev.Kind {
		case sockets.ListenerOpened:
			logger.Info("listener opened", "endpoint_id", ev.ID, "slot", ev.Aux)
		case sockets.ListenerFailure:
			logger.Error("listener failed to open", "endpoint_id", ev.ID)
		case sockets.ListenerConnection:
			logger.Info("incoming connection accepted", "endpoint_id", ev.ID, "slot", ev.Aux)
			core.EnqueueEvent(sockets.AcceptedConnection, ev.Aux, nil, ev.Aux)
		case sockets.Connection:
			logger.Info("outbound connection established", "connection_id", ev.ID, "slot", ev.Aux)
		case sockets.Failure:
			logger.Info("connection closed", "connection_id", ev.ID, "slot", ev.Aux)
		case sockets.RcvBytes:
			buf, _ := ev.Params.(*sockets.Buffer)
			n := 0
			if buf != nil {
				n = len(buf.Data)
			}
			logger.Info("bytes received", "connection_id", ev.ID, "n", n)
		}
	}))

	core.EnqueueEvent(sockets.CreateListener, 1, *endpoint, 0)

	fmt.Printf("listening on %s, press Ctrl+C to stop\n", *endpoint)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")
}
