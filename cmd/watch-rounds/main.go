// Command watch-rounds prints the oracle-rounds event stream as JSON lines.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/StrathCole/oracle-rounds/pkg/feeder/stream"
	"github.com/StrathCole/oracle-rounds/pkg/logging"
	"github.com/StrathCole/oracle-rounds/pkg/server/events"
	"github.com/StrathCole/oracle-rounds/pkg/version"
)

var (
	url        = flag.String("url", "ws://localhost:8080/ws", "Event stream URL")
	feeds      = flag.String("feeds", "", "Comma separated feed ids (default: all)")
	maxRetries = flag.Int("max-retries", 0, "Give up after this many failed connects (0 = never)")
	logLevel   = flag.String("log-level", "info", "Log level")
	showVer    = flag.Bool("version", false, "Show version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version.AgentString())
		return
	}

	// Events go to stdout; logs go to stderr.
	logger, err := logging.Init(*logLevel, "text", "stderr")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	var feedIDs []string
	for _, id := range strings.Split(*feeds, ",") {
		if id = strings.TrimSpace(id); id != "" {
			feedIDs = append(feedIDs, id)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sub := stream.NewSubscriber(stream.Config{
		URL:        *url,
		Feeds:      feedIDs,
		MaxRetries: *maxRetries,
		Logger:     logger,
	})

	enc := json.NewEncoder(os.Stdout)
	err = sub.Run(ctx, func(ev events.Event) {
		if err := enc.Encode(ev); err != nil {
			logger.Error("Failed to write event", "error", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event stream stopped", "error", err)
		os.Exit(1)
	}
}
