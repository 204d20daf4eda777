// Command sign-submission signs one price observation with the configured operator key and
// prints it as a JSON submission request for the oracle-rounds API, or posts it with -submit.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/StrathCole/oracle-rounds/pkg/auth"
	"github.com/StrathCole/oracle-rounds/pkg/config"
	"github.com/StrathCole/oracle-rounds/pkg/feeder/client"
	"github.com/StrathCole/oracle-rounds/pkg/logging"
	"github.com/StrathCole/oracle-rounds/pkg/numeric"
	"github.com/StrathCole/oracle-rounds/pkg/server/api"
	"github.com/StrathCole/oracle-rounds/pkg/version"
)

var (
	configFile = flag.String("config", "config/config.yaml", "Path to configuration file")
	feedID     = flag.String("feed", "", "Feed id")
	roundID    = flag.Uint64("round", 0, "Round id to submit for; with -submit, 0 asks the server")
	answer     = flag.String("answer", "", "Answer in base units, e.g. 10100000000")
	price      = flag.String("price", "", "Answer as a decimal price, scaled by the feed decimals")
	validFor   = flag.Duration("valid-for", time.Minute, "How long the signed submission stays valid")
	submitTo   = flag.String("submit", "", "Comma separated API base URLs to post the submission to")
	timeout    = flag.Duration("timeout", 10*time.Second, "HTTP timeout for -submit")
	showAddr   = flag.Bool("address", false, "Print the operator address and exit")
	showVer    = flag.Bool("version", false, "Show version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version.AgentString())
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	key, err := cfg.Signer.LoadKey()
	if err != nil {
		return fmt.Errorf("load key: %w", err)
	}
	if *showAddr {
		fmt.Println(key.Address().Hex())
		return nil
	}

	if *feedID == "" {
		return fmt.Errorf("-feed is required")
	}
	value, err := parseAnswer(cfg)
	if err != nil {
		return err
	}

	var apiClient *client.Client
	if *submitTo != "" {
		logger, err := logging.Init(cfg.Logging.Level, "text", "stderr")
		if err != nil {
			return err
		}
		if apiClient, err = client.New(strings.Split(*submitTo, ","), *timeout, logger); err != nil {
			return err
		}
	}

	ctx := context.Background()
	round := *roundID
	if round == 0 {
		if apiClient == nil {
			return fmt.Errorf("-round is required without -submit")
		}
		next, due, err := apiClient.NextRound(ctx, *feedID, value)
		if err != nil {
			return fmt.Errorf("next round: %w", err)
		}
		if !due {
			fmt.Fprintf(os.Stderr, "Warning: round %d is not due for this answer and may be rejected\n", next)
		}
		round = next
	}

	domain, err := cfg.Domain.ToDomain()
	if err != nil {
		return fmt.Errorf("signing domain: %w", err)
	}

	env := auth.Envelope{
		FeedID:     *feedID,
		RoundID:    round,
		Answer:     value,
		ValidUntil: time.Now().Add(*validFor).Truncate(time.Second),
	}
	sig, err := key.Sign(domain, env)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}

	req := api.NewSubmissionRequest(env, sig)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if apiClient == nil {
		return enc.Encode(req)
	}
	resp, err := apiClient.Submit(ctx, req)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return enc.Encode(resp)
}

func parseAnswer(cfg *config.Config) (*big.Int, error) {
	switch {
	case *answer != "" && *price != "":
		return nil, fmt.Errorf("use either -answer or -price")
	case *answer != "":
		return numeric.ParseInteger(*answer)
	case *price != "":
		for _, fc := range cfg.Feeds {
			if fc.ID == *feedID {
				return numeric.Scale(*price, fc.Decimals)
			}
		}
		return nil, fmt.Errorf("feed %s is not in %s; use -answer", *feedID, *configFile)
	default:
		return nil, fmt.Errorf("-answer or -price is required")
	}
}
