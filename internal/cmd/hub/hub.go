// Package hub parses hub command flags and composes the server entrypoint.
package hub

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/rfidhub/internal/platform/cmd"
	server "github.com/louisbranch/rfidhub/internal/services/hub/app"
)

// Config holds hub command configuration. Env names carry the RFIDHUB_ prefix.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR"        envDefault:":8445"`
	GRPCAddr        string        `env:"GRPC_ADDR"`
	Verifier        string        `env:"VERIFIER"         envDefault:"http"`
	VerifierURL     string        `env:"VERIFIER_URL"     envDefault:"https://smartmonitoringsystem.infy.uk/api/check_rfid.php"`
	VerifierTimeout time.Duration `env:"VERIFIER_TIMEOUT" envDefault:"5s"`
	DBPath          string        `env:"DB_PATH"          envDefault:"data/rfidhub.db"`
	InitialMode     string        `env:"INITIAL_MODE"     envDefault:"attendance"`
	SeedTags        []string      `env:"SEED_TAGS"        envSeparator:","`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "hub HTTP/WebSocket listen address")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "gRPC health listen address (empty disables)")
	fs.StringVar(&cfg.Verifier, "verifier", cfg.Verifier, "verifier backend: http or sqlite")
	fs.StringVar(&cfg.VerifierURL, "verifier-url", cfg.VerifierURL, "tag lookup endpoint for the http verifier")
	fs.DurationVar(&cfg.VerifierTimeout, "verifier-timeout", cfg.VerifierTimeout, "timeout for one tag lookup")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "sqlite tag store path for the sqlite verifier")
	fs.StringVar(&cfg.InitialMode, "initial-mode", cfg.InitialMode, "mode at startup: assign or attendance")
	fs.Func("seed-tags", "comma-separated tags recorded as assigned at startup (sqlite verifier)", func(value string) error {
		cfg.SeedTags = splitTags(value)
		return nil
	})
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func splitTags(value string) []string {
	var tags []string
	for _, tag := range strings.Split(value, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Run builds the hub server and serves until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceHub, func(ctx context.Context) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr:        cfg.HTTPAddr,
			GRPCAddr:        cfg.GRPCAddr,
			Verifier:        cfg.Verifier,
			VerifierURL:     cfg.VerifierURL,
			VerifierTimeout: cfg.VerifierTimeout,
			DBPath:          cfg.DBPath,
			InitialMode:     cfg.InitialMode,
			SeedTags:        cfg.SeedTags,
		}); err != nil {
			return fmt.Errorf("serve hub: %w", err)
		}
		return nil
	})
}
