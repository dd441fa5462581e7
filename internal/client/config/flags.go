package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/spotlight/internal/flagx"
)

// parseFlags overlays cfg with command-line flags:
//
//	-a string   API base URL
//	-t int      request timeout in seconds
//	-d string   local database path
//	-l int      page size for the talent directory
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-t", "-d", "-l"})

	fs := flag.NewFlagSet("spotlight", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "API base URL")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	fs.IntVar(&cfg.PageLimit, "l", cfg.PageLimit, "talents per page")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}
