package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/aussiebroadwan/learnhub/internal/gateway/app"
)

func main() {
	var configPath string
	var port int

	flagSet := pflag.NewFlagSet("gateway", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", os.Getenv("GATEWAY_CONFIG"), "path to a YAML config file (env vars override it)")
	flagSet.IntVarP(&port, "port", "p", 0, "HTTP port, overrides PORT")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if port != 0 {
		cfg.Port = port
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
