package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/stellarlinkco/qa-gate/api"
	"github.com/stellarlinkco/qa-gate/internal/config"
	"github.com/stellarlinkco/qa-gate/internal/llm"
)

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr

	loadConfig         = config.Load
	providerFromConfig = llm.FromConfig
	newServer          = api.NewServer
	runServer          = (*api.Server).Run
)

func main() {
	osExit(runMain(os.Args[1:]))
}

func runMain(args []string) int {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(stderrWriter)

	var addr string
	var configPath string
	fs.StringVar(&addr, "addr", ":8000", "listen address")
	fs.StringVar(&configPath, "config", config.DefaultPath, "path to config file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}
	if strings.TrimSpace(cfg.Server.Addr) != "" && addr == ":8000" {
		addr = cfg.Server.Addr
	}

	// Without a provider the service still serves /health and / but
	// answers /chat with 503, matching the degraded-model behavior.
	var answerer api.Answerer
	if provider, err := providerFromConfig(cfg); err != nil {
		fmt.Fprintf(stderrWriter, "server: no answer backend: %v\n", err)
	} else {
		answerer = &api.LLMAnswerer{Provider: provider}
	}

	srv := newServer(answerer)
	if err := runServer(srv, addr); err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}
	return 0
}
