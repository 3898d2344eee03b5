package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/qa-gate/internal/config"
)

// errGateFailed maps to exit code 1: thresholds not met. Every other error
// is an infra or config failure and maps to exit code 2, so the deployment
// pipeline can tell a quality block from a broken run.
var errGateFailed = errors.New("qa-gate: gate failed")

type cliState struct {
	configPath string
	cfg        *config.Config
}

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, errGateFailed) {
			osExit(1)
			return
		}
		fmt.Fprintln(stderrWriter, err)
		osExit(2)
	}
}

func newRootCmd() *cobra.Command {
	st := &cliState{configPath: ""}

	root := &cobra.Command{
		Use:           "qa-gate",
		Short:         "Run safety-evaluation suites against a QA endpoint and gate deployments",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", st.configPath, "path to config file")

	root.AddCommand(newRunCmd(st))
	root.AddCommand(newValidateCmd())
	root.AddCommand(newHistoryCmd(st))
	return root
}

func loadState(st *cliState) error {
	cfg, err := config.Load(st.configPath)
	if err != nil {
		return err
	}
	st.cfg = cfg
	return nil
}
