package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/qa-gate/internal/suite"
)

func newValidateCmd() *cobra.Command {
	var suitePath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse and validate a suite descriptor without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := suite.Load(suitePath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "suite %q: %d categories, %d cases, ok\n",
				s.Name, len(s.Categories), s.TotalCases())
			return nil
		},
	}

	cmd.Flags().StringVar(&suitePath, "suite", "", "path to the suite descriptor (required)")
	_ = cmd.MarkFlagRequired("suite")
	return cmd
}
