package main

import (
	"fmt"
	"os"

	"golang-imputation-service/cmd/imputer/cmd"
	apperrors "golang-imputation-service/pkg/errors"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if imputerErr, ok := apperrors.AsImputerError(err); ok {
			if imputerErr.Suggestion != "" {
				fmt.Fprintf(os.Stderr, "Suggestion: %s\n", imputerErr.Suggestion)
			}
			os.Exit(imputerErr.GetExitCode())
		}
		os.Exit(1)
	}
}
