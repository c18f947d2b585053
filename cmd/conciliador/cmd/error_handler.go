package cmd

import (
	"fmt"
	"os"

	pkgerrors "github.com/ralborta/cliente-centro-gestion/pkg/errors"
	"github.com/ralborta/cliente-centro-gestion/pkg/logger"

	"github.com/spf13/viper"
)

// ExitCode prints a user-facing message for a failed command and returns
// the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	logger.WithComponent("cli").WithError(err).Error("Command failed")
	fmt.Fprintf(os.Stderr, "Error: %s\n", pkgerrors.FormatUserMessage(err))

	if viper.GetBool("verbose") {
		if cause := unwrapCause(err); cause != nil {
			fmt.Fprintf(os.Stderr, "Underlying error: %v\n", cause)
		}
	}

	return pkgerrors.GetExitCode(err)
}

func unwrapCause(err error) error {
	type causer interface{ Unwrap() error }
	if c, ok := err.(causer); ok {
		return c.Unwrap()
	}
	return nil
}
