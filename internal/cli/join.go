package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vibequiz/internal/domain"

	"github.com/spf13/cobra"
)

// NewJoinCmd verifies a quiz code and enters the quiz.
func NewJoinCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "join <code>",
		Short: "Join a quiz by its code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			renderHeader(rt.out, rt.wallet.State())
			_, err = joinByCode(cmd.Context(), rt, args[0])
			return err
		},
	}
}

// joinByCode verifies code for the connected wallet and runs the quiz view.
// Recoverable failures are printed and reported as not joined.
func joinByCode(ctx context.Context, rt *runtime, code string) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		renderError(rt.out, "Please enter a quiz code.")
		return false, nil
	}

	address, err := rt.requireWallet(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrWalletNotConnected) || errors.Is(err, domain.ErrProviderNotFound) {
			renderError(rt.out, err.Error())
			return false, nil
		}
		return false, err
	}

	if _, err := rt.backend.Verify(ctx, code, address); err != nil {
		rt.logger.Error("verifying quiz code", "quiz", code, "err", err)
		renderError(rt.out, domain.ServerMessage(err, "An error occurred while joining the quiz."))
		return false, nil
	}

	fmt.Fprintln(rt.out, "Redirecting ...")
	return true, runTake(ctx, rt, code)
}
