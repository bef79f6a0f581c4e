package cli

import (
	"fmt"
	"strings"

	"vibequiz/internal/wallet"

	"github.com/spf13/cobra"
)

// NewHomeCmd shows the landing view; it is also the root command's default.
func NewHomeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Landing view with join-by-code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHome(cmd, *configPath)
		},
	}
}

func runHome(cmd *cobra.Command, configPath string) error {
	rt, err := newRuntime(cmd, configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	renderHeader(rt.out, rt.wallet.State())
	fmt.Fprintln(rt.out, "Turn your notes into a quiz and reward the best players on chain.")
	fmt.Fprintln(rt.out)
	fmt.Fprintln(rt.out, "  create         run `vibequiz create --pdf notes.pdf ...`")
	fmt.Fprintln(rt.out, "  <code>         join a quiz by its code")
	fmt.Fprintln(rt.out, "  connect        connect your wallet")
	fmt.Fprintln(rt.out, "  switch         switch to "+accentColor.Sprint(wallet.TargetNetwork))
	fmt.Fprintln(rt.out, "  quit")
	renderFooter(rt.out)

	input := rt.lines(ctx)
	for {
		fmt.Fprint(rt.out, "> ")
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-input:
			if !ok {
				return nil
			}
			line = l
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "create":
			fmt.Fprintln(rt.out, "Run: vibequiz create --name <you> --participants <n> --questions <n> --reward <eth> --pdf <file>")
		case "connect":
			if err := rt.wallet.Connect(ctx); err != nil {
				renderError(rt.out, err.Error())
			}
			renderHeader(rt.out, rt.wallet.State())
		case "switch":
			if err := rt.wallet.SwitchNetwork(ctx); err != nil {
				renderError(rt.out, err.Error())
			}
			renderHeader(rt.out, rt.wallet.State())
		default:
			joined, err := joinByCode(ctx, rt, line)
			if err != nil {
				return err
			}
			if joined {
				return nil
			}
		}
	}
}
