package cli

import (
	"fmt"

	"vibequiz/internal/wallet"

	"github.com/spf13/cobra"
)

// NewWalletCmd groups the wallet connection commands.
func NewWalletCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Inspect and manage the wallet connection",
	}
	cmd.AddCommand(
		walletSubcommand(configPath, "status", "Show the connected address and network", nil),
		walletSubcommand(configPath, "connect", "Request account access from the wallet", func(cmd *cobra.Command, rt *runtime) error {
			return rt.wallet.Connect(cmd.Context())
		}),
		walletSubcommand(configPath, "switch", "Switch the wallet to "+wallet.TargetNetwork, func(cmd *cobra.Command, rt *runtime) error {
			return rt.wallet.SwitchNetwork(cmd.Context())
		}),
		newWalletWatchCmd(configPath),
	)
	return cmd
}

func walletSubcommand(configPath *string, use, short string, action func(*cobra.Command, *runtime) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			if action != nil {
				if err := action(cmd, rt); err != nil {
					return err
				}
			}
			printWalletState(rt, rt.wallet.State())
			return nil
		},
	}
}

func newWalletWatchCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print wallet account and network changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			states := make(chan wallet.State, 8)
			unwatch := rt.wallet.Watch(func(st wallet.State) {
				select {
				case states <- st:
				default:
				}
			})
			defer unwatch()

			printWalletState(rt, rt.wallet.State())
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case st := <-states:
					printWalletState(rt, st)
				}
			}
		},
	}
}

func printWalletState(rt *runtime, st wallet.State) {
	renderHeader(rt.out, st)
	address := st.Address
	if address == "" {
		address = "not connected"
	}
	fmt.Fprintf(rt.out, "address: %s\nnetwork: %s\n", address, st.Network)
}
