package cli

import (
	"fmt"
	"time"

	"vibequiz/internal/app"

	"github.com/spf13/cobra"
)

// NewLeaderboardCmd prints a quiz leaderboard, optionally following changes.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "leaderboard <id>",
		Short: "Show the participants and scores of a quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			quizID := args[0]
			fmt.Fprintln(rt.out, brandColor.Sprintf("Leaderboard %s", quizID))

			if !watch {
				board, err := rt.backend.Leaderboard(ctx, quizID)
				if err != nil {
					return err
				}
				renderParticipants(rt.out, board)
				return nil
			}

			watcher := app.NewLeaderboardWatcher(rt.backend, quizID, time.Second, rt.logger)
			boards, unsubscribe := watcher.Subscribe()
			defer unsubscribe()
			go func() { _ = watcher.Run(ctx) }()

			for {
				select {
				case <-ctx.Done():
					return nil
				case board := <-boards:
					fmt.Fprintln(rt.out, dimColor.Sprint(board.FetchedAt.Format("15:04:05")))
					renderParticipants(rt.out, board)
				}
			}
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "poll every second and print changes")
	return cmd
}
