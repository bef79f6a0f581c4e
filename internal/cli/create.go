package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vibequiz/internal/app"
	"vibequiz/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type createOptions struct {
	name         string
	participants string
	questions    string
	reward       string
	pdfPath      string
	qrPath       string
}

// NewCreateCmd creates a quiz from a PDF and opens its share view.
func NewCreateCmd(configPath *string) *cobra.Command {
	opts := &createOptions{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate a quiz from a PDF and escrow its reward pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			renderHeader(rt.out, rt.wallet.State())
			return runCreate(cmd.Context(), rt, opts)
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "creator name")
	cmd.Flags().StringVar(&opts.participants, "participants", "", "number of participants")
	cmd.Flags().StringVar(&opts.questions, "questions", "", "number of questions (max 30)")
	cmd.Flags().StringVar(&opts.reward, "reward", "", "reward per score in ETH")
	cmd.Flags().StringVar(&opts.pdfPath, "pdf", "", "path to the source PDF")
	cmd.Flags().StringVar(&opts.qrPath, "qr-png", "", "also save the join QR code as a PNG file")
	return cmd
}

func runCreate(ctx context.Context, rt *runtime, opts *createOptions) error {
	address := rt.wallet.Address()
	if address == "" {
		renderError(rt.out, "Please connect the wallet")
		return nil
	}

	form := domain.CreationForm{
		CreatorName:     opts.name,
		NumParticipants: opts.participants,
		QuestionCount:   opts.questions,
		RewardPerScore:  opts.reward,
	}
	if opts.pdfPath != "" {
		data, err := os.ReadFile(opts.pdfPath)
		if err != nil {
			return fmt.Errorf("read pdf: %w", err)
		}
		form.PDF = data
		form.PDFName = filepath.Base(opts.pdfPath)
	}

	creator := app.NewCreator(rt.backend, rt.contract, rt.index, rt.ledger, rt.logger)
	fmt.Fprintln(rt.out, "Creating quiz ...")
	created, err := creator.Create(ctx, address, form)
	if err != nil {
		var verr *domain.ValidationError
		var orphan *app.OrphanError
		switch {
		case errors.As(err, &verr):
			renderError(rt.out, verr.Message)
			return nil
		case errors.As(err, &orphan):
			renderError(rt.out, fmt.Sprintf("Quiz %s was created but the reward transaction failed.", orphan.QuizID))
			return err
		default:
			renderError(rt.out, domain.ServerMessage(err, "Failed to create quiz"))
			return err
		}
	}

	fmt.Fprintln(rt.out, okColor.Sprintf("Quiz created! Reward pool: %s ETH", decimal.NewFromBigInt(created.TotalCost, -18).String()))
	fmt.Fprintf(rt.out, "Transaction: %s\n", created.TxHash.Hex())

	share := app.NewShare(created.QuizID, address, rt.backend, rt.contract, rt.index, rt.logger)
	return runShare(ctx, rt, share, opts.qrPath)
}

// runShare shows the join link and QR code, polls participants and accepts
// start/stop/close commands until the quiz is closed.
func runShare(ctx context.Context, rt *runtime, share *app.Share, qrPath string) error {
	link := share.Link(rt.cfg.Client.URL)
	fmt.Fprintln(rt.out)
	fmt.Fprintf(rt.out, "Join link: %s\n", accentColor.Sprint(link))
	if err := renderQR(rt, link, qrPath); err != nil {
		rt.logger.Error("rendering qr code", "err", err)
	}
	fmt.Fprintln(rt.out, "Commands: start, stop, close")

	viewCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	watcher := app.NewLeaderboardWatcher(rt.backend, share.QuizID(), time.Second, rt.logger)
	boards, unsubscribe := watcher.Subscribe()
	defer unsubscribe()

	g, gctx := errgroup.WithContext(viewCtx)
	g.Go(func() error {
		return watcher.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return shareLoop(gctx, rt, share, boards)
	})
	return g.Wait()
}

func renderQR(rt *runtime, link, path string) error {
	qr, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return err
	}
	fmt.Fprint(rt.out, qr.ToSmallString(false))
	if path == "" {
		return nil
	}
	if err := qr.WriteFile(256, path); err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "QR code saved to %s\n", path)
	return nil
}

func shareLoop(ctx context.Context, rt *runtime, share *app.Share, boards <-chan domain.Leaderboard) error {
	input := rt.lines(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case board, ok := <-boards:
			if !ok {
				return nil
			}
			fmt.Fprintln(rt.out, brandColor.Sprint("Participants"))
			renderParticipants(rt.out, board)
		case line, ok := <-input:
			if !ok {
				return nil
			}
			if done := handleShareCommand(ctx, rt, share, strings.ToLower(line)); done {
				return nil
			}
		}
	}
}

// handleShareCommand applies one control; it reports true when the view closes.
func handleShareCommand(ctx context.Context, rt *runtime, share *app.Share, cmd string) bool {
	switch cmd {
	case "":
	case "start":
		if err := share.Start(ctx); err != nil {
			if errors.Is(err, app.ErrStartUnavailable) {
				renderError(rt.out, err.Error())
			} else {
				renderError(rt.out, domain.ServerMessage(err, "Failed to start the quiz"))
			}
			return false
		}
		fmt.Fprintln(rt.out, okColor.Sprint("Quiz started. Participants can join now."))
	case "stop":
		fmt.Fprintln(rt.out, "Ending quiz ...")
		if err := share.Stop(ctx); err != nil {
			if errors.Is(err, app.ErrStopUnavailable) {
				renderError(rt.out, err.Error())
			} else {
				renderError(rt.out, app.EndQuizMessage(err))
			}
			return false
		}
		fmt.Fprintln(rt.out, okColor.Sprint("Quiz ended and rewards distributed."))
		return true
	case "close":
		if !share.Controls().CanClose() {
			renderError(rt.out, "Stop the quiz before closing.")
			return false
		}
		return true
	default:
		renderError(rt.out, fmt.Sprintf("Unknown command %q", cmd))
	}
	return false
}
