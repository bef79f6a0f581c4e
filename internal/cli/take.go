package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vibequiz/internal/app"
	"vibequiz/internal/domain"

	"github.com/spf13/cobra"
)

// NewTakeCmd runs the quiz-taking view for a quiz id.
func NewTakeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "take <id>",
		Short: "Take a quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			renderHeader(rt.out, rt.wallet.State())
			return runTake(cmd.Context(), rt, args[0])
		},
	}
}

type takeView struct {
	rt     *runtime
	taker  *app.Taker
	s      *app.TakeSession
	wallet string
	shown  int
	ticker *time.Ticker
}

func runTake(ctx context.Context, rt *runtime, quizID string) error {
	address, err := rt.requireWallet(ctx)
	if err != nil {
		return err
	}

	v := &takeView{
		rt:     rt,
		taker:  app.NewTaker(rt.backend, rt.index, rt.contract, rt.logger),
		s:      app.NewTakeSession(quizID),
		wallet: address,
		shown:  -1,
	}
	if err := v.load(ctx); err != nil {
		return err
	}

	defer v.stopTimer()
	input := rt.lines(ctx)

	for {
		if v.s.Phase() == app.PhaseSubmitting {
			v.submit(ctx)
		}
		if v.s.Phase() == app.PhaseDone {
			return v.results(ctx)
		}

		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-input:
			if !ok {
				return nil
			}
			if quit := v.handle(ctx, line); quit {
				return nil
			}
		case <-v.ticks():
			v.tick()
		}
	}
}

func (v *takeView) load(ctx context.Context) error {
	v.shown = -1
	err := v.taker.Load(ctx, v.s, v.wallet)
	if err != nil && v.s.Phase() == app.PhaseLoading {
		return err
	}
	if err != nil {
		v.rt.logger.Error("loading quiz", "quiz", v.s.QuizID(), "err", err)
	}
	v.render()
	return nil
}

func (v *takeView) render() {
	out := v.rt.out
	switch v.s.Phase() {
	case app.PhaseNotStarted:
		if msg := v.s.Message(); msg != "" {
			renderError(out, msg)
		} else {
			renderNotice(out, "The quiz has not started yet.")
		}
		fmt.Fprintln(out, "Type 'refresh' to check again or 'quit' to leave.")
	case app.PhaseEnded:
		renderNotice(out, "This quiz has ended.")
		fmt.Fprintln(out, "Type 'refresh' to check again or 'quit' to leave.")
	case app.PhaseAwaitingName:
		fmt.Fprintln(out, "Enter your name to join:")
	case app.PhaseInProgress:
		v.renderQuestion()
	}
}

func (v *takeView) renderQuestion() {
	question, idx, ok := v.s.Current()
	if !ok {
		return
	}
	v.shown = idx
	out := v.rt.out
	total := len(v.s.Quiz().Questions)
	fmt.Fprintln(out)
	fmt.Fprintln(out, accentColor.Sprintf("Question %d/%d  (%ds)", idx+1, total, v.s.Remaining()))
	fmt.Fprintln(out, question.Text)
	selected, _ := v.s.Answer(question.ID)
	for _, label := range question.Labels() {
		marker := " "
		if label == selected {
			marker = "*"
		}
		fmt.Fprintf(out, " %s %s) %s\n", marker, label, question.Options[label])
	}
	action := "next"
	if idx == total-1 {
		action = "submit"
	}
	fmt.Fprintf(out, "Type an option label, then '%s'.\n", action)
}

// handle applies one input line; it reports true when the user quits.
func (v *takeView) handle(ctx context.Context, line string) bool {
	cmd := strings.ToLower(line)
	if cmd == "quit" || cmd == "exit" {
		return true
	}

	switch v.s.Phase() {
	case app.PhaseNotStarted, app.PhaseEnded:
		if cmd != "refresh" {
			return false
		}
		if err := v.s.Refresh(); err == nil {
			if err := v.load(ctx); err != nil {
				renderError(v.rt.out, err.Error())
			}
		}
	case app.PhaseAwaitingName:
		if _, err := v.taker.Join(ctx, v.s, v.wallet, line); err != nil {
			if !errors.Is(err, domain.ErrNameRequired) {
				v.rt.logger.Error("joining quiz", "quiz", v.s.QuizID(), "err", err)
			}
			renderError(v.rt.out, app.JoinMessage(err))
			return false
		}
		v.startTimer()
		v.render()
	case app.PhaseInProgress:
		switch cmd {
		case "":
		case "next", "n", "submit":
			if _, err := v.s.Next(); err != nil {
				renderError(v.rt.out, "Please select an answer first.")
				return false
			}
			if v.s.Phase() == app.PhaseInProgress {
				v.renderQuestion()
			}
		default:
			if err := v.s.Select(strings.ToUpper(line)); err != nil {
				renderError(v.rt.out, fmt.Sprintf("Unknown option %q", line))
				return false
			}
			fmt.Fprintf(v.rt.out, "Selected %s\n", strings.ToUpper(line))
		}
	}
	return false
}

// startTimer begins the countdown; the first tick lands a full second after the join.
func (v *takeView) startTimer() {
	if v.ticker == nil {
		v.ticker = time.NewTicker(time.Second)
		return
	}
	v.ticker.Reset(time.Second)
}

func (v *takeView) stopTimer() {
	if v.ticker != nil {
		v.ticker.Stop()
	}
}

// ticks is nil until the participant has joined, so select never fires on it.
func (v *takeView) ticks() <-chan time.Time {
	if v.ticker == nil {
		return nil
	}
	return v.ticker.C
}

func (v *takeView) tick() {
	if v.s.Tick() {
		return
	}
	if v.s.Phase() != app.PhaseInProgress || v.s.Paused() {
		return
	}
	if _, idx, _ := v.s.Current(); idx != v.shown {
		renderNotice(v.rt.out, "Time's up!")
		v.renderQuestion()
		return
	}
	if remaining := v.s.Remaining(); remaining == 10 || remaining == 5 {
		renderNotice(v.rt.out, fmt.Sprintf("%ds left", remaining))
	}
}

func (v *takeView) submit(ctx context.Context) {
	fmt.Fprintln(v.rt.out, "Submitting answers ...")
	_, err := v.taker.Submit(ctx, v.s, v.wallet)
	switch {
	case errors.Is(err, domain.ErrNonPositiveScore):
		renderNotice(v.rt.out, v.s.Message())
	case err != nil:
		v.rt.logger.Error("submitting quiz", "quiz", v.s.QuizID(), "err", err)
		renderError(v.rt.out, v.s.Message())
		fmt.Fprintln(v.rt.out, "The timer is paused. Type 'submit' to try again.")
	default:
		fmt.Fprintln(v.rt.out, okColor.Sprint(v.s.Message()))
	}
}

func (v *takeView) results(ctx context.Context) error {
	fmt.Fprintf(v.rt.out, "\nYour score: %d\n\n", v.s.Score())
	board, err := v.rt.backend.Leaderboard(ctx, v.s.QuizID())
	if err != nil {
		v.rt.logger.Error("fetching leaderboard", "quiz", v.s.QuizID(), "err", err)
		return nil
	}
	fmt.Fprintln(v.rt.out, brandColor.Sprint("Leaderboard"))
	renderParticipants(v.rt.out, board)
	return nil
}
