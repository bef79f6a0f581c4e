package cli

import (
	"fmt"
	"io"
	"strings"

	"vibequiz/internal/domain"
	"vibequiz/internal/wallet"

	"github.com/fatih/color"
)

const brand = "VibeQuiz"

var (
	brandColor  = color.New(color.FgHiMagenta, color.Bold)
	hintColor   = color.New(color.FgYellow)
	okColor     = color.New(color.FgGreen)
	errColor    = color.New(color.FgRed)
	dimColor    = color.New(color.Faint)
	accentColor = color.New(color.FgCyan)
)

// truncateAddress shortens an address to its first and last six characters.
func truncateAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "..." + address[len(address)-6:]
}

// headerStatus is the wallet part of the header, empty before initialization.
func headerStatus(st wallet.State) string {
	switch {
	case !st.Initialized:
		return ""
	case !st.Connected():
		return hintColor.Sprint("Connect Wallet (vibequiz wallet connect)")
	case !st.OnTarget():
		return hintColor.Sprintf("Switch to %s (vibequiz wallet switch)", wallet.TargetNetwork)
	default:
		return okColor.Sprint(truncateAddress(st.Address))
	}
}

func renderHeader(w io.Writer, st wallet.State) {
	line := brandColor.Sprint(brand)
	if status := headerStatus(st); status != "" {
		line += "  " + status
	}
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, dimColor.Sprint(strings.Repeat("-", 48)))
}

func renderFooter(w io.Writer) {
	fmt.Fprintln(w, dimColor.Sprint(strings.Repeat("-", 48)))
	fmt.Fprintln(w, dimColor.Sprintf("%s · quizzes from your notes, rewards on chain", brand))
}

func renderNotice(w io.Writer, msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintln(w, hintColor.Sprint(msg))
}

func renderError(w io.Writer, msg string) {
	fmt.Fprintln(w, errColor.Sprint(msg))
}

// renderParticipants prints one "name  score" row per participant, N/A until scored.
func renderParticipants(w io.Writer, board domain.Leaderboard) {
	if len(board.Participants) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("No participants yet"))
		return
	}
	width := 0
	for _, p := range board.Participants {
		if len(p.ParticipantName) > width {
			width = len(p.ParticipantName)
		}
	}
	for _, p := range board.Participants {
		score := "N/A"
		if p.Score != nil {
			score = fmt.Sprint(*p.Score)
		}
		fmt.Fprintf(w, "%-*s  %s\n", width, p.ParticipantName, score)
	}
}
