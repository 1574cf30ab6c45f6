package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"quiz-player/internal/app"
	"quiz-player/internal/config"
	"quiz-player/internal/domain"
)

// NewPlayCmd plays quizzes in the terminal with the same controller as the server.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play quizzes in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), *configPath, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runPlay(ctx context.Context, configPath string, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := setupLogger(cfg)
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, d, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runner := service.NewRunner()
	term := &terminal{out: out}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range runner.Events() {
			term.render(ev)
		}
	}()
	go runner.Run(ctx)

	if err := runner.Send(ctx, app.Action{Type: app.ActionInit}); err != nil {
		return err
	}
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "/quit" {
			break
		}
		action, ok := term.parse(line)
		if !ok {
			term.printf("unknown command %q\n", line)
			continue
		}
		if err := runner.Send(ctx, action); err != nil {
			break
		}
	}
	cancel()
	<-done
	return scanner.Err()
}

// terminal renders controller events as text and turns input lines into actions.
type terminal struct {
	mu       sync.Mutex
	out      io.Writer
	screen   app.Screen
	kind     domain.QuestionKind
	quizzes  []domain.QuizDescriptor
	settings app.Settings
}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func (t *terminal) parse(line string) (app.Action, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if strings.HasPrefix(line, "/") {
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		switch cmd {
		case "/home":
			return app.Action{Type: app.ActionHome}, true
		case "/history":
			return app.Action{Type: app.ActionShowHistory}, true
		case "/trophies":
			return app.Action{Type: app.ActionShowTrophies}, true
		case "/buy":
			return app.Action{Type: app.ActionBuyCode}, true
		case "/code":
			return app.Action{Type: app.ActionUseCode, Code: arg}, true
		case "/filter":
			return app.Action{Type: app.ActionFilter, Category: arg}, true
		case "/restart":
			return app.Action{Type: app.ActionRestart}, true
		case "/reset":
			return app.Action{Type: app.ActionResetPlayer}, true
		case "/next":
			return app.Action{Type: app.ActionContinue}, true
		case "/time":
			n, err := strconv.Atoi(arg)
			if err != nil {
				return app.Action{}, false
			}
			s := t.settings
			s.TimeLimit = n
			return app.Action{Type: app.ActionSettings, Settings: &s}, true
		case "/free", "/spoiler", "/show":
			s := t.settings
			switch cmd {
			case "/free":
				s.FreeMode = !s.FreeMode
			case "/spoiler":
				s.SpoilerMode = !s.SpoilerMode
			default:
				s.ShowResponse = !s.ShowResponse
			}
			return app.Action{Type: app.ActionSettings, Settings: &s}, true
		}
		return app.Action{}, false
	}

	switch t.screen {
	case app.ScreenName:
		return app.Action{Type: app.ActionSetName, Name: line}, true
	case app.ScreenSelection:
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(t.quizzes) {
			return app.Action{}, false
		}
		return app.Action{Type: app.ActionStartQuiz, QuizID: t.quizzes[n-1].ID}, true
	case app.ScreenQuiz:
		if line == "" {
			// Enter only acknowledges informational questions.
			if t.kind != domain.KindInformational {
				return app.Action{}, false
			}
			return app.Action{Type: app.ActionAnswer}, true
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			return app.Action{}, false
		}
		return app.Action{Type: app.ActionAnswer, Option: n - 1}, true
	}
	return app.Action{}, false
}

func (t *terminal) render(ev app.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w := t.out

	switch p := ev.Payload.(type) {
	case app.ScreenView:
		t.screen = p.Screen
		switch p.Screen {
		case app.ScreenName:
			fmt.Fprintln(w, "Enter your name:")
		case app.ScreenResults, app.ScreenHistory, app.ScreenTrophies:
			fmt.Fprintf(w, "\n== %s ==\n", p.Screen)
		}
	case app.SelectionView:
		t.quizzes = p.Quizzes
		t.settings = p.Settings
		fmt.Fprintf(w, "\nQuizzes (%s) - %d points - %ds per question\n", p.Category, p.Points, p.Settings.TimeLimit)
		for i, q := range p.Quizzes {
			fmt.Fprintf(w, "  %d. %s [%s, %s]\n", i+1, q.Title, q.Category, q.Difficulty)
		}
		fmt.Fprintln(w, "Pick a number, or /filter <category>, /time <s>, /free, /spoiler, /show, /history, /trophies, /quit")
	case app.Settings:
		t.settings = p
		fmt.Fprintf(w, "settings: %ds, free=%t spoiler=%t show=%t\n", p.TimeLimit, p.FreeMode, p.SpoilerMode, p.ShowResponse)
	case app.QuestionView:
		t.kind = p.Kind
		fmt.Fprintf(w, "\n[%d/%d] %s (score %d, %ds)\n", p.Index+1, p.Total, p.Prompt, p.Score, p.TimeLimit)
		if p.ImageURL != "" && !p.ImageObscured {
			fmt.Fprintf(w, "  image: %s\n", p.ImageURL)
		}
		for i, o := range p.Options {
			fmt.Fprintf(w, "  %d) %s\n", i+1, o)
		}
		if p.Kind == domain.KindInformational {
			fmt.Fprintln(w, "  (press enter to continue)")
		}
	case app.TickView:
		if p.Remaining > 0 && p.Remaining <= 3 {
			fmt.Fprintf(w, "  %d...\n", p.Remaining)
		}
	case app.Feedback:
		fmt.Fprintf(w, "  -> %s", p.Outcome)
		if p.Reveal != "" {
			fmt.Fprintf(w, " (answer: %s)", p.Reveal)
		}
		fmt.Fprintln(w)
		if p.Explanation != "" {
			fmt.Fprintf(w, "  %s\n", p.Explanation)
		}
	case app.ResultsView:
		fmt.Fprintf(w, "%s: %d/%d (%d%%) in %.0fs, +%d points (total %d)\n",
			p.QuizTitle, p.Score, p.Scorable, p.Percentage, p.TimeSpent, p.Award.PointsEarned, p.Award.TotalPoints)
		for _, b := range p.Breakdown {
			mark := "-"
			if b.Scorable && b.Correct {
				mark = "+"
			}
			fmt.Fprintf(w, "  %s %s: %s (answer: %s)\n", mark, b.Question, b.UserAnswer, b.CorrectAnswer)
		}
		fmt.Fprintln(w, "/restart, /home, /history, /trophies")
	case app.HistoryView:
		fmt.Fprintf(w, "%d quizzes, average %d%%, best %d%%, worst %d%%\n",
			p.Stats.TotalQuizzes, p.Stats.AverageScore, p.Stats.BestScore, p.Stats.WorstScore)
		for i := len(p.Results) - 1; i >= 0; i-- {
			r := p.Results[i]
			fmt.Fprintf(w, "  %s  %s  %d%%\n", r.Date.Format("2006-01-02 15:04"), r.QuizTitle, r.Percentage)
		}
	case app.TrophiesView:
		fmt.Fprintf(w, "%d points\n", p.TotalPoints)
		for _, tr := range p.Trophies {
			state := "locked"
			if tr.Unlocked {
				state = "unlocked"
			}
			fmt.Fprintf(w, "  %s %s (%s)\n", tr.Icon, tr.Name, state)
		}
		if len(p.PendingCodes) > 0 {
			fmt.Fprintf(w, "unused codes: %s\n", strings.Join(p.PendingCodes, ", "))
		}
		fmt.Fprintln(w, "/buy, /code <code>, /home")
	case app.CodeView:
		fmt.Fprintf(w, "your code for %s: %s\n", p.Trophy, p.Code)
	case app.NoticeView:
		fmt.Fprintln(w, p.Message)
	case app.ErrorView:
		fmt.Fprintf(w, "error: %s\n", p.Message)
	}
}
