// Package display renders game events to the terminal.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GuilermoT/BlackStory2/internal/core"
	"github.com/GuilermoT/BlackStory2/internal/game"
)

// TerminalObserver renders game events to a writer. It is the default
// presentation layer for headless play.
type TerminalObserver struct {
	out io.Writer
	// ShowSolution prints the secret solution when the story is ready,
	// spectator/debug style. Never shown to the detective model itself.
	ShowSolution bool
}

// NewTerminalObserver creates an observer writing to stdout.
func NewTerminalObserver() *TerminalObserver {
	return &TerminalObserver{out: os.Stdout}
}

// NewTerminalObserverTo creates an observer writing to w.
func NewTerminalObserverTo(w io.Writer) *TerminalObserver {
	return &TerminalObserver{out: w}
}

// OnEvent renders one event.
func (t *TerminalObserver) OnEvent(ev game.Event) {
	switch ev.Type {
	case game.EventGameStarted:
		fmt.Fprintln(t.out, "🎮 Game started")

	case game.EventStoryReady:
		t.printMessage(ev, "")
		if t.ShowSolution {
			if solution, ok := ev.Payload["full_solution"].(string); ok {
				fmt.Fprintf(t.out, "🔐 Secret solution (spectator only):\n%s\n%s\n", solution, divider())
			}
		}

	case game.EventQuestionAsked:
		counter := ""
		if asked, ok := ev.Payload["questions_asked"].(int); ok {
			if max, ok := ev.Payload["max_questions"].(int); ok {
				counter = fmt.Sprintf(" | ❓ %d/%d", asked, max)
			}
		}
		t.printMessage(ev, counter)

	case game.EventAnswerGiven:
		t.printMessage(ev, "")

	case game.EventStateChanged:
		fmt.Fprintf(t.out, "⚙️  State: %v\n", ev.Payload["state"])

	case game.EventGameEnded:
		if msg, ok := ev.Payload["message"].(string); ok && msg != "" {
			fmt.Fprintf(t.out, "\n%s\n", msg)
		}
		result := "🏁 Game over"
		switch ev.Payload["result"] {
		case string(core.OutcomeWin):
			result = "🏁 The detective wins!"
		case string(core.OutcomeLoss):
			result = "🏁 The story master wins."
		}
		fmt.Fprintf(t.out, "%s\n", result)

	case game.EventError:
		fmt.Fprintf(t.out, "❌ Error: %v\n", ev.Payload["message"])

	case game.EventIntervention:
		fmt.Fprintf(t.out, "🧑‍⚖️ Moderator: %v\n", ev.Payload["action"])

	case game.EventLogLine:
		fmt.Fprintf(t.out, "> %v\n", ev.Payload["message"])
	}
}

func (t *TerminalObserver) printMessage(ev game.Event, extra string) {
	msg, ok := ev.Payload["message"].(*core.Message)
	if !ok {
		return
	}

	emoji := "🎭"
	switch msg.Role {
	case core.RoleDetective:
		emoji = "🔍"
	case core.RoleModerator:
		emoji = "🧑‍⚖️"
	}

	fmt.Fprintf(t.out, "\n%s %s (%s) | ⚡ %.2fs%s\n%s\n%s\n",
		emoji, msg.Role, msg.ModelName, msg.ResponseTime.Seconds(), extra,
		divider(), msg.Content)
}

func divider() string {
	return strings.Repeat("─", 60)
}
