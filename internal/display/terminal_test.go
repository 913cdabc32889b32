package display

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GuilermoT/BlackStory2/internal/core"
	"github.com/GuilermoT/BlackStory2/internal/game"
)

func TestQuestionCounterRendered(t *testing.T) {
	var buf bytes.Buffer
	obs := NewTerminalObserverTo(&buf)

	obs.OnEvent(game.Event{
		Type: game.EventQuestionAsked,
		Payload: map[string]any{
			"message": &core.Message{
				Role:      core.RoleDetective,
				ModelName: "llama3",
				Content:   "Was he alone?",
			},
			"questions_asked": 3,
			"max_questions":   20,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "🔍 Detective")
	assert.Contains(t, out, "❓ 3/20")
	assert.Contains(t, out, "Was he alone?")
}

func TestSolutionHiddenByDefault(t *testing.T) {
	ev := game.Event{
		Type: game.EventStoryReady,
		Payload: map[string]any{
			"message": &core.Message{
				Role:    core.RoleStoryMaster,
				Content: "A man is found dead.",
			},
			"full_solution": "His parachute failed.",
		},
	}

	var buf bytes.Buffer
	obs := NewTerminalObserverTo(&buf)
	obs.OnEvent(ev)
	assert.NotContains(t, buf.String(), "His parachute failed.")

	buf.Reset()
	obs.ShowSolution = true
	obs.OnEvent(ev)
	assert.Contains(t, buf.String(), "His parachute failed.")
}

func TestGameEndedVerdictLine(t *testing.T) {
	var buf bytes.Buffer
	obs := NewTerminalObserverTo(&buf)

	obs.OnEvent(game.Event{
		Type:    game.EventGameEnded,
		Payload: map[string]any{"result": "win", "message": "🎉 ¡CORRECTO!"},
	})
	assert.Contains(t, buf.String(), "The detective wins!")

	buf.Reset()
	obs.OnEvent(game.Event{
		Type:    game.EventGameEnded,
		Payload: map[string]any{"result": "loss", "message": ""},
	})
	assert.Contains(t, buf.String(), "The story master wins.")
}
