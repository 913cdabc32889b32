package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuilermoT/BlackStory2/internal/core"
	"github.com/GuilermoT/BlackStory2/internal/export"
	"github.com/GuilermoT/BlackStory2/internal/provider"
)

const storyReply = "SITUATION: A man is found dead in a field next to an unopened package.\n\nSOLUTION: His parachute, the package, failed to open."

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		NoPause:   true,
		OutputDir: t.TempDir(),
		Format:    export.FormatJSON,
	}
}

// recorder collects events in publish order.
type recorder struct {
	events []Event
}

func (r *recorder) OnEvent(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) types() []EventType {
	out := make([]EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func (r *recorder) byType(t EventType) []Event {
	var out []Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func TestPlayBudgetExhaustedIsLoss(t *testing.T) {
	storyMaster := provider.NewScriptedMock("sm",
		storyReply,
		"YES\nSCORE: 2/10",
		"NO\nSCORE: 4/10",
		"IRRELEVANT\nSCORE: 1/10",
		"The solution was the parachute all along.",
	)
	detective := provider.NewScriptedMock("det",
		"Was he alone?",
		"Did he fall from a height?",
		"Was the package dangerous?",
	)

	opts := testOptions(t)
	opts.MaxQuestions = 3
	orch := New(storyMaster, detective, opts)
	orch.Play(context.Background())

	conv := orch.Conversation()
	assert.Equal(t, core.OutcomeLoss, conv.Result)
	assert.Equal(t, 3, conv.QuestionsUsed)
	assert.Equal(t, StateResolved, orch.State())

	// Story, three question/answer pairs, closing reveal.
	require.Len(t, conv.Messages, 8)
	assert.Equal(t, core.RoleStoryMaster, conv.Messages[0].Role)
	assert.Equal(t, core.RoleDetective, conv.Messages[1].Role)
	assert.Equal(t, core.RoleStoryMaster, conv.Messages[2].Role)
	assert.Equal(t, "YES", conv.Messages[2].Content)
	assert.Equal(t, core.RoleStoryMaster, conv.Messages[7].Role)
}

func TestPlayResolveDirectiveWins(t *testing.T) {
	storyMaster := provider.NewScriptedMock("sm",
		storyReply,
		"YES\nSCORE: 6/10",
		"🎉 ¡CORRECTO! He was a skydiver whose parachute failed.",
	)
	detective := provider.NewScriptedMock("det",
		"Did he fall from the sky?",
		"RESOLVER: He jumped from a plane and his parachute did not open.",
	)

	opts := testOptions(t)
	opts.MaxQuestions = 20
	orch := New(storyMaster, detective, opts)
	orch.Play(context.Background())

	conv := orch.Conversation()
	assert.Equal(t, core.OutcomeWin, conv.Result)
	assert.Equal(t, 2, conv.QuestionsUsed)

	// Story, Q1, A1, resolve attempt, verdict. No answer turn follows the
	// resolve directive.
	require.Len(t, conv.Messages, 5)
	assert.Contains(t, conv.Messages[3].Content, "RESOLVER:")
	assert.Contains(t, conv.Messages[4].Content, "🎉 ¡CORRECTO!")
}

func TestPlayWrongResolveIsLoss(t *testing.T) {
	storyMaster := provider.NewScriptedMock("sm",
		storyReply,
		"❌ INCORRECTO. The package was his parachute.",
	)
	detective := provider.NewScriptedMock("det",
		"RESOLVER: He was poisoned by the package.",
	)

	opts := testOptions(t)
	opts.MaxQuestions = 20
	orch := New(storyMaster, detective, opts)
	orch.Play(context.Background())

	assert.Equal(t, core.OutcomeLoss, orch.Conversation().Result)
	assert.Equal(t, StateResolved, orch.State())
}

func TestPlayForceEndBeforeQuestions(t *testing.T) {
	storyMaster := provider.NewScriptedMock("sm",
		storyReply,
		"The solution is revealed.",
	)
	detective := provider.NewScriptedMock("det", "Was he alone?")

	orch := New(storyMaster, detective, testOptions(t))
	orch.ForceEnd()
	orch.Play(context.Background())

	conv := orch.Conversation()
	assert.Equal(t, core.OutcomeLoss, conv.Result)
	assert.Equal(t, 0, conv.QuestionsUsed)
	// Story and reveal only; the detective never spoke.
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, 0, detective.Calls())
}

func TestPlayDegradedStoryContinues(t *testing.T) {
	storyMaster := provider.NewScriptedMock("sm",
		"A man walks into a field and something strange happens.",
		"YES\nSCORE: 1/10",
		"The game is over.",
	)
	detective := provider.NewScriptedMock("det", "Was it strange?")

	rec := &recorder{}
	opts := testOptions(t)
	opts.MaxQuestions = 1
	orch := New(storyMaster, detective, opts)
	orch.Subscribe(rec)
	orch.Play(context.Background())

	conv := orch.Conversation()
	assert.Equal(t, SolutionPlaceholder, conv.FullSolution)
	assert.Equal(t, StateResolved, orch.State())
	assert.NotEmpty(t, rec.byType(EventLogLine))
}

func TestPlayQuestionCounterNeverExceedsBudget(t *testing.T) {
	storyMaster := provider.NewScriptedMock("sm",
		storyReply,
		"NO\nSCORE: 1/10",
		"Reveal.",
	)
	detective := provider.NewScriptedMock("det", "Another question?")

	opts := testOptions(t)
	opts.MaxQuestions = 2
	orch := New(storyMaster, detective, opts)
	orch.Play(context.Background())

	assert.Equal(t, 2, orch.Conversation().QuestionsUsed)
	assert.Equal(t, 2, detective.Calls())
}

func TestPlayBlockedStateAtThreshold(t *testing.T) {
	storyMaster := provider.NewScriptedMock("sm",
		storyReply,
		"🎉 ¡CORRECTO! Exactly.",
	)
	detective := provider.NewScriptedMock("det",
		"RESOLVER: His parachute failed.",
	)

	rec := &recorder{}
	opts := testOptions(t)
	opts.MaxQuestions = 3
	opts.ForceSolveThreshold = 5
	orch := New(storyMaster, detective, opts)
	orch.Subscribe(rec)
	orch.Play(context.Background())

	states := rec.byType(EventStateChanged)
	require.Len(t, states, 2)
	assert.Equal(t, string(StateBlocked), states[0].Payload["state"])
	assert.Equal(t, string(StateResolved), states[1].Payload["state"])
}

func TestPlayEventOrderAndPayloads(t *testing.T) {
	storyMaster := provider.NewScriptedMock("sm",
		storyReply,
		"🎉 ¡CORRECTO! Well done.",
	)
	detective := provider.NewScriptedMock("det",
		"RESOLVER: His parachute did not open.",
	)

	rec := &recorder{}
	opts := testOptions(t)
	opts.MaxQuestions = 20
	orch := New(storyMaster, detective, opts)
	orch.Subscribe(rec)
	orch.Play(context.Background())

	assert.Equal(t, []EventType{
		EventGameStarted,
		EventStoryReady,
		EventQuestionAsked,
		EventStateChanged,
		EventGameEnded,
	}, rec.types())

	ready := rec.byType(EventStoryReady)[0]
	assert.Equal(t, "His parachute, the package, failed to open.", ready.Payload["full_solution"])
	msg, ok := ready.Payload["message"].(*core.Message)
	require.True(t, ok)
	assert.Equal(t, core.RoleStoryMaster, msg.Role)

	asked := rec.byType(EventQuestionAsked)[0]
	assert.Equal(t, 1, asked.Payload["questions_asked"])
	assert.Equal(t, 20, asked.Payload["max_questions"])

	ended := rec.byType(EventGameEnded)[0]
	assert.Equal(t, "win", ended.Payload["result"])
}

// failingProvider errors on every call, like a backend that is down.
type failingProvider struct {
	calls int
}

func (f *failingProvider) Name() string      { return "mock" }
func (f *failingProvider) ModelName() string { return "broken" }

func (f *failingProvider) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return "", errors.New("backend unavailable")
}

func TestPlayBackendFailureUsesSentinel(t *testing.T) {
	storyMaster := provider.NewScriptedMock("sm",
		storyReply,
		"NO\nSCORE: 1/10",
		"Reveal.",
	)
	detective := &failingProvider{}

	opts := testOptions(t)
	opts.MaxQuestions = 1
	orch := New(storyMaster, detective, opts)
	orch.Play(context.Background())

	conv := orch.Conversation()
	// The failed detective call became the sentinel turn; the loop carried
	// on through a full question/answer pair and resolved to a loss.
	assert.Equal(t, StateResolved, orch.State())
	assert.Equal(t, core.OutcomeLoss, conv.Result)
	assert.Equal(t, 1, detective.calls)

	require.Len(t, conv.Messages, 4)
	question := conv.Messages[1]
	assert.Equal(t, core.RoleDetective, question.Role)
	assert.Equal(t, ErrorSentinel, question.Content)
	assert.Equal(t, "NO", conv.Messages[2].Content)
}

func TestPlayCancelledContextStopsCleanly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	storyMaster := provider.NewScriptedMock("sm", storyReply)
	detective := provider.NewScriptedMock("det", "Was he alone?")

	orch := New(storyMaster, detective, testOptions(t))
	orch.Play(ctx)

	// The loop exits at its boundary without asking questions and the game
	// still closes as a resolved loss.
	assert.Equal(t, StateResolved, orch.State())
	assert.Equal(t, core.OutcomeLoss, orch.Conversation().Result)
	assert.Equal(t, 0, orch.Conversation().QuestionsUsed)
}

func TestModerateHintAndWarn(t *testing.T) {
	storyMaster := provider.NewScriptedMock("sm",
		storyReply,
		"YES\nSCORE: 5/10",
		"Reveal.",
	)
	detective := provider.NewScriptedMock("det", "Was he alone?")

	rec := &recorder{}
	opts := testOptions(t)
	opts.MaxQuestions = 1
	orch := New(storyMaster, detective, opts)
	orch.Subscribe(rec)
	orch.Moderate("hint", map[string]string{"text": "Look up, not down."})
	orch.Moderate("warn", map[string]string{"text": "only yes/no questions"})
	orch.Play(context.Background())

	conv := orch.Conversation()
	require.GreaterOrEqual(t, len(conv.Messages), 3)
	hint := conv.Messages[1]
	assert.Equal(t, core.RoleModerator, hint.Role)
	assert.Equal(t, "Look up, not down.", hint.Content)
	warn := conv.Messages[2]
	assert.Equal(t, core.RoleModerator, warn.Role)
	assert.Contains(t, warn.Content, "⚠️ Moderator warning: only yes/no questions")

	interventions := rec.byType(EventIntervention)
	require.Len(t, interventions, 2)
	assert.Equal(t, "hint", interventions[0].Payload["action"])
	assert.Equal(t, "warn", interventions[1].Payload["action"])
}

func TestModerateUnknownActionIsIgnored(t *testing.T) {
	storyMaster := provider.NewScriptedMock("sm", storyReply, "Reveal.")
	detective := provider.NewScriptedMock("det")

	rec := &recorder{}
	orch := New(storyMaster, detective, testOptions(t))
	orch.Subscribe(rec)
	orch.Moderate("explode", nil)
	orch.ForceEnd()
	orch.Play(context.Background())

	// Unknown action published an intervention event but left no transcript
	// turn behind.
	for _, m := range orch.Conversation().Messages {
		assert.NotEqual(t, core.RoleModerator, m.Role)
	}
}

func TestContinueGateAdvancesPlay(t *testing.T) {
	storyMaster := provider.NewScriptedMock("sm",
		storyReply,
		"🎉 ¡CORRECTO! Yes.",
	)
	detective := provider.NewScriptedMock("det",
		"RESOLVER: The parachute failed.",
	)

	opts := testOptions(t)
	opts.NoPause = false
	opts.PollInterval = time.Millisecond
	opts.MaxQuestions = 20
	orch := New(storyMaster, detective, opts)

	done := make(chan struct{})
	go func() {
		orch.Play(context.Background())
		close(done)
	}()

	// Continue never blocks; keep opening the gate until the game finishes.
	for {
		select {
		case <-done:
			assert.Equal(t, core.OutcomeWin, orch.Conversation().Result)
			return
		case <-time.After(time.Millisecond):
			orch.Continue()
		}
	}
}

func TestRenderHistory(t *testing.T) {
	conv := core.NewConversation("m1", "p1", "m2", "p2", 20)
	conv.AddMessage(&core.Message{Role: core.RoleStoryMaster, Content: "the situation"})

	assert.Equal(t, "(no questions asked yet)", renderHistory(conv.Messages))

	conv.AddMessage(&core.Message{Role: core.RoleDetective, Content: "Was he alone?"})
	conv.AddMessage(&core.Message{Role: core.RoleStoryMaster, Content: "YES"})

	history := renderHistory(conv.Messages)
	assert.Contains(t, history, "- Detective: Was he alone?")
	assert.Contains(t, history, "- Answer: YES")
}
