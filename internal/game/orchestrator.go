// Package game orchestrates a Black Story session between two AI models.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GuilermoT/BlackStory2/internal/core"
	"github.com/GuilermoT/BlackStory2/internal/export"
	"github.com/GuilermoT/BlackStory2/internal/provider"
	"github.com/GuilermoT/BlackStory2/internal/storage"
)

// ErrorSentinel replaces a model reply when the backend call fails. The
// orchestrator treats it as ordinary (if nonsensical) game content, so a
// failing backend degrades play quality but never crashes the loop.
const ErrorSentinel = "Error: could not get a response from the model."

// Options configures an orchestrator.
type Options struct {
	// MaxQuestions is the detective's turn budget. Defaults to 20.
	MaxQuestions int
	// NoPause disables the per-turn continuation gate.
	NoPause bool
	// OutputDir receives the exported transcript. Defaults to
	// "./conversations".
	OutputDir string
	// Format selects the export format. Defaults to markdown.
	Format export.Format
	// ForceSolveThreshold is the number of remaining questions at which the
	// detective is instructed to resolve and the state turns advisory
	// Blocked. Defaults to 5.
	ForceSolveThreshold int
	// PollInterval is the gate polling period. Defaults to 100ms.
	PollInterval time.Duration
}

type moderatorNote struct {
	action string
	text   string
}

// Orchestrator owns the game state and drives the turn sequence: story
// generation, the interrogation loop, resolution judging and persistence.
// Play runs synchronously on the calling goroutine; Continue and Moderate
// are safe to call concurrently from another goroutine.
type Orchestrator struct {
	storyMaster provider.Provider
	detective   provider.Provider
	opts        Options

	conv          *core.Conversation
	saver         *export.Saver
	archive       storage.Store
	state         State
	scoreFeedback string

	pubMu     sync.Mutex
	observers []Observer

	// mu guards the only state touched from outside the game goroutine:
	// the stop flag, the continuation gate and the moderator queue.
	mu            sync.Mutex
	stopRequested bool
	gateOpen      bool
	pending       []moderatorNote
}

// New creates an orchestrator for one game between the story master (model
// 1) and the detective (model 2).
func New(storyMaster, detective provider.Provider, opts Options) *Orchestrator {
	if opts.MaxQuestions <= 0 {
		opts.MaxQuestions = 20
	}
	if opts.ForceSolveThreshold <= 0 {
		opts.ForceSolveThreshold = 5
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "./conversations"
	}
	if opts.Format == "" {
		opts.Format = export.FormatMarkdown
	}

	return &Orchestrator{
		storyMaster: storyMaster,
		detective:   detective,
		opts:        opts,
		conv: core.NewConversation(
			storyMaster.ModelName(), storyMaster.Name(),
			detective.ModelName(), detective.Name(),
			opts.MaxQuestions,
		),
		saver: export.NewSaver(opts.OutputDir),
		state: StateRunning,
	}
}

// Subscribe registers an observer. Handlers run synchronously in
// registration order.
func (o *Orchestrator) Subscribe(obs Observer) {
	o.pubMu.Lock()
	defer o.pubMu.Unlock()
	o.observers = append(o.observers, obs)
}

// SetArchive attaches a store that receives the finished transcript in
// addition to the file export.
func (o *Orchestrator) SetArchive(store storage.Store) {
	o.archive = store
}

// Conversation returns the transcript. Callers outside the game goroutine
// must only use it after Play returns.
func (o *Orchestrator) Conversation() *core.Conversation {
	return o.conv
}

// State returns the current game state.
func (o *Orchestrator) State() State {
	return o.state
}

// Play runs the full game: story, interrogation, resolution, persistence.
// No error crosses this boundary; all failure surfaces as events and the
// Failed state.
func (o *Orchestrator) Play(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Unrecoverable game fault", "panic", r)
			o.fail(fmt.Errorf("unrecoverable game fault: %v", r))
		}
	}()

	slog.Info("Starting a new game",
		"story_master", o.conv.Model1Name,
		"detective", o.conv.Model2Name,
		"max_questions", o.opts.MaxQuestions)
	o.publish(EventGameStarted, "game started", nil)

	if err := o.startGame(ctx); err != nil {
		o.fail(err)
		o.persist()
		return
	}
	o.interrogate(ctx)
	o.resolveGame(ctx)
	o.persist()
}

// Continue opens the continuation gate for one turn. It never blocks and is
// safe to call from any goroutine at any time.
func (o *Orchestrator) Continue() {
	o.mu.Lock()
	o.gateOpen = true
	o.mu.Unlock()
}

// ForceEnd requests the interrogation loop to exit at the next iteration
// boundary. It never preempts an in-flight model call.
func (o *Orchestrator) ForceEnd() {
	o.Moderate("force_end", nil)
}

// Moderate applies an external intervention while the loop runs. force_end
// sets the stop flag; hint and warn enqueue moderator turns that the game
// loop appends at its next iteration boundary. Unknown actions publish an
// event and do nothing else.
func (o *Orchestrator) Moderate(action string, data map[string]string) {
	text := data["text"]
	switch action {
	case "force_end":
		o.mu.Lock()
		o.stopRequested = true
		o.mu.Unlock()
		slog.Info("Moderator ended the game")
	case "hint", "warn":
		o.mu.Lock()
		o.pending = append(o.pending, moderatorNote{action: action, text: text})
		o.mu.Unlock()
	default:
		slog.Warn("Unknown intervention action", "action", action)
	}
	o.publish(EventIntervention, action, map[string]any{
		"action": action,
		"text":   text,
	})
}

// startGame is phase 1: the story master invents the mystery and the opening
// turn is built from its parsed situation.
func (o *Orchestrator) startGame(ctx context.Context) error {
	prompt, err := buildStoryPrompt(o.opts.MaxQuestions)
	if err != nil {
		return err
	}
	reply, elapsed := o.complete(ctx, o.storyMaster, prompt)

	story := ParseStory(reply)
	if story.Degraded {
		slog.Warn("Story reply had no solution markers, storing placeholder solution")
		o.publish(EventLogLine, "story parse degraded to placeholder solution", map[string]any{
			"message": "story parse degraded to placeholder solution",
		})
	}
	o.conv.FullSolution = story.Solution

	// The detective-facing turn carries only the situation and the rules.
	// The solution never enters this channel.
	display, err := buildIntro(story.Situation, o.opts.MaxQuestions)
	if err != nil {
		return err
	}

	msg := o.newMessage(core.RoleStoryMaster, o.storyMaster, display, elapsed)
	o.conv.AddMessage(msg)
	o.publish(EventStoryReady, "story ready", map[string]any{
		"message":       msg,
		"situation":     story.Situation,
		"full_solution": story.Solution,
	})
	o.waitForContinue(ctx)
	return nil
}

// interrogate is phase 2: the question loop. It exits when the budget is
// exhausted, the detective resolves, or an external stop is requested — all
// normal exits.
func (o *Orchestrator) interrogate(ctx context.Context) {
	for o.conv.QuestionsUsed < o.opts.MaxQuestions {
		if o.stopped(ctx) {
			return
		}
		o.drainModeratorNotes(ctx)
		if o.stopped(ctx) {
			return
		}

		questionsLeft := o.opts.MaxQuestions - o.conv.QuestionsUsed
		if questionsLeft <= o.opts.ForceSolveThreshold {
			o.setState(StateBlocked)
		}
		forceResolve := o.state == StateBlocked

		prompt, err := buildDetectivePrompt(
			o.conv.Situation(),
			renderHistory(o.conv.Messages),
			questionsLeft,
			o.opts.MaxQuestions,
			o.scoreFeedback,
			forceResolve,
		)
		if err != nil {
			o.fail(err)
			return
		}

		question, elapsed := o.complete(ctx, o.detective, prompt)
		o.conv.QuestionsUsed++
		msg := o.newMessage(core.RoleDetective, o.detective, question, elapsed)
		o.conv.AddMessage(msg)
		o.publish(EventQuestionAsked, "question asked", map[string]any{
			"message":         msg,
			"questions_asked": o.conv.QuestionsUsed,
			"max_questions":   o.opts.MaxQuestions,
		})
		o.waitForContinue(ctx)

		if HasResolveDirective(question) {
			return
		}

		answerPrompt, err := buildAnswerPrompt(o.conv.FullSolution, question)
		if err != nil {
			o.fail(err)
			return
		}
		reply, elapsed := o.complete(ctx, o.storyMaster, answerPrompt)
		answer, feedback := SplitAnswerScore(reply)
		o.scoreFeedback = feedback

		msg = o.newMessage(core.RoleStoryMaster, o.storyMaster, answer, elapsed)
		o.conv.AddMessage(msg)
		o.publish(EventAnswerGiven, "answer given", map[string]any{
			"message": msg,
		})
		o.waitForContinue(ctx)
	}
}

// resolveGame is phase 3. The verdict is decided by rule: budget exhaustion
// is a loss regardless of the model's closing words, and a resolve attempt
// wins only on the exact verdict token.
func (o *Orchestrator) resolveGame(ctx context.Context) {
	if o.state.Terminal() {
		return
	}

	last := o.conv.LastMessage()
	resolving := last != nil && last.Role == core.RoleDetective && HasResolveDirective(last.Content)

	var (
		finalText string
		closing   string
		elapsed   time.Duration
		result    core.Outcome
	)

	if resolving {
		slog.Info("Detective attempts to solve")
		prompt, err := buildJudgePrompt(o.conv.FullSolution, StripResolveDirective(last.Content))
		if err != nil {
			o.fail(err)
			return
		}
		finalText, elapsed = o.complete(ctx, o.storyMaster, prompt)
		result = JudgeVerdict(finalText)
		closing = finalText
	} else {
		slog.Info("Game ended without a resolution attempt")
		result = core.OutcomeLoss
		closing = fmt.Sprintf(budgetExhaustedMessage, o.conv.FullSolution)
		prompt, err := buildRevealPrompt(o.conv.FullSolution)
		if err != nil {
			o.fail(err)
			return
		}
		// Flavor narration only; the verdict is already fixed.
		finalText, elapsed = o.complete(ctx, o.storyMaster, prompt)
	}

	msg := o.newMessage(core.RoleStoryMaster, o.storyMaster, finalText, elapsed)
	o.conv.AddMessage(msg)
	o.conv.Result = result
	o.setState(StateResolved)
	o.publish(EventGameEnded, fmt.Sprintf("game ended: %s", result), map[string]any{
		"result":     string(result),
		"message":    closing,
		"final_text": finalText,
	})
}

// persist is phase 4. Save failures are logged, never propagated: they must
// not corrupt the already-decided outcome.
func (o *Orchestrator) persist() {
	path, err := o.saver.Save(o.conv, o.opts.Format)
	if err != nil {
		slog.Error("Failed to save conversation", "error", err)
		o.publish(EventLogLine, "failed to save conversation", map[string]any{
			"message": fmt.Sprintf("failed to save conversation: %v", err),
		})
	} else if path != "" {
		slog.Info("Conversation saved", "path", path)
	}

	if o.archive != nil {
		if err := o.archive.SaveConversation(o.conv); err != nil {
			slog.Error("Failed to archive conversation", "error", err)
		}
	}
}

// complete invokes a model capability and absorbs any backend failure into
// the sentinel reply. This is the single suspension point of the loop.
func (o *Orchestrator) complete(ctx context.Context, p provider.Provider, prompt string) (string, time.Duration) {
	start := time.Now()
	reply, err := p.Generate(ctx, prompt)
	elapsed := time.Since(start)
	if err != nil {
		slog.Warn("Model call failed", "provider", p.Name(), "model", p.ModelName(), "error", err)
		return ErrorSentinel, elapsed
	}
	return reply, elapsed
}

// drainModeratorNotes appends queued hint/warn interventions as moderator
// turns. Runs on the game goroutine, which keeps transcript mutation
// single-threaded. A hint without text is authored by the story master from
// the secret solution.
func (o *Orchestrator) drainModeratorNotes(ctx context.Context) {
	o.mu.Lock()
	notes := o.pending
	o.pending = nil
	o.mu.Unlock()

	for _, note := range notes {
		text := note.text
		var elapsed time.Duration
		if note.action == "hint" && text == "" {
			prompt, err := buildHintPrompt(o.conv.FullSolution)
			if err != nil {
				slog.Error("Failed to build hint prompt", "error", err)
				continue
			}
			text, elapsed = o.complete(ctx, o.storyMaster, prompt)
		}
		if note.action == "warn" {
			text = "⚠️ Moderator warning: " + text
		}

		msg := &core.Message{
			ID:           core.GenerateID(),
			Role:         core.RoleModerator,
			ModelName:    "moderator",
			Provider:     "human",
			Content:      text,
			Timestamp:    time.Now(),
			ResponseTime: elapsed,
		}
		o.conv.AddMessage(msg)
		// Shaped like an answer so observers render it inline with dialogue.
		o.publish(EventAnswerGiven, "moderator "+note.action, map[string]any{
			"message": msg,
		})
	}
}

// waitForContinue blocks on the continuation gate, polling until Continue or
// a stop signal. The poll keeps the external caller free to signal from any
// goroutine without a shared wakeup primitive.
func (o *Orchestrator) waitForContinue(ctx context.Context) {
	if o.opts.NoPause {
		return
	}
	for {
		if ctx.Err() != nil {
			return
		}
		o.mu.Lock()
		if o.stopRequested {
			o.mu.Unlock()
			return
		}
		if o.gateOpen {
			o.gateOpen = false
			o.mu.Unlock()
			return
		}
		o.mu.Unlock()
		time.Sleep(o.opts.PollInterval)
	}
}

func (o *Orchestrator) stopped(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopRequested
}

func (o *Orchestrator) fail(err error) {
	slog.Error("Game failed", "error", err)
	o.publish(EventError, err.Error(), map[string]any{
		"message": err.Error(),
	})
	o.setState(StateFailed)
}

func (o *Orchestrator) setState(s State) {
	if o.state == s {
		return
	}
	o.state = s
	o.publish(EventStateChanged, "state changed", map[string]any{
		"state": string(s),
	})
}

func (o *Orchestrator) newMessage(role core.Role, p provider.Provider, content string, elapsed time.Duration) *core.Message {
	return &core.Message{
		ID:           core.GenerateID(),
		Role:         role,
		ModelName:    p.ModelName(),
		Provider:     p.Name(),
		Content:      content,
		Timestamp:    time.Now(),
		ResponseTime: elapsed,
	}
}

func (o *Orchestrator) publish(t EventType, summary string, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	ev := Event{
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now(),
		Message:   summary,
	}
	o.pubMu.Lock()
	defer o.pubMu.Unlock()
	for _, obs := range o.observers {
		obs.OnEvent(ev)
	}
}
