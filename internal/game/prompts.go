package game

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/GuilermoT/BlackStory2/internal/core"
)

// Prompt templates for the two roles. The structured tokens (markers, the
// resolve directive, the score line and the verdict literals) are the only
// parts the parser depends on; everything else is flavor.

var storyTmpl = template.Must(template.New("story").Parse(`You are the master of a Black Story. You must CREATE a complete mystery.

IMPORTANT: your reply MUST follow EXACTLY this format:

SITUATION: [The mysterious situation the player will see. At most 3 lines.]

SOLUTION: [The complete secret explanation of how the situation came to be. This is the truth the detective must uncover. At most 5 lines.]

Now create your own ORIGINAL story following exactly the format above.
The story must be surprising, logical and concise.
The detective will have {{.MaxQuestions}} questions.

REMEMBER: include BOTH the SITUATION and the SOLUTION in your reply.`))

var introTmpl = template.Must(template.New("intro").Parse(`{{.Situation}}

RULES:
- You may ask up to {{.MaxQuestions}} yes/no questions.
- Every question is answered with YES, NO or IRRELEVANT.
- To commit to a solution, say "RESOLVER:" followed by your explanation.`))

var detectiveTmpl = template.Must(template.New("detective").Parse(`You are a brilliant, logical detective solving a Black Story. Your ONLY job is to ask questions until you can resolve. Do NOT invent stories.

SITUATION:
{{.Situation}}

QUESTION AND ANSWER HISTORY:
{{.History}}

RULES:
- Do not repeat questions you already asked.
- Only YES/NO/IRRELEVANT questions are allowed.
- To resolve, say "RESOLVER:" followed by your explanation.
- You have {{.QuestionsLeft}} questions left out of {{.MaxQuestions}}.
{{if .ForceResolve}}
YOU ARE ALMOST OUT OF QUESTIONS. You must attempt resolution NOW: reply with "RESOLVER:" and your best explanation.
{{end}}
FEEDBACK ON YOUR LAST QUESTION:
{{.ScoreFeedback}}

Ask your single next question now, or resolve.`))

var answerTmpl = template.Must(template.New("answer").Parse(`You are the master of a Black Story. The secret solution is:

{{.Solution}}

The detective asks: "{{.Question}}"

Answer strictly from the secret solution with exactly one of: YES, NO, IRRELEVANT.
Then, on a new line, rate how close the detective's thinking is to the solution in the exact format "SCORE: X/10".`))

var judgeTmpl = template.Must(template.New("judge").Parse(`You are the master of a Black Story. The secret solution is:

{{.Solution}}

The detective commits to this resolution: "{{.Guess}}"

If the resolution matches the essence of the secret solution, start your reply with exactly "🎉 ¡CORRECTO!". Otherwise start it with exactly "❌ INCORRECTO".
Then reveal and narrate the full story.`))

var revealTmpl = template.Must(template.New("reveal").Parse(`You are the master of a Black Story. The detective has run out of questions without resolving. The secret solution was:

{{.Solution}}

Reveal the full story to the defeated detective with a short closing narration.`))

var hintTmpl = template.Must(template.New("hint").Parse(`You are the master of a Black Story. The secret solution is:

{{.Solution}}

Give the struggling detective one short hint that points toward the solution without giving it away.`))

// budgetExhaustedMessage closes a game whose budget ran out. The verdict is
// decided by rule, not by the model's wording.
const budgetExhaustedMessage = "The detective has exhausted all questions. The full solution was:\n\n%s"

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func buildStoryPrompt(maxQuestions int) (string, error) {
	return render(storyTmpl, map[string]any{"MaxQuestions": maxQuestions})
}

func buildIntro(situation string, maxQuestions int) (string, error) {
	return render(introTmpl, map[string]any{
		"Situation":    situation,
		"MaxQuestions": maxQuestions,
	})
}

func buildDetectivePrompt(situation, history string, questionsLeft, maxQuestions int, scoreFeedback string, forceResolve bool) (string, error) {
	if scoreFeedback == "" {
		scoreFeedback = "none yet"
	}
	return render(detectiveTmpl, map[string]any{
		"Situation":     situation,
		"History":       history,
		"QuestionsLeft": questionsLeft,
		"MaxQuestions":  maxQuestions,
		"ScoreFeedback": scoreFeedback,
		"ForceResolve":  forceResolve,
	})
}

func buildAnswerPrompt(solution, question string) (string, error) {
	return render(answerTmpl, map[string]any{"Solution": solution, "Question": question})
}

func buildJudgePrompt(solution, guess string) (string, error) {
	return render(judgeTmpl, map[string]any{"Solution": solution, "Guess": guess})
}

func buildRevealPrompt(solution string) (string, error) {
	return render(revealTmpl, map[string]any{"Solution": solution})
}

func buildHintPrompt(solution string) (string, error) {
	return render(hintTmpl, map[string]any{"Solution": solution})
}

// renderHistory formats every turn after the opening story as one line per
// turn, with roles relabeled to a generic question/answer pair so the
// detective prompt stays model-agnostic.
func renderHistory(messages []*core.Message) string {
	if len(messages) <= 1 {
		return "(no questions asked yet)"
	}
	var sb strings.Builder
	for _, msg := range messages[1:] {
		label := "Answer"
		switch msg.Role {
		case core.RoleDetective:
			label = "Detective"
		case core.RoleModerator:
			label = "Moderator"
		}
		fmt.Fprintf(&sb, "- %s: %s\n", label, msg.Content)
	}
	return strings.TrimRight(sb.String(), "\n")
}
