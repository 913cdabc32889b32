package game

import (
	"regexp"
	"strings"

	"github.com/GuilermoT/BlackStory2/internal/core"
)

// Marker patterns recognized in model replies, matched case-insensitively on
// the original string so every match offset is safe to slice with. The
// Spanish accented and unaccented spellings are accepted alongside the
// English ones because models routinely echo the example format in either
// language.
var (
	situationRe = regexp.MustCompile(`(?i)SITUACI[ÓO]N:|SITUATION:`)
	solutionRe  = regexp.MustCompile(`(?i)SOLUCI[ÓO]N:|SOLUTION:`)
	resolveRe   = regexp.MustCompile(`(?i)RESOLVER:`)
	scoreRe     = regexp.MustCompile(`(?i)SCORE:`)
)

// ResolveDirective is the fixed token the detective emits to stop
// questioning and commit to a final answer.
const ResolveDirective = "RESOLVER:"

// SolutionPlaceholder is stored when no solution could be extracted from the
// story master's reply.
const SolutionPlaceholder = "[could not extract the solution from the story master's reply]"

// NoScoreFeedback replaces the proximity feedback when the answer carried no
// score line.
const NoScoreFeedback = "no score received for your previous question"

// VerdictWinToken is the exact literal whose presence in the judging reply
// decides a win. Anything else, including lowercase or partial matches,
// resolves to a loss: ambiguity never grants a win.
const VerdictWinToken = "🎉 ¡CORRECTO!"

// Story is the parsed form of the opening story master reply.
type Story struct {
	Situation string
	Solution  string
	// Degraded is set when the last-resort fallback had to substitute the
	// solution placeholder.
	Degraded bool
}

// ParseStory extracts the public situation and the secret solution from a
// story master reply. Three layers run in order, each assuming strictly less
// about the reply's structure:
//
//  1. marker split: locate the situation and solution markers and split on
//     their positions;
//  2. line scan: accumulate lines before a solution marker line as the
//     situation and lines after it as the solution;
//  3. placeholder: keep the whole reply as the situation and store a fixed
//     placeholder solution so the game can continue one-sided.
func ParseStory(reply string) Story {
	sitLoc := situationRe.FindStringIndex(reply)
	searchFrom := 0
	if sitLoc != nil {
		searchFrom = sitLoc[1]
	}
	var solLoc []int
	if loc := solutionRe.FindStringIndex(reply[searchFrom:]); loc != nil {
		solLoc = []int{loc[0] + searchFrom, loc[1] + searchFrom}
	}

	if sitLoc != nil && solLoc != nil {
		return Story{
			Situation: strings.TrimSpace(reply[sitLoc[1]:solLoc[0]]),
			Solution:  strings.TrimSpace(reply[solLoc[1]:]),
		}
	}

	// Markers absent or out of order: scan line by line.
	var situation, solution []string
	inSolution := false
	for _, line := range strings.Split(reply, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inSolution {
			if loc := solutionRe.FindStringIndex(trimmed); loc != nil {
				inSolution = true
				if rest := strings.TrimSpace(trimmed[loc[1]:]); rest != "" {
					solution = append(solution, rest)
				}
				continue
			}
			if loc := situationRe.FindStringIndex(trimmed); loc != nil {
				trimmed = strings.TrimSpace(trimmed[loc[1]:])
			}
			if trimmed != "" {
				situation = append(situation, trimmed)
			}
		} else if trimmed != "" {
			solution = append(solution, trimmed)
		}
	}

	if len(solution) > 0 {
		sit := strings.Join(situation, "\n")
		if sit == "" {
			sit = strings.TrimSpace(reply)
		}
		return Story{Situation: sit, Solution: strings.Join(solution, "\n")}
	}

	return Story{
		Situation: strings.TrimSpace(reply),
		Solution:  SolutionPlaceholder,
		Degraded:  true,
	}
}

// HasResolveDirective reports whether the detective committed to a solution.
func HasResolveDirective(s string) bool {
	return resolveRe.MatchString(s)
}

// StripResolveDirective returns the guess following the resolve directive.
// When the directive is absent the whole text is returned trimmed.
func StripResolveDirective(s string) string {
	loc := resolveRe.FindStringIndex(s)
	if loc == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(s[loc[1]:])
}

// SplitAnswerScore separates the detective-visible answer from the proximity
// score trailing it. The portion before the first score marker is the
// answer; the portion after becomes the feedback string for the next
// detective prompt. A reply with no score marker degrades to a fixed
// feedback message instead of failing the turn.
func SplitAnswerScore(reply string) (answer, feedback string) {
	loc := scoreRe.FindStringIndex(reply)
	if loc == nil {
		return strings.TrimSpace(reply), NoScoreFeedback
	}
	answer = strings.TrimSpace(reply[:loc[0]])
	feedback = strings.TrimSpace(reply[loc[1]:])
	if feedback == "" {
		feedback = NoScoreFeedback
	}
	return answer, feedback
}

// JudgeVerdict maps a judging reply to the final outcome. The win token must
// appear verbatim; any other reply, however close, is a loss.
func JudgeVerdict(reply string) core.Outcome {
	if strings.Contains(reply, VerdictWinToken) {
		return core.OutcomeWin
	}
	return core.OutcomeLoss
}
