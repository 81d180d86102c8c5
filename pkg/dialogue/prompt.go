package dialogue

// Everything sent to the model is built in this file, as pure string
// functions with no I/O.

import (
	"fmt"
	"strings"
)

// ConfirmationTurn is the canned user turn sent when the user confirms a
// problem extracted from an attachment.
func ConfirmationTurn(lang Language) string {
	if lang == LanguageKorean {
		return "네, 맞습니다. 진행해 주세요."
	}
	return "Yes, correct. Please proceed."
}

// SystemInstruction returns the full system prompt for a session. The
// instruction varies along two axes: mode (direct vs socratic) and, within
// socratic mode, the category's policy (technical vs open). Depth is embedded
// textually as advice; the engine enforces the actual step bound itself.
func SystemInstruction(category Category, mode ChatMode, depth int, lang Language) string {
	var b strings.Builder

	switch {
	case mode == ModeDirect:
		writeDirectRole(&b)
	case CategoryPolicies[category] == PolicyTechnical:
		writeSocraticTechnicalRole(&b, depth)
	default:
		writeSocraticOpenRole(&b, depth)
	}

	writeClosingRules(&b, lang)
	return b.String()
}

func writeDirectRole(b *strings.Builder) {
	b.WriteString("You are a knowledgeable problem-solving assistant.\n\n")
	b.WriteString("Role:\n")
	b.WriteString("- Answer the user's problem immediately and completely. Do not withhold the answer or turn it back into a question.\n")
	b.WriteString("- Keep the user's problem, attempts and goal in mind throughout.\n")
	b.WriteString("- Structure the answer: the conclusion first, then the reasoning, then concrete next steps.\n")
	b.WriteString("- If the problem is ambiguous, state the most likely interpretation and answer it, noting the assumption.\n")
}

func writeSocraticTechnicalRole(b *strings.Builder, depth int) {
	b.WriteString("You are an AI guide leading a Socratic dialogue about a technical problem.\n\n")
	b.WriteString("Role:\n")
	b.WriteString("- Never give the answer directly. Ask questions that let the user work it out themselves.\n")
	b.WriteString("- Keep the user's problem, attempts and goal in mind throughout.\n\n")
	b.WriteString("Method:\n")
	fmt.Fprintf(b, "1. The dialogue targets %d user steps. Calibrate hint specificity to the current step: early steps probe understanding, later steps narrow toward the mechanism.\n", depth)
	b.WriteString("2. Ground abstract questions in concrete examples: a small input, a trace, a counter-case.\n")
	b.WriteString("   Example: \"You expect the inner loop to stop early. What happens on the input [3, 1, 2]?\"\n")
	b.WriteString("3. When the user fixates on one approach, surface an alternative together with its trade-off and ask them to compare.\n")
}

func writeSocraticOpenRole(b *strings.Builder, depth int) {
	b.WriteString("You are an AI guide leading a Socratic dialogue about an open-ended problem.\n\n")
	b.WriteString("Role:\n")
	b.WriteString("- Never give the answer directly. Ask questions that let the user reach their own conclusion.\n")
	b.WriteString("- Keep the user's problem, attempts and goal in mind throughout.\n\n")
	b.WriteString("Method:\n")
	fmt.Fprintf(b, "1. The dialogue targets %d user steps. Early steps widen the frame; later steps converge on a decision the user can own.\n", depth)
	b.WriteString("2. Shift perspective rather than drill down: how would a customer, a rival, or their future self see this choice?\n")
	b.WriteString("3. When the user sees only one path, name another possibility with its upside and ask what it would cost them.\n")
}

func writeClosingRules(b *strings.Builder, lang Language) {
	b.WriteString("\nSpecial cases:\n")
	b.WriteString("- When the user states a concrete conclusion or workable plan of their own, prefix your whole response with the tag [ANSWER_FOUND] and congratulate them: they may view the final answer now or keep exploring.\n")
	b.WriteString("- When the conversation drifts away from the stated goal, point it out plainly and steer back.\n\n")
	b.WriteString("Style:\n")
	b.WriteString("- Short and clear. At most 1-2 questions per turn.\n")
	b.WriteString("- Questions that invite reflection; no judgment, no unsolicited advice.\n")
	if lang == LanguageKorean {
		b.WriteString("- Respond in Korean only.\n")
	} else {
		b.WriteString("- Respond in English only.\n")
	}
}

// InitialTurn builds the first user-role turn of a session. In socratic mode
// with attachments the model is told to verify the extracted problem before
// the dialogue proper begins; direct mode never verifies, since there is no
// dialogue to gate: the one reply is the answer, attachments included. Every
// variant instructs the model to emit the TITLE line first.
func InitialTurn(form CreateForm, mode ChatMode) string {
	var b strings.Builder

	if len(form.Files) > 0 {
		b.WriteString("The user uploaded file(s) along with the following problem:\n\n")
	} else {
		b.WriteString("The user shared the following situation:\n\n")
	}

	writeProblemContext(&b, form.Category, form.Problem, form.Attempts, form.Goal)

	b.WriteString("\n")
	b.WriteString("1. First, output the session title on the very first line in the exact form \"TITLE: <title>\".\n")
	switch {
	case mode == ModeDirect:
		b.WriteString("2. Then, after a line break, give your complete answer to the problem, working directly from any uploaded file(s).\n")
	case len(form.Files) > 0:
		b.WriteString("2. On the next line, output the tag [VERIFICATION_NEEDED].\n")
		b.WriteString("3. Then summarize the problem you read from the file(s) and ask the user to confirm it is correct before anything else.\n")
	default:
		b.WriteString("2. Then, after a line break, open the dialogue with a natural, friendly first question.\n")
	}

	return b.String()
}

// ContinuationTurn wraps an ordinary follow-up turn. It is a pass-through:
// the user's own words are the turn.
func ContinuationTurn(text string) string {
	return text
}

// EditedProblemTurn wraps a revised problem statement with the edit marker so
// the model treats it as replacing the original, not as a new question.
func EditedProblemTurn(revised string) string {
	return fmt.Sprintf("[EDITED_PROBLEM] The user corrected the problem statement. From now on work with this version:\n\n%s", revised)
}

// ResolutionPrompt builds the one-shot request for the structured final
// answer. It carries the full role-labeled history plus the session context
// and is sent at most once per session, outside the stepwise loop.
func ResolutionPrompt(session *Session, lang Language) string {
	var b strings.Builder

	b.WriteString("Below is the full conversation with the user:\n\n")
	writeProblemContext(&b, session.Category, session.Problem, session.Attempts, session.Goal)

	b.WriteString("\n=== Conversation ===\n")
	for _, msg := range session.Messages {
		label := "AI"
		if msg.Role == RoleUser {
			label = "User"
		}
		fmt.Fprintf(&b, "%s: %s\n\n", label, msg.Content)
	}

	b.WriteString("=== Request ===\n")
	b.WriteString("Based on this conversation, lay out a concrete, actionable resolution for the user's goal.\n\n")
	b.WriteString("Include:\n")
	b.WriteString("1. Key insight: the most important realization from the dialogue\n")
	b.WriteString("2. Action plan: what to do, in what order\n")
	b.WriteString("3. Why it works: the rationale behind the approach\n")
	b.WriteString("4. Caveats: what to watch out for when executing\n\n")
	b.WriteString("Use a warm, encouraging tone and give practical advice.")
	if lang == LanguageKorean {
		b.WriteString(" Respond in Korean only.")
	} else {
		b.WriteString(" Respond in English only.")
	}

	return b.String()
}

func writeProblemContext(b *strings.Builder, category Category, problem, attempts, goal string) {
	fmt.Fprintf(b, "Category: %s\n", category)
	fmt.Fprintf(b, "Problem: %s\n", problem)
	if attempts != "" {
		fmt.Fprintf(b, "Attempts so far: %s\n", attempts)
	}
	if goal != "" {
		fmt.Fprintf(b, "Goal: %s\n", goal)
	}
}
