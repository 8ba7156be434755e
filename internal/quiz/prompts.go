package quiz

import (
	"fmt"
	"strings"

	"github.com/qcm-trainer/backend/internal/models"
)

// BuildQuizPrompt assembles the single user-role instruction for one batch:
// exact count, 4-choice format with the correct choice first, the difficulty
// hint, and, after the first batch, the literal prompts of every question
// already collected, so the model avoids repeating them.
func BuildQuizPrompt(count int, difficulty models.Difficulty, priorPrompts []string, corpus string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate EXACTLY %d varied multiple-choice questions about the text below.\n", count)
	b.WriteString("Rule: each question has 4 choices and the correct answer is in position 0.\n")
	b.WriteString(difficultyHint(difficulty))

	if len(priorPrompts) > 0 {
		b.WriteString("\nDo not repeat any of these questions:\n")
		for i, p := range priorPrompts {
			fmt.Fprintf(&b, "%d. %s\n", i+1, p)
		}
	}

	b.WriteString("\nRespond with JSON only, in this exact format:\n")
	b.WriteString(`[{"q":"question text","r":["Correct answer","Wrong 1","Wrong 2","Wrong 3"]}]`)
	b.WriteString("\n\nText:\n")
	b.WriteString(corpus)

	return b.String()
}

func difficultyHint(difficulty models.Difficulty) string {
	if difficulty == models.DifficultyMixed || difficulty == "" {
		return "Mix easy, medium and hard questions.\n"
	}
	return fmt.Sprintf("Difficulty level: %s.\n", difficulty)
}

// BuildExplanationPrompt asks the collaborator to justify the correct answer
// relative to what the student picked.
func BuildExplanationPrompt(prompt, correctText, chosenText string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question: %s\n", prompt)
	fmt.Fprintf(&b, "Correct answer: %s\n", correctText)
	if chosenText != "" && chosenText != correctText {
		fmt.Fprintf(&b, "The student answered: %s\n", chosenText)
		b.WriteString("In 2-3 sentences, explain why the correct answer is right and why the student's choice is not.")
	} else {
		b.WriteString("In 2-3 sentences, explain why this answer is correct.")
	}

	return b.String()
}
