package generation

import (
	"fmt"
	"strings"

	"github.com/shiksha-labs/prashnagen/internal/taxonomy"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
)

// PromptInput carries everything the prompt embeds.
type PromptInput struct {
	Chain        taxonomy.Chain
	QuestionType enums.QuestionType
	BloomLevel   enums.BloomLevel
	Count        int
	Rules        []string
	Samples      []string
}

var answerFormats = map[enums.QuestionType]string{
	enums.QuestionTypeSingleChoice: `Each question has exactly four "options" and exactly one correct option. "correct_answer" is the full text of the correct option.`,
	enums.QuestionTypeMultiSelect:  `Each question has four to six "options" and two or more correct options. "correct_answer" is an array with the full text of every correct option.`,
	enums.QuestionTypeFillBlank:    `Each question contains one blank written as "____". Omit "options". "correct_answer" is the word or phrase that fills the blank.`,
	enums.QuestionTypeInlineChoice: `Each question is a sentence with one gap written as "[choice]". "options" lists three or four candidates for the gap and "correct_answer" is the right one.`,
	enums.QuestionTypeMatching:     `Each question asks the student to match items. "options" lists the pairs as "left -> right" strings in shuffled order and "correct_answer" lists the correct pairs separated by "; ".`,
	enums.QuestionTypeTrueFalse:    `Each question is a statement. "options" is ["True", "False"] and "correct_answer" is "True" or "False".`,
}

var bloomGuidance = map[enums.BloomLevel]string{
	enums.BloomLevelRemembering:   "recall facts, terms and basic concepts",
	enums.BloomLevelUnderstanding: "explain ideas or concepts in their own words",
	enums.BloomLevelApplying:      "use the concept in a new, concrete situation",
	enums.BloomLevelAnalyzing:     "break information into parts and examine relationships",
	enums.BloomLevelEvaluating:    "justify a decision or judge a claim using criteria",
	enums.BloomLevelCreating:      "combine ideas to produce something new",
}

// BuildPrompt renders the user message sent to the generator.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder
	board, subject, topic := in.Chain.Board, in.Chain.Subject, in.Chain.Topic

	fmt.Fprintf(&b, "Write %d %s questions for %s (%s) students of grade %d studying %s.\n",
		in.Count, humanize(string(in.QuestionType)), board.Name, board.Code, subject.Grade, subject.Name)
	fmt.Fprintf(&b, "Topic: %s.\n", topic.Name)
	if desc := strings.TrimSpace(topic.Description); desc != "" {
		fmt.Fprintf(&b, "Topic scope: %s\n", desc)
	}
	fmt.Fprintf(&b, "Bloom's taxonomy level: %s. Questions should make the student %s.\n",
		in.BloomLevel, bloomGuidance[in.BloomLevel])

	b.WriteString("\nRequirements:\n")
	fmt.Fprintf(&b, "- Stay within the %s syllabus for grade %d.\n", board.Name, subject.Grade)
	b.WriteString("- Use clear, age-appropriate language.\n")
	b.WriteString("- Every question has an explanation of why the answer is correct.\n")
	b.WriteString("- Do not repeat questions.\n")
	if format, ok := answerFormats[in.QuestionType]; ok {
		b.WriteString("- " + format + "\n")
	}
	for _, rule := range in.Rules {
		if rule = strings.TrimSpace(rule); rule != "" {
			b.WriteString("- " + rule + "\n")
		}
	}

	if len(in.Samples) > 0 {
		b.WriteString("\nExamples of the expected style:\n")
		for i, sample := range in.Samples {
			fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(sample))
		}
	}

	b.WriteString("\nRespond with a JSON array only. Each element is an object with the keys ")
	b.WriteString(`"question", "options", "correct_answer", "explanation", "marks" and "cognitive_level".`)
	b.WriteString("\n")
	return b.String()
}

func humanize(v string) string {
	return strings.ReplaceAll(v, "_", " ")
}
