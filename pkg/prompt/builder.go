package prompt

import (
	"strings"
	"time"
)

// ContextBuilder builds the grounded chat prompt from retrieved context.
// Building is deterministic: same context, question and timestamp always
// produce the same prompt.
type ContextBuilder struct {
	context  string
	question string
	now      time.Time
}

// NewContextBuilder creates a new prompt builder for one request.
func NewContextBuilder(context, question string, now time.Time) *ContextBuilder {
	return &ContextBuilder{
		context:  context,
		question: question,
		now:      now.UTC(),
	}
}

// Build assembles the persona, the grounding rules, the current time, the
// retrieved context block and the user question into one model input.
func (b *ContextBuilder) Build() string {
	var prompt strings.Builder

	b.writeTask(&prompt)
	b.writeRules(&prompt)
	b.writeContext(&prompt)
	b.writeUserQuestion(&prompt)

	return prompt.String()
}

func (b *ContextBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a helpful assistant answering questions about the indexed web pages.\n")
	prompt.WriteString("The current time is ")
	prompt.WriteString(b.now.Format(time.RFC1123))
	prompt.WriteString(".\n")
	prompt.WriteString("</task>\n\n")
}

func (b *ContextBuilder) writeRules(prompt *strings.Builder) {
	prompt.WriteString("<rules>\n")
	prompt.WriteString("1. Answer ONLY from the reference context below\n")
	prompt.WriteString("2. If the context does not contain the answer, say you don't know\n")
	prompt.WriteString("3. Never reference information dated after the current time unless it appears in the context\n")
	prompt.WriteString("4. No speculation, no disclaimers\n")
	prompt.WriteString("5. Use emoji sparingly, if at all\n")
	prompt.WriteString("</rules>\n\n")
}

func (b *ContextBuilder) writeContext(prompt *strings.Builder) {
	prompt.WriteString("<reference_context>\n")
	prompt.WriteString(b.context)
	prompt.WriteString("\n</reference_context>\n\n")
}

func (b *ContextBuilder) writeUserQuestion(prompt *strings.Builder) {
	prompt.WriteString("<user_question>\n")
	prompt.WriteString(b.question)
	prompt.WriteString("\n</user_question>\n\n")
	prompt.WriteString("Now answer based on the reference context:")
}
