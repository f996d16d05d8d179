package coach

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/questions"
)

//go:embed system_prompt.tmpl
var systemPromptRaw string

var systemPromptTemplate = template.Must(template.New("system_prompt").Funcs(template.FuncMap{
	"valueNames": func(values []questions.Value) string {
		names := make([]string, len(values))
		for i, v := range values {
			names[i] = v.Name
		}
		return strings.Join(names, ", ")
	},
}).Parse(systemPromptRaw))

// SystemPrompt renders the coaching persona for a job context.
func SystemPrompt(jc questions.JobContext) (string, error) {
	if jc.Specialty == "" {
		jc.Specialty = "technical"
	}
	if jc.Title == "" {
		jc.Title = jc.Role
	}
	var sb strings.Builder
	if err := systemPromptTemplate.Execute(&sb, jc); err != nil {
		return "", fmt.Errorf("rendering system prompt: %w", err)
	}
	return sb.String(), nil
}

// UserMessage formats the stage, question and answer exactly as the coach expects them.
func UserMessage(stage, question, answer string) string {
	return fmt.Sprintf("STAGE: %s\nQUESTION: %s\nCANDIDATE ANSWER: %s", stage, question, answer)
}
