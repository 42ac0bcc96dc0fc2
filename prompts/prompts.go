package prompts

import (
	"bytes"
	"embed"
	"strings"
	"text/template"

	"github.com/caseway/agent-core/document"
)

//go:embed templates/*
var templatesFS embed.FS

// SystemPromptData is the state rendered into a session's system
// prompt on every turn.
type SystemPromptData struct {
	CaseContext      string
	DocumentMarkdown string
	Completeness     int
	MissingSections  []string
}

// NewSystemPromptData derives prompt data from the current document
// state and external case context.
func NewSystemPromptData(doc *document.Document, caseContext string) SystemPromptData {
	// A section counts as filled only with non-whitespace content,
	// matching the completeness arithmetic.
	var missing []string
	for _, key := range document.SectionsFor(doc.Kind) {
		if strings.TrimSpace(doc.Sections[key]) == "" {
			missing = append(missing, string(key))
		}
	}

	return SystemPromptData{
		CaseContext:      caseContext,
		DocumentMarkdown: doc.ToMarkdown(),
		Completeness:     doc.Completeness,
		MissingSections:  missing,
	}
}

// RenderSystemPrompt renders the system prompt for a document kind
// using the embedded Go templates.
func RenderSystemPrompt(kind document.Kind, data SystemPromptData) (string, error) {
	name := "templates/interview_system.md"
	if kind == document.KindIntake {
		name = "templates/intake_system.md"
	}

	content, err := templatesFS.ReadFile(name)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
