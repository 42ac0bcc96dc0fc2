package agent

import (
	"github.com/caseway/agent-core/document"
	"github.com/caseway/agent-core/registry"
	"github.com/ollama/ollama/api"
)

// toolsFor returns the tool definitions offered to the model for a
// session kind. Intake sessions additionally get the terminal
// mark_complete tool.
func toolsFor(kind registry.Kind) []api.Tool {
	docKind := kind.DocumentKind()

	sections := document.SectionsFor(docKind)
	keys := make([]string, len(sections))
	for i, s := range sections {
		keys[i] = string(s)
	}

	update := newToolBuilder(ToolUpdateDocument,
		"Write content to one section of the structured document. Overwrites the section; merge existing content yourself when extending it.").
		enumParam("section", "The section key to update.", keys, true).
		stringParam("content", "The full new content of the section.", true).
		build()

	if docKind != document.KindIntake {
		return []api.Tool{update}
	}

	complete := newToolBuilder(ToolMarkComplete,
		"Mark the intake form complete once every field is filled and the visitor has nothing to add.").
		stringParam("summary", "A short narrative summary of the visitor's situation.", true).
		stringSliceParam("key_decisions", "Key decisions or commitments the visitor mentioned.", false).
		stringSliceParam("open_questions", "Questions that remain open for a consultant.", false).
		build()

	return []api.Tool{update, complete}
}
