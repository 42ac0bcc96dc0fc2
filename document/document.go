package document

import (
	"fmt"
	"math"
	"strings"
)

// SectionKey identifies a section of a structured document. Keys are
// restricted to the enumeration of the document's kind; writes with any
// other key are rejected.
type SectionKey string

// Interview PRD sections, in canonical order.
const (
	SectionProblemStatement          SectionKey = "problemStatement"
	SectionObjectives                SectionKey = "objectives"
	SectionTargetUsers               SectionKey = "targetUsers"
	SectionFunctionalRequirements    SectionKey = "functionalRequirements"
	SectionNonFunctionalRequirements SectionKey = "nonFunctionalRequirements"
	SectionScope                     SectionKey = "scope"
	SectionRisks                     SectionKey = "risks"
	SectionSuccessMetrics            SectionKey = "successMetrics"
)

// Intake pain-point sections, in canonical order.
const (
	SectionPainPoints     SectionKey = "painPoints"
	SectionCurrentProcess SectionKey = "currentProcess"
	SectionDesiredOutcome SectionKey = "desiredOutcome"
	SectionConstraints    SectionKey = "constraints"
)

// Kind selects which section enumeration a document accepts.
type Kind string

const (
	KindInterview Kind = "interview"
	KindIntake    Kind = "intake"
)

var interviewSections = []SectionKey{
	SectionProblemStatement,
	SectionObjectives,
	SectionTargetUsers,
	SectionFunctionalRequirements,
	SectionNonFunctionalRequirements,
	SectionScope,
	SectionRisks,
	SectionSuccessMetrics,
}

var intakeSections = []SectionKey{
	SectionPainPoints,
	SectionCurrentProcess,
	SectionDesiredOutcome,
	SectionConstraints,
}

var sectionTitles = map[SectionKey]string{
	SectionProblemStatement:          "Problem Statement",
	SectionObjectives:                "Objectives",
	SectionTargetUsers:               "Target Users",
	SectionFunctionalRequirements:    "Functional Requirements",
	SectionNonFunctionalRequirements: "Non-Functional Requirements",
	SectionScope:                     "Scope",
	SectionRisks:                     "Risks",
	SectionSuccessMetrics:            "Success Metrics",
	SectionPainPoints:                "Pain Points",
	SectionCurrentProcess:            "Current Process",
	SectionDesiredOutcome:            "Desired Outcome",
	SectionConstraints:               "Constraints",
}

// SectionsFor returns the canonical section order for a document kind.
func SectionsFor(kind Kind) []SectionKey {
	if kind == KindIntake {
		return intakeSections
	}
	return interviewSections
}

// ErrUnknownSection is returned when a write names a key outside the
// document's enumeration. It carries the offending key so the caller can
// surface it back to the model as a correctable tool-result payload.
type ErrUnknownSection struct {
	Key string
}

func (e *ErrUnknownSection) Error() string {
	return fmt.Sprintf("unknown document section %q", e.Key)
}

// Document is a section-keyed text record incrementally filled during a
// conversation. Completeness is recomputed synchronously on every
// mutation and is never stale relative to Sections.
type Document struct {
	Kind               Kind                  `bson:"kind" json:"kind"`
	Sections           map[SectionKey]string `bson:"sections" json:"sections"`
	Completeness       int                   `bson:"completeness" json:"completeness"`
	LastUpdatedSection SectionKey            `bson:"lastUpdatedSection,omitempty" json:"lastUpdatedSection,omitempty"`

	// Intake-only completion state, set by a terminal tool call.
	IsComplete bool   `bson:"isComplete" json:"isComplete"`
	Summary    string `bson:"summary,omitempty" json:"summary,omitempty"`
}

// New creates an empty document for the given kind.
func New(kind Kind) *Document {
	return &Document{
		Kind:     kind,
		Sections: make(map[SectionKey]string),
	}
}

// ApplySectionUpdate writes content to a section and recomputes
// completeness. Unknown keys return *ErrUnknownSection and leave the
// document untouched.
func (d *Document) ApplySectionUpdate(key SectionKey, content string) (int, error) {
	if !d.knownKey(key) {
		return d.Completeness, &ErrUnknownSection{Key: string(key)}
	}

	d.Sections[key] = content
	d.LastUpdatedSection = key
	d.Completeness = d.computeCompleteness()
	return d.Completeness, nil
}

// MarkComplete sets the terminal completion flag and summary. It is
// idempotent; repeated calls overwrite the summary.
func (d *Document) MarkComplete(summary string) {
	d.IsComplete = true
	d.Summary = summary
}

// FilledCount reports how many sections hold non-whitespace content.
func (d *Document) FilledCount() int {
	filled := 0
	for _, key := range SectionsFor(d.Kind) {
		if strings.TrimSpace(d.Sections[key]) != "" {
			filled++
		}
	}
	return filled
}

// ToMarkdown renders the document in canonical section order, skipping
// empty sections. The output is deterministic for a given state.
func (d *Document) ToMarkdown() string {
	var b strings.Builder
	for _, key := range SectionsFor(d.Kind) {
		content := strings.TrimSpace(d.Sections[key])
		if content == "" {
			continue
		}
		b.WriteString("## ")
		b.WriteString(sectionTitles[key])
		b.WriteString("\n\n")
		b.WriteString(content)
		b.WriteString("\n\n")
	}
	return b.String()
}

func (d *Document) knownKey(key SectionKey) bool {
	for _, k := range SectionsFor(d.Kind) {
		if k == key {
			return true
		}
	}
	return false
}

func (d *Document) computeCompleteness() int {
	total := len(SectionsFor(d.Kind))
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(d.FilledCount()) / float64(total)))
}
