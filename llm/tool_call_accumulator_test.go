package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulator_FragmentsConcatenateByIndex(t *testing.T) {
	acc := NewToolCallAccumulator()

	// Fragments for index 1 arrive before index 0 is complete.
	acc.Add(0, "update_", "")
	acc.Add(1, "mark_complete", `{"summary":`)
	acc.Add(0, "document", `{"section":"painPoints",`)
	acc.Add(1, "", `"done"}`)
	acc.Add(0, "", `"content":"slow reports"}`)

	calls := acc.Finalize()
	require.Len(t, calls, 2)

	assert.Equal(t, "update_document", calls[0].Function.Name)
	assert.Equal(t, "painPoints", calls[0].Function.Arguments["section"])
	assert.Equal(t, "slow reports", calls[0].Function.Arguments["content"])

	assert.Equal(t, "mark_complete", calls[1].Function.Name)
	assert.Equal(t, "done", calls[1].Function.Arguments["summary"])
}

func TestAccumulator_SparseIndexGrowth(t *testing.T) {
	acc := NewToolCallAccumulator()
	acc.Add(2, "late_tool", `{}`)

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.Equal(t, "late_tool", calls[0].Function.Name)
}

func TestAccumulator_MalformedArgumentsDegradeToEmpty(t *testing.T) {
	acc := NewToolCallAccumulator()
	acc.Add(0, "update_document", `{"section": "painPoi`)

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].Function.Arguments)
}

func TestAccumulator_EmptyNamesDropped(t *testing.T) {
	acc := NewToolCallAccumulator()
	acc.Add(0, "", `{"a":1}`)

	assert.False(t, acc.HasCalls())
	assert.Empty(t, acc.Finalize())
}

func TestAccumulator_NegativeIndexIgnored(t *testing.T) {
	acc := NewToolCallAccumulator()
	acc.Add(-1, "tool", "{}")
	assert.False(t, acc.HasCalls())
}
