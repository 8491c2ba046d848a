package tutorial

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() RelationshipGraph {
	return RelationshipGraph{
		Summary: "A small demo project.",
		Relationships: []Relationship{
			{From: 0, To: 1, Label: "Uses"},
			{From: 1, To: 0, Label: "Notifies"},
		},
	}
}

func TestOrderChapters(t *testing.T) {
	gen := &mockGenerator{
		responses: map[string]string{
			"best order to explain": "```yaml\n- 1 # Data Store\n- 0 # Request Router\n```",
		},
	}

	order, err := OrderChapters(context.Background(), sampleAbstractions(), sampleGraph(), "demoproj", gen)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, order)

	require.Equal(t, 1, gen.callCount())
	prompt := gen.calls[0]
	assert.Contains(t, prompt, "- 0 # Request Router\n- 1 # Data Store")
	assert.Contains(t, prompt, "Project Summary:\nA small demo project.")
	assert.Contains(t, prompt, "- From 0 (Request Router) to 1 (Data Store): Uses")
	assert.Contains(t, prompt, "Use the format `idx # AbstractionName`")
}

func TestOrderChaptersRejectsNonPermutation(t *testing.T) {
	tests := []struct {
		name     string
		response string
		reason   string
	}{
		{"duplicate index", "```yaml\n- 0 # A\n- 0 # A\n```", "repeats index 0"},
		{"wrong length", "```yaml\n- 0 # A\n```", "has 1 entries, want 2"},
		{"out of range", "```yaml\n- 0 # A\n- 2 # C\n```", "index 2 out of range [0,2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{
				responses: map[string]string{"best order to explain": tt.response},
			}

			_, err := OrderChapters(context.Background(), sampleAbstractions(), sampleGraph(), "demoproj", gen)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "order", verr.Stage)
			assert.Contains(t, verr.Reason, tt.reason)
			assert.ErrorIs(t, err, ErrPipeline)
		})
	}
}

func TestOrderChaptersMissingBlock(t *testing.T) {
	gen := &mockGenerator{
		responses: map[string]string{"best order to explain": "first do 1, then 0"},
	}

	_, err := OrderChapters(context.Background(), sampleAbstractions(), sampleGraph(), "demoproj", gen)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "no fenced yaml block")
}

func TestValidatePermutation(t *testing.T) {
	assert.NoError(t, validatePermutation([]int{0}, 1))
	assert.NoError(t, validatePermutation([]int{2, 0, 1}, 3))
	assert.Error(t, validatePermutation([]int{0, 1}, 3))
	assert.Error(t, validatePermutation([]int{0, 1, 1}, 3))
	assert.Error(t, validatePermutation([]int{0, 1, 3}, 3))
	assert.Error(t, validatePermutation([]int{-1, 0, 1}, 3))
}
