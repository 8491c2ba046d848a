package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestExtractYAMLBlock(t *testing.T) {
	response := "Here are the results:\n\n```yaml\n- name: Pipeline\n  value: 1\n```\n\nHope that helps!"

	block, err := ExtractYAMLBlock(response)
	require.NoError(t, err)
	assert.Equal(t, "- name: Pipeline\n  value: 1", block)
}

func TestExtractYAMLBlockPicksFirst(t *testing.T) {
	response := "```yaml\nfirst: 1\n```\nand then\n```yaml\nsecond: 2\n```"

	block, err := ExtractYAMLBlock(response)
	require.NoError(t, err)
	assert.Equal(t, "first: 1", block)
}

func TestExtractYAMLBlockMissing(t *testing.T) {
	_, err := ExtractYAMLBlock("plain prose with no fence")
	require.ErrorIs(t, err, ErrNoYAMLBlock)

	// A plain ``` fence without the yaml tag does not count.
	_, err = ExtractYAMLBlock("```\nkey: value\n```")
	require.ErrorIs(t, err, ErrNoYAMLBlock)
}

func TestExtractYAMLBlockUnterminated(t *testing.T) {
	_, err := ExtractYAMLBlock("```yaml\nkey: value\nnope")
	require.ErrorIs(t, err, ErrNoYAMLBlock)
	assert.Contains(t, err.Error(), "unterminated")
}

func TestDecodeYAML(t *testing.T) {
	response := "```yaml\nsummary: |\n  A short overview.\nrelationships:\n  - from_abstraction: 0 # Alpha\n    to_abstraction: 1 # Beta\n    label: \"Uses\"\n```"

	var out struct {
		Summary       string `yaml:"summary"`
		Relationships []struct {
			From  IndexRef `yaml:"from_abstraction"`
			To    IndexRef `yaml:"to_abstraction"`
			Label string   `yaml:"label"`
		} `yaml:"relationships"`
	}
	require.NoError(t, DecodeYAML(response, &out))

	assert.Equal(t, "A short overview.\n", out.Summary)
	require.Len(t, out.Relationships, 1)
	assert.Equal(t, 0, int(out.Relationships[0].From))
	assert.Equal(t, 1, int(out.Relationships[0].To))
	assert.Equal(t, "Uses", out.Relationships[0].Label)
}

func TestDecodeYAMLBadPayload(t *testing.T) {
	var out []string
	err := DecodeYAML("```yaml\n{not: valid: yaml:\n```", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding yaml block")
}

func TestIndexRefForms(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want []int
	}{
		{"bare integers", "- 0\n- 3\n- 7", []int{0, 3, 7}},
		{"trailing comments", "- 0 # path/to/file.py\n- 3 # other.go", []int{0, 3}},
		{"quoted references", "- \"2 # internal/store/store.go\"\n- '5 # cmd/main.go'", []int{2, 5}},
		{"mixed", "- 1\n- \"4 # notes\"", []int{1, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var refs []IndexRef
			require.NoError(t, yaml.Unmarshal([]byte(tt.yaml), &refs))
			assert.Equal(t, tt.want, Ints(refs))
		})
	}
}

func TestIndexRefRejectsGarbage(t *testing.T) {
	var refs []IndexRef
	err := yaml.Unmarshal([]byte("- \"abc # no number\""), &refs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unparseable index reference")

	err = yaml.Unmarshal([]byte("- [0, 1]"), &refs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a scalar")
}

func TestParseIndexRef(t *testing.T) {
	tests := []struct {
		entry   string
		want    int
		wantErr bool
	}{
		{"3", 3, false},
		{" 12 ", 12, false},
		{"0 # path/to/file.go", 0, false},
		{"7 #comment", 7, false},
		{"# only comment", 0, true},
		{"", 0, true},
		{"x3", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseIndexRef(tt.entry)
		if tt.wantErr {
			assert.Error(t, err, "entry %q", tt.entry)
			continue
		}
		require.NoError(t, err, "entry %q", tt.entry)
		assert.Equal(t, tt.want, got, "entry %q", tt.entry)
	}
}
