package parsers

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/dramanet/internal/domain/entities"
)

const yamlDoc = `
name: elsinore
relation_types: [mentor]
characters:
  - id: hamlet
    name: Hamlet
    profile:
      motivations_goals: avenge his father
  - id: claudius
    name: Claudius
relationships:
  - id: r1
    source: hamlet
    target: claudius
    type: enmity
    nature: negative
    strength: 9
conflicts:
  - id: c1
    name: The Crown
    involved_characters: [hamlet, claudius]
    subject: power
    scope: interpersonal
    phase: escalating
    strength: 8
    related_relationships: [r1]
    timestamps: [2024-03-01T12:00:00Z]
`

func TestYAMLParser_Parse(t *testing.T) {
	state, err := (&YAMLParser{}).Parse(strings.NewReader(yamlDoc))
	require.NoError(t, err)

	assert.Equal(t, "elsinore", state.Name)
	assert.Equal(t, []string{"mentor"}, state.RelationTypes)
	require.Len(t, state.Characters, 2)
	assert.Equal(t, "avenge his father", state.Characters[0].Profile[entities.ProfileMotivations])
	require.Len(t, state.Relationships, 1)
	assert.Equal(t, entities.RelationEnmity, state.Relationships[0].Type)
	require.Len(t, state.Conflicts, 1)
	c := state.Conflicts[0]
	assert.Equal(t, []string{"hamlet", "claudius"}, c.InvolvedCharacters)
	assert.Equal(t, entities.PhaseEscalating, c.Phase)
	require.Len(t, c.Timestamps, 1)
	assert.Equal(t, 2024, c.Timestamps[0].Year())

	n, err := entities.NewNetworkFromState(state)
	require.NoError(t, err)
	chars, rels, conflicts := n.Counts()
	assert.Equal(t, []int{2, 1, 1}, []int{chars, rels, conflicts})
}

func TestYAMLParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{name: "empty document", input: "", errMsg: "empty document"},
		{name: "unknown field", input: "name: x\nactors: []\n", errMsg: "parsing YAML"},
		{name: "wrong type", input: "characters: nope\n", errMsg: "parsing YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&YAMLParser{}).Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestJSONParser_Parse(t *testing.T) {
	input := `{
		"name": "arden",
		"characters": [{"id": "rosalind", "name": "Rosalind"}, {"id": "orlando", "name": "Orlando"}],
		"relationships": [{"id": "r1", "source": "orlando", "target": "rosalind", "type": "love", "nature": "positive", "strength": 9, "mutual": true}],
		"conflicts": []
	}`

	state, err := (&JSONParser{}).Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "arden", state.Name)
	require.Len(t, state.Relationships, 1)
	assert.True(t, state.Relationships[0].Mutual)
	assert.Equal(t, 9, state.Relationships[0].Strength)
}

func TestJSONParser_Parse_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: "not json"},
		{name: "unknown field", input: `{"name": "x", "cast": []}`},
		{name: "array instead of object", input: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&JSONParser{}).Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "parsing JSON")
		})
	}
}

func TestCodecs_RoundTrip(t *testing.T) {
	original, err := (&YAMLParser{}).Parse(strings.NewReader(yamlDoc))
	require.NoError(t, err)
	n, err := entities.NewNetworkFromState(original)
	require.NoError(t, err)
	state := n.State()

	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			codec := ForFormat(format)
			var buf bytes.Buffer
			require.NoError(t, codec.Encode(&buf, state))

			decoded, err := codec.Parse(&buf)
			require.NoError(t, err)

			rebuilt, err := entities.NewNetworkFromState(decoded)
			require.NoError(t, err)
			got := rebuilt.State()
			assert.Equal(t, state.Characters, got.Characters)
			assert.Equal(t, state.Relationships, got.Relationships)
			require.Len(t, got.Conflicts, 1)
			assert.True(t, state.Conflicts[0].Timestamps[0].Equal(got.Conflicts[0].Timestamps[0]))
		})
	}
}

func TestCSVParser_Parse(t *testing.T) {
	input := "source,target,type,strength,nature,mutual,id\n" +
		"hamlet,horatio,friendship,8,positive,true,\n" +
		"hamlet,claudius,enmity,9,negative,,r-hate\n" +
		"ophelia,hamlet,love,7,,,\n"

	state, err := (&CSVParser{}).Parse(strings.NewReader(input))
	require.NoError(t, err)

	ids := make([]string, len(state.Characters))
	for i, c := range state.Characters {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"hamlet", "horatio", "claudius", "ophelia"}, ids)

	require.Len(t, state.Relationships, 3)
	assert.Equal(t, entities.Relationship{
		ID: "r2", Source: "hamlet", Target: "horatio", Type: "friendship",
		Nature: entities.NaturePositive, Strength: 8, Mutual: true,
	}, state.Relationships[0])
	assert.Equal(t, "r-hate", state.Relationships[1].ID)
	assert.Equal(t, entities.NatureAmbivalent, state.Relationships[2].Nature)
}

func TestCSVParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{
			name:   "missing required column",
			input:  "source,target,type\nhamlet,horatio,friendship\n",
			errMsg: "missing required column: strength",
		},
		{
			name:   "invalid strength value",
			input:  "source,target,type,strength\nhamlet,horatio,friendship,strong\n",
			errMsg: "line 2: invalid strength value",
		},
		{
			name:   "invalid mutual value",
			input:  "source,target,type,strength,mutual\nhamlet,horatio,friendship,5,sometimes\n",
			errMsg: "invalid mutual value",
		},
		{
			name:   "empty input",
			input:  "",
			errMsg: "reading CSV header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&CSVParser{}).Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCSVParser_Encode(t *testing.T) {
	state := entities.NetworkState{
		Relationships: []entities.Relationship{
			{ID: "r1", Source: "a", Target: "b", Type: "love", Nature: entities.NaturePositive, Strength: 7, Description: "first, sight"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, (&CSVParser{}).Encode(&buf, state))

	assert.Equal(t, "id,source,target,type,nature,strength,mutual,description\n"+
		"r1,a,b,love,positive,7,false,\"first, sight\"\n", buf.String())

	decoded, err := (&CSVParser{}).Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, state.Relationships, decoded.Relationships)
}

func TestForFormat(t *testing.T) {
	assert.IsType(t, &JSONParser{}, ForFormat("json"))
	assert.IsType(t, &YAMLParser{}, ForFormat("YAML"))
	assert.IsType(t, &YAMLParser{}, ForFormat("yml"))
	assert.IsType(t, &CSVParser{}, ForFormat("csv"))
	assert.Nil(t, ForFormat("unknown"))
}

func TestForFile(t *testing.T) {
	assert.IsType(t, &JSONParser{}, ForFile("cast.json"))
	assert.IsType(t, &YAMLParser{}, ForFile("cast.yaml"))
	assert.IsType(t, &CSVParser{}, ForFile("edges.csv"))
	assert.Nil(t, ForFile("notes.txt"))
	assert.Nil(t, ForFile("noextension"))
}
