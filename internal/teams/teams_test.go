package teams

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	d, err := dex.New()
	require.NoError(t, err)
	return NewParser(slog.New(slog.NewTextHandler(io.Discard, nil)), d)
}

const sampleTeam = `Gholdengo @ Choice Specs
Ability: Good as Gold
Level: 100
Tera Type: Steel
EVs: 252 SpA / 4 SpD / 252 Spe
Timid Nature
- Make It Rain
- Shadow Ball
- Recover
- Nasty Plot

Garchomp (M) @ Leftovers
Ability: Rough Skin
- Earthquake
- Stone Edge
`

func TestParseTeam(t *testing.T) {
	p := newTestParser(t)

	team, err := p.ParseTeam(sampleTeam)
	require.NoError(t, err)
	require.Len(t, team, 2)

	g := team[0]
	assert.Equal(t, "Gholdengo", g.Species)
	assert.Equal(t, "Choice Specs", g.Item)
	assert.Equal(t, "Good as Gold", g.Ability)
	assert.Equal(t, 100, g.Level)
	assert.Equal(t, "Steel", g.TeraType)
	assert.Equal(t, []string{"Make It Rain", "Shadow Ball", "Recover", "Nasty Plot"}, g.Moves)

	c := team[1]
	assert.Equal(t, "Garchomp", c.Species)
	assert.Equal(t, "Leftovers", c.Item)
	assert.Equal(t, []string{"Earthquake", "Stone Edge"}, c.Moves)
	assert.Zero(t, c.Level)
}

func TestParseTeam_Nickname(t *testing.T) {
	p := newTestParser(t)

	team, err := p.ParseTeam("Longneck (Garchomp) (F) @ Rocky Helmet\n- Earthquake\n")
	require.NoError(t, err)
	require.Len(t, team, 1)
	assert.Equal(t, "Garchomp", team[0].Species)
	assert.Equal(t, "Rocky Helmet", team[0].Item)
}

func TestParseTeam_BareSpecies(t *testing.T) {
	p := newTestParser(t)

	team, err := p.ParseTeam("Pikachu\n- Thunderbolt\n")
	require.NoError(t, err)
	require.Len(t, team, 1)
	assert.Equal(t, "Pikachu", team[0].Species)
	assert.Empty(t, team[0].Item)
}

func TestParseTeam_Errors(t *testing.T) {
	p := newTestParser(t)

	tests := []struct {
		name    string
		input   string
		errIs   error
		errText string
	}{
		{
			name:    "empty text",
			input:   "\n\n",
			errText: "no pokemon found",
		},
		{
			name:    "unknown species",
			input:   "Missingno\n- Thunderbolt\n",
			errIs:   battle.ErrMissingEntity,
			errText: `species "Missingno"`,
		},
		{
			name:    "unknown move",
			input:   "Pikachu\n- Splash Dance\n",
			errIs:   battle.ErrMissingEntity,
			errText: `move "Splash Dance"`,
		},
		{
			name:    "too many moves",
			input:   "Pikachu\n- Thunderbolt\n- Volt Switch\n- Surf\n- Protect\n- Thunder Wave\n",
			errText: "max is 4",
		},
		{
			name:    "bad level",
			input:   "Pikachu\nLevel: ten\n- Thunderbolt\n",
			errText: "bad level",
		},
		{
			name:    "garbage line",
			input:   "Pikachu\nFavorite Color: Yellow\n- Thunderbolt\n",
			errText: "unrecognized line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseTeam(tt.input)
			require.Error(t, err)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
			}
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestParseTeam_NoValidationWithoutDex(t *testing.T) {
	p := NewParser(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	team, err := p.ParseTeam("Missingno\n- Splash Dance\n")
	require.NoError(t, err)
	assert.Equal(t, "Missingno", team[0].Species)
}

func TestParseTeams(t *testing.T) {
	p := newTestParser(t)

	text := "=== [gen9ou] Balance ===\n\nPikachu\n- Thunderbolt\n\n" +
		"=== [gen9ou] Hyper Offense ===\n\nKingambit @ Leftovers\n- Iron Head\n- Sucker Punch\n"

	got, err := p.ParseTeams(text)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Pikachu", got["Balance"][0].Species)
	assert.Equal(t, "Kingambit", got["Hyper Offense"][0].Species)
}

func TestParseTeams_NoHeaders(t *testing.T) {
	p := newTestParser(t)

	_, err := p.ParseTeams("Pikachu\n- Thunderbolt\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no team headers")
}

func TestParseTeamFile(t *testing.T) {
	p := newTestParser(t)

	path := filepath.Join(t.TempDir(), "team.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleTeam), 0644))

	team, err := p.ParseTeamFile(path)
	require.NoError(t, err)
	assert.Len(t, team, 2)
}

func TestParseTeamFile_Missing(t *testing.T) {
	p := newTestParser(t)

	_, err := p.ParseTeamFile(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading team file")
}
