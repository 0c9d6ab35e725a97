package roster

import "context"

// KeyTeams is the session key the fetched pairs are cached under
const KeyTeams = "teams"

// Pair is one roster row as the remote endpoint delivers it: TeamA is the team name and TeamB
// the player name.
type Pair struct {
	TeamA string `json:"teamA"`
	TeamB string `json:"teamB"`
}

// Source fetches the full roster
type Source interface {
	FetchPairs(ctx context.Context) ([]Pair, error)
}
