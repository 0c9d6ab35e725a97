package scorelog

import (
	"fmt"
	"strings"
)

// Side is the half of the scoreboard an entry belongs to
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// ParseSide accepts "A"/"B" in either case
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideA:
		return SideA, nil
	case SideB:
		return SideB, nil
	}
	return "", fmt.Errorf("%w: unknown side %q", ErrValidation, s)
}

// CreditKind tags what a scorer or assist credit refers to
type CreditKind int

const (
	// CreditUnset is the zero value: nothing was selected
	CreditUnset CreditKind = iota
	CreditPlayer
	// CreditNone is "no assist" (or an unknown scorer)
	CreditNone
	// CreditCallahan is a defensive score in the end zone, recorded in place of an assist
	CreditCallahan
)

// Labels used at the UI and wire boundary
const (
	LabelNone     = "N/A"
	LabelCallahan = "CALLAHAN"
)

// labels the page has shown over time for the same credits
var (
	noneAliases     = []string{LabelNone, "🚫N/A"}
	callahanAliases = []string{LabelCallahan, "‼️ CALLAHAN ‼️"}
)

// Credit is a scorer or assist value
type Credit struct {
	Kind   CreditKind
	Player string
}

// Player credits a named player
func Player(name string) Credit {
	return Credit{Kind: CreditPlayer, Player: name}
}

var (
	NoCredit       = Credit{Kind: CreditNone}
	CallahanCredit = Credit{Kind: CreditCallahan}
)

// ParseCredit converts a dropdown label into a Credit. An empty label is CreditUnset.
func ParseCredit(label string) Credit {
	label = strings.TrimSpace(label)
	if label == "" {
		return Credit{}
	}
	for _, alias := range noneAliases {
		if label == alias {
			return NoCredit
		}
	}
	for _, alias := range callahanAliases {
		if label == alias {
			return CallahanCredit
		}
	}
	return Player(label)
}

// IsSet reports whether something was selected
func (c Credit) IsSet() bool {
	return c.Kind != CreditUnset
}

func (c Credit) String() string {
	switch c.Kind {
	case CreditPlayer:
		return c.Player
	case CreditNone:
		return LabelNone
	case CreditCallahan:
		return LabelCallahan
	}
	return ""
}

func (c Credit) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Credit) UnmarshalText(text []byte) error {
	*c = ParseCredit(string(text))
	return nil
}

// Entry is one scoring event. The JSON shape is a superset of the log record the page has
// always kept in session storage.
type Entry struct {
	ID         string `json:"scoreID"`
	GameID     string `json:"GameID"`
	RecordedAt string `json:"Time"`
	Team       string `json:"Team"`
	Scorer     Credit `json:"Score"`
	Assist     Credit `json:"Assist"`
	Side       Side   `json:"Side,omitempty"`
	Scoreboard string `json:"Scoreboard,omitempty"`
}

// Record converts the entry to the submitted log shape
func (e Entry) Record() LogRecord {
	return LogRecord{
		ScoreID: e.ID,
		GameID:  e.GameID,
		Time:    e.RecordedAt,
		Team:    e.Team,
		Score:   e.Scorer.String(),
		Assist:  e.Assist.String(),
	}
}

// LogRecord is one entry as the submission endpoint expects it
type LogRecord struct {
	ScoreID string `json:"scoreID"`
	GameID  string `json:"GameID"`
	Time    string `json:"Time"`
	Team    string `json:"Team"`
	Score   string `json:"Score"`
	Assist  string `json:"Assist"`
}

// Payload is the body of a game log submission
type Payload struct {
	GameID string      `json:"GameID"`
	Date   string      `json:"Date"`
	Logs   []LogRecord `json:"logs"`
}

// Totals are the running team scores
type Totals struct {
	A int `json:"teamA"`
	B int `json:"teamB"`
}

// Scoreboard renders the totals as "A:B"
func (t Totals) Scoreboard() string {
	return fmt.Sprintf("%d:%d", t.A, t.B)
}

func (t Totals) add(side Side) Totals {
	if side == SideA {
		t.A++
	} else {
		t.B++
	}
	return t
}

// Teams is the team selection of the current session
type Teams struct {
	A string `json:"teamA"`
	B string `json:"teamB"`
	// GameID is fixed by the first entry of the session
	GameID string `json:"gameID,omitempty"`
}

// Name returns the team name playing on side
func (t Teams) Name(side Side) string {
	if side == SideA {
		return t.A
	}
	return t.B
}

func (t Teams) derivedGameID() string {
	return t.A + " vs " + t.B
}

// FormMode tells the host whether a save will add or edit
type FormMode string

const (
	FormAdd  FormMode = "add"
	FormEdit FormMode = "edit"
)

// Selection holds the pre-selected dropdown values of an edit form
type Selection struct {
	Scorer string `json:"scorer"`
	Assist string `json:"assist"`
}

// Form is what the host needs to render the score popup
type Form struct {
	Mode     FormMode   `json:"mode"`
	Side     Side       `json:"side"`
	Team     string     `json:"team"`
	EntryID  string     `json:"entry_id,omitempty"`
	Scorers  []string   `json:"scorers"`
	Assists  []string   `json:"assists"`
	Selected *Selection `json:"selected,omitempty"`
}

func newForm(mode FormMode, side Side, team string, players []string) Form {
	scorers := make([]string, 0, len(players)+1)
	scorers = append(scorers, players...)
	scorers = append(scorers, LabelNone)

	assists := make([]string, 0, len(players)+2)
	assists = append(assists, players...)
	assists = append(assists, LabelNone, LabelCallahan)

	return Form{
		Mode:    mode,
		Side:    side,
		Team:    team,
		Scorers: scorers,
		Assists: assists,
	}
}

// Row is a new table row. Scoreboard is the snapshot taken when the entry was added.
type Row struct {
	EntryID    string `json:"entry_id"`
	Side       Side   `json:"side"`
	Scorer     string `json:"scorer"`
	Assist     string `json:"assist"`
	Scoreboard string `json:"scoreboard"`
}

// RowUpdate replaces the scorer and assist cells of an existing row
type RowUpdate struct {
	EntryID string `json:"entry_id"`
	Side    Side   `json:"side"`
	Scorer  string `json:"scorer"`
	Assist  string `json:"assist"`
}

// Row renders the entry as a table row
func (e Entry) Row() Row {
	return Row{
		EntryID:    e.ID,
		Side:       e.Side,
		Scorer:     e.Scorer.String(),
		Assist:     e.Assist.String(),
		Scoreboard: e.Scoreboard,
	}
}

// BannerKind distinguishes success and error banners
type BannerKind string

const (
	BannerSuccess BannerKind = "success"
	BannerError   BannerKind = "error"
)

// Banner is a user-visible message
type Banner struct {
	Kind    BannerKind `json:"kind"`
	Message string     `json:"message"`
}
