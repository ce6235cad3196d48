package session

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Game options accepted by the server
const (
	MinRounds      = 3
	MaxRounds      = 10
	DefaultRounds  = 5
	MaxPlayers     = 8
	MinPlayers     = 2
	MaxNameLength  = 20
	RoomCodeLength = 4
)

// Game modes
const (
	ModeNormal   = "normal"
	ModeThemes   = "themes"
	ModeSameMeme = "same_meme"
	ModeRelaxed  = "relaxed"
)

// Image sources
const (
	ImageCustom  = "custom"
	ImageClassic = "classic"
)

// Vote values
const (
	VoteDislike = -1
	VoteMeh     = 0
	VoteLike    = 1
)

var timerChoices = []int{60, 90}

// CreateOptions are the host's choices for a new room
type CreateOptions struct {
	Mode          string
	ImageType     string
	NumRounds     int
	TimerDuration int
}

// normalize fills defaults and clamps numbers into the accepted ranges
func (o CreateOptions) normalize() (CreateOptions, error) {
	switch o.Mode {
	case "":
		o.Mode = ModeNormal
	case ModeNormal, ModeThemes, ModeSameMeme, ModeRelaxed:
	default:
		return o, fmt.Errorf("%w: mode %q", ErrInvalidGameOption, o.Mode)
	}

	switch o.ImageType {
	case "":
		o.ImageType = ImageCustom
	case ImageCustom, ImageClassic:
	default:
		return o, fmt.Errorf("%w: image type %q", ErrInvalidGameOption, o.ImageType)
	}

	switch {
	case o.NumRounds == 0:
		o.NumRounds = DefaultRounds
	case o.NumRounds < MinRounds:
		o.NumRounds = MinRounds
	case o.NumRounds > MaxRounds:
		o.NumRounds = MaxRounds
	}

	// snap to the closest allowed duration
	best := timerChoices[0]
	for _, c := range timerChoices {
		if abs(o.TimerDuration-c) < abs(o.TimerDuration-best) {
			best = c
		}
	}
	o.TimerDuration = best

	return o, nil
}

// NormalizeName trims and collapses whitespace in a display name
func NormalizeName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", ErrEmptyName
	}
	if r := []rune(name); len(r) > MaxNameLength {
		name = string(r[:MaxNameLength])
	}
	return name, nil
}

// NormalizeRoomCode strips accents and spaces, upper-cases, and checks the
// code is exactly four letters A-Z
func NormalizeRoomCode(code string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRoomCode, err)
	}

	stripped = strings.ToUpper(strings.Join(strings.Fields(stripped), ""))
	if len(stripped) != RoomCodeLength {
		return "", ErrInvalidRoomCode
	}
	for _, r := range stripped {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidRoomCode
		}
	}
	return stripped, nil
}

// Caption joins the two texts the way they are shown to voters
func Caption(text1, text2 string) string {
	if text2 != "" {
		return text1 + " / " + text2
	}
	return text1
}

func validVote(v int) bool {
	return v == VoteDislike || v == VoteMeh || v == VoteLike
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
