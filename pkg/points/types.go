package points

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrPointNotReady is returned when placing a point whose response level
	// row has not been computed yet.
	ErrPointNotReady = errors.New("point has no survival coordinate yet")

	// ErrUnknownPoint is returned for a key that is not in the store.
	ErrUnknownPoint = errors.New("unknown point")

	// ErrMalformedKey is returned when a flattened key cannot be split.
	ErrMalformedKey = errors.New("malformed point key")

	// ErrUnknownLevel is returned for a response level outside Levels.
	ErrUnknownLevel = errors.New("unknown response level")
)

// Level is a response level, kept as the literal string used in records.
type Level string

const (
	Level0   Level = "0%"
	Level25  Level = "25%"
	Level50  Level = "50%"
	Level75  Level = "75%"
	Level100 Level = "100%"
)

// Levels lists every response level in display order.
var Levels = []Level{Level0, Level25, Level50, Level75, Level100}

// ParseLevel validates s against Levels.
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// Percent returns the numeric percentage of the level.
func (l Level) Percent() float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(string(l), "%"), 64)
	if err != nil {
		panic(fmt.Sprintf("invalid response level %q", string(l)))
	}
	return v
}

// Key identifies one point: a group at a response level.
type Key struct {
	Group string
	Level Level
}

// String flattens the key to the "group_level" form used in records. Two
// groups whose flattened keys collide are not supported.
func (k Key) String() string {
	return k.Group + "_" + string(k.Level)
}

// ParseKey splits a flattened key on its last underscore, so group names
// may themselves contain underscores.
func ParseKey(s string) (Key, error) {
	i := strings.LastIndex(s, "_")
	if i <= 0 {
		return Key{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	l, err := ParseLevel(s[i+1:])
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q: %v", ErrMalformedKey, s, err)
	}
	return Key{Group: s[:i], Level: l}, nil
}

// Coord is a pixel position where either axis may be unset. Y is the
// response level row, X is the user-placed crossing.
type Coord struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// IsEmpty reports whether neither axis is set.
func (c Coord) IsEmpty() bool {
	return c.X == nil && c.Y == nil
}

// IsSet reports whether both axes are set.
func (c Coord) IsSet() bool {
	return c.X != nil && c.Y != nil
}

func (c Coord) clone() Coord {
	var out Coord
	if c.X != nil {
		x := *c.X
		out.X = &x
	}
	if c.Y != nil {
		y := *c.Y
		out.Y = &y
	}
	return out
}
