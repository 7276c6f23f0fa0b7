package market

import (
	"fmt"
	"strings"
)

// Direction is the directional bias of a trade idea.
type Direction int

const (
	DirectionUnknown Direction = iota
	Long
	Short
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "unknown"
	}
}

// Side maps the direction onto the order side sent to a venue.
func (d Direction) Side() Side {
	if d == Short {
		return Sell
	}
	return Buy
}

// ParseDirection accepts long/short and the buy/sell aliases used by signal feeds.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy":
		return Long, nil
	case "short", "sell":
		return Short, nil
	default:
		return DirectionUnknown, fmt.Errorf("unknown direction %q (want long|short)", s)
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

type Side string

const (
	Buy  Side = "Buy"
	Sell Side = "Sell"
)

// Mode selects the account and endpoint an order is routed to.
type Mode string

const (
	Practice Mode = "practice"
	Real     Mode = "real"
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "practice", "demo", "paper":
		return Practice, nil
	case "real", "live":
		return Real, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want practice|real)", s)
	}
}

type OrderKind string

const (
	Market     OrderKind = "Market"
	Limit      OrderKind = "Limit"
	OcoBracket OrderKind = "OcoBracket"
)

func ParseOrderKind(s string) (OrderKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "market":
		return Market, nil
	case "limit":
		return Limit, nil
	case "oco", "ocobracket", "bracket":
		return OcoBracket, nil
	default:
		return "", fmt.Errorf("unknown order kind %q (want market|limit|oco)", s)
	}
}
