package state

import "fmt"

// Dice 是电子骰子的状态标识，只作为查找键使用
type Dice int

const (
	PowerOn Dice = iota
	StopDice
	PowerOff
)

// All returns every dice state in cycle order.
func All() []Dice {
	return []Dice{PowerOn, StopDice, PowerOff}
}

func (d Dice) String() string {
	switch d {
	case PowerOn:
		return "PowerOn"
	case StopDice:
		return "StopDice"
	case PowerOff:
		return "PowerOff"
	default:
		return fmt.Sprintf("Dice(%d)", int(d))
	}
}

// ParseDice converts a state name back to its identity.
func ParseDice(name string) (Dice, error) {
	for _, d := range All() {
		if d.String() == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown dice state %q", name)
}

func (d Dice) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Dice) UnmarshalText(text []byte) error {
	parsed, err := ParseDice(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
