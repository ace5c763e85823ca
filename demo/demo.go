// Package demo drives a dice through a fixed number of button presses and
// prints the context after each one.
package demo

import (
	"fmt"
	"io"

	"github.com/wfunc/dicebox/state"
)

// Owner is the journal owner used for demo presses.
const Owner = "demo"

// Run presses the button presses times. Narration goes to wherever the dice
// was configured to write; the dump after each press goes to out.
func Run(dice *state.Context, presses int, format string, out io.Writer) error {
	for i := 0; i < presses; i++ {
		dice.PressButton()
		dump, err := dice.Snapshot().Format(format)
		if err != nil {
			return err
		}
		if _, err := out.Write(dump); err != nil {
			return fmt.Errorf("write dump: %w", err)
		}
	}
	return nil
}
