package state

import (
	"bytes"
	"strings"
	"testing"
)

// MockObserver records every transition it sees.
type MockObserver struct {
	Transitions []Transition
}

func (m *MockObserver) OnTransition(t Transition) {
	m.Transitions = append(m.Transitions, t)
}

func newTestContext(opts ...Option) (*Context, *bytes.Buffer) {
	var out bytes.Buffer
	opts = append([]Option{WithOutput(&out)}, opts...)
	return NewContext(opts...), &out
}

func TestContext_InitialState(t *testing.T) {
	ctx, _ := newTestContext()

	if ctx.CurrentState() != PowerOn {
		t.Errorf("Expected initial state PowerOn, got %s", ctx.CurrentState())
	}
	if _, ok := ctx.Number(); ok {
		t.Error("Number should be unset on a fresh context")
	}
}

func TestContext_PressButton_Cycle(t *testing.T) {
	ctx, _ := newTestContext()
	expected := []Dice{StopDice, PowerOff, PowerOn}

	for i, want := range expected {
		tr := ctx.PressButton()
		if ctx.CurrentState() != want {
			t.Fatalf("Press %d: expected state %s, got %s", i+1, want, ctx.CurrentState())
		}
		if tr.To != want {
			t.Errorf("Press %d: transition reports %s, expected %s", i+1, tr.To, want)
		}
	}
}

func TestContext_PressOnce(t *testing.T) {
	ctx, _ := newTestContext()
	ctx.PressButton()

	if ctx.CurrentState() != StopDice {
		t.Errorf("Expected StopDice after one press, got %s", ctx.CurrentState())
	}
	if _, ok := ctx.Number(); ok {
		t.Error("Number should still be unset before the dice stops")
	}
}

func TestContext_NumberStaysAfterStop(t *testing.T) {
	ctx, _ := newTestContext()
	ctx.PressButton()
	ctx.PressButton()

	n, ok := ctx.Number()
	if !ok || n != 4 {
		t.Fatalf("Expected number 4 after the stop press, got %d (set=%v)", n, ok)
	}

	for i := 0; i < 4; i++ {
		ctx.PressButton()
		if n, ok := ctx.Number(); !ok || n != 4 {
			t.Fatalf("Number should remain 4 on later presses, got %d (set=%v)", n, ok)
		}
	}
}

func TestContext_ThreePresses(t *testing.T) {
	ctx, out := newTestContext()
	for i := 0; i < 3; i++ {
		ctx.PressButton()
	}

	if ctx.CurrentState() != PowerOn {
		t.Errorf("Expected PowerOn after three presses, got %s", ctx.CurrentState())
	}
	if n, ok := ctx.Number(); !ok || n != 4 {
		t.Errorf("Expected number 4 after three presses, got %d (set=%v)", n, ok)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	want := []string{"Power on and Shake the dice.", "Stopping the dice.", "Power off."}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d narration lines, got %d: %q", len(want), len(lines), out.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("Line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestHandlers_Total(t *testing.T) {
	handlers := Handlers()
	if len(handlers) != len(All()) {
		t.Fatalf("Expected %d handlers, got %d", len(All()), len(handlers))
	}
	for _, d := range All() {
		if handlers[d] == nil {
			t.Errorf("No handler registered for %s", d)
		}
	}
}

func TestContext_UnregisteredStatePanics(t *testing.T) {
	ctx, _ := newTestContext()
	ctx.SetState(Dice(42))

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Expected PressButton to panic for an unregistered state")
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, "Dice(42)") {
			t.Errorf("Panic message should name the state, got %v", r)
		}
	}()
	ctx.PressButton()
}

func TestContext_ObserversSeeEveryPress(t *testing.T) {
	observer := &MockObserver{}
	ctx, _ := newTestContext(WithObserver(observer))

	ctx.PressButton()
	ctx.PressButton()

	if len(observer.Transitions) != 2 {
		t.Fatalf("Expected 2 transitions, got %d", len(observer.Transitions))
	}
	stop := observer.Transitions[1]
	if stop.From != StopDice || stop.To != PowerOff {
		t.Errorf("Expected StopDice -> PowerOff, got %s -> %s", stop.From, stop.To)
	}
	if stop.Number == nil || *stop.Number != 4 {
		t.Errorf("Expected the stop transition to carry number 4")
	}
	if stop.Message != "Stopping the dice." {
		t.Errorf("Unexpected message %q", stop.Message)
	}
}

func TestContext_String(t *testing.T) {
	ctx, _ := newTestContext()
	if got := ctx.String(); got != "StateContext { number: None, current_state: PowerOn }" {
		t.Errorf("Unexpected dump for fresh context: %s", got)
	}

	ctx.PressButton()
	ctx.PressButton()
	if got := ctx.String(); got != "StateContext { number: Some(4), current_state: PowerOff }" {
		t.Errorf("Unexpected dump after stop: %s", got)
	}
}

func TestContext_CustomRoller(t *testing.T) {
	ctx, _ := newTestContext(WithRoller(FixedRoller(6)))
	ctx.PressButton()
	ctx.PressButton()

	if n, _ := ctx.Number(); n != 6 {
		t.Errorf("Expected roller value 6, got %d", n)
	}
}

func TestRandomRoller_Range(t *testing.T) {
	roller := NewRandomRoller(6, 1)
	for i := 0; i < 100; i++ {
		n := roller.Roll()
		if n < 1 || n > 6 {
			t.Fatalf("Roll out of range: %d", n)
		}
	}
}

func TestParseDice(t *testing.T) {
	for _, d := range All() {
		parsed, err := ParseDice(d.String())
		if err != nil {
			t.Fatalf("ParseDice(%s) failed: %v", d, err)
		}
		if parsed != d {
			t.Errorf("Expected %s, got %s", d, parsed)
		}
	}

	if _, err := ParseDice("Exploded"); err == nil {
		t.Error("Expected an error for an unknown state name")
	}
}
