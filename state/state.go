package state

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wfunc/dicebox/logger"
)

// Handler 是某个状态下按下按钮时的动作
type Handler func(c *Context)

// Transition describes one button press.
type Transition struct {
	From    Dice
	To      Dice
	Number  *uint8
	Message string
	At      time.Time
}

// Observer is notified after every button press.
type Observer interface {
	OnTransition(t Transition)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(t Transition)

func (f ObserverFunc) OnTransition(t Transition) {
	f(t)
}

// handlerFor 返回状态对应的处理函数，状态集合是封闭的
func handlerFor(d Dice) (Handler, bool) {
	switch d {
	case PowerOn:
		return onPowerOn, true
	case StopDice:
		return onStopDice, true
	case PowerOff:
		return onPowerOff, true
	}
	return nil, false
}

// Handlers returns the registered handler for every dice state.
func Handlers() map[Dice]Handler {
	table := make(map[Dice]Handler, len(All()))
	for _, d := range All() {
		if h, ok := handlerFor(d); ok {
			table[d] = h
		}
	}
	return table
}

func onPowerOn(c *Context) {
	c.say("Power on and Shake the dice.")
	c.SetState(StopDice)
}

func onStopDice(c *Context) {
	c.say("Stopping the dice.")
	c.SetDiceNumber(c.roller.Roll())
	c.SetState(PowerOff)
}

func onPowerOff(c *Context) {
	c.say("Power off.")
	c.SetState(PowerOn)
}

// Option configures a Context.
type Option func(c *Context)

// WithOutput sets where narration lines are written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Context) {
		c.out = w
	}
}

// WithRoller replaces the default fixed roller.
func WithRoller(r Roller) Option {
	return func(c *Context) {
		c.roller = r
	}
}

// WithObserver registers an observer for every press.
func WithObserver(o Observer) Option {
	return func(c *Context) {
		c.observers = append(c.observers, o)
	}
}

// Context 保存当前状态和骰子点数
type Context struct {
	number       *uint8
	currentState Dice
	lastMessage  string
	out          io.Writer
	roller       Roller
	observers    []Observer
}

// NewContext returns a powered-on context with no number rolled yet.
func NewContext(opts ...Option) *Context {
	c := &Context{
		currentState: PowerOn,
		out:          os.Stdout,
		roller:       FixedRoller(DefaultNumber),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) SetState(s Dice) {
	c.currentState = s
}

func (c *Context) SetDiceNumber(n uint8) {
	c.number = &n
}

func (c *Context) CurrentState() Dice {
	return c.currentState
}

// Number returns the rolled number and whether the dice has stopped at least once.
func (c *Context) Number() (uint8, bool) {
	if c.number == nil {
		return 0, false
	}
	return *c.number, true
}

// PressButton runs the handler of the current state. An unregistered state is a
// programming error and panics.
func (c *Context) PressButton() Transition {
	from := c.currentState
	h, ok := handlerFor(from)
	if !ok {
		panic(fmt.Sprintf("state: no handler registered for dice state %s", from))
	}
	h(c)

	t := Transition{
		From:    from,
		To:      c.currentState,
		Number:  c.numberCopy(),
		Message: c.lastMessage,
		At:      time.Now(),
	}
	logger.Log.Debugf("dice %s -> %s (number=%s)", t.From, t.To, formatNumber(t.Number))

	for _, o := range c.observers {
		o.OnTransition(t)
	}
	return t
}

// Snapshot copies the observable part of the context.
func (c *Context) Snapshot() Snapshot {
	return Snapshot{
		CurrentState: c.currentState,
		Number:       c.numberCopy(),
	}
}

// String renders the debug dump printed after each press.
func (c *Context) String() string {
	return c.Snapshot().String()
}

func (c *Context) say(msg string) {
	c.lastMessage = msg
	if c.out != nil {
		fmt.Fprintln(c.out, msg)
	}
}

func (c *Context) numberCopy() *uint8 {
	if c.number == nil {
		return nil
	}
	n := *c.number
	return &n
}

func formatNumber(n *uint8) string {
	if n == nil {
		return "None"
	}
	return fmt.Sprintf("Some(%d)", *n)
}
