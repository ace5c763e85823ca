package state

import (
	"errors"
	"strings"
	"testing"
)

func TestSnapshot_Format(t *testing.T) {
	ctx, _ := newTestContext()
	ctx.PressButton()
	ctx.PressButton()
	snap := ctx.Snapshot()

	text, err := snap.Format(FormatText)
	if err != nil {
		t.Fatalf("text format failed: %v", err)
	}
	if string(text) != "StateContext { number: Some(4), current_state: PowerOff }\n" {
		t.Errorf("Unexpected text dump: %q", text)
	}

	js, err := snap.Format(FormatJSON)
	if err != nil {
		t.Fatalf("json format failed: %v", err)
	}
	if string(js) != `{"current_state":"PowerOff","number":4}`+"\n" {
		t.Errorf("Unexpected json dump: %s", js)
	}

	y, err := snap.Format(FormatYAML)
	if err != nil {
		t.Fatalf("yaml format failed: %v", err)
	}
	if !strings.Contains(string(y), "current_state: PowerOff") || !strings.Contains(string(y), "number: 4") {
		t.Errorf("Unexpected yaml dump: %s", y)
	}
}

func TestSnapshot_FormatUnsetNumber(t *testing.T) {
	js, err := NewContext(WithOutput(nil)).Snapshot().Format(FormatJSON)
	if err != nil {
		t.Fatalf("json format failed: %v", err)
	}
	if string(js) != `{"current_state":"PowerOn","number":null}`+"\n" {
		t.Errorf("Unexpected json dump: %s", js)
	}
}

func TestSnapshot_UnknownFormat(t *testing.T) {
	_, err := Snapshot{}.Format("xml")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
}
