package rpc

import (
	"io"
	"net/rpc"
	"testing"

	"github.com/wfunc/dicebox/persistence"
	"github.com/wfunc/dicebox/services"
)

func TestServer_History(t *testing.T) {
	svc := services.NewDiceService(persistence.NewMemoryJournal())
	dice := svc.NewDice("demo", io.Discard)
	dice.PressButton()
	dice.PressButton()

	server, err := NewServer("127.0.0.1:0", svc)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	go server.Start()
	defer server.Stop()

	client, err := rpc.Dial("tcp", server.Addr())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	var reply HistoryReply
	if err := client.Call("Dice.History", &HistoryArgs{Owner: "demo"}, &reply); err != nil {
		t.Fatalf("Dice.History failed: %v", err)
	}
	if len(reply.History.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(reply.History.Records))
	}

	var last LastPressReply
	if err := client.Call("Dice.LastPress", &LastPressArgs{Owner: "demo"}, &last); err != nil {
		t.Fatalf("Dice.LastPress failed: %v", err)
	}
	if last.Record.ToState != "PowerOff" {
		t.Errorf("Expected last press to land on PowerOff, got %s", last.Record.ToState)
	}
}

func TestDiceRPC_LastPressNotFound(t *testing.T) {
	d := NewDiceRPC(services.NewDiceService(persistence.NewMemoryJournal()))

	var reply LastPressReply
	if err := d.LastPress(&LastPressArgs{Owner: "nobody"}, &reply); err != persistence.ErrRecordNotFound {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}
