package table

import (
	"encoding/json"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/dicebox/network"
	"github.com/wfunc/dicebox/session"
	"github.com/wfunc/dicebox/state"
)

// MockBroadcaster is a test double for the Broadcaster interface.
type MockBroadcaster struct {
	Messages [][]byte
}

func (m *MockBroadcaster) BroadcastToTable(tableID string, msgID uint16, data []byte) error {
	m.Messages = append(m.Messages, data)
	return nil
}

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(msgID uint16, data []byte) error { return nil }
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func newTestSession(id string) *session.Session {
	return session.NewSession(id, &MockConnection{})
}

func newTestDice() *state.Context {
	return state.NewContext(state.WithOutput(io.Discard))
}

func TestTableManager_CreateAndGetTable(t *testing.T) {
	manager := NewTableManager()

	tableID := "test_table_1"
	tbl := manager.CreateTable(tableID, "Test Table", 4, newTestDice(), &MockBroadcaster{})
	if tbl == nil {
		t.Fatal("CreateTable should not return nil")
	}

	retrieved, exists := manager.GetTable(tableID)
	if !exists {
		t.Fatal("GetTable should find the created table")
	}
	if retrieved != tbl {
		t.Error("GetTable should return the same table instance")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 table, got %d", manager.Count())
	}

	player := newTestSession("player1")
	if _, _, err := manager.Join(player, tableID, nil); err != nil {
		t.Fatalf("Join by id failed: %v", err)
	}
	if !manager.Leave(player) {
		t.Error("Leaving the last seat should drop the table")
	}
	if _, exists := manager.GetTable(tableID); exists {
		t.Error("Empty table should be gone")
	}
}

func TestManager_JoinUnknownTable(t *testing.T) {
	manager := NewTableManager()
	_, _, err := manager.Join(newTestSession("p1"), "missing", nil)
	if err != ErrTableNotFound {
		t.Errorf("Expected ErrTableNotFound, got %v", err)
	}
}

func TestTable_AddPlayer_Full(t *testing.T) {
	tbl := NewTable("t", "Full Table", 1, newTestDice(), &MockBroadcaster{})
	player1 := newTestSession("player1")
	player2 := newTestSession("player2")

	if !tbl.AddPlayer(player1) {
		t.Fatal("Failed to add the first player")
	}
	if player1.TableID != "t" {
		t.Errorf("Seated session should remember its table, got %q", player1.TableID)
	}
	if tbl.AddPlayer(player2) {
		t.Fatal("Should not be able to add a player to a full table")
	}
	if !tbl.AddPlayer(player1) {
		t.Error("Re-adding a seated player should succeed")
	}
}

func TestTable_RemovePlayer(t *testing.T) {
	tbl := NewTable("t", "Remove", 2, newTestDice(), &MockBroadcaster{})
	player1 := newTestSession("player1")
	tbl.AddPlayer(player1)

	tbl.RemovePlayer(player1.GetID())

	if tbl.PlayerCount() != 0 {
		t.Errorf("Expected player count 0 after removal, got %d", tbl.PlayerCount())
	}
	if player1.TableID != "" {
		t.Error("Removed session should forget its table")
	}
}

func TestTable_PressBroadcasts(t *testing.T) {
	broadcaster := &MockBroadcaster{}
	tbl := NewTable("t", "Press", 2, newTestDice(), broadcaster)

	tbl.Press("player1")
	msg := tbl.Press("player2")

	if msg.CurrentState != state.PowerOff {
		t.Errorf("Expected PowerOff after two presses, got %s", msg.CurrentState)
	}
	if msg.Number == nil || *msg.Number != 4 {
		t.Error("Expected number 4 after the stop press")
	}
	if len(broadcaster.Messages) != 2 {
		t.Fatalf("Expected 2 broadcasts, got %d", len(broadcaster.Messages))
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(broadcaster.Messages[1], &decoded); err != nil {
		t.Fatalf("Broadcast payload is not JSON: %v", err)
	}
	if decoded["pressed_by"] != "player2" || decoded["current_state"] != "PowerOff" {
		t.Errorf("Unexpected broadcast payload: %v", decoded)
	}
}

func newTableFactory(seats int) func() *Table {
	var n int
	var mu sync.Mutex
	return func() *Table {
		mu.Lock()
		defer mu.Unlock()
		n++
		id := "table_" + strconv.Itoa(n)
		return NewTable(id, id, seats, newTestDice(), &MockBroadcaster{})
	}
}

func TestManager_JoinFindsAvailableTable(t *testing.T) {
	manager := NewTableManager()
	newTable := newTableFactory(2)

	p1, p2, p3 := newTestSession("p1"), newTestSession("p2"), newTestSession("p3")
	t1, seated, _ := manager.Join(p1, "", newTable)
	if !seated {
		t.Fatal("First player should be seated")
	}
	if t2, _, _ := manager.Join(p2, "", newTable); t2 != t1 {
		t.Error("Second player should share the first table")
	}
	t3, _, _ := manager.Join(p3, "", newTable)
	if t3 == t1 {
		t.Error("Third player should get a new table once the first is full")
	}
	if manager.Count() != 2 {
		t.Errorf("Expected 2 tables, got %d", manager.Count())
	}

	// switching tables leaves the old one
	if _, _, err := manager.Join(p3, t1.ID, newTable); err != nil {
		t.Fatalf("Join by id failed: %v", err)
	}
	if _, exists := manager.GetTable(t3.ID); exists {
		t.Error("Table emptied by a switch should be dropped")
	}
}

func TestManager_ConcurrentJoinLeave(t *testing.T) {
	manager := NewTableManager()
	newTable := newTableFactory(2)

	const players = 32
	const rounds = 50
	sessions := make([]*session.Session, players)
	for i := range sessions {
		sessions[i] = newTestSession("p" + strconv.Itoa(i))
	}

	var wg sync.WaitGroup
	for i, s := range sessions {
		wg.Add(1)
		go func(i int, s *session.Session) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				if _, _, err := manager.Join(s, "", newTable); err != nil {
					t.Errorf("Join failed: %v", err)
					return
				}
				if (i+r)%3 != 0 {
					manager.Leave(s)
				}
			}
		}(i, s)
	}
	wg.Wait()

	for _, s := range sessions {
		if s.TableID == "" {
			continue
		}
		tbl, exists := manager.GetTable(s.TableID)
		if !exists {
			t.Fatalf("Session %s is seated at table %s which the manager dropped", s.ID, s.TableID)
		}
		found := false
		for _, seated := range tbl.GetSessions() {
			if seated == s {
				found = true
			}
		}
		if !found {
			t.Errorf("Table %s does not list session %s", s.TableID, s.ID)
		}
	}
	for _, tbl := range manager.All() {
		if tbl.PlayerCount() == 0 {
			t.Errorf("Empty table %s was left in the manager", tbl.ID)
		}
	}
}
