// table/table.go
package table

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/wfunc/dicebox/logger"
	"github.com/wfunc/dicebox/network"
	"github.com/wfunc/dicebox/session"
	"github.com/wfunc/dicebox/state"
)

// ErrTableNotFound is returned when a session asks for a table that does not exist.
var ErrTableNotFound = errors.New("table not found")

// Table 是多个会话共用一个骰子的桌子
type Table struct {
	ID          string
	Name        string
	MaxPlayers  int
	Players     map[string]*session.Session // sessionID -> session
	CreatedAt   time.Time
	dice        *state.Context
	broadcaster Broadcaster
	diceMutex   sync.Mutex
	playerMutex sync.RWMutex
}

// NewTable 创建一张桌子，dice 由调用方构造（通常带有记录器）
func NewTable(id, name string, maxPlayers int, dice *state.Context, broadcaster Broadcaster) *Table {
	return &Table{
		ID:          id,
		Name:        name,
		MaxPlayers:  maxPlayers,
		Players:     make(map[string]*session.Session),
		CreatedAt:   time.Now(),
		dice:        dice,
		broadcaster: broadcaster,
	}
}

func (t *Table) GetID() string {
	return t.ID
}

// AddPlayer 添加一个玩家到桌子
func (t *Table) AddPlayer(s *session.Session) bool {
	t.playerMutex.Lock()
	defer t.playerMutex.Unlock()

	if _, exists := t.Players[s.ID]; exists {
		return true
	}
	if len(t.Players) >= t.MaxPlayers {
		return false
	}

	t.Players[s.ID] = s
	s.TableID = t.ID
	return true
}

// RemovePlayer 从桌子移除一个玩家
func (t *Table) RemovePlayer(sessionID string) {
	t.playerMutex.Lock()
	defer t.playerMutex.Unlock()

	if player, exists := t.Players[sessionID]; exists {
		player.TableID = ""
		delete(t.Players, sessionID)
	}
}

func (t *Table) PlayerCount() int {
	t.playerMutex.RLock()
	defer t.playerMutex.RUnlock()
	return len(t.Players)
}

// GetSessions returns a slice of all sessions at the table (thread-safe).
func (t *Table) GetSessions() []*session.Session {
	t.playerMutex.RLock()
	defer t.playerMutex.RUnlock()

	sessions := make([]*session.Session, 0, len(t.Players))
	for _, s := range t.Players {
		sessions = append(sessions, s)
	}
	return sessions
}

// Press presses the shared dice on behalf of pressedBy and broadcasts the
// new state to everyone seated.
func (t *Table) Press(pressedBy string) network.DiceStateMessage {
	t.diceMutex.Lock()
	tr := t.dice.PressButton()
	msg := network.DiceStateMessage{
		Owner:     t.ID,
		PressedBy: pressedBy,
		Message:   tr.Message,
		Snapshot:  t.dice.Snapshot(),
	}
	t.diceMutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Errorf("Error marshalling table state: %v", err)
		return msg
	}
	if err := t.broadcaster.BroadcastToTable(t.ID, network.MsgTypeTableState, data); err != nil {
		logger.Log.Warnf("Broadcast to table %s failed: %v", t.ID, err)
	}
	return msg
}

// Snapshot returns the shared dice state.
func (t *Table) Snapshot() state.Snapshot {
	t.diceMutex.Lock()
	defer t.diceMutex.Unlock()
	return t.dice.Snapshot()
}

// --- 桌子管理器 ---

// Manager 管理所有桌子
type Manager struct {
	tables map[string]*Table
	mutex  sync.RWMutex
}

func NewTableManager() *Manager {
	return &Manager{
		tables: make(map[string]*Table),
	}
}

// CreateTable 创建一张新桌子并添加到管理器
func (m *Manager) CreateTable(id, name string, maxPlayers int, dice *state.Context, broadcaster Broadcaster) *Table {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	t := NewTable(id, name, maxPlayers, dice, broadcaster)
	m.tables[id] = t
	return t
}

// Join seats s at tableID, or at any table with a free seat when tableID is
// empty. newTable is called when no table has room. A session seated
// elsewhere leaves its old table first. Lookup, creation and seating happen
// under the manager lock so a concurrent Leave cannot drop the table between
// them.
func (m *Manager) Join(s *session.Session, tableID string, newTable func() *Table) (*Table, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if s.TableID != "" && s.TableID != tableID {
		m.leaveLocked(s)
	}

	var t *Table
	if tableID != "" {
		found, exists := m.tables[tableID]
		if !exists {
			return nil, false, ErrTableNotFound
		}
		t = found
	} else if t = m.findAvailableLocked(); t == nil {
		t = newTable()
		m.tables[t.ID] = t
	}

	return t, t.AddPlayer(s), nil
}

// Leave removes s from its table and drops the table once it is empty.
// It reports whether a table was dropped.
func (m *Manager) Leave(s *session.Session) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.leaveLocked(s)
}

func (m *Manager) leaveLocked(s *session.Session) bool {
	if s.TableID == "" {
		return false
	}
	t, exists := m.tables[s.TableID]
	if !exists {
		s.TableID = ""
		return false
	}
	t.RemovePlayer(s.ID)
	if t.PlayerCount() > 0 {
		return false
	}
	delete(m.tables, t.ID)
	return true
}

func (m *Manager) GetTable(id string) (*Table, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	t, exists := m.tables[id]
	return t, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.tables)
}

// All returns every table.
func (m *Manager) All() []*Table {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	tables := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	return tables
}

// findAvailableLocked 查找一张还有空位的桌子，调用方持有 m.mutex
func (m *Manager) findAvailableLocked() *Table {
	for _, t := range m.tables {
		if t.PlayerCount() < t.MaxPlayers {
			return t
		}
	}
	return nil
}
