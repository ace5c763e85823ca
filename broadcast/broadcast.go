// broadcast/broadcast.go
package broadcast

import (
	"github.com/wfunc/dicebox/logger"
	"github.com/wfunc/dicebox/session"
	"github.com/wfunc/dicebox/table"
)

var (
	ErrTableNotFound = table.ErrTableNotFound
)

// 广播接口
type Broadcaster interface {
	BroadcastToTable(tableID string, msgID uint16, data []byte) error
	BroadcastToAll(msgID uint16, data []byte) error
}

// 基于桌子的广播器
type TableBroadcaster struct {
	tableManager   *table.Manager
	sessionManager *session.Manager
}

func NewTableBroadcaster(tableManager *table.Manager, sessionManager *session.Manager) *TableBroadcaster {
	return &TableBroadcaster{
		tableManager:   tableManager,
		sessionManager: sessionManager,
	}
}

func (b *TableBroadcaster) BroadcastToTable(tableID string, msgID uint16, data []byte) error {
	t, exists := b.tableManager.GetTable(tableID)
	if !exists {
		return ErrTableNotFound
	}
	sendAll(t.GetSessions(), msgID, data)
	return nil
}

func (b *TableBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	sendAll(b.sessionManager.All(), msgID, data)
	return nil
}

func sendAll(sessions []*session.Session, msgID uint16, data []byte) {
	for _, s := range sessions {
		if err := s.Send(msgID, data); err != nil {
			// 发送失败的连接由读循环负责清理
			logger.Log.Debugf("Send to session %s failed: %v", s.GetID(), err)
			continue
		}
	}
}
