package table

// Broadcaster defines the interface for broadcasting messages to a table.
// This is defined here to break the import cycle between table and broadcast.
type Broadcaster interface {
	BroadcastToTable(tableID string, msgID uint16, data []byte) error
}
