package network

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wfunc/dicebox/state"
)

const (
	MsgTypeHeartbeat    = 1
	MsgTypePressButton  = 101
	MsgTypeJoinTable    = 102
	MsgTypeLeaveTable   = 103
	MsgTypePressTable   = 104
	MsgTypeHistory      = 201
	MsgTypeHistoryReply = 202
	MsgTypeDiceState    = 301
	MsgTypeTableState   = 302
	MsgTypeError        = 500
)

// DiceStateMessage is sent after every press, for both private dice and tables.
type DiceStateMessage struct {
	Owner     string `json:"owner"`
	PressedBy string `json:"pressed_by,omitempty"`
	Message   string `json:"message"`
	state.Snapshot
}

type JoinTableRequest struct {
	TableID string `json:"table_id"`
}

type JoinTableReply struct {
	TableID string `json:"table_id"`
	Seated  bool   `json:"seated"`
}

type HistoryRequest struct {
	Owner string `json:"owner"`
	Limit int    `json:"limit"`
}

type ErrorMessage struct {
	Error string `json:"error"`
}

// ErrPayloadTooLarge is returned when a payload does not fit the 2-byte length field.
var ErrPayloadTooLarge = errors.New("payload too large")

// MaxPayload is the largest payload a single frame can carry.
const MaxPayload = math.MaxUint16

// Encode 封包: 2字节消息ID + 2字节数据长度 + 数据
func Encode(msgID uint16, data []byte) ([]byte, error) {
	if len(data) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(data), MaxPayload)
	}
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)
	return packet, nil
}

// Decode 解包，数据长度不足时返回 io.ErrShortBuffer
func Decode(data []byte) (*Packet, error) {
	if len(data) < 4 {
		return nil, io.ErrShortBuffer
	}

	msgID := binary.BigEndian.Uint16(data[0:2])
	length := binary.BigEndian.Uint16(data[2:4])

	if len(data)-4 < int(length) {
		return nil, io.ErrShortBuffer
	}

	return &Packet{
		MsgID:  msgID,
		Length: length,
		Data:   data[4 : 4+length],
	}, nil
}
