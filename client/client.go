package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/wfunc/dicebox/logger"
	"github.com/wfunc/dicebox/network"
)

const usage = "commands: press | join [table_id] | leave | roll | history [limit] | quit"

// Client is a line-oriented remote for the dice server.
type Client struct {
	conn *websocket.Conn
	out  io.Writer
}

func Dial(url string, out io.Writer) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{conn: conn, out: out}, nil
}

func (c *Client) Close() error {
	err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		logger.Log.Debugf("Write close error: %v", err)
	}
	return c.conn.Close()
}

func (c *Client) send(msgID uint16, v interface{}) error {
	var data []byte
	if v != nil {
		var err error
		if data, err = json.Marshal(v); err != nil {
			return err
		}
	}
	packet, err := network.Encode(msgID, data)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, packet)
}

// Command translates one input line into a packet. It returns false for quit.
func (c *Client) Command(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true, nil
	}
	switch fields[0] {
	case "press":
		return true, c.send(network.MsgTypePressButton, nil)
	case "join":
		req := network.JoinTableRequest{}
		if len(fields) > 1 {
			req.TableID = fields[1]
		}
		return true, c.send(network.MsgTypeJoinTable, req)
	case "leave":
		return true, c.send(network.MsgTypeLeaveTable, nil)
	case "roll":
		return true, c.send(network.MsgTypePressTable, nil)
	case "history":
		req := network.HistoryRequest{}
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return true, fmt.Errorf("invalid limit %q", fields[1])
			}
			req.Limit = n
		}
		return true, c.send(network.MsgTypeHistory, req)
	case "quit", "exit":
		return false, nil
	default:
		fmt.Fprintln(c.out, usage)
		return true, nil
	}
}

// readLoop prints every server message until the connection closes.
func (c *Client) readLoop(done chan<- struct{}) {
	defer close(done)
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			logger.Log.Debugf("Read error: %v", err)
			return
		}
		packet, err := network.Decode(message)
		if err != nil {
			logger.Log.Warnf("Received invalid packet of size %d", len(message))
			continue
		}
		c.print(packet)
	}
}

func (c *Client) print(packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeDiceState, network.MsgTypeTableState:
		var msg network.DiceStateMessage
		if err := json.Unmarshal(packet.Data, &msg); err != nil {
			break
		}
		if msg.PressedBy != "" {
			fmt.Fprintf(c.out, "[table %s, pressed by %s] ", msg.Owner, msg.PressedBy)
		}
		fmt.Fprintln(c.out, msg.Message)
		fmt.Fprintln(c.out, msg.Snapshot.String())
		return
	}
	fmt.Fprintf(c.out, "<- (%d) %s\n", packet.MsgID, packet.Data)
}

// Run reads commands from in until EOF, quit, or the server goes away.
func (c *Client) Run(in io.Reader) error {
	done := make(chan struct{})
	go c.readLoop(done)

	fmt.Fprintln(c.out, usage)
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-done:
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			more, err := c.Command(line)
			if err != nil {
				fmt.Fprintln(c.out, "error:", err)
			}
			if !more {
				return nil
			}
		}
	}
}
