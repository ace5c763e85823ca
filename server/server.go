package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/dicebox/broadcast"
	"github.com/wfunc/dicebox/logger"
	"github.com/wfunc/dicebox/monitor"
	"github.com/wfunc/dicebox/network"
	gamerpc "github.com/wfunc/dicebox/rpc"
	"github.com/wfunc/dicebox/services"
	"github.com/wfunc/dicebox/session"
	"github.com/wfunc/dicebox/table"
)

const (
	defaultTableSeats = 4
	heartbeatInterval = 30 * time.Second
)

type DiceServer struct {
	addr           string
	rpcAddr        string
	upgrader       websocket.Upgrader
	tableManager   *table.Manager
	sessionManager *session.Manager
	diceService    *services.DiceService
	broadcaster    broadcast.Broadcaster
	monitor        *monitor.Monitor
	rpcServer      *gamerpc.Server
	httpServer     *http.Server
	shutdownChan   chan struct{}
	shutdownOnce   sync.Once
}

func NewDiceServer(addr, rpcAddr string, svc *services.DiceService, mon *monitor.Monitor) *DiceServer {
	s := &DiceServer{
		addr:           addr,
		rpcAddr:        rpcAddr,
		tableManager:   table.NewTableManager(),
		sessionManager: session.NewManager(),
		diceService:    svc,
		monitor:        mon,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewTableBroadcaster(s.tableManager, s.sessionManager)
	return s
}

// Handler returns the HTTP handler serving the websocket endpoint.
func (s *DiceServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

func (s *DiceServer) Start() error {
	if s.rpcAddr != "" {
		rpcServer, err := gamerpc.NewServer(s.rpcAddr, s.diceService)
		if err != nil {
			return err
		}
		s.rpcServer = rpcServer
		go s.rpcServer.Start()
	}

	s.httpServer = &http.Server{Addr: s.addr, Handler: s.Handler()}
	logger.Log.Infof("Dice server listening on %s", s.addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and closes every open session.
// http.Server.Close does not reach hijacked websocket connections, so the
// sessions are closed here.
func (s *DiceServer) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		if s.rpcServer != nil {
			s.rpcServer.Stop()
		}
		if s.httpServer != nil {
			s.httpServer.Close()
		}
		for _, sess := range s.sessionManager.All() {
			if err := sess.Close(); err != nil {
				logger.Log.Debugf("Close session %s: %v", sess.GetID(), err)
			}
		}
	})
}

func (s *DiceServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *DiceServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(heartbeatInterval)
	sess := session.NewSession(uuid.New().String(), wsConn)
	sess.Dice = s.diceService.NewDice(sess.ID, io.Discard)
	s.sessionManager.Add(sess)
	s.monitor.IncSessions()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.leaveTable(sess)
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecSessions()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *DiceServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
	case network.MsgTypePressButton:
		s.handlePressButton(sess)
	case network.MsgTypeJoinTable:
		s.handleJoinTable(sess, packet)
	case network.MsgTypeLeaveTable:
		s.leaveTable(sess)
	case network.MsgTypePressTable:
		s.handlePressTable(sess)
	case network.MsgTypeHistory:
		s.handleHistory(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		s.sendError(sess, "unknown message type")
	}
}

func (s *DiceServer) handlePressButton(sess *session.Session) {
	start := time.Now()
	tr := sess.Dice.PressButton()
	s.monitor.ObservePressLatency(time.Since(start))

	s.sendJSON(sess, network.MsgTypeDiceState, network.DiceStateMessage{
		Owner:    sess.GetID(),
		Message:  tr.Message,
		Snapshot: sess.Dice.Snapshot(),
	})
}

func (s *DiceServer) handleJoinTable(sess *session.Session, packet *network.Packet) {
	var req network.JoinTableRequest
	if len(packet.Data) > 0 {
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			s.sendError(sess, "invalid join request")
			return
		}
	}

	t, seated, err := s.tableManager.Join(sess, req.TableID, s.newTable)
	s.monitor.SetActiveTables(s.tableManager.Count())
	if err != nil {
		s.sendError(sess, err.Error())
		return
	}
	if seated {
		logger.Log.Infof("Session %s joined table %s", sess.GetID(), t.GetID())
	}
	s.sendJSON(sess, network.MsgTypeJoinTable, network.JoinTableReply{TableID: t.GetID(), Seated: seated})
}

func (s *DiceServer) newTable() *table.Table {
	id := uuid.New().String()
	return table.NewTable(id, "Table "+id[:8], defaultTableSeats, s.diceService.NewDice(id, io.Discard), s.broadcaster)
}

func (s *DiceServer) leaveTable(sess *session.Session) {
	if s.tableManager.Leave(sess) {
		s.monitor.SetActiveTables(s.tableManager.Count())
	}
}

func (s *DiceServer) handlePressTable(sess *session.Session) {
	if sess.TableID == "" {
		logger.Log.Warnf("Session %s pressed a table button but is not seated", sess.GetID())
		s.sendError(sess, "not seated at a table")
		return
	}

	t, exists := s.tableManager.GetTable(sess.TableID)
	if !exists {
		logger.Log.Errorf("Table %s not found for session %s", sess.TableID, sess.GetID())
		s.sendError(sess, "table not found")
		return
	}

	start := time.Now()
	t.Press(sess.GetID())
	s.monitor.ObservePressLatency(time.Since(start))
}

func (s *DiceServer) handleHistory(sess *session.Session, packet *network.Packet) {
	var req network.HistoryRequest
	if len(packet.Data) > 0 {
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			s.sendError(sess, "invalid history request")
			return
		}
	}
	if req.Owner == "" {
		req.Owner = sess.GetID()
	}

	history, err := s.diceService.History(req.Owner, req.Limit)
	if err != nil {
		logger.Log.Errorf("Failed to load history for %s: %v", req.Owner, err)
		s.sendError(sess, "history unavailable")
		return
	}
	s.sendJSON(sess, network.MsgTypeHistoryReply, history)
}

func (s *DiceServer) sendJSON(sess *session.Session, msgID uint16, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorf("Error marshalling message %d: %v", msgID, err)
		return
	}
	if err := sess.Send(msgID, data); err != nil {
		if errors.Is(err, network.ErrPayloadTooLarge) && msgID != network.MsgTypeError {
			logger.Log.Warnf("Reply %d to session %s does not fit a frame: %v", msgID, sess.GetID(), err)
			s.sendError(sess, "reply too large")
			return
		}
		logger.Log.Debugf("Send to session %s failed: %v", sess.GetID(), err)
	}
}

func (s *DiceServer) sendError(sess *session.Session, msg string) {
	s.sendJSON(sess, network.MsgTypeError, network.ErrorMessage{Error: msg})
}
