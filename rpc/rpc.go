package rpc

import (
	"errors"
	"net"
	"net/rpc"

	"github.com/wfunc/dicebox/logger"
	"github.com/wfunc/dicebox/models"
	"github.com/wfunc/dicebox/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer creates a new RPC server with the dice service registered.
func NewServer(addr string, svc *services.DiceService) (*Server, error) {
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName("Dice", NewDiceRPC(svc)); err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      rpcServer,
	}, nil
}

func (s *Server) Addr() string {
	return s.address
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// DiceRPC exposes the press journal over net/rpc.
type DiceRPC struct {
	svc *services.DiceService
}

func NewDiceRPC(svc *services.DiceService) *DiceRPC {
	return &DiceRPC{svc: svc}
}

type HistoryArgs struct {
	Owner string
	Limit int
}

type HistoryReply struct {
	History models.History
}

func (d *DiceRPC) History(args *HistoryArgs, reply *HistoryReply) error {
	history, err := d.svc.History(args.Owner, args.Limit)
	if err != nil {
		return err
	}
	reply.History = history
	return nil
}

type LastPressArgs struct {
	Owner string
}

type LastPressReply struct {
	Record models.PressRecord
}

func (d *DiceRPC) LastPress(args *LastPressArgs, reply *LastPressReply) error {
	record, err := d.svc.LastPress(args.Owner)
	if err != nil {
		return err
	}
	reply.Record = record
	return nil
}
