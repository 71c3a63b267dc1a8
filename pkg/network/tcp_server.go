package network

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"

	"oml/pkg/core"
	"oml/pkg/model"
	"oml/pkg/protocol"
)

type TCPServer struct {
	coord *core.Coordinator
}

func NewTCPServer(coord *core.Coordinator) *TCPServer {
	return &TCPServer{coord: coord}
}

func (s *TCPServer) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Printf("[TCP] Listening on %s (Binary Protocol)", addr)
	return s.Serve(listener)
}

// Serve accepts connections until the listener closes. Each connection gets
// its own goroutine; requests within one connection are answered in order.
func (s *TCPServer) Serve(listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("[TCP] Accept error: %v", err)
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *TCPServer) handleConn(conn net.Conn) {
	defer conn.Close()
	ctx := context.Background()

	for {
		req, err := protocol.Decode(conn)
		if err != nil {
			if err != io.EOF {
				log.Printf("[TCP] Decode error: %v", err)
			}
			return
		}

		switch req.Op {
		case protocol.OpTrain:
			x, err := protocol.DecodeFloat(req.Payload)
			if err != nil {
				protocol.Encode(conn, protocol.RespErr, []byte("malformed input"))
				continue
			}
			if _, err := s.coord.Train(ctx, x); err != nil {
				s.writeError(conn, err)
				continue
			}
			protocol.Encode(conn, protocol.RespOK, nil)

		case protocol.OpInfer:
			x, err := protocol.DecodeFloat(req.Payload)
			if err != nil {
				protocol.Encode(conn, protocol.RespErr, []byte("malformed input"))
				continue
			}
			out, err := s.coord.Infer(ctx, x)
			if err != nil {
				s.writeError(conn, err)
				continue
			}
			protocol.Encode(conn, protocol.RespVal, protocol.EncodeFloat(out))

		case protocol.OpWeights:
			protocol.Encode(conn, protocol.RespVal, protocol.EncodeWeights(s.coord.Weights()))

		case protocol.OpStats:
			data, err := json.Marshal(s.coord.Stats())
			if err != nil {
				protocol.Encode(conn, protocol.RespErr, []byte(err.Error()))
				continue
			}
			protocol.Encode(conn, protocol.RespVal, data)

		default:
			protocol.Encode(conn, protocol.RespErr, []byte("unknown op"))
		}
	}
}

func (s *TCPServer) writeError(conn net.Conn, err error) {
	if errors.Is(err, model.ErrWriterBusy) {
		protocol.Encode(conn, protocol.RespBusy, nil)
		return
	}
	protocol.Encode(conn, protocol.RespErr, []byte(err.Error()))
}
