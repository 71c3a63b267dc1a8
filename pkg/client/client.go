package client

import (
	"encoding/json"
	"errors"
	"net"
	"time"

	"oml/pkg/monitor"
	"oml/pkg/protocol"
)

// ErrBusy reports that the server rejected a training call because another
// writer held the permit. It is surfaced, never retried here: backoff and
// retry are the caller's policy.
var ErrBusy = errors.New("client: training rejected, writer busy")

type Client struct {
	conn net.Conn
	addr string
}

func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn: conn,
		addr: addr,
	}, nil
}

// Train submits one training unit of work and blocks until the server has
// finished (or rejected) it.
func (c *Client) Train(x float64) error {
	payload := protocol.EncodeFloat(x)

	// Reconnect only if the request never left this side.
	if err := protocol.Encode(c.conn, protocol.OpTrain, payload); err != nil {
		if err := c.reconnect(); err != nil {
			return err
		}
		if err := protocol.Encode(c.conn, protocol.OpTrain, payload); err != nil {
			return err
		}
	}

	pkg, err := protocol.Decode(c.conn)
	if err != nil {
		return err
	}
	switch pkg.Op {
	case protocol.RespOK:
		return nil
	case protocol.RespBusy:
		return ErrBusy
	default:
		return errors.New(string(pkg.Payload))
	}
}

// Infer submits one inference and returns the computed output.
func (c *Client) Infer(x float64) (float64, error) {
	payload, err := c.call(protocol.OpInfer, protocol.EncodeFloat(x))
	if err != nil {
		return 0, err
	}
	return protocol.DecodeFloat(payload)
}

// Weights returns the server's current parameters (not a snapshot).
func (c *Client) Weights() ([]float64, error) {
	payload, err := c.call(protocol.OpWeights, nil)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeWeights(payload)
}

// Stats returns the server's workload counters.
func (c *Client) Stats() (monitor.Snapshot, error) {
	var snap monitor.Snapshot
	payload, err := c.call(protocol.OpStats, nil)
	if err != nil {
		return snap, err
	}
	err = json.Unmarshal(payload, &snap)
	return snap, err
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// call runs one idempotent read op, reconnecting once on transport errors.
func (c *Client) call(op byte, payload []byte) ([]byte, error) {
	if err := protocol.Encode(c.conn, op, payload); err != nil {
		return c.retryCall(op, payload)
	}
	pkg, err := protocol.Decode(c.conn)
	if err != nil {
		return c.retryCall(op, payload)
	}
	return c.expectVal(pkg)
}

func (c *Client) retryCall(op byte, payload []byte) ([]byte, error) {
	if err := c.reconnect(); err != nil {
		return nil, err
	}
	if err := protocol.Encode(c.conn, op, payload); err != nil {
		return nil, err
	}
	pkg, err := protocol.Decode(c.conn)
	if err != nil {
		return nil, err
	}
	return c.expectVal(pkg)
}

func (c *Client) expectVal(pkg *protocol.Packet) ([]byte, error) {
	switch pkg.Op {
	case protocol.RespVal:
		return pkg.Payload, nil
	case protocol.RespBusy:
		return nil, ErrBusy
	default:
		return nil, errors.New(string(pkg.Payload))
	}
}

func (c *Client) reconnect() error {
	c.conn.Close()
	conn, err := net.DialTimeout("tcp", c.addr, 5*time.Second)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}
