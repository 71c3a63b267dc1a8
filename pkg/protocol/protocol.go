package protocol

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

const (
	MagicNumber = 0x4F

	OpTrain   = 0x01
	OpInfer   = 0x02
	OpWeights = 0x03
	OpStats   = 0x04

	RespOK   = 0x00
	RespVal  = 0x01
	RespBusy = 0xFE
	RespErr  = 0xFF
)

// MaxPayload guards against absurd length prefixes from broken peers.
const MaxPayload = 1 << 20

type Packet struct {
	Op      byte
	Payload []byte
}

func Encode(w io.Writer, op byte, payload []byte) error {
	header := make([]byte, 6)
	header[0] = MagicNumber
	header[1] = op
	binary.BigEndian.PutUint32(header[2:6], uint32(len(payload)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

func Decode(r io.Reader) (*Packet, error) {
	header := make([]byte, 6)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	if header[0] != MagicNumber {
		return nil, errors.New("invalid magic number")
	}

	op := header[1]
	size := binary.BigEndian.Uint32(header[2:6])
	if size > MaxPayload {
		return nil, errors.New("payload too large")
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	return &Packet{Op: op, Payload: payload}, nil
}

// EncodeFloat packs a float64 payload for train/infer requests and scalar
// responses.
func EncodeFloat(x float64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(x))
	return buf
}

func DecodeFloat(b []byte) (float64, error) {
	if len(b) < 8 {
		return 0, errors.New("short float payload")
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b[:8])), nil
}

// [Count 4B] + [Weight 8B] * Count
func EncodeWeights(ws []float64) []byte {
	buf := make([]byte, 4+8*len(ws))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(ws)))
	for i, w := range ws {
		binary.BigEndian.PutUint64(buf[4+8*i:], math.Float64bits(w))
	}
	return buf
}

func DecodeWeights(b []byte) ([]float64, error) {
	if len(b) < 4 {
		return nil, errors.New("short weights payload")
	}
	count := binary.BigEndian.Uint32(b[0:4])
	// 64-bit compare: count*8 must not wrap before the length check.
	if uint64(len(b)-4) < uint64(count)*8 {
		return nil, errors.New("truncated weights payload")
	}
	ws := make([]float64, count)
	for i := range ws {
		ws[i] = math.Float64frombits(binary.BigEndian.Uint64(b[4+8*i:]))
	}
	return ws, nil
}
