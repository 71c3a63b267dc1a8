package storage

import (
	"bufio"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"math"
	"os"
	"sync"

	"oml/pkg/common"
)

// [CRC32 4B] [Time 8B] [Seq 8B] [Input 8B] [Latency 8B] [Kind 1B] [Outcome 1B] [IDSize 2B] [ID NB]

const (
	headerSize = 4 + 8 + 8 + 8 + 8 + 1 + 1 + 2 // 40 bytes
)

var errCorruptRecord = errors.New("journal: corrupted record")

// FileJournal is an append-only, CRC-framed event log. Existing records
// are replayed on open; a corrupted tail (torn final write) is truncated
// from view rather than treated as fatal.
type FileJournal struct {
	file   *os.File
	mu     sync.Mutex
	buf    *bufio.Writer
	events []common.Event
	seq    uint64
}

func OpenFileJournal(path string) (*FileJournal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	fj := &FileJournal{
		file: f,
		buf:  bufio.NewWriter(f),
	}
	if err := fj.replay(path); err != nil {
		f.Close()
		return nil, err
	}
	return fj, nil
}

func (fj *FileJournal) replay(path string) error {
	r, err := os.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	br := bufio.NewReader(r)
	for {
		e, err := readEvent(br)
		if err != nil {
			// EOF is the clean end; anything else is a torn tail.
			return nil
		}
		fj.events = append(fj.events, e)
		if e.Seq > fj.seq {
			fj.seq = e.Seq
		}
	}
}

func (fj *FileJournal) Append(e common.Event) error {
	fj.mu.Lock()
	defer fj.mu.Unlock()

	fj.seq++
	e.Seq = fj.seq

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint64(header[4:12], uint64(e.Time))
	binary.LittleEndian.PutUint64(header[12:20], e.Seq)
	binary.LittleEndian.PutUint64(header[20:28], math.Float64bits(e.Input))
	binary.LittleEndian.PutUint64(header[28:36], uint64(e.Latency))
	header[36] = kindByte(e.Kind)
	header[37] = outcomeByte(e.Outcome)
	binary.LittleEndian.PutUint16(header[38:40], uint16(len(e.ID)))

	checksum := crc32.NewIEEE()
	checksum.Write(header[4:])
	checksum.Write([]byte(e.ID))
	binary.LittleEndian.PutUint32(header[0:4], checksum.Sum32())

	if _, err := fj.buf.Write(header); err != nil {
		return err
	}
	if _, err := fj.buf.WriteString(e.ID); err != nil {
		return err
	}
	if err := fj.buf.Flush(); err != nil {
		return err
	}

	fj.events = append(fj.events, e)
	return nil
}

func (fj *FileJournal) Recent(n int) ([]common.Event, error) {
	fj.mu.Lock()
	defer fj.mu.Unlock()

	start := len(fj.events) - n
	if start < 0 {
		start = 0
	}
	out := make([]common.Event, len(fj.events)-start)
	copy(out, fj.events[start:])
	return out, nil
}

func (fj *FileJournal) Count() (int, error) {
	fj.mu.Lock()
	defer fj.mu.Unlock()
	return len(fj.events), nil
}

func (fj *FileJournal) Close() error {
	fj.mu.Lock()
	defer fj.mu.Unlock()
	fj.buf.Flush()
	return fj.file.Close()
}

func readEvent(r io.Reader) (common.Event, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return common.Event{}, err
	}

	storedCRC := binary.LittleEndian.Uint32(header[0:4])
	idSize := binary.LittleEndian.Uint16(header[38:40])

	id := make([]byte, idSize)
	if _, err := io.ReadFull(r, id); err != nil {
		return common.Event{}, errCorruptRecord
	}

	checksum := crc32.NewIEEE()
	checksum.Write(header[4:])
	checksum.Write(id)
	if checksum.Sum32() != storedCRC {
		return common.Event{}, errCorruptRecord
	}

	return common.Event{
		Time:    int64(binary.LittleEndian.Uint64(header[4:12])),
		Seq:     binary.LittleEndian.Uint64(header[12:20]),
		Input:   math.Float64frombits(binary.LittleEndian.Uint64(header[20:28])),
		Latency: int64(binary.LittleEndian.Uint64(header[28:36])),
		Kind:    byteKind(header[36]),
		Outcome: byteOutcome(header[37]),
		ID:      string(id),
	}, nil
}

func kindByte(k common.RequestKind) byte {
	if k == common.KindInference {
		return 2
	}
	return 1
}

func byteKind(b byte) common.RequestKind {
	if b == 2 {
		return common.KindInference
	}
	return common.KindTraining
}

func outcomeByte(o common.Outcome) byte {
	switch o {
	case common.OutcomeBusy:
		return 1
	case common.OutcomeError:
		return 2
	default:
		return 0
	}
}

func byteOutcome(b byte) common.Outcome {
	switch b {
	case 1:
		return common.OutcomeBusy
	case 2:
		return common.OutcomeError
	default:
		return common.OutcomeOK
	}
}
