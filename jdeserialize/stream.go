package jdeserialize

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// recordingSource wraps the underlying byte stream with primitive readers
// in the teacher's style (one method per wire width, always big-endian) and
// adds the ability to mirror every byte read into a side buffer while
// "recording" is active, which is how the exception subprotocol recovers
// the raw prefix of a record abandoned mid-read (§4.4 Exception subprotocol).
type recordingSource struct {
	rd        *bufio.Reader
	recording bool
	buf       []byte
}

func newRecordingSource(r io.Reader) *recordingSource {
	return &recordingSource{rd: bufio.NewReader(r)}
}

// startRecording begins mirroring subsequently-read bytes.
func (s *recordingSource) startRecording() {
	s.recording = true
	s.buf = s.buf[:0]
}

// stopRecording ends mirroring and returns everything recorded so far.
// Calling it while not recording is a usage error and panics.
func (s *recordingSource) stopRecording() []byte {
	if !s.recording {
		panic("recordingSource: stopRecording called while not recording")
	}
	s.recording = false
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	s.buf = s.buf[:0]
	return out
}

// snapshot returns a copy of whatever has been recorded without stopping.
func (s *recordingSource) snapshot() []byte {
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out
}

func (s *recordingSource) readByte() (byte, error) {
	b, err := s.rd.ReadByte()
	if err != nil {
		return 0, wrapTruncation(err, "error reading a byte")
	}
	if s.recording {
		s.buf = append(s.buf, b)
	}
	return b, nil
}

func (s *recordingSource) atEOF() bool {
	if s.rd.Buffered() > 0 {
		return false
	}
	_, err := s.rd.Peek(1)
	return err != nil
}

func (s *recordingSource) readFull(n int) ([]byte, error) {
	out := make([]byte, n)
	if _, err := io.ReadFull(s.rd, out); err != nil {
		return nil, wrapTruncation(err, "error reading %d raw bytes", n)
	}
	if s.recording {
		s.buf = append(s.buf, out...)
	}
	return out, nil
}

func (s *recordingSource) readUint8() (uint8, error) {
	b, err := s.readByte()
	if err != nil {
		return 0, errors.Wrap(err, "error reading uint8")
	}
	return uint8(b), nil
}

func (s *recordingSource) readInt8() (int8, error) {
	u, err := s.readUint8()
	return int8(u), err
}

func (s *recordingSource) readUint16() (uint16, error) {
	b, err := s.readFull(2)
	if err != nil {
		return 0, errors.Wrap(err, "error reading uint16")
	}
	return binary.BigEndian.Uint16(b), nil
}

func (s *recordingSource) readInt16() (int16, error) {
	u, err := s.readUint16()
	return int16(u), err
}

func (s *recordingSource) readUint32() (uint32, error) {
	b, err := s.readFull(4)
	if err != nil {
		return 0, errors.Wrap(err, "error reading uint32")
	}
	return binary.BigEndian.Uint32(b), nil
}

func (s *recordingSource) readInt32() (int32, error) {
	u, err := s.readUint32()
	return int32(u), err
}

func (s *recordingSource) readUint64() (uint64, error) {
	b, err := s.readFull(8)
	if err != nil {
		return 0, errors.Wrap(err, "error reading uint64")
	}
	return binary.BigEndian.Uint64(b), nil
}

func (s *recordingSource) readInt64() (int64, error) {
	u, err := s.readUint64()
	return int64(u), err
}

func (s *recordingSource) readFloat32() (float32, error) {
	u, err := s.readUint32()
	if err != nil {
		return 0, errors.Wrap(err, "error reading float32")
	}
	return math.Float32frombits(u), nil
}

func (s *recordingSource) readFloat64() (float64, error) {
	u, err := s.readUint64()
	if err != nil {
		return 0, errors.Wrap(err, "error reading float64")
	}
	return math.Float64frombits(u), nil
}
