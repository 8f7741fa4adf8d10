package jdeserialize

import (
	"bytes"
	"errors"
	"testing"
)

func TestRecordingSourceCapturesOnlyWhileRecording(t *testing.T) {
	s := newRecordingSource(bytes.NewReader([]byte{1, 2, 3, 4, 5}))

	if _, err := s.readByte(); err != nil {
		t.Fatalf("readByte before recording: %v", err)
	}

	s.startRecording()
	if _, err := s.readByte(); err != nil {
		t.Fatalf("readByte while recording: %v", err)
	}
	if _, err := s.readFull(2); err != nil {
		t.Fatalf("readFull while recording: %v", err)
	}

	got := s.stopRecording()
	want := []byte{2, 3, 4}
	if !bytes.Equal(got, want) {
		t.Errorf("stopRecording() = %v, want %v", got, want)
	}

	if _, err := s.readByte(); err != nil {
		t.Fatalf("readByte after recording stopped: %v", err)
	}
}

func TestRecordingSourceSnapshotDoesNotStop(t *testing.T) {
	s := newRecordingSource(bytes.NewReader([]byte{9, 9}))
	s.startRecording()
	if _, err := s.readByte(); err != nil {
		t.Fatalf("readByte: %v", err)
	}
	snap := s.snapshot()
	if !bytes.Equal(snap, []byte{9}) {
		t.Errorf("snapshot() = %v, want [9]", snap)
	}
	if _, err := s.readByte(); err != nil {
		t.Fatalf("readByte: %v", err)
	}
	final := s.stopRecording()
	if !bytes.Equal(final, []byte{9, 9}) {
		t.Errorf("stopRecording() = %v, want [9 9]", final)
	}
}

func TestRecordingSourceBigEndianPrimitives(t *testing.T) {
	s := newRecordingSource(bytes.NewReader([]byte{0x00, 0x05, 0xFF, 0xFF, 0xFF, 0xFE}))

	u16, err := s.readUint16()
	if err != nil {
		t.Fatalf("readUint16: %v", err)
	}
	if u16 != 5 {
		t.Errorf("readUint16() = %d, want 5", u16)
	}

	i32, err := s.readInt32()
	if err != nil {
		t.Fatalf("readInt32: %v", err)
	}
	if i32 != -2 {
		t.Errorf("readInt32() = %d, want -2", i32)
	}
}

func TestRecordingSourceAtEOF(t *testing.T) {
	s := newRecordingSource(bytes.NewReader([]byte{1}))
	if s.atEOF() {
		t.Fatal("atEOF() = true before consuming the only byte")
	}
	if _, err := s.readByte(); err != nil {
		t.Fatalf("readByte: %v", err)
	}
	if !s.atEOF() {
		t.Fatal("atEOF() = false after consuming the only byte")
	}
}

func TestRecordingSourceTruncationError(t *testing.T) {
	s := newRecordingSource(bytes.NewReader([]byte{0x00}))
	_, err := s.readUint16()
	if err == nil {
		t.Fatal("expected a truncation error reading past the end of the source")
	}
	var truncErr *TruncationError
	if !errors.As(err, &truncErr) {
		t.Errorf("expected the error chain to contain *TruncationError, got %v (%T)", err, err)
	}
}
