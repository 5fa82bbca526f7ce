package binary

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestWriterLittleEndian(t *testing.T) {
	w := NewWriter()
	w.Byte(0x2A)
	w.WriteU16(0x1234)
	w.WriteU32(0xDEADBEEF)

	want := []byte{0x2A, 0x34, 0x12, 0xEF, 0xBE, 0xAD, 0xDE}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("got % x, want % x", w.Bytes(), want)
	}
	if w.Len() != len(want) {
		t.Errorf("Len = %d, want %d", w.Len(), len(want))
	}
}

func TestWriterPatch(t *testing.T) {
	w := NewWriter()
	w.Byte(0x38)
	w.WriteU32(0)
	w.Byte(0x2B)
	w.Byte(0)

	w.PatchU32(1, uint32(0xFFFFFFFB))
	w.PatchByte(6, 0x05)

	want := []byte{0x38, 0xFB, 0xFF, 0xFF, 0xFF, 0x2B, 0x05}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("got % x, want % x", w.Bytes(), want)
	}
}

func TestWriterAlign(t *testing.T) {
	w := NewWriter()
	w.WriteBytes([]byte{1, 2, 3, 4, 5})
	w.Align(4)
	if w.Len() != 8 {
		t.Errorf("Len after Align(4) = %d, want 8", w.Len())
	}
	w.Align(4)
	if w.Len() != 8 {
		t.Errorf("Align on a boundary must not pad, got %d", w.Len())
	}
}

func TestRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU16(65535)
	w.WriteU32(7)
	w.WriteU64(1 << 40)
	w.WriteF32(1.5)
	w.WriteF64(-2.25)

	r := NewReader(w.Bytes())
	if v, err := r.ReadU16(); err != nil || v != 65535 {
		t.Errorf("ReadU16 = %d, %v", v, err)
	}
	if v, err := r.ReadU32(); err != nil || v != 7 {
		t.Errorf("ReadU32 = %d, %v", v, err)
	}
	if v, err := r.ReadU64(); err != nil || v != 1<<40 {
		t.Errorf("ReadU64 = %d, %v", v, err)
	}
	if v, err := r.ReadF32(); err != nil || v != 1.5 {
		t.Errorf("ReadF32 = %v, %v", v, err)
	}
	if v, err := r.ReadF64(); err != nil || v != -2.25 {
		t.Errorf("ReadF64 = %v, %v", v, err)
	}
	if r.Len() != 0 {
		t.Errorf("unread bytes: %d", r.Len())
	}
}

func TestReaderShort(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03})

	if _, err := r.ReadU32(); !errors.Is(err, ErrShort) {
		t.Errorf("ReadU32 on 3 bytes: got %v, want ErrShort", err)
	}
	if r.Position() != 0 {
		t.Errorf("failed read must not advance, position %d", r.Position())
	}
	if _, err := r.ReadBytes(3); err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if _, err := r.ReadByte(); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestReaderSeek(t *testing.T) {
	r := NewReader([]byte{0xAA, 0xBB})
	if err := r.Seek(1); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	b, _ := r.ReadByte()
	if b != 0xBB {
		t.Errorf("after Seek(1) got %#x", b)
	}
	if err := r.Seek(3); err == nil {
		t.Error("Seek past end should fail")
	}
}
