package colaa

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// CoLa A telegrams are ASCII payloads framed by STX/ETX control bytes.
// Payload fields are space-separated; numeric fields are hex encoded at
// their wire width (two's complement for signed fields).
const (
	stx = 0x02
	etx = 0x03
)

// maxTelegramSize bounds a single telegram read. A full LMDscandata
// telegram with three echo channels at 1101 beams is ~40KB of ASCII.
const maxTelegramSize = 256 * 1024

var (
	ErrTelegramTooLarge = fmt.Errorf("colaa: telegram exceeds %d bytes", maxTelegramSize)
	ErrShortTelegram    = fmt.Errorf("colaa: truncated telegram")
)

// writeTelegram frames payload with STX/ETX and writes it in one call.
func writeTelegram(w io.Writer, payload string) error {
	buf := make([]byte, 0, len(payload)+2)
	buf = append(buf, stx)
	buf = append(buf, payload...)
	buf = append(buf, etx)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("colaa: write telegram: %w", err)
	}
	return nil
}

// readTelegram reads the next STX/ETX-framed payload, discarding any bytes
// that precede the STX marker. The size cap is enforced while reading so
// a stream that never terminates a telegram cannot grow the buffer
// without bound.
func readTelegram(br *bufio.Reader) (string, error) {
	if _, err := br.ReadBytes(stx); err != nil {
		return "", err
	}
	payload := make([]byte, 0, 4096)
	for {
		b, err := br.ReadByte()
		if err != nil {
			return "", err
		}
		if b == etx {
			return string(payload), nil
		}
		if len(payload) >= maxTelegramSize {
			return "", ErrTelegramTooLarge
		}
		payload = append(payload, b)
	}
}

// WriteTelegram frames payload with STX/ETX and writes it to w. Exported
// for tools that emulate the device side of the protocol.
func WriteTelegram(w io.Writer, payload string) error {
	return writeTelegram(w, payload)
}

// ReadTelegram reads the next framed telegram payload from br.
func ReadTelegram(br *bufio.Reader) (string, error) {
	return readTelegram(br)
}

// fieldScanner walks the space-separated fields of a telegram payload,
// latching the first conversion error so call sites can check once.
type fieldScanner struct {
	fields []string
	pos    int
	err    error
}

func newFieldScanner(payload string) *fieldScanner {
	return &fieldScanner{fields: strings.Fields(payload)}
}

func (s *fieldScanner) next() string {
	if s.err != nil {
		return ""
	}
	if s.pos >= len(s.fields) {
		s.err = ErrShortTelegram
		return ""
	}
	f := s.fields[s.pos]
	s.pos++
	return f
}

func (s *fieldScanner) hexUint(bits int) uint64 {
	f := s.next()
	if s.err != nil {
		return 0
	}
	v, err := strconv.ParseUint(f, 16, bits)
	if err != nil {
		s.err = fmt.Errorf("colaa: field %d %q: %w", s.pos-1, f, err)
		return 0
	}
	return v
}

func (s *fieldScanner) hexU16() uint16 { return uint16(s.hexUint(16)) }
func (s *fieldScanner) hexU32() uint32 { return uint32(s.hexUint(32)) }

// hexI16 parses a 16-bit two's complement hex field.
func (s *fieldScanner) hexI16() int16 {
	return int16(s.hexUint(16))
}

// hexI32 parses a 32-bit two's complement hex field.
func (s *fieldScanner) hexI32() int32 {
	return int32(s.hexUint(32))
}

// hexFloat32 parses an IEEE 754 single transmitted as its 8-digit hex
// bit pattern (the CoLa A encoding for scale factors).
func (s *fieldScanner) hexFloat32() float64 {
	bits := s.hexU32()
	if s.err != nil {
		return 0
	}
	return float64(math.Float32frombits(bits))
}

// Formatting helpers for command payloads.

func hexU16(v uint16) string { return strconv.FormatUint(uint64(v), 16) }
func hexU32(v uint32) string { return strconv.FormatUint(uint64(v), 16) }

// hexI16 formats a signed value as 16-bit two's complement hex.
func hexI16(v int16) string {
	return strconv.FormatUint(uint64(uint16(v)), 16)
}

// hexI32 formats a signed value as 32-bit two's complement hex.
func hexI32(v int32) string {
	return strconv.FormatUint(uint64(uint32(v)), 16)
}

func hexFloat32(v float64) string {
	return fmt.Sprintf("%08X", math.Float32bits(float32(v)))
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
