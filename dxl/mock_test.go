package dxl

import (
	"bytes"
	"errors"
	"sync"
)

// mockSerialPort is a bytes.Buffer-backed SerialPort for tests. Reads past
// the end of the buffered data return io.EOF, which the receive state
// machine treats the same as a real port's read timeout: no further bytes,
// no error worth propagating as fatal.
type mockSerialPort struct {
	mu       sync.Mutex
	readBuf  *bytes.Buffer
	writeBuf *bytes.Buffer
	readErr  error
	writeErr error
	closed   bool
}

func newMockSerialPort() *mockSerialPort {
	return &mockSerialPort{
		readBuf:  bytes.NewBuffer(nil),
		writeBuf: bytes.NewBuffer(nil),
	}
}

func (m *mockSerialPort) Read(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, errors.New("port closed")
	}
	if m.readErr != nil {
		return 0, m.readErr
	}
	return m.readBuf.Read(b)
}

func (m *mockSerialPort) Write(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, errors.New("port closed")
	}
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	return m.writeBuf.Write(b)
}

func (m *mockSerialPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockSerialPort) queueReply(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readBuf.Write(data)
}

func (m *mockSerialPort) written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeBuf.Bytes()
}

func (m *mockSerialPort) setReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

func (m *mockSerialPort) setWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// buildStatusV1 assembles a valid Protocol 1 status packet for test fixtures.
func buildStatusV1(id, errCode uint8, params []byte) []byte {
	length := len(params) + 2
	pkt := []byte{0xFF, 0xFF, id, byte(length), errCode}
	pkt = append(pkt, params...)
	pkt = append(pkt, checksum(pkt[2:]))
	return pkt
}

// buildStatusV2 assembles a valid Protocol 2 status packet for test
// fixtures, applying byte stuffing to params the same way the device would.
func buildStatusV2(id, errCode uint8, params []byte) []byte {
	stuffed := stuffParams(params)
	length := len(stuffed) + 4
	pkt := []byte{0xFF, 0xFF, 0xFD, 0x00, id}
	pkt = append(pkt, byte(length&0xFF), byte((length>>8)&0xFF))
	pkt = append(pkt, statusInstruction, errCode)
	pkt = append(pkt, stuffed...)
	crc := crc16(pkt)
	pkt = append(pkt, byte(crc), byte(crc>>8))
	return pkt
}
