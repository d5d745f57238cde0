package dxl

import (
	"fmt"
	"time"
)

// BusV1 is the Protocol 1 operation surface: PING, READ, WRITE, REG_WRITE,
// ACTION, FACTORY_RESET, REBOOT, SYNC_WRITE, and BULK_READ, addressed with
// 1-byte fields throughout. Construct with NewBusV1; the zero value has no
// port and is not usable.
type BusV1 struct {
	port SerialPort
	// Timeout bounds every serial read this bus issues. The header-search
	// deadline derived from it is Timeout*2 (Protocol 1's 2-byte header).
	Timeout time.Duration
}

// NewBusV1 wraps port in a Protocol 1 operation surface with DefaultTimeout.
func NewBusV1(port SerialPort) *BusV1 {
	return &BusV1{port: port, Timeout: DefaultTimeout}
}

// SetTimeout changes the per-read timeout used by subsequent operations.
func (b *BusV1) SetTimeout(timeout time.Duration) {
	b.Timeout = timeout
}

// Ping checks whether a device answers. Protocol 1's PING carries no
// payload; a successful Response reports liveness only (Data is nil).
func (b *BusV1) Ping(id uint8) (Response, error) {
	return protocolV1.unicast(b.port, b.Timeout, id, InstPing, nil, nil)
}

// Read requests length bytes from address on device id, decoded big-endian.
func (b *BusV1) Read(id uint8, address uint8, length uint8) (Response, error) {
	params := []byte{address, length}
	return protocolV1.unicast(b.port, b.Timeout, id, InstRead, params, func(p []byte) any {
		return mergeV1(p)
	})
}

// Write writes value at address on device id.
func (b *BusV1) Write(id uint8, address uint8, value []byte) (Response, error) {
	params := append([]byte{address}, value...)
	return protocolV1.unicast(b.port, b.Timeout, id, InstWrite, params, nil)
}

// RegWrite stages value at address on device id, to be applied on the next
// broadcast ACTION.
func (b *BusV1) RegWrite(id uint8, address uint8, value []byte) (Response, error) {
	params := append([]byte{address}, value...)
	return protocolV1.unicast(b.port, b.Timeout, id, InstRegWrite, params, nil)
}

// Action triggers every device's staged REG_WRITE. It is broadcast-only and
// fire-and-forget: no status packet is read.
func (b *BusV1) Action() error {
	return protocolV1.fireAndForget(b.port, BroadcastID, InstAction, nil)
}

// FactoryReset restores device id's control table to factory defaults.
// Protocol 1 does not support a broadcast factory reset.
func (b *BusV1) FactoryReset(id uint8) (Response, error) {
	if id == BroadcastID {
		return Response{}, fmt.Errorf("dxl: factory reset does not accept the broadcast id")
	}
	return protocolV1.unicast(b.port, b.Timeout, id, InstFactoryReset, nil, nil)
}

// Reboot power-cycles device id's control logic.
func (b *BusV1) Reboot(id uint8) (Response, error) {
	return protocolV1.unicast(b.port, b.Timeout, id, InstReboot, nil, nil)
}

// SyncWriteEntry is one device's payload within a SYNC_WRITE instruction.
type SyncWriteEntry struct {
	ID    uint8
	Value []byte
}

// SyncWrite writes the same address on every listed device in a single
// packet. It is broadcast-only and fire-and-forget: it never reads a
// status packet, even though the reference implementation historically
// did (see DESIGN.md).
func (b *BusV1) SyncWrite(address uint8, length uint8, entries []SyncWriteEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("dxl: sync write needs at least one entry")
	}
	params := make([]byte, 0, 2+len(entries)*(1+int(length)))
	params = append(params, address, length)
	for _, e := range entries {
		if len(e.Value) != int(length) {
			return fmt.Errorf("dxl: sync write entry for id %d has %d bytes, want %d", e.ID, len(e.Value), length)
		}
		params = append(params, e.ID)
		params = append(params, e.Value...)
	}
	return protocolV1.fireAndForget(b.port, BroadcastID, InstSyncWrite, params)
}

// BulkReadEntry addresses one device's (address, length) pair within a
// Protocol 1 BULK_READ instruction. Note the on-wire field order for
// Protocol 1 is length, id, address, unlike Protocol 2's id, address, length.
type BulkReadEntry struct {
	ID      uint8
	Address uint8
	Length  uint8
}

// BulkRead reads a distinct (address, length) from each listed device in a
// single broadcast instruction, gathering one status packet per entry in
// reply order. On partial failure it returns the values decoded so far
// together with the terminal Response explaining why the rest did not
// arrive.
func (b *BusV1) BulkRead(entries []BulkReadEntry) ([]uint32, Response, error) {
	if len(entries) == 0 {
		return nil, Response{}, fmt.Errorf("dxl: bulk read needs at least one entry")
	}
	params := make([]byte, 0, 1+len(entries)*3)
	params = append(params, 0x00)
	for _, e := range entries {
		params = append(params, e.Length, e.ID, e.Address)
	}

	decoded, resp, err := protocolV1.gather(b.port, b.Timeout, BroadcastID, InstBulkRead, params, len(entries), func(p []byte) any {
		return mergeV1(p)
	})
	values := toUint32Slice(decoded)
	if resp.OK() {
		resp = responseAggregateOK(values)
	}
	return values, resp, err
}
