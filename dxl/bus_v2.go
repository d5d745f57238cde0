package dxl

import (
	"fmt"
	"time"
)

// BusV2 is the Protocol 2 operation surface: every instruction in §4.7,
// addressed with 2-byte address/length fields and little-endian payloads
// throughout. Construct with NewBusV2; the zero value has no port and is
// not usable.
type BusV2 struct {
	port SerialPort
	// Timeout bounds every serial read this bus issues, and is also the
	// header-search deadline directly (Protocol 2's 4-byte header needs no
	// multiplier).
	Timeout time.Duration
}

// NewBusV2 wraps port in a Protocol 2 operation surface with DefaultTimeout.
func NewBusV2(port SerialPort) *BusV2 {
	return &BusV2{port: port, Timeout: DefaultTimeout}
}

// SetTimeout changes the per-read timeout used by subsequent operations.
func (b *BusV2) SetTimeout(timeout time.Duration) {
	b.Timeout = timeout
}

// PingInfo is the liveness payload a Protocol 2 PING reply carries.
type PingInfo struct {
	ModelNumber uint16
	Firmware    uint8
}

func decodePingInfo(p []byte) any {
	return PingInfo{ModelNumber: uint16(mergeV2(p[:2])), Firmware: p[2]}
}

// Ping checks whether device id answers, returning its model number and
// firmware version on success.
func (b *BusV2) Ping(id uint8) (Response, error) {
	return protocolV2.unicast(b.port, b.Timeout, id, InstPing, nil, decodePingInfo)
}

// BroadcastPing pings every device on the bus. Unlike every other broadcast
// instruction, Protocol 2 PING gathers replies from all answering devices;
// the gather is unbounded and terminates on the first read that times out.
// The returned Response's Data is a map[uint8]PingInfo keyed by responding
// device id.
func (b *BusV2) BroadcastPing() (Response, error) {
	data, resp, err := protocolV2.gatherUntilTimeout(b.port, b.Timeout, BroadcastID, InstPing, nil, func(pkt statusPacket) (uint8, any) {
		return pkt.id, decodePingInfo(pkt.params)
	})
	if err != nil || !resp.OK() {
		return resp, err
	}
	infos := make(map[uint8]PingInfo, len(data))
	for id, v := range data {
		infos[id] = v.(PingInfo)
	}
	return responseAggregateOK(infos), nil
}

// Read requests length bytes from address on device id, decoded
// little-endian.
func (b *BusV2) Read(id uint8, address uint16, length uint16) (Response, error) {
	params := make([]byte, 0, 4)
	params = append(params, split(uint32(address), 2)...)
	params = append(params, split(uint32(length), 2)...)
	return protocolV2.unicast(b.port, b.Timeout, id, InstRead, params, func(p []byte) any {
		return mergeV2(p)
	})
}

// Write writes value at address on device id.
func (b *BusV2) Write(id uint8, address uint16, value []byte) (Response, error) {
	params := append(split(uint32(address), 2), value...)
	return protocolV2.unicast(b.port, b.Timeout, id, InstWrite, params, nil)
}

// RegWrite stages value at address on device id, to be applied on the next
// ACTION.
func (b *BusV2) RegWrite(id uint8, address uint16, value []byte) (Response, error) {
	params := append(split(uint32(address), 2), value...)
	return protocolV2.unicast(b.port, b.Timeout, id, InstRegWrite, params, nil)
}

// Action triggers device id's staged REG_WRITE. Protocol 2's ACTION is
// unicast, unlike Protocol 1's broadcast fire-and-forget form.
func (b *BusV2) Action(id uint8) (Response, error) {
	return protocolV2.unicast(b.port, b.Timeout, id, InstAction, nil, nil)
}

// FactoryReset restores device id's control table to factory defaults per
// scope (FactoryResetAll, FactoryResetExceptID, or
// FactoryResetExceptIDBaudrate).
func (b *BusV2) FactoryReset(id uint8, scope uint8) (Response, error) {
	return protocolV2.unicast(b.port, b.Timeout, id, InstFactoryReset, []byte{scope}, nil)
}

// FactoryResetExceptID resets everything but device id's own id.
func (b *BusV2) FactoryResetExceptID(id uint8) (Response, error) {
	return b.FactoryReset(id, FactoryResetExceptID)
}

// FactoryResetExceptIDBaudrate resets everything but device id's id and
// baudrate.
func (b *BusV2) FactoryResetExceptIDBaudrate(id uint8) (Response, error) {
	return b.FactoryReset(id, FactoryResetExceptIDBaudrate)
}

// Reboot power-cycles device id's control logic.
func (b *BusV2) Reboot(id uint8) (Response, error) {
	return protocolV2.unicast(b.port, b.Timeout, id, InstReboot, nil, nil)
}

func (b *BusV2) clear(id uint8, magic []byte) (Response, error) {
	return protocolV2.unicast(b.port, b.Timeout, id, InstClear, magic, nil)
}

// ClearPosition resets device id's present-position rotation count.
func (b *BusV2) ClearPosition(id uint8) (Response, error) {
	return b.clear(id, clearPositionMagic)
}

// ClearErrors clears device id's latched hardware error status.
func (b *BusV2) ClearErrors(id uint8) (Response, error) {
	return b.clear(id, clearErrorsMagic)
}

func (b *BusV2) controlTableBackup(id uint8, magic []byte) (Response, error) {
	return protocolV2.unicast(b.port, b.Timeout, id, InstControlTableBackup, magic, nil)
}

// ControlTableBackupSave copies device id's current control table to its
// backup area.
func (b *BusV2) ControlTableBackupSave(id uint8) (Response, error) {
	return b.controlTableBackup(id, controlTableBackupSaveMagic)
}

// ControlTableBackupRestore restores device id's control table from its
// backup area.
func (b *BusV2) ControlTableBackupRestore(id uint8) (Response, error) {
	return b.controlTableBackup(id, controlTableBackupRestoreMagic)
}

// SyncWrite writes the same address on every listed device in a single
// broadcast packet. Fire-and-forget: it never reads a status packet.
func (b *BusV2) SyncWrite(address uint16, length uint16, entries []SyncWriteEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("dxl: sync write needs at least one entry")
	}
	params := make([]byte, 0, 4+len(entries)*(1+int(length)))
	params = append(params, split(uint32(address), 2)...)
	params = append(params, split(uint32(length), 2)...)
	for _, e := range entries {
		if len(e.Value) != int(length) {
			return fmt.Errorf("dxl: sync write entry for id %d has %d bytes, want %d", e.ID, len(e.Value), length)
		}
		params = append(params, e.ID)
		params = append(params, e.Value...)
	}
	return protocolV2.fireAndForget(b.port, BroadcastID, InstSyncWrite, params)
}

func syncReadParams(address, length uint16, ids []uint8) []byte {
	params := make([]byte, 0, 4+len(ids))
	params = append(params, split(uint32(address), 2)...)
	params = append(params, split(uint32(length), 2)...)
	params = append(params, ids...)
	return params
}

// SyncRead reads the same address from every listed device, gathering one
// status packet per id in reply order. On partial failure it returns the
// values decoded so far together with the terminal Response.
func (b *BusV2) SyncRead(address uint16, length uint16, ids []uint8) ([]uint32, Response, error) {
	if len(ids) == 0 {
		return nil, Response{}, fmt.Errorf("dxl: sync read needs at least one device id")
	}
	params := syncReadParams(address, length, ids)
	decoded, resp, err := protocolV2.gather(b.port, b.Timeout, BroadcastID, InstSyncRead, params, len(ids), func(p []byte) any {
		return mergeV2(p)
	})
	values := toUint32Slice(decoded)
	if resp.OK() {
		resp = responseAggregateOK(values)
	}
	return values, resp, err
}

// FastSyncRead is SYNC_READ's single-packet variant: the broadcast device
// concatenates every reply into one status packet's params, sub-framed per
// device. The engine reads one packet and slices it by the request's
// per-device length.
func (b *BusV2) FastSyncRead(address uint16, length uint16, ids []uint8) ([]uint32, Response, error) {
	if len(ids) == 0 {
		return nil, Response{}, fmt.Errorf("dxl: fast sync read needs at least one device id")
	}
	params := syncReadParams(address, length, ids)
	lengths := make([]int, len(ids))
	for i := range lengths {
		lengths[i] = int(length)
	}
	rawValues, resp, err := b.fastRead(InstFastSyncRead, params, lengths)
	values := decodeUint32Frames(rawValues)
	if resp.OK() {
		resp = responseAggregateOK(values)
	}
	return values, resp, err
}

// BulkReadEntryV2 addresses one device's (address, length) pair within a
// Protocol 2 BULK_READ instruction.
type BulkReadEntryV2 struct {
	ID      uint8
	Address uint16
	Length  uint16
}

func bulkReadParams(entries []BulkReadEntryV2) []byte {
	params := make([]byte, 0, len(entries)*5)
	for _, e := range entries {
		params = append(params, e.ID)
		params = append(params, split(uint32(e.Address), 2)...)
		params = append(params, split(uint32(e.Length), 2)...)
	}
	return params
}

// BulkRead reads a distinct (address, length) from each listed device in a
// single broadcast instruction, gathering one status packet per entry in
// reply order.
func (b *BusV2) BulkRead(entries []BulkReadEntryV2) ([]uint32, Response, error) {
	if len(entries) == 0 {
		return nil, Response{}, fmt.Errorf("dxl: bulk read needs at least one entry")
	}
	params := bulkReadParams(entries)
	decoded, resp, err := protocolV2.gather(b.port, b.Timeout, BroadcastID, InstBulkRead, params, len(entries), func(p []byte) any {
		return mergeV2(p)
	})
	values := toUint32Slice(decoded)
	if resp.OK() {
		resp = responseAggregateOK(values)
	}
	return values, resp, err
}

// FastBulkRead is BULK_READ's single-packet variant; see FastSyncRead.
func (b *BusV2) FastBulkRead(entries []BulkReadEntryV2) ([]uint32, Response, error) {
	if len(entries) == 0 {
		return nil, Response{}, fmt.Errorf("dxl: fast bulk read needs at least one entry")
	}
	params := bulkReadParams(entries)
	lengths := make([]int, len(entries))
	for i, e := range entries {
		lengths[i] = int(e.Length)
	}
	rawValues, resp, err := b.fastRead(InstFastBulkRead, params, lengths)
	values := decodeUint32Frames(rawValues)
	if resp.OK() {
		resp = responseAggregateOK(values)
	}
	return values, resp, err
}

// BulkWriteEntry addresses one device's (address, length, value) within a
// Protocol 2 BULK_WRITE instruction.
type BulkWriteEntry struct {
	ID      uint8
	Address uint16
	Value   []byte
}

// BulkWrite writes a distinct (address, value) to each listed device in a
// single broadcast packet. Fire-and-forget: it never reads a status
// packet.
func (b *BusV2) BulkWrite(entries []BulkWriteEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("dxl: bulk write needs at least one entry")
	}
	params := make([]byte, 0, len(entries)*5)
	for _, e := range entries {
		params = append(params, e.ID)
		params = append(params, split(uint32(e.Address), 2)...)
		params = append(params, split(uint32(len(e.Value)), 2)...)
		params = append(params, e.Value...)
	}
	return protocolV2.fireAndForget(b.port, BroadcastID, InstBulkWrite, params)
}

// fastRead writes a FAST_SYNC_READ/FAST_BULK_READ instruction and reads the
// single status packet it produces, slicing it per lengths.
func (b *BusV2) fastRead(instruction uint8, params []byte, lengths []int) ([][]byte, Response, error) {
	if err := writeAll(b.port, buildPacketV2(BroadcastID, instruction, params)); err != nil {
		return nil, Response{}, err
	}
	pkt, outcome := readStatusV2(b.port, b.Timeout)
	if outcome == outcomeTimeout {
		return nil, responseTimeout(), nil
	}
	if !pkt.valid {
		return nil, responseCorrupted(), nil
	}
	if pkt.error&hardwareAlertBit != 0 {
		// The status packet's error byte belongs to the first device, whose
		// id is the first param byte.
		alertID := pkt.id
		if len(pkt.params) > 0 {
			alertID = pkt.params[0]
		}
		return nil, Response{}, &HardwareAlertError{ID: alertID}
	}
	if pkt.error != 0 {
		return nil, responseDeviceError(pkt.id, pkt.error, pkt.params), nil
	}

	values, alertID, alerted := parseFastRead(pkt.params, lengths)
	if alerted {
		return values, Response{}, &HardwareAlertError{ID: alertID}
	}
	return values, responseOK(pkt.id, nil), nil
}

func toUint32Slice(decoded []any) []uint32 {
	values := make([]uint32, len(decoded))
	for i, v := range decoded {
		values[i] = v.(uint32)
	}
	return values
}

func decodeUint32Frames(frames [][]byte) []uint32 {
	values := make([]uint32, len(frames))
	for i, f := range frames {
		values[i] = mergeV2(f)
	}
	return values
}
