package dxl

import (
	"bytes"
	"errors"
	"testing"
)

func pingParams(model uint16, firmware uint8) []byte {
	return []byte{byte(model), byte(model >> 8), firmware}
}

func TestBusV2Ping(t *testing.T) {
	port := newMockSerialPort()
	port.queueReply(buildStatusV2(1, 0, pingParams(1060, 44)))
	bus := NewBusV2(port)

	resp, err := bus.Ping(1)
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	info, ok := resp.Data().(PingInfo)
	if !ok {
		t.Fatalf("Data = %#v, want a PingInfo", resp.Data())
	}
	if info.ModelNumber != 1060 || info.Firmware != 44 {
		t.Errorf("info = %+v", info)
	}
}

func TestBusV2BroadcastPingGathersUntilTimeout(t *testing.T) {
	port := newMockSerialPort()
	port.queueReply(buildStatusV2(1, 0, pingParams(1060, 1)))
	port.queueReply(buildStatusV2(2, 0, pingParams(1060, 2)))
	bus := NewBusV2(port)

	resp, err := bus.BroadcastPing()
	if err != nil {
		t.Fatalf("BroadcastPing: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("resp = %+v, want OK", resp)
	}
	infos, ok := resp.Data().(map[uint8]PingInfo)
	if !ok || len(infos) != 2 {
		t.Fatalf("Data = %#v, want a 2-entry map[uint8]PingInfo", resp.Data())
	}
	if infos[1].Firmware != 1 || infos[2].Firmware != 2 {
		t.Errorf("infos = %+v", infos)
	}
}

func TestBusV2BroadcastPingNoneAnsweredIsTimeout(t *testing.T) {
	bus := NewBusV2(newMockSerialPort())
	resp, err := bus.BroadcastPing()
	if err != nil {
		t.Fatalf("BroadcastPing: %v", err)
	}
	if !resp.Timeout() {
		t.Fatalf("resp = %+v, want Timeout", resp)
	}
}

func TestBusV2ReadDecodesLittleEndian(t *testing.T) {
	port := newMockSerialPort()
	port.queueReply(buildStatusV2(1, 0, []byte{0x02, 0x01}))
	bus := NewBusV2(port)

	resp, err := bus.Read(1, 0x84, 2)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := resp.Data().(uint32); got != 0x0102 {
		t.Errorf("Data = %#x, want 0x0102", got)
	}
}

func TestBusV2HardwareAlertSurfacesAsError(t *testing.T) {
	port := newMockSerialPort()
	port.queueReply(buildStatusV2(7, hardwareAlertBit|0x02, nil))
	bus := NewBusV2(port)

	_, err := bus.Ping(7)
	var alertErr *HardwareAlertError
	if !errors.As(err, &alertErr) {
		t.Fatalf("err = %v, want *HardwareAlertError", err)
	}
	if alertErr.ID != 7 {
		t.Errorf("alertErr.ID = %d, want 7", alertErr.ID)
	}
}

func TestBusV2ActionIsUnicast(t *testing.T) {
	port := newMockSerialPort()
	port.queueReply(buildStatusV2(1, 0, nil))
	bus := NewBusV2(port)

	resp, err := bus.Action(1)
	if err != nil {
		t.Fatalf("Action: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("resp = %+v, want OK", resp)
	}
}

func TestBusV2ClearUsesMagicBytes(t *testing.T) {
	port := newMockSerialPort()
	port.queueReply(buildStatusV2(1, 0, nil))
	bus := NewBusV2(port)

	if _, err := bus.ClearPosition(1); err != nil {
		t.Fatalf("ClearPosition: %v", err)
	}
	written := port.written()
	if !bytes.Contains(written, clearPositionMagic) {
		t.Errorf("written packet %#v does not contain the clear-position magic bytes", written)
	}
}

func TestBusV2ControlTableBackupUsesMagicBytes(t *testing.T) {
	port := newMockSerialPort()
	port.queueReply(buildStatusV2(1, 0, nil))
	bus := NewBusV2(port)

	if _, err := bus.ControlTableBackupSave(1); err != nil {
		t.Fatalf("ControlTableBackupSave: %v", err)
	}
	written := port.written()
	if !bytes.Contains(written, controlTableBackupSaveMagic) {
		t.Errorf("written packet %#v does not contain the backup-save magic bytes", written)
	}
}

// Property: SYNC_WRITE and BULK_WRITE must never attempt to read a status
// packet.
func TestBusV2SyncWriteNeverReads(t *testing.T) {
	port := newMockSerialPort()
	port.setReadError(errors.New("SyncWrite must not call Read"))
	bus := NewBusV2(port)

	entries := []SyncWriteEntry{{ID: 1, Value: []byte{0x01}}}
	if err := bus.SyncWrite(0x1E, 1, entries); err != nil {
		t.Fatalf("SyncWrite: %v", err)
	}
}

func TestBusV2BulkWriteNeverReads(t *testing.T) {
	port := newMockSerialPort()
	port.setReadError(errors.New("BulkWrite must not call Read"))
	bus := NewBusV2(port)

	entries := []BulkWriteEntry{{ID: 1, Address: 0x1E, Value: []byte{0x01}}}
	if err := bus.BulkWrite(entries); err != nil {
		t.Fatalf("BulkWrite: %v", err)
	}
}

func TestBusV2SyncReadGathers(t *testing.T) {
	port := newMockSerialPort()
	port.queueReply(buildStatusV2(1, 0, []byte{0x01, 0x00}))
	port.queueReply(buildStatusV2(2, 0, []byte{0x02, 0x00}))
	bus := NewBusV2(port)

	values, resp, err := bus.SyncRead(0x84, 2, []uint8{1, 2})
	if err != nil {
		t.Fatalf("SyncRead: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("resp = %+v, want OK", resp)
	}
	if len(values) != 2 || values[0] != 1 || values[1] != 2 {
		t.Errorf("values = %#v", values)
	}
}

func TestBusV2BulkReadGathers(t *testing.T) {
	port := newMockSerialPort()
	port.queueReply(buildStatusV2(1, 0, []byte{0x05}))
	port.queueReply(buildStatusV2(2, 0, []byte{0x06, 0x00}))
	bus := NewBusV2(port)

	entries := []BulkReadEntryV2{
		{ID: 1, Address: 0x24, Length: 1},
		{ID: 2, Address: 0x84, Length: 2},
	}
	values, resp, err := bus.BulkRead(entries)
	if err != nil {
		t.Fatalf("BulkRead: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("resp = %+v, want OK", resp)
	}
	if len(values) != 2 || values[0] != 5 || values[1] != 6 {
		t.Errorf("values = %#v", values)
	}
}

func TestBusV2BulkReadPartialFailureReturnsWhatArrived(t *testing.T) {
	port := newMockSerialPort()
	port.queueReply(buildStatusV2(1, 0, []byte{0x01, 0x00}))
	port.queueReply(buildStatusV2(2, 0, []byte{0x02, 0x00}))
	// Third device never answers.
	bus := NewBusV2(port)

	entries := []BulkReadEntryV2{
		{ID: 1, Address: 0x84, Length: 2},
		{ID: 2, Address: 0x84, Length: 2},
		{ID: 3, Address: 0x84, Length: 2},
	}
	values, resp, err := bus.BulkRead(entries)
	if err != nil {
		t.Fatalf("BulkRead: %v", err)
	}
	if !resp.Timeout() {
		t.Fatalf("resp = %+v, want Timeout", resp)
	}
	if len(values) != 2 || values[0] != 1 || values[1] != 2 {
		t.Errorf("values = %#v, want the two that arrived", values)
	}
}

// FAST_SYNC_READ concatenates every device's reply into a single status
// packet: the first device's frame is id,value (its error byte is the status
// packet's own), every subsequent device's frame carries the previous
// frame's two CRC bytes ahead of its own error, id, value.
func TestBusV2FastSyncReadSinglePacket(t *testing.T) {
	params := []byte{}
	params = append(params, 1, 0x01, 0x00) // device 1: id=1, value=1
	params = append(params, 0x00, 0x00, 0x00, 2, 0x02, 0x00) // device 1's CRC, error=0, id=2, value=2
	port := newMockSerialPort()
	port.queueReply(buildStatusV2(BroadcastID, 0, params))
	bus := NewBusV2(port)

	values, resp, err := bus.FastSyncRead(0x84, 2, []uint8{1, 2})
	if err != nil {
		t.Fatalf("FastSyncRead: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("resp = %+v, want OK", resp)
	}
	if len(values) != 2 || values[0] != 1 || values[1] != 2 {
		t.Errorf("values = %#v", values)
	}
}

func TestBusV2FastSyncReadAlertedDeviceSurfacesAsError(t *testing.T) {
	params := []byte{}
	params = append(params, 1, 0x01, 0x00) // device 1: id=1, value=1
	params = append(params, 0x00, 0x00, hardwareAlertBit, 2, 0x00, 0x00) // device 2 alerted
	port := newMockSerialPort()
	port.queueReply(buildStatusV2(BroadcastID, 0, params))
	bus := NewBusV2(port)

	_, _, err := bus.FastSyncRead(0x84, 2, []uint8{1, 2})
	var alertErr *HardwareAlertError
	if !errors.As(err, &alertErr) || alertErr.ID != 2 {
		t.Fatalf("err = %v, want *HardwareAlertError{ID:2}", err)
	}
}

func TestBusV2EmptyEntriesRejected(t *testing.T) {
	bus := NewBusV2(newMockSerialPort())
	if _, _, err := bus.SyncRead(0, 0, nil); err == nil {
		t.Error("SyncRead with no ids should error")
	}
	if _, _, err := bus.BulkRead(nil); err == nil {
		t.Error("BulkRead with no entries should error")
	}
	if err := bus.SyncWrite(0, 1, nil); err == nil {
		t.Error("SyncWrite with no entries should error")
	}
	if err := bus.BulkWrite(nil); err == nil {
		t.Error("BulkWrite with no entries should error")
	}
}
