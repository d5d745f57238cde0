package dxl

import "time"

// Instruction codes shared by Protocol 1 and Protocol 2. Codes marked
// "v2 only" are Protocol-2-only extensions; Protocol 1 devices understand
// the rest.
const (
	InstPing        uint8 = 0x01
	InstRead        uint8 = 0x02
	InstWrite       uint8 = 0x03
	InstRegWrite    uint8 = 0x04
	InstAction      uint8 = 0x05
	InstFactoryReset uint8 = 0x06
	InstReboot      uint8 = 0x08

	InstClear              uint8 = 0x10 // v2 only
	InstControlTableBackup uint8 = 0x20 // v2 only

	InstSyncRead     uint8 = 0x82 // v2 only
	InstSyncWrite    uint8 = 0x83
	InstFastSyncRead uint8 = 0x8A // v2 only
	InstBulkRead     uint8 = 0x92
	InstBulkWrite    uint8 = 0x93 // v2 only
	InstFastBulkRead uint8 = 0x9A // v2 only
)

// BroadcastID addresses every device on the bus. Most broadcast operations
// expect no status reply; the exception is Protocol 2 PING, which gathers
// replies from every answering device.
const BroadcastID uint8 = 0xFE

// Factory reset scopes (Protocol 2).
const (
	FactoryResetAll               uint8 = 0xFF
	FactoryResetExceptID          uint8 = 0x01
	FactoryResetExceptIDBaudrate  uint8 = 0x02
)

// Magic byte sequences the Protocol 2 CLEAR and CONTROL_TABLE_BACKUP
// instructions require as their params, verbatim.
var (
	clearPositionMagic = []byte{0x01, 0x44, 0x58, 0x4C, 0x22}
	clearErrorsMagic   = []byte{0x02, 0x45, 0x52, 0x43, 0x4C}

	controlTableBackupSaveMagic    = []byte{0x01, 0x43, 0x54, 0x52, 0x4C}
	controlTableBackupRestoreMagic = []byte{0x02, 0x43, 0x54, 0x52, 0x4C}
)

// DefaultTimeout is the default per-read timeout applied to a new bus when
// none is configured.
const DefaultTimeout = time.Second
