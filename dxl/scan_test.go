package dxl

import "testing"

// scanMockPort adds SetBaudrate to mockSerialPort so it satisfies ScanPort.
type scanMockPort struct {
	*mockSerialPort
	baudrates []int
}

func newScanMockPort() *scanMockPort {
	return &scanMockPort{mockSerialPort: newMockSerialPort()}
}

func (p *scanMockPort) SetBaudrate(baudrate int) error {
	p.baudrates = append(p.baudrates, baudrate)
	return nil
}

func TestScanV2FindsAnsweringDevice(t *testing.T) {
	port := newScanMockPort()
	// Scan probes id 0 first; queue exactly one reply so it answers that
	// very first probe (the scanner attributes a hit to the id it just
	// probed, not to any id encoded on the wire).
	port.queueReply(buildStatusV2(0, 0, pingParams(1060, 5)))

	var progressCalls int
	hits, err := ScanV2(port, []int{1_000_000}, func(id uint8, baudrate int) {
		progressCalls++
	})
	if err != nil {
		t.Fatalf("ScanV2: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %#v, want exactly one", hits)
	}
	if hits[0].ID != 0 || hits[0].Baudrate != 1_000_000 {
		t.Errorf("hit = %+v", hits[0])
	}
	if hits[0].Info.ModelNumber != 1060 || hits[0].Info.Firmware != 5 {
		t.Errorf("hit.Info = %+v", hits[0].Info)
	}
	if progressCalls != 0xFE {
		t.Errorf("progressCalls = %d, want %d (one per id 0..0xFD)", progressCalls, 0xFE)
	}
	if len(port.baudrates) != 1 || port.baudrates[0] != 1_000_000 {
		t.Errorf("baudrates set = %#v", port.baudrates)
	}
}

func TestScanV2NoDevicesFound(t *testing.T) {
	port := newScanMockPort()
	hits, err := ScanV2(port, []int{57600}, nil)
	if err != nil {
		t.Fatalf("ScanV2: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("hits = %#v, want none", hits)
	}
}
