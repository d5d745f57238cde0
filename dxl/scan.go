package dxl

// ScanHit records one device that answered PING during a scan.
type ScanHit struct {
	ID       uint8
	Baudrate int
	Info     PingInfo
}

// ScanPort is the subset of a serial adapter a scan needs: everything
// BusV2 needs, plus the ability to change baudrate in place. Concrete
// adapters such as serialport.Port satisfy this alongside SerialPort.
type ScanPort interface {
	SerialPort
	SetBaudrate(baudrate int) error
}

// ScanV2 iterates device ids 0..0xFD against each of baudrates in turn,
// switching the adapter to each baudrate once and pinging every id, and
// reports every id that answers. progress, if non-nil, is called before
// every id/baudrate attempt so a caller can report scan progress without
// this function depending on any particular UI.
//
// Every ping uses a bus with DefaultTimeout as its header-search deadline,
// and the port's own read timeout does not shorten it, so a scan at N
// baudrates and 254 ids takes up to roughly N*254*DefaultTimeout.
func ScanV2(port ScanPort, baudrates []int, progress func(id uint8, baudrate int)) ([]ScanHit, error) {
	bus := NewBusV2(port)

	var hits []ScanHit
	for _, baudrate := range baudrates {
		if err := port.SetBaudrate(baudrate); err != nil {
			return hits, err
		}

		for id := 0; id < 0xFE; id++ {
			if progress != nil {
				progress(uint8(id), baudrate)
			}

			resp, err := bus.Ping(uint8(id))
			if err != nil {
				// A hardware alert or I/O failure during a scan means the
				// port itself is in a bad state; stop rather than report
				// a misleading partial scan.
				return hits, err
			}
			if !resp.OK() {
				continue
			}

			info, _ := resp.Data().(PingInfo)
			hits = append(hits, ScanHit{ID: uint8(id), Baudrate: baudrate, Info: info})
		}
	}

	return hits, nil
}
