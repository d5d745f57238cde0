package dxl

import "time"

// protocol bundles the two things that differ between Protocol 1 and
// Protocol 2 at the transaction layer: how to build an instruction packet
// and how to pull one status packet off the wire. alertBit is 0 for
// Protocol 1, which has no hardware-alert concept.
type protocol struct {
	build      func(id, instruction uint8, params []byte) []byte
	readStatus func(port SerialPort, timeout time.Duration) (statusPacket, readOutcome)
	alertBit   uint8
}

var protocolV1 = protocol{build: buildPacketV1, readStatus: readStatusV1}
var protocolV2 = protocol{build: buildPacketV2, readStatus: readStatusV2, alertBit: hardwareAlertBit}

// responseFromStatus turns a framed-and-validated statusPacket into a
// Response. A non-zero error byte produces a DeviceError response carrying
// the raw params; a zero error byte produces an OK response carrying decode
// applied to params (decode may be nil for operations with no payload).
func responseFromStatus(pkt statusPacket, decode func([]byte) any) Response {
	if pkt.error != 0 {
		return responseDeviceError(pkt.id, pkt.error, pkt.params)
	}
	var data any
	if decode != nil {
		data = decode(pkt.params)
	}
	return responseOK(pkt.id, data)
}

// receiveOne reads one status packet and classifies it. It returns ok=false
// whenever the caller should stop and use resp/err as the terminal outcome:
// a timeout or corrupted frame yields resp, a hardware alert yields err.
func (p protocol) receiveOne(port SerialPort, timeout time.Duration) (pkt statusPacket, resp Response, err error, ok bool) {
	got, outcome := p.readStatus(port, timeout)
	if outcome == outcomeTimeout {
		return statusPacket{}, responseTimeout(), nil, false
	}
	if !got.valid {
		return statusPacket{}, responseCorrupted(), nil, false
	}
	if p.alertBit != 0 && got.error&p.alertBit != 0 {
		return statusPacket{}, Response{}, &HardwareAlertError{ID: got.id}, false
	}
	return got, Response{}, nil, true
}

// unicast writes one instruction packet and reads exactly one status
// packet, translating it into a Response via decode.
func (p protocol) unicast(port SerialPort, timeout time.Duration, id, instruction uint8, params []byte, decode func([]byte) any) (Response, error) {
	if err := writeAll(port, p.build(id, instruction, params)); err != nil {
		return Response{}, err
	}
	pkt, resp, err, ok := p.receiveOne(port, timeout)
	if !ok {
		return resp, err
	}
	return responseFromStatus(pkt, decode), nil
}

// fireAndForget writes one instruction packet and reads nothing. Used for
// broadcast-only instructions (ACTION on v1, SYNC_WRITE, BULK_WRITE) that
// never get a status reply.
func (p protocol) fireAndForget(port SerialPort, id, instruction uint8, params []byte) error {
	return writeAll(port, p.build(id, instruction, params))
}

// gather writes one instruction packet and reads up to n status packets,
// decoding each with decode and appending to an accumulator in arrival
// order. It stops at the first timeout, corrupted frame, hardware alert, or
// device error, returning whatever decoded values arrived so far alongside
// the terminal Response/error.
func (p protocol) gather(port SerialPort, timeout time.Duration, id, instruction uint8, params []byte, n int, decode func([]byte) any) ([]any, Response, error) {
	if err := writeAll(port, p.build(id, instruction, params)); err != nil {
		return nil, Response{}, err
	}

	data := make([]any, 0, n)
	for i := 0; i < n; i++ {
		pkt, resp, err, ok := p.receiveOne(port, timeout)
		if !ok {
			return data, resp, err
		}
		if pkt.error != 0 {
			return data, responseDeviceError(pkt.id, pkt.error, pkt.params), nil
		}
		data = append(data, decode(pkt.params))
	}
	return data, responseAggregateOK(data), nil
}

// gatherUntilTimeout is the unbounded broadcast-gather shape used by
// Protocol 2's BROADCAST_PING: keep reading status packets, keyed by
// decode's reported device id, until a read times out. The terminal
// Response is OK with the accumulated map as Data when at least one device
// answered, or a plain timeout when none did.
func (p protocol) gatherUntilTimeout(port SerialPort, timeout time.Duration, id, instruction uint8, params []byte, decode func(statusPacket) (uint8, any)) (map[uint8]any, Response, error) {
	if err := writeAll(port, p.build(id, instruction, params)); err != nil {
		return nil, Response{}, err
	}

	data := make(map[uint8]any)
	for {
		pkt, resp, err, ok := p.receiveOne(port, timeout)
		if !ok {
			if resp.Timeout() && len(data) > 0 {
				return data, responseAggregateOK(data), nil
			}
			return data, resp, err
		}
		if pkt.error != 0 {
			return data, responseDeviceError(pkt.id, pkt.error, pkt.params), nil
		}
		devID, val := decode(pkt)
		data[devID] = val
	}
}
