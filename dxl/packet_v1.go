package dxl

import "time"

var headerV1 = []byte{0xFF, 0xFF}

// buildPacketV1 assembles a Protocol 1 instruction packet:
// FF FF | id | length | instruction | params... | checksum.
func buildPacketV1(id, instruction uint8, params []byte) []byte {
	length := len(params) + 2
	pkt := make([]byte, 0, 4+len(params)+1)
	pkt = append(pkt, headerV1[0], headerV1[1], id, byte(length), instruction)
	pkt = append(pkt, params...)
	pkt = append(pkt, checksum(pkt[2:]))
	return pkt
}

// readStatusV1 runs the Protocol 1 receive state machine: SEEK_HEADER (2
// bytes, deadline = timeout*len(header)) -> READ_HEAD_TAIL (id, length) ->
// READ_BODY (length bytes: error, params, checksum) -> VALIDATE.
func readStatusV1(port SerialPort, timeout time.Duration) (statusPacket, readOutcome) {
	deadline := time.Now().Add(timeout * time.Duration(len(headerV1)))
	if !seekHeader(port, headerV1, deadline) {
		return statusPacket{}, outcomeTimeout
	}

	headTail, ok := readExactly(port, 2)
	if !ok {
		return statusPacket{}, outcomeTimeout
	}
	id, length := headTail[0], int(headTail[1])
	if length < 2 {
		// Too short to hold the error byte and the checksum.
		return statusPacket{id: id}, outcomeFramed
	}

	body, ok := readExactly(port, length)
	if !ok {
		return statusPacket{}, outcomeTimeout
	}

	errByte := body[0]
	params := body[1 : length-1]
	wantChecksum := body[length-1]

	canonical := make([]byte, 0, 2+len(body))
	canonical = append(canonical, id, byte(length))
	canonical = append(canonical, body[:length-1]...)
	valid := checksum(canonical) == wantChecksum

	pkt := statusPacket{
		id:    id,
		error: errByte,
		valid: valid,
	}
	if valid {
		pkt.params = append([]byte(nil), params...)
	}
	return pkt, outcomeFramed
}
