package dxl

import "time"

var headerV2 = []byte{0xFF, 0xFF, 0xFD, 0x00}

const (
	statusInstruction = 0x55
	hardwareAlertBit  = 0x80
)

// buildPacketV2 assembles a Protocol 2 instruction packet:
// FF FF FD 00 | id | length_lo length_hi | instruction | stuffed params... | crc_lo crc_hi.
// Stuffing is applied to params before length and CRC are computed.
func buildPacketV2(id, instruction uint8, params []byte) []byte {
	stuffed := stuffParams(params)
	length := len(stuffed) + 3

	pkt := make([]byte, 0, 7+len(stuffed)+2)
	pkt = append(pkt, headerV2...)
	pkt = append(pkt, id)
	pkt = append(pkt, split(uint32(length), 2)...)
	pkt = append(pkt, instruction)
	pkt = append(pkt, stuffed...)

	crc := crc16(pkt)
	pkt = append(pkt, byte(crc), byte(crc>>8))
	return pkt
}

// readStatusV2 runs the Protocol 2 receive state machine: SEEK_HEADER (4
// bytes, deadline = timeout) -> READ_HEAD_TAIL (id, length_lo, length_hi) ->
// READ_BODY (length bytes: instruction, error, params, crc) -> VALIDATE.
// Stuffing removal is applied to params only when the CRC validates.
func readStatusV2(port SerialPort, timeout time.Duration) (statusPacket, readOutcome) {
	deadline := time.Now().Add(timeout)
	if !seekHeader(port, headerV2, deadline) {
		return statusPacket{}, outcomeTimeout
	}

	headTail, ok := readExactly(port, 3)
	if !ok {
		return statusPacket{}, outcomeTimeout
	}
	id := headTail[0]
	length := int(mergeV2(headTail[1:3]))
	if length < 4 {
		// Too short to hold the instruction, error and CRC bytes.
		return statusPacket{id: id}, outcomeFramed
	}

	body, ok := readExactly(port, length)
	if !ok {
		return statusPacket{}, outcomeTimeout
	}

	errByte := body[1]
	rawParams := body[2 : length-2]
	wantCRC := mergeV2(body[length-2:])

	canonical := make([]byte, 0, 7+length-2)
	canonical = append(canonical, headerV2...)
	canonical = append(canonical, id)
	canonical = append(canonical, headTail[1], headTail[2])
	canonical = append(canonical, body[:length-2]...)
	valid := uint32(crc16(canonical)) == wantCRC

	pkt := statusPacket{
		id:    id,
		error: errByte,
		valid: valid,
	}
	if valid {
		pkt.params = destuffParams(rawParams)
	}
	return pkt, outcomeFramed
}
