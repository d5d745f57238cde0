package dxl

// parseFastRead slices a FAST_SYNC_READ/FAST_BULK_READ status packet's
// params into per-device raw value slices, given the requested value
// length of each device in request order.
//
// The first device's answer is packed as id,value... (its error byte is the
// status packet's own error byte, which the caller checks); each subsequent
// device's answer is preceded by the two CRC bytes of the answer before it
// (not checked here) and carries its own error,id,value.... alerted reports
// whether one of those subsequent per-device error bytes had the
// hardware-alert bit set, in which case alertID names the offending device
// and values holds only the entries collected before it.
func parseFastRead(params []byte, lengths []int) (values [][]byte, alertID uint8, alerted bool) {
	if len(lengths) == 0 {
		return nil, 0, false
	}

	first := lengths[0]
	if len(params) < 1+first {
		return nil, 0, false
	}
	values = append(values, params[1:1+first])
	start := 1 + first

	for _, length := range lengths[1:] {
		end := start + length + 4
		if end > len(params) {
			return values, 0, false
		}
		frame := params[start:end]
		errByte := frame[2]
		if errByte&hardwareAlertBit != 0 {
			return values, frame[3], true
		}
		values = append(values, frame[4:])
		start = end
	}
	return values, 0, false
}
