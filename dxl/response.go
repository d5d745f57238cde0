package dxl

// ResponseKind classifies the outcome carried by a Response.
type ResponseKind int

const (
	// KindOK means the packet framed, validated, and reported no device
	// error.
	KindOK ResponseKind = iota
	// KindDeviceError means the packet framed and validated but the
	// device's error byte was non-zero.
	KindDeviceError
	// KindCorrupted means a header and body of the expected length were
	// found but the checksum/CRC did not match.
	KindCorrupted
	// KindTimeout means no (or an incomplete) packet arrived within the
	// deadline.
	KindTimeout
)

// Response is the single record returned to callers for one device answer.
// It is immutable once produced; all of its fields are unexported, so
// callers read it through the accessor methods.
type Response struct {
	kind      ResponseKind
	id        *uint8
	errorCode *uint8
	data      any
	rawParams []byte
}

func responseTimeout() Response {
	return Response{kind: KindTimeout}
}

func responseCorrupted() Response {
	return Response{kind: KindCorrupted}
}

func responseOK(id uint8, data any) Response {
	return Response{kind: KindOK, id: &id, data: data}
}

// responseAggregateOK builds an OK Response for a gather operation, whose
// data is a multi-device aggregate (a slice or map) rather than one
// device's answer. It carries no single id.
func responseAggregateOK(data any) Response {
	return Response{kind: KindOK, data: data}
}

func responseDeviceError(id uint8, errorCode uint8, rawParams []byte) Response {
	return Response{kind: KindDeviceError, id: &id, errorCode: &errorCode, rawParams: rawParams}
}

// OK reports whether the transaction succeeded cleanly: no timeout, no
// corruption, and (if the device reports one) a zero error byte.
func (r Response) OK() bool {
	return r.kind == KindOK
}

// Timeout reports whether no packet arrived within the deadline.
func (r Response) Timeout() bool {
	return r.kind == KindTimeout
}

// Corrupted reports whether a packet framed correctly but failed
// checksum/CRC validation.
func (r Response) Corrupted() bool {
	return r.kind == KindCorrupted
}

// DeviceError reports whether the device answered with a non-zero error
// byte.
func (r Response) DeviceError() bool {
	return r.kind == KindDeviceError
}

// ID returns the responding device's id, if this Response is associated with
// one (timeouts are not).
func (r Response) ID() (uint8, bool) {
	if r.id == nil {
		return 0, false
	}
	return *r.id, true
}

// ErrorCode returns the device-reported error byte, if any.
func (r Response) ErrorCode() (uint8, bool) {
	if r.errorCode == nil {
		return 0, false
	}
	return *r.errorCode, true
}

// Data returns the operation-specific decoded value for an OK response: a
// decoded integer, a per-device map, a list of per-device values, or raw
// param bytes, depending on the operation. It is nil for any non-OK kind.
func (r Response) Data() any {
	return r.data
}

// RawParams returns the undecoded parameter bytes of a DeviceError response.
// A device that reports an error still answers with a validly framed
// packet; its raw params remain available even though the typed decode is
// skipped.
func (r Response) RawParams() ([]byte, bool) {
	if r.kind != KindDeviceError {
		return nil, false
	}
	return r.rawParams, true
}
