package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
)

var (
	errStringTooLong = errors.New("protocol: string exceeds 64KB limit")
	errPayloadShort  = errors.New("protocol: payload too short")
	errExtraBytes    = errors.New("protocol: payload has trailing data")
)

// Hello initiates the handshake from an input surface or gesture consumer.
type Hello struct {
	ClientID     [16]byte
	ClientName   string
	Capabilities uint32
}

// Welcome is returned by the server acknowledging the handshake.
type Welcome struct {
	SessionID  [16]byte
	ServerName string
}

// ConnectRequest attaches to or creates a session on the server. A zero
// session id creates a fresh session.
type ConnectRequest struct {
	SessionID [16]byte
}

// ConnectAccept is returned once the session is ready.
type ConnectAccept struct {
	SessionID [16]byte
}

// DisconnectNotice informs the peer that the session is closing.
type DisconnectNotice struct {
	ReasonCode uint16
	Message    string
}

// Ping/Pong keep the connection alive.
type Ping struct {
	Timestamp int64
}

type Pong struct {
	Timestamp int64
}

// ErrorFrame communicates protocol-level errors.
type ErrorFrame struct {
	Code    uint16
	Message string
}

// PointerKind identifies the native notification carried by a PointerEvent.
type PointerKind uint8

const (
	PointerDown PointerKind = iota
	PointerUp
	PointerMove
	PointerCancel
	PointerEnter
	PointerLeave
	PointerLostCapture
)

// PointerEvent carries one raw native pointer notification from the input
// surface to the server. Coordinates and timestamp keep the platform's
// floating-point precision; PointerType is the unclassified native string.
type PointerEvent struct {
	Kind        PointerKind
	X           float64
	Y           float64
	OffsetX     float64
	OffsetY     float64
	PointerID   int32
	PointerType string
	Button      int16
	Buttons     uint32
	Timestamp   float64
}

// TargetUpdate reports the managed target's kind and current bounds. The
// server applies it to the session before processing further pointer events.
type TargetUpdate struct {
	Kind string
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Callback selects which gesture-layer notification a GestureEvent carries.
type Callback uint8

const (
	CallbackDown Callback = iota
	CallbackAdd
	CallbackUp
	CallbackRemove
	CallbackMove
	CallbackEnter
	CallbackLeave
	CallbackOutOfBounds
	CallbackCancel
	CallbackMoveOver
	CallbackMoveOut
)

func (c Callback) String() string {
	switch c {
	case CallbackDown:
		return "down"
	case CallbackAdd:
		return "add"
	case CallbackUp:
		return "up"
	case CallbackRemove:
		return "remove"
	case CallbackMove:
		return "move"
	case CallbackEnter:
		return "enter"
	case CallbackLeave:
		return "leave"
	case CallbackOutOfBounds:
		return "out-of-bounds"
	case CallbackCancel:
		return "cancel"
	case CallbackMoveOver:
		return "move-over"
	case CallbackMoveOut:
		return "move-out"
	default:
		return "unknown"
	}
}

// GestureEvent carries one normalized event from the server to a gesture
// consumer. The Callback discriminator mirrors the handler method invoked.
type GestureEvent struct {
	Callback  Callback
	X         float64
	Y         float64
	OffsetX   float64
	OffsetY   float64
	PointerID int32
	EventType uint8
	Device    uint8
	Button    int8
	Timestamp float64
}

// EventAck acknowledges delivery of gesture events up to a sequence, letting
// the server trim its retention queue.
type EventAck struct {
	Sequence uint64
}

func encodeString(buf *bytes.Buffer, value string) error {
	if len(value) > 0xFFFF {
		return errStringTooLong
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(value))); err != nil {
		return err
	}
	if len(value) > 0 {
		if _, err := buf.WriteString(value); err != nil {
			return err
		}
	}
	return nil
}

func decodeString(b []byte) (string, []byte, error) {
	if len(b) < 2 {
		return "", nil, errPayloadShort
	}
	length := binary.LittleEndian.Uint16(b[:2])
	b = b[2:]
	if uint16(len(b)) < length {
		return "", nil, errPayloadShort
	}
	return string(b[:length]), b[length:], nil
}

func putFloat64(buf *bytes.Buffer, v float64) {
	var raw [8]byte
	binary.LittleEndian.PutUint64(raw[:], math.Float64bits(v))
	buf.Write(raw[:])
}

func getFloat64(b []byte) (float64, []byte, error) {
	if len(b) < 8 {
		return 0, nil, errPayloadShort
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b[:8])), b[8:], nil
}

func EncodeHello(h Hello) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 32+len(h.ClientName)))
	buf.Write(h.ClientID[:])
	if err := encodeString(buf, h.ClientName); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, h.Capabilities); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeHello(b []byte) (Hello, error) {
	var h Hello
	if len(b) < 16 {
		return h, errPayloadShort
	}
	copy(h.ClientID[:], b[:16])
	name, rest, err := decodeString(b[16:])
	if err != nil {
		return h, err
	}
	h.ClientName = name
	if len(rest) < 4 {
		return h, errPayloadShort
	}
	h.Capabilities = binary.LittleEndian.Uint32(rest[:4])
	return h, nil
}

func EncodeWelcome(w Welcome) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 32+len(w.ServerName)))
	buf.Write(w.SessionID[:])
	if err := encodeString(buf, w.ServerName); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeWelcome(b []byte) (Welcome, error) {
	var w Welcome
	if len(b) < 16 {
		return w, errPayloadShort
	}
	copy(w.SessionID[:], b[:16])
	name, _, err := decodeString(b[16:])
	if err != nil {
		return w, err
	}
	w.ServerName = name
	return w, nil
}

func EncodeConnectRequest(c ConnectRequest) ([]byte, error) {
	return c.SessionID[:], nil
}

func DecodeConnectRequest(b []byte) (ConnectRequest, error) {
	var c ConnectRequest
	if len(b) < 16 {
		return c, errPayloadShort
	}
	copy(c.SessionID[:], b[:16])
	return c, nil
}

func EncodeConnectAccept(c ConnectAccept) ([]byte, error) {
	return c.SessionID[:], nil
}

func DecodeConnectAccept(b []byte) (ConnectAccept, error) {
	var c ConnectAccept
	if len(b) < 16 {
		return c, errPayloadShort
	}
	copy(c.SessionID[:], b[:16])
	return c, nil
}

func EncodeDisconnectNotice(d DisconnectNotice) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 4+len(d.Message)))
	if err := binary.Write(buf, binary.LittleEndian, d.ReasonCode); err != nil {
		return nil, err
	}
	if err := encodeString(buf, d.Message); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeDisconnectNotice(b []byte) (DisconnectNotice, error) {
	var d DisconnectNotice
	if len(b) < 2 {
		return d, errPayloadShort
	}
	d.ReasonCode = binary.LittleEndian.Uint16(b[:2])
	msg, _, err := decodeString(b[2:])
	if err != nil {
		return d, err
	}
	d.Message = msg
	return d, nil
}

func EncodePing(p Ping) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 8))
	if err := binary.Write(buf, binary.LittleEndian, p.Timestamp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodePing(b []byte) (Ping, error) {
	var p Ping
	if len(b) < 8 {
		return p, errPayloadShort
	}
	p.Timestamp = int64(binary.LittleEndian.Uint64(b[:8]))
	return p, nil
}

func EncodePong(p Pong) ([]byte, error) {
	return EncodePing(Ping{Timestamp: p.Timestamp})
}

func DecodePong(b []byte) (Pong, error) {
	ping, err := DecodePing(b)
	if err != nil {
		return Pong{}, err
	}
	return Pong{Timestamp: ping.Timestamp}, nil
}

func EncodeErrorFrame(e ErrorFrame) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 4+len(e.Message)))
	if err := binary.Write(buf, binary.LittleEndian, e.Code); err != nil {
		return nil, err
	}
	if err := encodeString(buf, e.Message); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeErrorFrame(b []byte) (ErrorFrame, error) {
	var e ErrorFrame
	if len(b) < 2 {
		return e, errPayloadShort
	}
	e.Code = binary.LittleEndian.Uint16(b[:2])
	msg, _, err := decodeString(b[2:])
	if err != nil {
		return e, err
	}
	e.Message = msg
	return e, nil
}

func EncodePointerEvent(ev PointerEvent) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 56+len(ev.PointerType)))
	buf.WriteByte(byte(ev.Kind))
	putFloat64(buf, ev.X)
	putFloat64(buf, ev.Y)
	putFloat64(buf, ev.OffsetX)
	putFloat64(buf, ev.OffsetY)
	if err := binary.Write(buf, binary.LittleEndian, ev.PointerID); err != nil {
		return nil, err
	}
	if err := encodeString(buf, ev.PointerType); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, ev.Button); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, ev.Buttons); err != nil {
		return nil, err
	}
	putFloat64(buf, ev.Timestamp)
	return buf.Bytes(), nil
}

func DecodePointerEvent(b []byte) (PointerEvent, error) {
	var ev PointerEvent
	if len(b) < 1 {
		return ev, errPayloadShort
	}
	ev.Kind = PointerKind(b[0])
	b = b[1:]
	var err error
	if ev.X, b, err = getFloat64(b); err != nil {
		return ev, err
	}
	if ev.Y, b, err = getFloat64(b); err != nil {
		return ev, err
	}
	if ev.OffsetX, b, err = getFloat64(b); err != nil {
		return ev, err
	}
	if ev.OffsetY, b, err = getFloat64(b); err != nil {
		return ev, err
	}
	if len(b) < 4 {
		return ev, errPayloadShort
	}
	ev.PointerID = int32(binary.LittleEndian.Uint32(b[:4]))
	b = b[4:]
	if ev.PointerType, b, err = decodeString(b); err != nil {
		return ev, err
	}
	if len(b) < 6 {
		return ev, errPayloadShort
	}
	ev.Button = int16(binary.LittleEndian.Uint16(b[:2]))
	ev.Buttons = binary.LittleEndian.Uint32(b[2:6])
	b = b[6:]
	if ev.Timestamp, b, err = getFloat64(b); err != nil {
		return ev, err
	}
	if len(b) != 0 {
		return ev, errExtraBytes
	}
	return ev, nil
}

func EncodeTargetUpdate(u TargetUpdate) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 34+len(u.Kind)))
	if err := encodeString(buf, u.Kind); err != nil {
		return nil, err
	}
	putFloat64(buf, u.MinX)
	putFloat64(buf, u.MinY)
	putFloat64(buf, u.MaxX)
	putFloat64(buf, u.MaxY)
	return buf.Bytes(), nil
}

func DecodeTargetUpdate(b []byte) (TargetUpdate, error) {
	var u TargetUpdate
	kind, rest, err := decodeString(b)
	if err != nil {
		return u, err
	}
	u.Kind = kind
	if u.MinX, rest, err = getFloat64(rest); err != nil {
		return u, err
	}
	if u.MinY, rest, err = getFloat64(rest); err != nil {
		return u, err
	}
	if u.MaxX, rest, err = getFloat64(rest); err != nil {
		return u, err
	}
	if u.MaxY, rest, err = getFloat64(rest); err != nil {
		return u, err
	}
	if len(rest) != 0 {
		return u, errExtraBytes
	}
	return u, nil
}

func EncodeGestureEvent(ev GestureEvent) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 56))
	buf.WriteByte(byte(ev.Callback))
	putFloat64(buf, ev.X)
	putFloat64(buf, ev.Y)
	putFloat64(buf, ev.OffsetX)
	putFloat64(buf, ev.OffsetY)
	if err := binary.Write(buf, binary.LittleEndian, ev.PointerID); err != nil {
		return nil, err
	}
	buf.WriteByte(ev.EventType)
	buf.WriteByte(ev.Device)
	buf.WriteByte(byte(ev.Button))
	putFloat64(buf, ev.Timestamp)
	return buf.Bytes(), nil
}

func DecodeGestureEvent(b []byte) (GestureEvent, error) {
	var ev GestureEvent
	if len(b) < 1 {
		return ev, errPayloadShort
	}
	ev.Callback = Callback(b[0])
	b = b[1:]
	var err error
	if ev.X, b, err = getFloat64(b); err != nil {
		return ev, err
	}
	if ev.Y, b, err = getFloat64(b); err != nil {
		return ev, err
	}
	if ev.OffsetX, b, err = getFloat64(b); err != nil {
		return ev, err
	}
	if ev.OffsetY, b, err = getFloat64(b); err != nil {
		return ev, err
	}
	if len(b) < 7 {
		return ev, errPayloadShort
	}
	ev.PointerID = int32(binary.LittleEndian.Uint32(b[:4]))
	ev.EventType = b[4]
	ev.Device = b[5]
	ev.Button = int8(b[6])
	b = b[7:]
	if ev.Timestamp, b, err = getFloat64(b); err != nil {
		return ev, err
	}
	if len(b) != 0 {
		return ev, errExtraBytes
	}
	return ev, nil
}

func EncodeEventAck(a EventAck) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 8))
	if err := binary.Write(buf, binary.LittleEndian, a.Sequence); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeEventAck(b []byte) (EventAck, error) {
	var ack EventAck
	if len(b) < 8 {
		return ack, errPayloadShort
	}
	ack.Sequence = binary.LittleEndian.Uint64(b[:8])
	return ack, nil
}
