// Package ipc implements the message bus connecting the kernel core to its
// out-of-tree servers: bounded server/client registries and one global
// fixed-capacity message queue with per-recipient FIFO ordering.
package ipc

import (
	"helios/kernel/sync"
)

const (
	// MaxPayload is the size limit of a message payload. Longer payloads
	// are truncated on send.
	MaxPayload = 256

	maxServers  = 32
	maxClients  = 256
	maxMessages = 1024

	// ProcessIDBase is the first endpoint id handed out by the
	// registries. Ids below it alias process ids so a process can
	// receive bus messages without registering an endpoint.
	ProcessIDBase = 0x100
)

// MessageType is a bitmask describing the service domains a server handles
// and the domain a message belongs to.
type MessageType uint32

const (
	MsgSystem     = MessageType(1 << 0)
	MsgMemory     = MessageType(1 << 1)
	MsgFileSystem = MessageType(1 << 2)
	MsgNetwork    = MessageType(1 << 3)
	MsgGraphics   = MessageType(1 << 4)
	MsgAudio      = MessageType(1 << 5)
	MsgInput      = MessageType(1 << 6)
	MsgAI         = MessageType(1 << 7)
	MsgSecurity   = MessageType(1 << 8)
	MsgUser       = MessageType(1 << 9)
)

// EndpointID identifies a registered server or client on the bus.
type EndpointID uint32

// Message is one unit of communication on the bus.
type Message struct {
	From    EndpointID
	To      EndpointID
	Type    MessageType
	Len     uint32
	Payload [MaxPayload]byte
}

// Data returns the valid portion of the message payload.
func (m *Message) Data() []byte {
	return m.Payload[:m.Len]
}

type server struct {
	id   EndpointID
	name string
	// types is the set of message domains the server handles.
	types MessageType
	// priority is carried for future routing policies; unused today.
	priority uint8
}

type client struct {
	id EndpointID
	// owner is the process the client endpoint belongs to.
	owner uint32
	name  string
}

// Stats is a snapshot of the bus counters.
type Stats struct {
	Servers  int
	Clients  int
	Sent     uint64
	Received uint64
	Pending  int
}

var (
	mu sync.IrqLock

	servers     [maxServers]server
	serverCount int

	clients     [maxClients]client
	clientCount int

	// queue is a FIFO ring of in-flight messages.
	queue     [maxMessages]Message
	queueHead int
	queueLen  int

	// nextID hands out bus-wide unique endpoint ids. Ids below
	// ProcessIDBase are reserved so a process id can be used directly as
	// a bus address by the syscall layer.
	nextID = EndpointID(ProcessIDBase)

	sent     uint64
	received uint64
)

// RegisterServer allocates an endpoint id for a named server handling the
// given message domains. It fails when the 32-entry table is full or the name
// is already taken.
func RegisterServer(name string, types MessageType, priority uint8) (EndpointID, bool) {
	mu.Acquire()

	if serverCount == maxServers {
		mu.Release()
		return 0, false
	}

	for i := 0; i < serverCount; i++ {
		if servers[i].name == name {
			mu.Release()
			return 0, false
		}
	}

	id := nextID
	nextID++
	servers[serverCount] = server{id: id, name: name, types: types, priority: priority}
	serverCount++

	mu.Release()
	return id, true
}

// RegisterClient allocates an endpoint id for a client owned by the given
// process. It fails when the 256-entry table is full.
func RegisterClient(name string, owner uint32) (EndpointID, bool) {
	mu.Acquire()

	if clientCount == maxClients {
		mu.Release()
		return 0, false
	}

	id := nextID
	nextID++
	clients[clientCount] = client{id: id, owner: owner, name: name}
	clientCount++

	mu.Release()
	return id, true
}

// LookupServer returns the endpoint id of the server registered under name.
func LookupServer(name string) (EndpointID, bool) {
	mu.Acquire()

	for i := 0; i < serverCount; i++ {
		if servers[i].name == name {
			id := servers[i].id
			mu.Release()
			return id, true
		}
	}

	mu.Release()
	return 0, false
}

// FindServerByType returns the first server whose domain set includes t.
func FindServerByType(t MessageType) (EndpointID, bool) {
	mu.Acquire()

	for i := 0; i < serverCount; i++ {
		if servers[i].types&t != 0 {
			id := servers[i].id
			mu.Release()
			return id, true
		}
	}

	mu.Release()
	return 0, false
}

// Send enqueues a message on the bus. Payloads longer than MaxPayload are
// truncated. It fails only when the global queue is full; it never blocks and
// never silently drops.
func Send(from, to EndpointID, msgType MessageType, payload []byte) bool {
	mu.Acquire()

	if queueLen == maxMessages {
		mu.Release()
		return false
	}

	msg := &queue[(queueHead+queueLen)%maxMessages]
	msg.From = from
	msg.To = to
	msg.Type = msgType

	n := len(payload)
	if n > MaxPayload {
		n = MaxPayload
	}
	copy(msg.Payload[:], payload[:n])
	msg.Len = uint32(n)

	queueLen++
	sent++

	mu.Release()
	return true
}

// ReceiveFor removes and returns the oldest pending message addressed to id.
// The boolean is false when none is pending; callers wanting to block loop
// this with a yield.
func ReceiveFor(id EndpointID) (Message, bool) {
	mu.Acquire()

	for i := 0; i < queueLen; i++ {
		slot := (queueHead + i) % maxMessages
		if queue[slot].To != id {
			continue
		}

		msg := queue[slot]
		for j := i; j < queueLen-1; j++ {
			queue[(queueHead+j)%maxMessages] = queue[(queueHead+j+1)%maxMessages]
		}
		queueLen--
		received++

		mu.Release()
		return msg, true
	}

	mu.Release()
	return Message{}, false
}

// BusStats returns a snapshot of the bus counters.
func BusStats() Stats {
	mu.Acquire()
	s := Stats{
		Servers:  serverCount,
		Clients:  clientCount,
		Sent:     sent,
		Received: received,
		Pending:  queueLen,
	}
	mu.Release()

	return s
}
