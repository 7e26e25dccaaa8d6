package asupersync

// channelRecord is the arena payload for a Channel (spec §3): a bounded
// MPSC queue with two-phase reserve/send/abort send and FIFO receive.
// Values are stored as `any` internally; the generic Channel[T] wrapper
// below is the type-safe surface callers use, mirroring how
// eventloop/ingress.go's ChunkedIngress stores `func()` payloads behind
// a non-generic core with a thin typed call site. Unlike the teacher's
// lock-free multi-producer structure (needed because real OS threads
// push work into the loop), this channel is used only from within the
// kernel's single cooperative thread, so a plain slice ring buffer
// plus an explicit FIFO waiter list is sufficient and keeps behavior
// exactly reproducible under replay.
type channelRecord struct {
	handle Handle

	capacity int
	buf      []any
	head     int
	count    int

	reservedCount int
	nextPermitID  permitID
	openPermits   map[permitID]struct{}

	evictOldest bool // send_evict_oldest policy: Reserve never blocks on a full buffer

	senderCount   int // live sender handles; hits 0 -> sends are permanently closed
	receiverAlive bool

	recvWaiters []Handle // tasks parked on Recv, FIFO
	sendWaiters []Handle // tasks parked on Reserve (non-evicting channels only), FIFO

	closed bool // true once drained after senderCount hit 0 (terminal)
}

// permitID is a locally-scoped monotonic counter type for permit ids;
// it carries no relation to github.com/google/uuid (that library is
// reserved for scenario-id generation in test tooling per SPEC_FULL.md).
type permitID = uint64

func newChannelRecord(h Handle, capacity int, evictOldest bool, senderCount int) *channelRecord {
	return &channelRecord{
		handle:        h,
		capacity:      capacity,
		buf:           make([]any, capacity),
		evictOldest:   evictOldest,
		senderCount:   senderCount,
		receiverAlive: true,
		openPermits:   make(map[permitID]struct{}),
	}
}

func (c *channelRecord) tailIndex() int {
	return (c.head + c.count) % c.capacity
}

// TryReserve attempts to reserve one send slot. Under the evict-oldest
// policy a full buffer never blocks the reservation: the oldest
// committed value is dropped to make room (spec's send_evict_oldest).
// Otherwise a full buffer yields StatusFull and the caller is expected
// to park on sendWaiters via the scheduler.
func (c *channelRecord) TryReserve(op string) (permitID, error) {
	if !c.receiverAlive {
		return 0, newError(op, StatusDisconnected, "channel %s has no live receiver", c.handle)
	}
	if c.count+c.reservedCount >= c.capacity {
		if c.evictOldest && c.count > 0 {
			c.buf[c.head] = nil
			c.head = (c.head + 1) % c.capacity
			c.count--
		} else {
			return 0, newError(op, StatusFull, "channel %s is full (capacity %d)", c.handle, c.capacity)
		}
	}
	c.nextPermitID++
	id := c.nextPermitID
	c.openPermits[id] = struct{}{}
	c.reservedCount++
	return id, nil
}

// Send commits a previously reserved permit, moving value into the
// ring buffer and waking the oldest parked receiver, if any. The
// permit is consumed exactly once; reusing it returns StatusNotFound.
func (c *channelRecord) Send(op string, permit permitID, value any) (wake Handle, ok bool, err error) {
	if _, live := c.openPermits[permit]; !live {
		return 0, false, newError(op, StatusNotFound, "unknown or already-resolved permit on channel %s", c.handle)
	}
	delete(c.openPermits, permit)
	c.reservedCount--
	c.buf[c.tailIndex()] = value
	c.count++
	if len(c.recvWaiters) > 0 {
		wake, c.recvWaiters = c.recvWaiters[0], c.recvWaiters[1:]
		return wake, true, nil
	}
	return 0, false, nil
}

// Abort releases a reserved permit without sending, freeing its slot
// and waking the oldest parked sender, if any (relevant only for
// non-evicting channels, where Reserve can block).
func (c *channelRecord) Abort(op string, permit permitID) (wake Handle, ok bool, err error) {
	if _, live := c.openPermits[permit]; !live {
		return 0, false, newError(op, StatusNotFound, "unknown or already-resolved permit on channel %s", c.handle)
	}
	delete(c.openPermits, permit)
	c.reservedCount--
	if len(c.sendWaiters) > 0 {
		wake, c.sendWaiters = c.sendWaiters[0], c.sendWaiters[1:]
		return wake, true, nil
	}
	return 0, false, nil
}

// Recv dequeues the oldest committed value. It returns StatusEmpty if
// the buffer is empty but senders remain live (caller should park),
// or StatusDisconnected if the buffer is empty and every sender has
// gone away (terminal — the channel is marked closed).
func (c *channelRecord) Recv(op string) (value any, wake Handle, wokeSend bool, err error) {
	if c.count == 0 {
		if c.senderCount == 0 {
			c.closed = true
			return nil, 0, false, newError(op, StatusDisconnected, "channel %s closed: no live senders", c.handle)
		}
		return nil, 0, false, newError(op, StatusEmpty, "channel %s is empty", c.handle)
	}
	value = c.buf[c.head]
	c.buf[c.head] = nil
	c.head = (c.head + 1) % c.capacity
	c.count--
	if len(c.sendWaiters) > 0 {
		wake, c.sendWaiters = c.sendWaiters[0], c.sendWaiters[1:]
		wokeSend = true
	}
	return value, wake, wokeSend, nil
}

// ParkReceiver enqueues task onto the FIFO of tasks waiting for data.
func (c *channelRecord) ParkReceiver(task Handle) { c.recvWaiters = append(c.recvWaiters, task) }

// ParkSender enqueues task onto the FIFO of tasks waiting for a send
// slot (non-evicting channels only).
func (c *channelRecord) ParkSender(task Handle) { c.sendWaiters = append(c.sendWaiters, task) }

// ReleaseSender decrements the live sender count; at zero, any parked
// receivers are woken so they can observe StatusDisconnected (they
// drain the FIFO one Recv call at a time, since a single wake signal
// only guarantees scheduling, not delivery order beyond the FIFO
// already encodes).
func (c *channelRecord) ReleaseSender() (woken []Handle) {
	if c.senderCount > 0 {
		c.senderCount--
	}
	if c.senderCount == 0 && c.count == 0 {
		woken = c.recvWaiters
		c.recvWaiters = nil
		c.closed = true
	}
	return woken
}

// ReleaseReceiver marks the channel's receiver gone; future Reserve
// calls fail with StatusDisconnected, and any parked senders are woken
// to observe the same.
func (c *channelRecord) ReleaseReceiver() (woken []Handle) {
	c.receiverAlive = false
	woken = c.sendWaiters
	c.sendWaiters = nil
	return woken
}

// drained reports whether the channel satisfies the quiescence
// condition ChannelNotDrained requires to NOT hold: no buffered
// values and no outstanding permits.
func (c *channelRecord) drained() bool {
	return c.count == 0 && c.reservedCount == 0
}

// Channel is the type-safe external handle wrapper over a channelRecord,
// parameterized on the carried value type. Construction happens through
// Runtime.OpenChannel; Channel itself holds only the Handle plus a
// back-reference to the owning Runtime's channel arena.
type Channel[T any] struct {
	handle  Handle
	runtime *Runtime
}

// Reserve attempts to reserve a send slot, returning a typed Permit or
// an error (StatusFull, StatusDisconnected).
func (c Channel[T]) Reserve() (Permit[T], error) {
	rec, err := c.runtime.channels.Lookup("channel_reserve", c.handle)
	if err != nil {
		return Permit[T]{}, err
	}
	id, err := (*rec).TryReserve("channel_reserve")
	if err != nil {
		return Permit[T]{}, err
	}
	c.runtime.appendEvent(EventChannelReserved, map[string]any{"channel": c.handle.String(), "permit": id})
	return Permit[T]{channel: c, id: id}, nil
}

// Recv attempts to dequeue the oldest sent value without blocking.
func (c Channel[T]) Recv() (T, error) {
	var zero T
	rec, err := c.runtime.channels.Lookup("channel_recv", c.handle)
	if err != nil {
		return zero, err
	}
	v, wake, wokeSend, err := (*rec).Recv("channel_recv")
	if err != nil {
		return zero, err
	}
	c.runtime.appendEvent(EventChannelReceived, map[string]any{"channel": c.handle.String()})
	if wokeSend {
		c.runtime.wake(wake, "channel_send_slot_freed")
	}
	return v.(T), nil
}

// ParkRecv registers task to be woken when data or closure becomes
// available; used by a PollFunc that received StatusEmpty from Recv.
func (c Channel[T]) ParkRecv(task Handle) error {
	rec, err := c.runtime.channels.Lookup("channel_park_recv", c.handle)
	if err != nil {
		return err
	}
	(*rec).ParkReceiver(task)
	return nil
}

// ParkSend registers task to be woken when a send slot frees up; used by
// a PollFunc that received StatusFull from Reserve on a non-evicting
// channel.
func (c Channel[T]) ParkSend(task Handle) error {
	rec, err := c.runtime.channels.Lookup("channel_park_send", c.handle)
	if err != nil {
		return err
	}
	(*rec).ParkSender(task)
	return nil
}

// Permit is the typed two-phase send token returned by Channel.Reserve.
type Permit[T any] struct {
	channel Channel[T]
	id      permitID
}

// Send commits the permit with value, waking a parked receiver if one
// is waiting.
func (p Permit[T]) Send(value T) error {
	rec, err := p.channel.runtime.channels.Lookup("channel_send", p.channel.handle)
	if err != nil {
		return err
	}
	wake, ok, err := (*rec).Send("channel_send", p.id, value)
	if err != nil {
		return err
	}
	p.channel.runtime.appendEvent(EventChannelSent, map[string]any{"channel": p.channel.handle.String(), "permit": p.id})
	if ok {
		p.channel.runtime.wake(wake, "channel_data_available")
	}
	return nil
}

// Abort releases the permit without sending, waking a parked sender
// (if this channel's Reserve can block) so it can retry.
func (p Permit[T]) Abort() error {
	rec, err := p.channel.runtime.channels.Lookup("channel_abort", p.channel.handle)
	if err != nil {
		return err
	}
	wake, ok, err := (*rec).Abort("channel_abort", p.id)
	if err != nil {
		return err
	}
	p.channel.runtime.appendEvent(EventChannelAborted, map[string]any{"channel": p.channel.handle.String(), "permit": p.id})
	if ok {
		p.channel.runtime.wake(wake, "channel_send_slot_freed")
	}
	return nil
}
