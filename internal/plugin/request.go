package plugin

import "sync"

// Request is a message from an executing node to its package's engine.
type Request struct {
	Payload any
	reply   *replySlot
}

type replySlot struct {
	once sync.Once
	ch   chan any

	doneOnce sync.Once
	done     chan struct{}
}

func newInvokeRequest(payload any) Request {
	return Request{Payload: payload, reply: &replySlot{ch: make(chan any, 1), done: make(chan struct{})}}
}

func (s *replySlot) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

// IsInvoke reports whether the sender is waiting for a reply.
func (r Request) IsInvoke() bool { return r.reply != nil }

// Done is closed once the invoker stops waiting, whether it got a reply or
// gave up on ctx or the invoke timeout. It is nil for sent requests.
func (r Request) Done() <-chan struct{} {
	if r.reply == nil {
		return nil
	}
	return r.reply.done
}

// Reply answers an invoke request. Only the first Reply or Drop counts;
// replies to sent requests are discarded.
func (r Request) Reply(v any) {
	if r.reply == nil {
		return
	}
	r.reply.once.Do(func() {
		r.reply.ch <- v
		close(r.reply.ch)
	})
}

// Drop abandons an invoke request. The caller gets ErrEngineReplyLost.
func (r Request) Drop() {
	if r.reply == nil {
		return
	}
	r.reply.once.Do(func() { close(r.reply.ch) })
}
