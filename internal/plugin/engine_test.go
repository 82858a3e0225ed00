package plugin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoEngine replies to every invoke with its payload and records sends.
func echoEngine(sent chan<- any) RunFunc {
	return func(ctx context.Context, ec *EngineContext) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case req := <-ec.Requests():
				if req.IsInvoke() {
					req.Reply(req.Payload)
					continue
				}
				sent <- req.Payload
			}
		}
	}
}

func startEngine(t *testing.T, e *Engine, timeout time.Duration) chan Event {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	events := make(chan Event, 8)
	require.NoError(t, e.Start(ctx, StartOptions{Package: "Test", Events: events, InvokeTimeout: timeout}))
	return events
}

func TestEngine_LifecycleIsOneWay(t *testing.T) {
	t.Parallel()

	e := NewEngine(echoEngine(make(chan any, 1)), nil)
	assert.Equal(t, Created, e.State())

	err := e.Send(context.Background(), "early")
	assert.ErrorIs(t, err, ErrEngineNotRunning)
	_, err = e.Invoke(context.Background(), "early")
	assert.ErrorIs(t, err, ErrEngineNotRunning)

	startEngine(t, e, time.Second)
	assert.Equal(t, Running, e.State())

	err = e.Start(context.Background(), StartOptions{})
	assert.ErrorIs(t, err, ErrEngineAlreadyStarted)
}

func TestEngine_SendAndInvoke(t *testing.T) {
	t.Parallel()

	sent := make(chan any, 1)
	e := NewEngine(echoEngine(sent), nil)
	startEngine(t, e, time.Second)

	require.NoError(t, e.Send(context.Background(), "hello"))
	select {
	case got := <-sent:
		assert.Equal(t, "hello", got)
	case <-time.After(time.Second):
		t.Fatal("engine did not receive the sent request")
	}

	reply, err := e.Invoke(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 42, reply)
}

func TestEngine_InvokeTimeout(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// An engine that accepts requests but never answers.
	e := NewEngine(func(ctx context.Context, ec *EngineContext) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ec.Requests():
			}
		}
	}, nil)
	startEngine(t, e, 20*time.Millisecond)

	// --- Act ---
	start := time.Now()
	_, err := e.Invoke(context.Background(), "ping")

	// --- Assert ---
	assert.ErrorIs(t, err, ErrEngineTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestEngine_DroppedRequest(t *testing.T) {
	t.Parallel()

	e := NewEngine(func(ctx context.Context, ec *EngineContext) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case req := <-ec.Requests():
				req.Drop()
				req.Reply("too late")
			}
		}
	}, nil)
	startEngine(t, e, time.Second)

	_, err := e.Invoke(context.Background(), "ping")
	assert.ErrorIs(t, err, ErrEngineReplyLost)
}

func TestEngine_StoppedEngineLosesReplies(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The engine takes one request and exits without answering it.
	e := NewEngine(func(ctx context.Context, ec *EngineContext) error {
		<-ec.Requests()
		return errors.New("crashed")
	}, nil)
	startEngine(t, e, time.Second)

	// --- Act ---
	_, err := e.Invoke(context.Background(), "ping")

	// --- Assert ---
	assert.ErrorIs(t, err, ErrEngineReplyLost)
	<-e.Done()
	assert.Equal(t, Stopped, e.State())
	assert.EqualError(t, e.Err(), "crashed")
	assert.ErrorIs(t, e.Send(context.Background(), "after"), ErrEngineNotRunning)
}

func TestEngine_EmitAndInitialState(t *testing.T) {
	t.Parallel()

	type settings struct{ Greeting string }
	e := NewEngine(func(ctx context.Context, ec *EngineContext) error {
		s, err := InitialState[settings](ec)
		if err != nil {
			return err
		}
		if _, err := InitialState[int](ec); !errors.Is(err, ErrInitialState) {
			return errors.New("expected initial state mismatch")
		}
		return ec.Emit(ctx, "Hello", s.Greeting)
	}, settings{Greeting: "hi"}, WithLockedThread(), WithRequestBuffer(1))
	events := startEngine(t, e, time.Second)

	select {
	case ev := <-events:
		assert.Equal(t, "Test", ev.Package)
		assert.Equal(t, "Hello", ev.Name)
		assert.Equal(t, "hi", ev.Payload)
		assert.NotEmpty(t, ev.ID)
	case <-time.After(time.Second):
		t.Fatal("no event emitted")
	}
	<-e.Done()
	assert.NoError(t, e.Err())
}

func TestRequest_ReplyOnSendIsIgnored(t *testing.T) {
	t.Parallel()

	r := Request{Payload: 1}
	assert.False(t, r.IsInvoke())
	r.Reply("ignored")
	r.Drop()
}

func TestRequest_DoneClosesWhenInvokerGivesUp(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// An engine that holds on to every request without answering.
	held := make(chan Request, 1)
	e := NewEngine(func(ctx context.Context, ec *EngineContext) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case req := <-ec.Requests():
				held <- req
			}
		}
	}, nil)
	startEngine(t, e, 20*time.Millisecond)

	// --- Act ---
	_, err := e.Invoke(context.Background(), "ping")
	req := <-held

	// --- Assert ---
	assert.ErrorIs(t, err, ErrEngineTimeout)
	select {
	case <-req.Done():
	case <-time.After(time.Second):
		t.Fatal("Done was not closed after the invoke timed out")
	}
}

func TestRequest_DoneClosesAfterReply(t *testing.T) {
	t.Parallel()

	held := make(chan Request, 1)
	e := NewEngine(func(ctx context.Context, ec *EngineContext) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case req := <-ec.Requests():
				held <- req
				req.Reply("pong")
			}
		}
	}, nil)
	startEngine(t, e, time.Second)

	v, err := e.Invoke(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", v)

	req := <-held
	select {
	case <-req.Done():
	case <-time.After(time.Second):
		t.Fatal("Done was not closed after the reply")
	}
	assert.Nil(t, Request{Payload: 1}.Done())
}
