package cosmic

import (
	"context"
	"iter"
)

// Next invokes the rest of the handler chain for a single-shot call.
type Next func(ctx context.Context, req *Request) (*Response, error)

// StreamNext invokes the rest of the handler chain for a streamed call.
type StreamNext func(ctx context.Context, req *Request) iter.Seq2[*Response, error]

// Handler is one stage of the request pipeline. A handler may inspect or
// replace the request before delegating to next, and the response after
// next returns. Handlers hold no per-call state; one chain serves every
// concurrent call of a client.
type Handler interface {
	Handle(ctx context.Context, req *Request, next Next) (*Response, error)
	Stream(ctx context.Context, req *Request, next StreamNext) iter.Seq2[*Response, error]
}

// Terminal is the innermost stage. It performs the network exchange.
type Terminal interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
	Stream(ctx context.Context, req *Request) iter.Seq2[*Response, error]
}

// Chain is an immutable, ordered pipeline of handlers ending in a terminal.
type Chain struct {
	handle Next
	stream StreamNext
}

// NewChain folds handlers around terminal. The first handler is the
// outermost one (runs first on the way in, last on the way out).
func NewChain(terminal Terminal, handlers ...Handler) (*Chain, error) {
	if terminal == nil {
		return nil, configErrorf("handler chain has no terminal stage")
	}
	for i, h := range handlers {
		if h == nil {
			return nil, configErrorf("handler %d of the chain is nil", i)
		}
	}

	// Chain: h[0] -> h[1] -> ... -> terminal
	handle := Next(terminal.Handle)
	stream := StreamNext(terminal.Stream)
	for i := len(handlers) - 1; i >= 0; i-- {
		current := handlers[i]
		nextHandle, nextStream := handle, stream
		handle = func(ctx context.Context, req *Request) (*Response, error) {
			return current.Handle(ctx, req, nextHandle)
		}
		stream = func(ctx context.Context, req *Request) iter.Seq2[*Response, error] {
			return current.Stream(ctx, req, nextStream)
		}
	}
	return &Chain{handle: handle, stream: stream}, nil
}

// Handle runs req through the chain.
func (c *Chain) Handle(ctx context.Context, req *Request) (*Response, error) {
	return c.handle(ctx, req)
}

// Stream runs req through the chain, yielding each received chunk.
func (c *Chain) Stream(ctx context.Context, req *Request) iter.Seq2[*Response, error] {
	return c.stream(ctx, req)
}

// failed returns a sequence that yields err once.
func failed(err error) iter.Seq2[*Response, error] {
	return func(yield func(*Response, error) bool) {
		yield(nil, err)
	}
}
