package http

import "context"

// Effect receives the outcome of every dispatch. Exactly one of its
// methods is called per dispatch.
type Effect interface {
	// OnSuccess is called after a successful response has been decoded
	// and transformed.
	OnSuccess(ctx context.Context, resp *Response)
	// OnError is called with a *TransportError, *StatusError, *DecodeError
	// or any error raised while building the request. The returned error
	// is what the caller of Dispatch observes; nil keeps err.
	OnError(ctx context.Context, err error) error
}

// EffectFuncs adapts plain functions to an Effect. Nil members are no-ops.
type EffectFuncs struct {
	Success func(ctx context.Context, resp *Response)
	Error   func(ctx context.Context, err error) error
}

func (e EffectFuncs) OnSuccess(ctx context.Context, resp *Response) {
	if e.Success != nil {
		e.Success(ctx, resp)
	}
}

func (e EffectFuncs) OnError(ctx context.Context, err error) error {
	if e.Error != nil {
		return e.Error(ctx, err)
	}
	return err
}

// NopEffect does nothing on success and returns failures unchanged.
var NopEffect Effect = EffectFuncs{}

// Transformer maps bodies on their way out and in. Nil members are the
// identity. Both must be pure.
type Transformer struct {
	// Request maps a structured body before JSON serialization.
	Request func(body map[string]any) map[string]any
	// Response maps every successfully decoded value, including a raw *Response.
	Response func(decoded any) any
}

func (t Transformer) request(body map[string]any) map[string]any {
	if t.Request == nil {
		return body
	}
	return t.Request(body)
}

func (t Transformer) response(decoded any) any {
	if t.Response == nil {
		return decoded
	}
	return t.Response(decoded)
}

// Interceptor is the last hook allowed to change request options before
// transmission. It sees the merged init and returns the one to send.
// Method and body are bound separately and cannot be changed here.
type Interceptor func(ctx context.Context, init Init) (Init, error)

// chainInterceptors runs interceptors in registration order.
func chainInterceptors(interceptors []Interceptor) Interceptor {
	return func(ctx context.Context, init Init) (Init, error) {
		var err error
		for _, ic := range interceptors {
			if init, err = ic(ctx, init); err != nil {
				return Init{}, err
			}
		}
		return init, nil
	}
}
