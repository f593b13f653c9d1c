package domain

import "context"

type CtxKey string

const (
	KeyRequestID CtxKey = "RequestID"
	KeyClientID  CtxKey = "ClientID"
)

// RequestIDFrom returns the request id stored by the request id middleware
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(KeyRequestID).(string)
	return id
}

// ClientIDFrom returns the resolved client identifier, if any
func ClientIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(KeyClientID).(string)
	return id
}
