package adapter

import "context"

// Caller is the identity a query runs under: a session (UserID, Cookie) or
// an anonymous share-link viewer (ShareID).
type Caller struct {
	UserID  string
	Cookie  string
	ShareID string
}

// Valid reports whether c identifies anyone at all.
func (c Caller) Valid() bool { return c.UserID != "" || c.Cookie != "" || c.ShareID != "" }

// Anonymous reports whether c is a share-link viewer without a session.
func (c Caller) Anonymous() bool { return c.ShareID != "" && c.UserID == "" && c.Cookie == "" }

type callerKey struct{}

// WithCaller returns ctx carrying c.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller carried by ctx and whether it is valid.
func CallerFrom(ctx context.Context) (Caller, bool) {
	if ctx == nil {
		return Caller{}, false
	}
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok && c.Valid()
}
