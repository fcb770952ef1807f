package solana

import "context"

// SignatureNotification is delivered once when a watched signature reaches
// the subscribed commitment level.
type SignatureNotification struct {
	Signature string
	Slot      int64
	Err       interface{}
}

// WSClient defines the Solana WebSocket surface this subsystem uses.
type WSClient interface {
	// SubscribeSignature watches a transaction signature until it reaches
	// confirmed commitment. The returned channel receives at most one
	// notification and is closed afterwards. The node removes the
	// subscription automatically after delivery.
	SubscribeSignature(ctx context.Context, signature string) (<-chan SignatureNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}
