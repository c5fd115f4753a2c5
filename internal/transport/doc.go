// Package transport owns the two update sources: a long-lived WebSocket push
// subscription with reconnect backoff, and the cancelable poll timer.
// Neither interprets payload fields; both hand decoded frames or ticks to a
// caller-supplied function.
package transport
