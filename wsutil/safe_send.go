package wsutil

import "log/slog"

// SafeSend sends data to a client channel without blocking or panicking.
// It reports whether the message was queued; a full or closed channel drops it.
func SafeSend(ch chan []byte, data []byte) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("send on closed channel", "tag", "wsutil", "panic", r)
			sent = false
		}
	}()
	select {
	case ch <- data:
		return true
	default:
		slog.Warn("client send buffer full, dropping message", "tag", "wsutil", "bytes", len(data))
		return false
	}
}
