package realtime

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/spec-kit/ticket-tracker/internal/events"
)

// WriteEvent renders event in text/event-stream framing.
func WriteEvent(w io.Writer, event events.Event) error {
	_, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Type, event.Payload)
	return err
}

// Stream pumps queued events for o into w until the observer is
// disconnected or a write fails (the client went away). A comment line is
// written every heartbeat to keep proxies from closing an idle stream.
func (h *Hub) Stream(w *bufio.Writer, o *Observer, heartbeat time.Duration) {
	defer h.Disconnect(o)

	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := w.Flush(); err != nil {
		return
	}

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-o.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case event := <-o.Outbound:
			if err := WriteEvent(w, event); err != nil {
				return
			}
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}
