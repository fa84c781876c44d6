package api

import (
	"context"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
)

var errStreamBehind = errors.New("event stream is behind, event dropped")

// cartEvents streams cart events as server-sent events until the client
// disconnects. Each event is written as
//
//	event: <kind>
//	data: <json>
func (h *Handler) cartEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := http.NewResponseController(w)

	events := make(chan cart.Event, h.eventBuffer)
	id := h.cart.Subscribe(func(_ context.Context, ev cart.Event) error {
		select {
		case events <- ev:
			return nil
		default:
			return errStreamBehind
		}
	})
	defer h.cart.Unsubscribe(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		zctx.From(ctx).Warn("Event stream unsupported", zap.Error(err))
		return
	}

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			e.Reset()
			encodeEvent(e, ev)

			if err := writeEvent(w, string(ev.Kind), e.Bytes()); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w io.Writer, kind string, data []byte) error {
	buf := make([]byte, 0, len(kind)+len(data)+16)
	buf = append(buf, "event: "...)
	buf = append(buf, kind...)
	buf = append(buf, "\ndata: "...)
	buf = append(buf, data...)
	buf = append(buf, "\n\n"...)
	_, err := w.Write(buf)
	return err
}
