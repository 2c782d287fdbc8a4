package ipc

import (
	"bufio"
	"encoding/json"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kabegame/kabegame-sub003/internal/events"
	"github.com/kabegame/kabegame-sub003/internal/subscription"
)

// handleConnection runs the per-connection worker loop (spec §4.7): a
// fresh client id, split read/write so event pushes and request replies
// interleave freely on the same socket, and no server-initiated close on
// a handler error — only a broken frame ends the session.
//
// SubscribeEvents/UnsubscribeEvents are intercepted here rather than
// inside Dispatcher, because only the connection owns the live writer
// that event pushes go out on. Each successful SubscribeEvents spawns a
// fresh forwarder goroutine over the new subscription channel; the
// subscription manager's replace-on-resubscribe semantics close the
// previous channel, which ends the previous forwarder on its own —
// mirroring core/src/ipc/server/subscription_manager.rs's "cancellation
// is delivered via a broadcast tri-state so all previous forwarder tasks
// terminate".
func handleConnection(conn net.Conn, dispatcher *Dispatcher, subs *subscription.Manager, log *logrus.Logger) {
	clientID := uuid.NewString()
	defer func() {
		subs.Unsubscribe(clientID)
		_ = conn.Close()
	}()

	var writeMu sync.Mutex
	writeFrame := func(resp Response) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return WriteFrame(conn, resp)
	}

	reader := bufio.NewReader(conn)
	for {
		var req Request
		if err := ReadFrame(reader, &req); err != nil {
			if err != io.EOF {
				log.WithField("client_id", clientID).WithError(err).Debug("ipc: connection closed")
			}
			return
		}

		var resp Response
		switch req.Type {
		case ReqSubscribeEvents:
			resp = subscribeConnection(clientID, req.Params, subs, writeFrame, log)
		case ReqUnsubscribeEvents:
			subs.Unsubscribe(clientID)
			resp = ok(nil)
		default:
			resp = dispatcher.Dispatch(clientID, req)
		}
		resp.RequestID = req.RequestID

		if err := writeFrame(resp); err != nil {
			log.WithField("client_id", clientID).WithError(err).Debug("ipc: write failed, closing connection")
			return
		}
	}
}

func subscribeConnection(clientID string, params json.RawMessage, subs *subscription.Manager, writeFrame func(Response) error, log *logrus.Logger) Response {
	var p struct {
		Kinds []string `json:"kinds"`
	}
	_ = json.Unmarshal(params, &p)
	kinds, err := parseKinds(p.Kinds)
	if err != nil {
		return fail(err.Error())
	}

	ch := subs.Subscribe(clientID, kinds...)
	go forwardEvents(clientID, ch, writeFrame, log)
	return ok(nil)
}

// forwardEvents pushes every event on ch out as an unsolicited Response
// frame until ch is closed (by a replacing Subscribe call or an
// Unsubscribe) or the writer starts failing.
func forwardEvents(clientID string, ch <-chan events.Event, writeFrame func(Response) error, log *logrus.Logger) {
	for ev := range ch {
		resp := Response{
			OK: true,
			Data: EventEnvelope{
				ID:      ev.ID,
				Event:   ev.Kind.WireName(),
				Payload: ev.Payload,
			},
		}
		if err := writeFrame(resp); err != nil {
			log.WithField("client_id", clientID).WithError(err).Debug("ipc: event push failed")
			return
		}
	}
}
