package websocket

import (
	"context"
	goerrors "errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	ismhttp "github.com/proceduralarchitect/ismruntime/http"
	"github.com/proceduralarchitect/ismruntime/wire"
	"golang.org/x/net/websocket"
)

func HandlerWithLogs(h Handler, summaryInterval time.Duration) Handler {
	ctx, cancel := context.WithCancel(context.Background())

	handler := &handlerWithLogs{
		Handler:            h,
		summaryInterval:    summaryInterval,
		closeSummaryWorker: cancel,
		counter:            make(map[string]int),
	}

	go handler.startSummaryWorker(ctx)
	return handler
}

type handlerWithLogs struct {
	Handler

	originalRequest *http.Request
	appKey          string

	summaryInterval    time.Duration
	closeSummaryWorker func()
	counterMutex       sync.Mutex
	counter            map[string]int

	sceneID       string
	sceneUUID     string
	participantID uint32
}

func (h *handlerWithLogs) HandleConnect(conn *websocket.Conn) {
	h.Handler.HandleConnect(conn)

	req := conn.Request()
	h.originalRequest = req
	h.appKey = ismhttp.GetAppKeyFromRequest(req)

	logs.WithTag(logs.ClientIDTag, h.GetClientID()).
		WithTag("app_key", h.appKey).
		Info("new client is connected")
}

func (h *handlerWithLogs) HandleSceneJoin(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	if err := h.Handler.HandleSceneJoin(ctx, respond, msg); err != nil {
		return err
	}

	if h.CurrentParticipant() == nil {
		var req wire.SceneJoinRequest
		// Check for error here is unecessary since it would never go here
		// if the request parsing failed in h.Handler.HandleSceneJoin.
		msg.DataTo(&req)

		logs.WithTag(logs.ClientIDTag, h.GetClientID()).
			WithTag("app_key", h.appKey).
			WithTag("scene_id", req.SceneID).
			WithTag("request_id", req.RequestID).
			WithTag("user_agent", h.originalRequest.UserAgent()).
			Info("participant failed to join a scene")
		return nil
	}

	h.sceneID = h.GetScenes().GlobalSceneID(h.CurrentScene().ID)
	h.sceneUUID = h.CurrentScene().SceneUUID
	h.participantID = h.CurrentParticipant().ID

	logs.WithTag(logs.ClientIDTag, h.GetClientID()).
		WithTag("app_key", h.appKey).
		WithTag("scene_id", h.sceneID).
		WithTag("scene_uuid", h.sceneUUID).
		WithTag("participant_id", h.participantID).
		WithTag("user_agent", h.originalRequest.UserAgent()).
		Info("participant joined a scene")
	return nil
}

func (h *handlerWithLogs) HandleDisconnect(err error) {
	h.Handler.HandleDisconnect(err)
	logs.WithTag(logs.ClientIDTag, h.GetClientID()).
		WithTag("app_key", h.appKey).
		WithTag("scene_id", h.sceneID).
		WithTag("participant_id", h.participantID).
		Info("client disconnected")
}

func (h *handlerWithLogs) Receiver() wire.Receiver {
	receive := h.Handler.Receiver()

	return func() (wire.Msg, int, error) {
		msg, n, err := receive()
		if err != nil && !goerrors.Is(err, io.EOF) && !goerrors.Is(err, net.ErrClosed) {
			logs.WithTag(logs.ClientIDTag, h.GetClientID()).
				WithTag("app_key", h.appKey).
				WithTag("scene_id", h.sceneID).
				WithTag("scene_uuid", h.sceneUUID).
				WithTag("participant_id", h.participantID).
				Error(errors.New("receiving message failed").Wrap(err))
		} else if err == nil {
			logs.WithTag(logs.ClientIDTag, h.GetClientID()).
				WithTag("app_key", h.appKey).
				WithTag("scene_id", h.sceneID).
				WithTag("scene_uuid", h.sceneUUID).
				WithTag("participant_id", h.participantID).
				WithTag("msg_type", msg.TypeString()).
				Debug("message received")
			h.incCounter(msg.TypeString())
		}
		return msg, n, err
	}

}

func (h *handlerWithLogs) Sender() wire.Sender {
	sender := h.Handler.Sender()

	return func(msg wire.Msg) (int, error) {
		msgType := msg.TypeString()

		n, err := sender(msg)
		if err != nil && !goerrors.Is(err, net.ErrClosed) {
			logs.WithTag(logs.ClientIDTag, h.GetClientID()).
				WithTag("app_key", h.appKey).
				WithTag("scene_id", h.sceneID).
				WithTag("scene_uuid", h.sceneUUID).
				WithTag("participant_id", h.participantID).
				WithTag("msg_type", msgType).
				Error(errors.New("sending message failed").Wrap(err))
		} else if err == nil {
			logs.WithTag(logs.ClientIDTag, h.GetClientID()).
				WithTag("app_key", h.appKey).
				WithTag("scene_id", h.sceneID).
				WithTag("scene_uuid", h.sceneUUID).
				WithTag("participant_id", h.participantID).
				WithTag("msg_type", msgType).
				Debug("message sent")
		}
		return n, err
	}
}

func (h *handlerWithLogs) Close() {
	h.Handler.Close()
	h.closeSummaryWorker()
	h.logSummary()
}

func (h *handlerWithLogs) startSummaryWorker(ctx context.Context) {
	ticker := time.NewTicker(h.summaryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			h.logSummary()
		}
	}
}

func (h *handlerWithLogs) incCounter(msgType string) {
	h.counterMutex.Lock()
	defer h.counterMutex.Unlock()

	h.counter[msgType]++
}

func (h *handlerWithLogs) logSummary() {
	h.counterMutex.Lock()
	defer h.counterMutex.Unlock()

	if len(h.counter) == 0 {
		return
	}

	entry := logs.
		WithTag(logs.ClientIDTag, h.GetClientID()).
		WithTag("app_key", h.appKey).
		WithTag("participant_id", h.participantID).
		WithTag("scene_id", h.sceneID).
		WithTag("scene_uuid", h.sceneUUID).
		WithTag("time_interval", h.summaryInterval)

	for k, v := range h.counter {
		entry = entry.WithTag(k, v)
		delete(h.counter, k)
	}

	entry.Info("inbound message summary")
}
