package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"sail-quiz-service/internal/app"
	"sail-quiz-service/internal/config"
)

type WSHandler struct {
	service       *app.QuizService
	defaultBankID string
	upgrader      websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, defaultBankID string) *WSHandler {
	return &WSHandler{
		service:       service,
		defaultBankID: defaultBankID,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option int `json:"option"`
}

type submitPayload struct {
	Confirm bool `json:"confirm"`
}

type confirmPayload struct {
	Unanswered int `json:"unanswered"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets, starts a quiz session and
// forwards client gestures into it until the connection closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	bankID := r.URL.Query().Get("bankId")
	if bankID == "" {
		bankID = h.defaultBankID
	}
	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "count must be a positive integer", http.StatusBadRequest)
			return
		}
		count = n
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		config.WithContext(r.Context()).WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	// commands must not be canceled mid-flight by the request closing
	ctx := context.WithoutCancel(r.Context())

	snap, err := h.service.Start(ctx, bankID, count)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: app.DescribeError(err)}})
		return
	}
	sessionID := snap.SessionID
	ctx = config.ContextWithFields(ctx, logrus.Fields{"session_id": sessionID})
	log := config.WithContext(ctx)

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: app.DescribeError(err)}})
		h.service.Close(ctx, sessionID)
		return
	}
	defer h.service.Close(ctx, sessionID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections do not allow concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				msgType := "state"
				if update.Report != nil {
					msgType = "report"
				}
				select {
				case send <- outboundMessage[any]{Type: msgType, Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if msg, ok := h.handle(ctx, sessionID, inbound); ok {
			send <- msg
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// handle applies one client command. Successful commands reach the client
// through the subscription, so only errors and confirmation prompts are returned.
func (h *WSHandler) handle(ctx context.Context, sessionID string, inbound inboundMessage) (outboundMessage[any], bool) {
	var err error
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid select payload"), true
		}
		_, err = h.service.SelectAnswer(ctx, sessionID, payload.Option)
	case "previous":
		_, err = h.service.Previous(ctx, sessionID)
	case "next":
		_, err = h.service.Next(ctx, sessionID)
	case "submit":
		var payload submitPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				return errorMessage("invalid submit payload"), true
			}
		}
		if !payload.Confirm {
			unanswered, uerr := h.service.Unanswered(ctx, sessionID)
			if uerr != nil {
				return errorMessage(app.DescribeError(uerr)), true
			}
			if unanswered > 0 {
				return outboundMessage[any]{Type: "confirm", Payload: confirmPayload{Unanswered: unanswered}}, true
			}
		}
		_, err = h.service.Submit(ctx, sessionID)
	case "restart":
		_, err = h.service.Restart(ctx, sessionID)
	default:
		return errorMessage("unsupported message type"), true
	}
	if err != nil {
		if !app.IsClientError(err) {
			config.WithContext(ctx).WithError(err).WithField("command", inbound.Type).Error("quiz command failed")
		}
		return errorMessage(app.DescribeError(err)), true
	}
	return outboundMessage[any]{}, false
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// Health answers liveness probes.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}
