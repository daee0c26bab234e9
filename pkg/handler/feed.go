// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package handler

import (
	"net/http"
	"time"

	"github.com/agriardyan/phasmo-larp-companion/pkg/session"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	feedWriteTimeout = 5 * time.Second
	feedPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// feedMessage is the envelope pushed to feed subscribers
type feedMessage struct {
	Type    string        `json:"type"`
	Payload session.State `json:"payload"`
}

// feed streams the session state over a WebSocket: the current snapshot on
// connect, then a new snapshot after every change. Slow clients only get the
// latest snapshot.
func (h *State) feed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warnf("state feed upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates := make(chan session.State, 1)
	unwatch := h.store.Watch(func(s session.State) {
		for {
			select {
			case updates <- s:
				return
			default:
			}
			// Drop the stale snapshot and retry.
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unwatch()

	// The client never sends anything meaningful; reading detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(feedPingInterval)
	defer ping.Stop()

	if err := writeSnapshot(conn, h.store.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case s := <-updates:
			if err := writeSnapshot(conn, s); err != nil {
				logrus.Debugf("state feed closed: %v", err)
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(feedWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func writeSnapshot(conn *websocket.Conn, s session.State) error {
	_ = conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
	return conn.WriteJSON(feedMessage{Type: "state", Payload: s})
}
