package ws

import (
	"github.com/fomoclub/liveroom/internal/live"
	"github.com/fomoclub/liveroom/internal/transport/apierror"
)

// snapshotFrame is the `room_data` message sent on every connect.
type roomDataFrame struct {
	Type string        `json:"type"`
	Data live.Snapshot `json:"data"`
}

func snapshotFrame(snap live.Snapshot) roomDataFrame {
	return roomDataFrame{Type: "room_data", Data: snap}
}

type warnFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

func warningFrame(err error) warnFrame {
	return warnFrame{Type: "warning", Code: apierror.Code(err), Error: err.Error()}
}

type ackFrame struct {
	Type string `json:"type"`
}
