// Package realtime names the websocket rooms and events shared by the
// usecases that emit them and the hub that delivers them.
package realtime

import (
	"encoding/json"

	"github.com/google/uuid"
)

const (
	EventJobCreated         = "jobCreated"
	EventJobStatusUpdate    = "jobStatusUpdate"
	EventJobCompleted       = "jobCompleted"
	EventVideoCallInitiated = "videoCallInitiated"
	EventLocationUpdate     = "locationUpdate"
	EventApprovalUpdate     = "approvalUpdate"
	EventNewMessage         = "newMessage"
	EventMessagesRead       = "messagesRead"
	EventDisputeResolved    = "disputeResolved"
	EventSignal             = "signal"
)

func UserRoom(userID uuid.UUID) string { return "user:" + userID.String() }

func TechRoom(techID uuid.UUID) string { return "tech:" + techID.String() }

func ChatRoom(chatID uuid.UUID) string { return "chat:" + chatID.String() }

func DisputeRoom(disputeID uuid.UUID) string { return "dispute-" + disputeID.String() }

func JobRoom(jobID uuid.UUID) string { return "job:" + jobID.String() }

// Signal is the WebRTC payload relayed to a room. The server never reads
// Data.
type Signal struct {
	RoomID string          `json:"roomId"`
	From   uuid.UUID       `json:"from"`
	Data   json.RawMessage `json:"signal"`
}
