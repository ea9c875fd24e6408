package realtime

import (
	"fmt"

	"github.com/google/uuid"
)

// Topic naming contract shared with the backend's STOMP broker.

// UserTopic is the per-user admission decision push for one meeting.
func UserTopic(meetingCode string, userID uuid.UUID) string {
	return fmt.Sprintf("/topic/meeting/%s/user/%s", meetingCode, userID)
}

// WaitingRoomTopic is the meeting-wide broadcast pending participants watch
// for the opaque "host joined" marker.
func WaitingRoomTopic(meetingCode string) string {
	return fmt.Sprintf("/topic/meeting/%s/waiting-room", meetingCode)
}

// AdminTopic notifies the host that the waiting list changed. No payload.
func AdminTopic(meetingCode string) string {
	return fmt.Sprintf("/topic/meeting/%s/admin", meetingCode)
}

// ChatTopic is the meeting's chat broadcast.
func ChatTopic(meetingCode string) string {
	return fmt.Sprintf("/topic/meeting/%s/chat", meetingCode)
}

// ChatSendDestination is where outbound chat messages are published.
func ChatSendDestination(meetingCode string) string {
	return fmt.Sprintf("/app/meeting/%s/chat.sendMessage", meetingCode)
}
