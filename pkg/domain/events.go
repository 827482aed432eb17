package domain

import "fmt"

// Server-pushed event names carried over the realtime channel.
const (
	EventNewMessage           = "new-message"
	EventNewAnnouncement      = "new-announcement"
	EventAssignmentGraded     = "assignment-graded"
	EventQuizAvailable        = "quiz-available"
	EventXPGained             = "xp-gained"
	EventLevelUp              = "level-up"
	EventBadgeEarned          = "badge-earned"
	EventNewAttendanceSession = "new-attendance-session"
)

// EventJoinRoom is emitted by the client after connecting so the server can
// target pushes at this user.
const EventJoinRoom = "join-room"

// UserRoom returns the user-scoped room identifier joined on connect.
func UserRoom(userID string) string {
	return fmt.Sprintf("user-%s", userID)
}

// MessagePayload is the payload delivered with a new-message push.
type MessagePayload struct {
	ID        string  `json:"id"`
	Subject   string  `json:"subject"`
	Sender    UserRef `json:"sender"`
	Recipient UserRef `json:"recipient"`
	SentAt    string  `json:"sentAt"`
}

// AnnouncementPayload is the payload delivered with a new-announcement push.
type AnnouncementPayload struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	PostedAt string `json:"postedAt"`
}
