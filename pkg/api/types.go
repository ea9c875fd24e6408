package api

import (
	"time"

	"github.com/google/uuid"
)

// User is the authenticated account as returned by the backend.
type User struct {
	ID        uuid.UUID `json:"userId"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
}

// JoinStatus is the backend's admission decision for a join request.
type JoinStatus string

const (
	JoinApproved JoinStatus = "APPROVED"
	JoinPending  JoinStatus = "PENDING"
	JoinRejected JoinStatus = "REJECTED"
)

// JoinOutcome is returned synchronously by the join endpoint and pushed
// asynchronously over the per-user decision topic. Token, Role and ServerURL
// are set only when Status is APPROVED.
type JoinOutcome struct {
	Status    JoinStatus `json:"status"`
	Token     string     `json:"token,omitempty"`
	Role      string     `json:"role,omitempty"`
	ServerURL string     `json:"serverUrl,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// Approved reports whether the outcome grants entry.
func (o *JoinOutcome) Approved() bool {
	return o.Status == JoinApproved
}

// WaitingEntry is one participant awaiting host approval.
type WaitingEntry struct {
	ParticipantID uuid.UUID `json:"participantId"`
	UserID        uuid.UUID `json:"userId"`
	DisplayName   string    `json:"displayName"`
	Email         string    `json:"email"`
	AvatarURL     string    `json:"avatarUrl,omitempty"`
	Status        string    `json:"status,omitempty"`
	RequestTime   string    `json:"requestTime,omitempty"`
}

// ApprovalAction is a host decision on a waiting participant.
type ApprovalAction string

const (
	ActionApprove ApprovalAction = "APPROVED"
	ActionReject  ApprovalAction = "REJECTED"
)

// ChatMessage is one message in a meeting's chat stream. Timestamp is kept
// as the backend's local-datetime string; the client never reorders by it.
type ChatMessage struct {
	ID         string `json:"id,omitempty"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// Meeting is a meeting descriptor owned by the backend.
type Meeting struct {
	MeetingID   uuid.UUID  `json:"meetingId"`
	HostID      uuid.UUID  `json:"hostId"`
	MeetingCode string     `json:"meetingCode"`
	Title       string     `json:"title,omitempty"`
	IsInstant   bool       `json:"isInstant,omitempty"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	AccessType  string     `json:"accessType,omitempty"`
	Status      string     `json:"status,omitempty"`
}

// ScheduleRequest creates a scheduled (non-instant) meeting.
type ScheduleRequest struct {
	Title      string     `json:"title"`
	Password   string     `json:"password,omitempty"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	AccessType string     `json:"access_type,omitempty"`
}

// HistoryEntry is one row of the meeting history page.
type HistoryEntry struct {
	MeetingCode string `json:"meetingCode"`
	Title       string `json:"title"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	Status      string `json:"status"`
	IsHost      bool   `json:"isHost"`
}

// HistoryPage is a page of meeting history.
type HistoryPage struct {
	Content       []HistoryEntry `json:"content"`
	TotalPages    int            `json:"totalPages"`
	TotalElements int64          `json:"totalElements"`
}
