package domain

import "strings"

// Inbound protocol events.
const (
	EventOpenRoom        = "openRoom"
	EventCloseRoom       = "closeRoom"
	EventEnterRoom       = "enterRoom"
	EventLeaveRoom       = "leaveRoom"
	EventExposureWarning = "exposureWarning"
	EventAlertVisitor    = "alertVisitor"
)

// Admin query events (read-only, no state change).
const (
	EventExposeAllConnections  = "exposeAllConnections"
	EventExposeOpenRooms       = "exposeOpenRooms"
	EventExposeAvailableRooms  = "exposeAvailableRooms"
	EventExposeVisitorsRooms   = "exposeVisitorsRooms"
	EventExposePendingWarnings = "exposePendingWarnings"
)

// Outbound events.
const (
	EventCheckIn          = "checkIn"
	EventCheckOut         = "checkOut"
	EventNotifyRoom       = "notifyRoom"
	EventExposureAlert    = "exposureAlert"
	EventUpdatedOccupancy = "updatedOccupancy"

	EventAllConnectionsExposed  = "allConnectionsExposed"
	EventOpenRoomsExposed       = "openRoomsExposed"
	EventAvailableRoomsExposed  = "availableRoomsExposed"
	EventVisitorsRoomsExposed   = "visitorsRoomsExposed"
	EventPendingWarningsExposed = "pendingWarningsExposed"
)

// RoomRef identifies a target room in inbound payloads.
type RoomRef struct {
	Room string `json:"room"`
	ID   string `json:"id,omitempty"`
}

type OpenRoomPayload struct {
	Room string `json:"room"`
	ID   string `json:"id"`
}

func (p OpenRoomPayload) Validate() error {
	if strings.TrimSpace(p.Room) == "" {
		return ErrInvalidPayload
	}
	return nil
}

type CloseRoomPayload struct {
	Room string `json:"room"`
	ID   string `json:"id"`
}

func (p CloseRoomPayload) Validate() error {
	if strings.TrimSpace(p.Room) == "" {
		return ErrInvalidPayload
	}
	return nil
}

type EnterRoomPayload struct {
	Room     RoomRef `json:"room"`
	Visitor  string  `json:"visitor"`
	SentTime string  `json:"sentTime,omitempty"`
}

func (p EnterRoomPayload) Validate() error {
	if strings.TrimSpace(p.Room.Room) == "" || strings.TrimSpace(p.Visitor) == "" {
		return ErrInvalidPayload
	}
	return nil
}

type LeaveRoomPayload struct {
	Room     RoomRef `json:"room"`
	Visitor  string  `json:"visitor"`
	SentTime string  `json:"sentTime,omitempty"`
	Message  string  `json:"message,omitempty"`
}

func (p LeaveRoomPayload) Validate() error {
	if strings.TrimSpace(p.Room.Room) == "" || strings.TrimSpace(p.Visitor) == "" {
		return ErrInvalidPayload
	}
	return nil
}

// ExposureWarningPayload carries one warning per room: room name to the
// dates the visitor was present.
type ExposureWarningPayload struct {
	Visitor  string              `json:"visitor"`
	Warnings map[string][]string `json:"warnings"`
}

func (p ExposureWarningPayload) Validate() error {
	if strings.TrimSpace(p.Visitor) == "" || len(p.Warnings) == 0 {
		return ErrInvalidPayload
	}
	for room, dates := range p.Warnings {
		if strings.TrimSpace(room) == "" || len(dates) == 0 {
			return ErrInvalidPayload
		}
	}
	return nil
}

type AlertVisitorPayload struct {
	Visitor string `json:"visitor"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
}

func (p AlertVisitorPayload) Validate() error {
	if strings.TrimSpace(p.Visitor) == "" {
		return ErrInvalidPayload
	}
	return nil
}

// Outbound payloads.

type CheckEventPayload struct {
	Room     string `json:"room"`
	Visitor  string `json:"visitor"`
	SentTime string `json:"sentTime,omitempty"`
	Message  string `json:"message,omitempty"`
}

type NotifyRoomPayload struct {
	Room          string   `json:"room"`
	Reason        string   `json:"reason"`
	ExposureDates []string `json:"exposureDates"`
	Visitor       string   `json:"visitor"`
}

type ExposureAlertPayload struct {
	Visitor       string   `json:"visitor"`
	ExposureDates []string `json:"exposureDates,omitempty"`
	Room          string   `json:"room,omitempty"`
	Message       string   `json:"message,omitempty"`
}

type UpdatedOccupancyPayload struct {
	Room      string `json:"room"`
	Occupancy int    `json:"occupancy"`
}
