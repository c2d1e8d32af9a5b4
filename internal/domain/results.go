package domain

// AckResult tags the outcome of a routing decision so the inbound
// event's acknowledgment can report it.
type AckResult string

const (
	ResultOpened  AckResult = "OPENED"
	ResultClosed  AckResult = "CLOSED"
	ResultEntered AckResult = "ENTERED"
	ResultLeft    AckResult = "LEFT"
	ResultWarned  AckResult = "WARNED"
	ResultAlerted AckResult = "ALERTED"
	ResultPending AckResult = "PENDING"
)
