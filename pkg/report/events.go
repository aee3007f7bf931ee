package report

// EventType names a report event emitted by the SDK
type EventType string

const (
	EventLoaded           EventType = "loaded"
	EventRendered         EventType = "rendered"
	EventError            EventType = "error"
	EventPageChanged      EventType = "pageChanged"
	EventCommandTriggered EventType = "commandTriggered"
)

// Extension commands injected into the visual menus
const (
	CommandEditVisual   = "editVisual"
	CommandDeleteVisual = "deleteVisual"
)

// DefaultErrorMessage is used when an error event carries no message
const DefaultErrorMessage = "An error occurred"

// Event is a report event with its detail payload
type Event struct {
	Type   EventType   `json:"type"`
	Detail EventDetail `json:"detail"`
}

// EventDetail is the union of the detail fields of the handled events
type EventDetail struct {
	// error
	Message string `json:"message,omitempty"`
	// pageChanged
	NewPage *EventPage `json:"newPage,omitempty"`
	// commandTriggered
	Command string       `json:"command,omitempty"`
	Visual  *EventVisual `json:"visual,omitempty"`
}

type EventPage struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
}

type EventVisual struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ErrorMessage returns the message of an error event
func (e Event) ErrorMessage() string {
	if e.Detail.Message == "" {
		return DefaultErrorMessage
	}
	return e.Detail.Message
}
