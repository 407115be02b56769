package workflow

// Level is the severity of a Notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

const (
	configurationMessage = "Please configure your API URL in the settings!"
	failureMessage       = "Failed to connect to backend. Check your API URL and try again."
)

// Notification is a message meant for the person using the client.
type Notification struct {
	Level   Level     `json:"level"`
	Kind    ErrorKind `json:"kind,omitempty"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(Notification)
}

// Observer is told about every committed state change. It is called with the
// controller's lock held and must not call back into the controller.
type Observer interface {
	StateChanged(Snapshot)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}

func notificationFor(err error) Notification {
	kind := Kind(err)
	message := failureMessage
	if kind == KindConfiguration {
		message = configurationMessage
	}
	return Notification{
		Level:   LevelError,
		Kind:    kind,
		Message: message,
		Detail:  err.Error(),
	}
}
