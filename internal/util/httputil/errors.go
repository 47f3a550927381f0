package httputil

// JSONError is an error carrying an HTTP status and a message that is
// safe to show to the client.
type JSONError struct {
	error
	HTTPStatus  int
	SafeMessage string
}

// NewJSONError creates a new JSONError.
//
// The err is the detailed error to be logged internally, while
// safeMessage is shown to the client without revealing internals. When
// no safeMessage is given, the textual form of the status code is used.
func NewJSONError(status int, err error, safeMessage ...string) JSONError {
	pickedSafeMessage := ""
	if len(safeMessage) > 0 {
		pickedSafeMessage = safeMessage[0]
	}

	return JSONError{
		error:       err,
		HTTPStatus:  status,
		SafeMessage: pickedSafeMessage,
	}
}
