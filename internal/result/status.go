package result

// errorBit marks a status code as a failure; the remaining bits carry either
// the error number or the value of a successful call.
const errorBit uint32 = 1 << 31

const (
	CodeUnknown uint32 = errorBit | iota
	CodeInvalidArgument
	CodeInvalidString
	CodeInvalidHandle
	CodeInvalidAccessKey
	CodeInvalidToken
	CodeInvalidGateway
	CodeUnexpectedState
	CodeDuplicateMedia
	CodeServerRejected
	CodeNotFound
	CodeTimeout
)

var knownCodes = map[uint32]string{
	CodeUnknown:          "unknown error",
	CodeInvalidArgument:  "invalid argument",
	CodeInvalidString:    "invalid string",
	CodeInvalidHandle:    "invalid handle",
	CodeInvalidAccessKey: "invalid access key",
	CodeInvalidToken:     "invalid token",
	CodeInvalidGateway:   "invalid gateway",
	CodeUnexpectedState:  "unexpected state",
	CodeDuplicateMedia:   "duplicate media",
	CodeServerRejected:   "rejected by server",
	CodeNotFound:         "not found",
	CodeTimeout:          "timed out",
}

// IsError reports whether code carries a failure.
func IsError(code uint32) bool { return code&errorBit != 0 }

// Check turns a status code into a value or an error. Codes that have a
// dedicated sentinel are wrapped so callers can use errors.Is on both the
// sentinel and ErrTransport.
func Check(code uint32) (uint32, error) {
	if !IsError(code) {
		return code, nil
	}
	return 0, FromCode(code, "")
}

// FromCode builds the error for a failed status code. msg overrides the
// built-in description when it is not empty.
func FromCode(code uint32, msg string) error {
	if msg == "" {
		var ok bool
		if msg, ok = knownCodes[code]; !ok {
			msg = "unknown error"
		}
	}
	te := &TransportError{Code: code, Message: msg}
	switch code {
	case CodeInvalidToken:
		return &wrapped{te, ErrInvalidToken}
	case CodeInvalidGateway:
		return &wrapped{te, ErrInvalidGateway}
	case CodeInvalidHandle:
		return &wrapped{te, ErrInvalidMediaHandle}
	case CodeDuplicateMedia:
		return &wrapped{te, ErrDuplicateMediaStream}
	case CodeUnexpectedState:
		return &wrapped{te, ErrInvalidState}
	}
	return te
}

type wrapped struct {
	*TransportError
	kind error
}

func (w *wrapped) Unwrap() []error { return []error{w.TransportError, w.kind} }
