package domain

import "errors"

// Error kinds. Every error returned by the room runtime unwraps to exactly one of these,
// so callers can classify with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrDuplicateAnswer   = errors.New("duplicate answer")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
)

var (
	// ErrRoomNotFound is returned when no room exists for a code.
	ErrRoomNotFound = newError(ErrNotFound, "room not found")
	// ErrPlayerNotFound is returned when a player id is unknown to the room.
	ErrPlayerNotFound = newError(ErrNotFound, "player not found")
	// ErrQuestionNotFound indicates a question id is not part of the room.
	ErrQuestionNotFound = newError(ErrNotFound, "question not found")
	// ErrPlayerNotInRoom is returned when a connection acts for a player outside its room.
	ErrPlayerNotInRoom = newError(ErrNotFound, "player not in room")
	// ErrConnectionNotFound is returned for unknown transport sessions.
	ErrConnectionNotFound = newError(ErrNotFound, "connection not found")

	// ErrNotHost is returned when a non-host attempts a host-only transition.
	ErrNotHost = newError(ErrUnauthorized, "only the host can do that")
	// ErrInvalidHostToken indicates the host credential failed verification.
	ErrInvalidHostToken = newError(ErrUnauthorized, "invalid host credentials")

	ErrAlreadyStarted   = newError(ErrInvalidTransition, "game already started")
	ErrNotStarted       = newError(ErrInvalidTransition, "game not started")
	ErrNoQuestions      = newError(ErrInvalidTransition, "cannot start a game without questions")
	ErrNoMoreQuestions  = newError(ErrInvalidTransition, "no more questions available")
	ErrGameEnded        = newError(ErrInvalidTransition, "game has ended")
	ErrNoActiveQuestion = newError(ErrInvalidTransition, "no active question")
	ErrQuestionClosed   = newError(ErrInvalidTransition, "question is closed")
	ErrQuestionMismatch = newError(ErrInvalidTransition, "question is not the active question")
	ErrNotJoined        = newError(ErrInvalidTransition, "connection has not joined a room")
	ErrQuestionOpen     = newError(ErrInvalidTransition, "current question has not ended")

	// ErrAnswerExists is returned for a second submission of the same (player, question) pair.
	ErrAnswerExists = newError(ErrDuplicateAnswer, "answer already submitted")

	// ErrNicknameTaken is returned when a nickname is already used inside the room.
	ErrNicknameTaken = newError(ErrConflict, "nickname already taken")
	// ErrNoFreeCode is returned when no unused room code could be found.
	ErrNoFreeCode = newError(ErrConflict, "could not allocate a room code")
)

// Error carries a user-facing message and the kind it belongs to.
type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// Validation builds an ErrValidation error with a specific message.
func Validation(msg string) error {
	return newError(ErrValidation, msg)
}

// Kind returns the kind sentinel err belongs to, or nil for unclassified errors.
func Kind(err error) error {
	for _, kind := range []error{ErrNotFound, ErrUnauthorized, ErrInvalidTransition, ErrDuplicateAnswer, ErrValidation, ErrConflict} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
