package chat

import "errors"

var (
	ErrChatNotFound        = errors.New("chat request not found")
	ErrChatNotAuthorized   = errors.New("not authorized for this chat")
	ErrChatExists          = errors.New("a chat request already exists for this booking")
	ErrChatAlreadyResolved = errors.New("chat request has already been answered")
	ErrChatNotAccepted     = errors.New("chat request has not been accepted")
	ErrEmptyMessage        = errors.New("message text is required")
	ErrMessageTooLong      = errors.New("message text is too long")
)
