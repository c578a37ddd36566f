package healthrecord

import "errors"

var (
	ErrInvalidKind         = errors.New("kind must be history, treatment or prescription")
	ErrEmptyContent        = errors.New("content must not be empty")
	ErrContentTooLong      = errors.New("content is too long")
	ErrNotAuthorized       = errors.New("not allowed to read these health records")
	ErrInvalidAttachment   = errors.New("attachment key does not belong to this user")
	ErrUnsupportedFileType = errors.New("unsupported attachment type")
	ErrStorageDisabled     = errors.New("attachment storage is not configured")
)
