package apperrors

import (
	"net/http"
)

// Predefined chat-domain errors. Services return these directly; the gin
// handler maps them to status codes.

// ErrNotMember - the caller has no active participant row in the conversation.
var ErrNotMember = New(
	CodeForbidden,
	"chat",
	"You are not a participant of this conversation",
	http.StatusForbidden,
)

// ErrPermissionDenied - the action requires a role the caller does not hold.
var ErrPermissionDenied = New(
	CodeForbidden,
	"chat",
	"Insufficient permissions for this conversation action",
	http.StatusForbidden,
)

// ErrAlreadyMember - the user already has an active participant row.
var ErrAlreadyMember = New(
	CodeAlreadyExists,
	"chat",
	"User is already a participant of this conversation",
	http.StatusConflict,
)

// ErrConversationNotFound - conversation id does not resolve.
var ErrConversationNotFound = New(
	CodeNotFound,
	"chat",
	"Conversation not found",
	http.StatusNotFound,
)

// ErrConversationInactive - the conversation was deactivated when its last
// participant left; only historical reads are accepted.
var ErrConversationInactive = New(
	CodeInvalidOperation,
	"chat",
	"Conversation is no longer active",
	http.StatusConflict,
)

// ErrMessageNotFound - message id does not resolve.
var ErrMessageNotFound = New(
	CodeNotFound,
	"chat",
	"Message not found",
	http.StatusNotFound,
)

// ErrParticipantNotFound - target user is not an active participant.
var ErrParticipantNotFound = New(
	CodeNotFound,
	"chat",
	"Participant not found in this conversation",
	http.StatusNotFound,
)

// ErrInvalidMessage - neither content nor media present.
var ErrInvalidMessage = New(
	CodeValidationFailed,
	"chat",
	"Message must carry text content or media",
	http.StatusBadRequest,
)

// ErrInvalidReply - reply target belongs to a different conversation.
var ErrInvalidReply = New(
	CodeValidationFailed,
	"chat",
	"Reply target must belong to the same conversation",
	http.StatusBadRequest,
)

// ErrCannotMessageUser - the directory reports the pair may not talk
// (blocked or unknown user).
var ErrCannotMessageUser = New(
	CodeForbidden,
	"chat",
	"You cannot start a conversation with this user",
	http.StatusForbidden,
)

// ErrUserNotFound - directory lookup failed.
var ErrUserNotFound = New(
	CodeNotFound,
	"directory",
	"User not found",
	http.StatusNotFound,
)

// --- auth slice ---

// ErrEmailAlreadyExists - registration with a taken email.
var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already in use",
	http.StatusConflict,
)

// ErrInvalidCredentials - wrong email or password.
var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)
