package dto

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type DirectConversationRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
}

type CreateGroupRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	MemberIDs   []string `json:"member_ids" validate:"required,min=1,max=100,dive,uuid4"`
}

type UpdateGroupRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url,max=500"`
}

type AddParticipantRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
	Role   string `json:"role" validate:"omitempty,is-participant-role"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=owner admin member"`
}

type SendMessageRequest struct {
	Content   string  `json:"content" validate:"omitempty,max=4000"`
	MediaURL  *string `json:"media_url" validate:"omitempty,url,max=500"`
	MediaType *string `json:"media_type" validate:"omitempty,is-media-type"`
	ReplyToID *string `json:"reply_to_id" validate:"omitempty,uuid4"`
}

// EditMessageRequest accepts an empty content only for media messages, where
// it clears the caption; the service enforces that.
type EditMessageRequest struct {
	Content string `json:"content" validate:"max=4000"`
}

type ToggleReactionRequest struct {
	Emoji string `json:"emoji" validate:"required,min=1,max=16"`
}

// MarkReadRequest marks messages read up to the given message, or up to the
// newest message when message_id is omitted.
type MarkReadRequest struct {
	MessageID string `json:"message_id" validate:"omitempty,uuid4"`
}

// ListMessagesQuery is bound from the query string of the history endpoint.
type ListMessagesQuery struct {
	BeforeID string `form:"before_id" validate:"omitempty,uuid4"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=100"`
}
