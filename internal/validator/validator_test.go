package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addParticipantBody struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
	Role   string `json:"role" validate:"omitempty,is-participant-role"`
}

type sendMessageBody struct {
	Content   string  `json:"content" validate:"omitempty,max=4000"`
	MediaType *string `json:"media_type" validate:"omitempty,is-media-type"`
}

func TestParticipantRoleRule(t *testing.T) {
	v := New()
	uid := "4f8b44b5-4dd2-4ba7-8c3e-fbd6e42fd2f3"

	assert.NoError(t, v.Validate(&addParticipantBody{UserID: uid, Role: "member"}))
	assert.NoError(t, v.Validate(&addParticipantBody{UserID: uid, Role: "admin"}))
	assert.NoError(t, v.Validate(&addParticipantBody{UserID: uid}))

	err := v.Validate(&addParticipantBody{UserID: uid, Role: "owner"})
	require.Error(t, err)
	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Contains(t, vErr.Errors, "role")
}

func TestMediaTypeRule(t *testing.T) {
	v := New()

	for _, valid := range []string{"image", "video", "file"} {
		mt := valid
		assert.NoError(t, v.Validate(&sendMessageBody{MediaType: &mt}), valid)
	}

	bad := "executable"
	err := v.Validate(&sendMessageBody{MediaType: &bad})
	require.Error(t, err)
}

func TestFieldNamesComeFromJSONTags(t *testing.T) {
	v := New()

	err := v.Validate(&addParticipantBody{})
	require.Error(t, err)

	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Contains(t, vErr.Errors, "user_id")
	assert.NotContains(t, vErr.Errors, "UserID")
}
