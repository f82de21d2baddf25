package validator

import (
	"log"

	"github.com/go-playground/validator/v10"

	"convo_backend/internal/models/chat"
)

// registerCustomRules installs the chat-domain validation tags.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Startup misconfiguration; refuse to run.
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-participant-role", validateParticipantRole)
	mustRegister("is-media-type", validateMediaType)
}

func validateParticipantRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // 'required' handles empties
	}
	switch chat.ParticipantRole(value) {
	case chat.RoleAdmin, chat.RoleMember:
		// Owner is not assignable when adding participants; ownership moves
		// through transfer or succession.
		return true
	default:
		return false
	}
}

func validateMediaType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch value {
	case "image", "video", "file":
		return true
	default:
		return false
	}
}
