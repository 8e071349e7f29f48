package invite

import (
	"errors"
	"strings"

	"github.com/orinx/billing/internal/platform"
)

// Identity backend error codes that mean the invitee already has an account.
var alreadyExistsCodes = map[string]bool{
	"email_exists":        true,
	"user_already_exists": true,
}

// Message fragments returned by backends that predate structured codes.
var alreadyExistsFragments = []string{
	"already registered",
	"already been registered",
	"user already registered",
	"already exists",
	"already invited",
	"user already invited",
	"err_already_in_workspace",
	"err_already_owner",
}

// isAlreadyInvitedOrExists reports whether an invite-email failure means the
// invitee already has an account or a pending invite. The structured error
// code is checked first; the message heuristic covers backends that only
// return free text.
func isAlreadyInvitedOrExists(err error) bool {
	var perr *platform.PlatformError
	if errors.As(err, &perr) && alreadyExistsCodes[perr.Code] {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range alreadyExistsFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// isAlreadyOwner reports whether the invitee already owns a workspace, which
// the backend signals with a sentinel string in the message.
func isAlreadyOwner(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "err_already_owner")
}
