package chat

import (
	chat_errors "linkup-chat/pkg/errors"
)

// conversationSeparator joins the two sorted participant ids. It is not a
// legal character in a uuid, so distinct pairs can never collide.
const conversationSeparator = "_"

// DeriveConversationID returns the stable id for the conversation between
// two participants: the identities sorted lexicographically and joined with
// an underscore. The result is the same whichever order the participants
// are passed in. Empty identities and self-conversations are rejected.
func DeriveConversationID(a, b string) (string, error) {
	if a == "" || b == "" {
		return "", chat_errors.ErrInvalidIdentity
	}
	if a == b {
		return "", chat_errors.ErrSelfConversation
	}
	if a > b {
		a, b = b, a
	}
	return a + conversationSeparator + b, nil
}
