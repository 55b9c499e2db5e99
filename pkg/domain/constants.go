package domain

// Field constants shared by the parser, the commands and the surfaces.
const (
	// PositionalKey is the argument slot that collects bare (non-flag) tokens.
	PositionalKey = "_"

	// ApprovalRequestType marks the item an approval stage emits when it halts a
	// non-interactive run.
	ApprovalRequestType = "approval_request"
)
