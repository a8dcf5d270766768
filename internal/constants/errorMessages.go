package constants

const (
	MsgActivityNotFound   = "Activity not found"
	MsgUserNotFound       = "User not found"
	MsgEventNotFound      = "Event not found"
	MsgAlreadySignedUp    = "User has already signed up for this activity"
	MsgNotSignedUp        = "User has not signed up for this activity"
	MsgNotActive          = "User is not signed up for this activity"
	MsgCommentRequired    = "Comment is required"
	MsgAmountRequired     = "Amount is required for donation activities"
	MsgAmountTooSmall     = "Amount must be at least 0.01"
	MsgNoTemplateAssigned = "Activity has no template assigned"
	MsgLedgerUnavailable  = "Ledger service is unavailable"
	MsgInternalError      = "Internal server error"
)
