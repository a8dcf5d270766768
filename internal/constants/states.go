package constants

// ParticipationState is the lifecycle state of a user's participation in an activity.
type ParticipationState string

const (
	StateSignedUp  ParticipationState = "SIGNED_UP"
	StateWithdrawn ParticipationState = "WITHDRAWN"
)

func (s ParticipationState) String() string {
	return string(s)
}

// ActivityStatus is derived from the activity time window at read time, never stored.
type ActivityStatus string

const (
	ActivityNotStarted ActivityStatus = "NOT_STARTED"
	ActivityInProgress ActivityStatus = "IN_PROGRESS"
	ActivityFinished   ActivityStatus = "FINISHED"
)

// EventStatus mirrors the event lifecycle flag carried on the event row.
type EventStatus string

const (
	EventActive EventStatus = "active"
	EventEnded  EventStatus = "ended"
)

// Detail template identifiers. Templates 1 and 2 are the contract; any other
// known template falls back to the duration-credit ledger path.
const (
	TemplateBasic    = 1
	TemplateDonation = 2
)

// MinDonationAmount is the smallest accepted donation, as a decimal string.
const MinDonationAmount = "0.01"
