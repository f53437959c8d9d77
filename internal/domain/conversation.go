package domain

// ConversationType is the canonical kind of a meeting session.
type ConversationType string

const (
	ConversationSales     ConversationType = "sales"
	ConversationSupport   ConversationType = "support"
	ConversationMeeting   ConversationType = "meeting"
	ConversationInterview ConversationType = "interview"
)

// DefaultConversationType is applied at the boundary when a label cannot be classified.
const DefaultConversationType = ConversationMeeting
