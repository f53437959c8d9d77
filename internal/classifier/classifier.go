// Package classifier maps free-form conversation labels to canonical conversation types.
//
// Matching is an exact lookup against a fixed table. The classifier never guesses;
// callers that want graceful degradation use ClassifyOrDefault.
package classifier

import (
	"fmt"

	"github.com/bharatgolchha/liveconvo/internal/domain"
)

var labels = map[string]domain.ConversationType{
	// sales
	"sales":            domain.ConversationSales,
	"Sales":            domain.ConversationSales,
	"Sales Call":       domain.ConversationSales,
	"sales call":       domain.ConversationSales,
	"sales_call":       domain.ConversationSales,
	"sales-call":       domain.ConversationSales,
	"Discovery Call":   domain.ConversationSales,
	"discovery_call":   domain.ConversationSales,
	"Product Demo":     domain.ConversationSales,
	"product_demo":     domain.ConversationSales,
	"Demo":             domain.ConversationSales,
	"demo":             domain.ConversationSales,
	"Cold Call":        domain.ConversationSales,
	"cold_call":        domain.ConversationSales,
	"Follow-up Call":   domain.ConversationSales,
	"follow_up":        domain.ConversationSales,
	"Negotiation":      domain.ConversationSales,
	"negotiation":      domain.ConversationSales,
	"Pricing Call":     domain.ConversationSales,
	"Closing Call":     domain.ConversationSales,
	"Renewal Call":     domain.ConversationSales,
	"renewal":          domain.ConversationSales,
	"Upsell Call":      domain.ConversationSales,
	"Prospect Call":    domain.ConversationSales,
	"Qualification":    domain.ConversationSales,
	"Sales Meeting":    domain.ConversationSales,
	"sales_meeting":    domain.ConversationSales,
	"Pitch":            domain.ConversationSales,
	"pitch":            domain.ConversationSales,
	"Partnership Call": domain.ConversationSales,

	// support
	"support":               domain.ConversationSupport,
	"Support":               domain.ConversationSupport,
	"Support Call":          domain.ConversationSupport,
	"support call":          domain.ConversationSupport,
	"support_call":          domain.ConversationSupport,
	"support-call":          domain.ConversationSupport,
	"Customer Support":      domain.ConversationSupport,
	"Customer Support Call": domain.ConversationSupport,
	"customer_support":      domain.ConversationSupport,
	"Customer Success":      domain.ConversationSupport,
	"customer_success":      domain.ConversationSupport,
	"Technical Support":     domain.ConversationSupport,
	"technical_support":     domain.ConversationSupport,
	"Tech Support":          domain.ConversationSupport,
	"Help Desk":             domain.ConversationSupport,
	"helpdesk":              domain.ConversationSupport,
	"Troubleshooting":       domain.ConversationSupport,
	"troubleshooting":       domain.ConversationSupport,
	"Onboarding":            domain.ConversationSupport,
	"onboarding":            domain.ConversationSupport,
	"Onboarding Call":       domain.ConversationSupport,
	"Escalation":            domain.ConversationSupport,
	"escalation":            domain.ConversationSupport,
	"Bug Report":            domain.ConversationSupport,
	"Account Review":        domain.ConversationSupport,
	"Check-in Call":         domain.ConversationSupport,
	"check_in":              domain.ConversationSupport,

	// meeting
	"meeting":              domain.ConversationMeeting,
	"Meeting":              domain.ConversationMeeting,
	"Team Meeting":         domain.ConversationMeeting,
	"team_meeting":         domain.ConversationMeeting,
	"Team Standup Meeting": domain.ConversationMeeting,
	"Standup":              domain.ConversationMeeting,
	"standup":              domain.ConversationMeeting,
	"Daily Standup":        domain.ConversationMeeting,
	"daily_standup":        domain.ConversationMeeting,
	"Stand-up":             domain.ConversationMeeting,
	"One-on-One":           domain.ConversationMeeting,
	"1:1":                  domain.ConversationMeeting,
	"one_on_one":           domain.ConversationMeeting,
	"Planning":             domain.ConversationMeeting,
	"Sprint Planning":      domain.ConversationMeeting,
	"sprint_planning":      domain.ConversationMeeting,
	"Retrospective":        domain.ConversationMeeting,
	"retro":                domain.ConversationMeeting,
	"Brainstorm":           domain.ConversationMeeting,
	"brainstorming":        domain.ConversationMeeting,
	"All Hands":            domain.ConversationMeeting,
	"all_hands":            domain.ConversationMeeting,
	"Board Meeting":        domain.ConversationMeeting,
	"Project Sync":         domain.ConversationMeeting,
	"Status Update":        domain.ConversationMeeting,
	"Workshop":             domain.ConversationMeeting,
	"Internal Meeting":     domain.ConversationMeeting,
	"internal_meeting":     domain.ConversationMeeting,

	// interview
	"interview":            domain.ConversationInterview,
	"Interview":            domain.ConversationInterview,
	"Job Interview":        domain.ConversationInterview,
	"job_interview":        domain.ConversationInterview,
	"Candidate Interview":  domain.ConversationInterview,
	"Technical Interview":  domain.ConversationInterview,
	"technical_interview":  domain.ConversationInterview,
	"Phone Screen":         domain.ConversationInterview,
	"phone_screen":         domain.ConversationInterview,
	"Screening Call":       domain.ConversationInterview,
	"screening":            domain.ConversationInterview,
	"Behavioral Interview": domain.ConversationInterview,
	"Hiring Interview":     domain.ConversationInterview,
	"User Interview":       domain.ConversationInterview,
	"user_interview":       domain.ConversationInterview,
	"Customer Interview":   domain.ConversationInterview,
	"customer_interview":   domain.ConversationInterview,
	"Research Interview":   domain.ConversationInterview,
	"Podcast Interview":    domain.ConversationInterview,
	"Exit Interview":       domain.ConversationInterview,
}

// Classify returns the canonical type for rawLabel or domain.ErrUnknownConversationType.
func Classify(rawLabel string) (domain.ConversationType, error) {
	if t, ok := labels[rawLabel]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownConversationType, rawLabel)
}

// ClassifyOrDefault applies domain.DefaultConversationType on a miss.
// The second return value reports whether the label matched.
func ClassifyOrDefault(rawLabel string) (domain.ConversationType, bool) {
	t, err := Classify(rawLabel)
	if err != nil {
		return domain.DefaultConversationType, false
	}
	return t, true
}
