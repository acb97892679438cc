package services

import (
	"fmt"
	"strings"

	"sayit/internal/models"
)

type renderedNotification struct {
	Type       models.NotificationType
	Title      string
	Message    string
	Priority   models.NotificationPriority
	Actions    []models.NotificationAction
	ExpiryDays int
}

// template renders one event kind.
type template func(Event) renderedNotification

// statusCopy is the citizen-facing text for one target status.
type statusCopy struct {
	Title      string
	Message    func(e Event) string
	Priority   models.NotificationPriority
	ExpiryDays int
}

func quoted(format string) func(Event) string {
	return func(e Event) string { return fmt.Sprintf(format, e.ComplaintTitle) }
}

var statusTemplates = map[models.ComplaintStatus]statusCopy{
	models.StatusAssigned: {
		Title:      "Complaint Assigned",
		Message:    quoted("Your complaint \"%s\" has been assigned to the responsible agency."),
		Priority:   models.NotificationPriorityNormal,
		ExpiryDays: 30,
	},
	models.StatusInProgress: {
		Title:      "Complaint In Progress",
		Message:    quoted("Work has started on your complaint \"%s\"."),
		Priority:   models.NotificationPriorityNormal,
		ExpiryDays: 30,
	},
	models.StatusPendingInfo: {
		Title:      "More Information Needed",
		Message:    quoted("The agency handling \"%s\" needs more information from you. Please reply to the complaint."),
		Priority:   models.NotificationPriorityHigh,
		ExpiryDays: 30,
	},
	models.StatusResolved: {
		Title:      "Complaint Resolved",
		Message:    quoted("Good news! Your complaint \"%s\" has been resolved."),
		Priority:   models.NotificationPriorityHigh,
		ExpiryDays: 60,
	},
	models.StatusClosed: {
		Title:      "Complaint Closed",
		Message:    quoted("Your complaint \"%s\" has been closed. Thank you for using SAYIT."),
		Priority:   models.NotificationPriorityNormal,
		ExpiryDays: 60,
	},
	models.StatusReopened: {
		Title:      "Complaint Reopened",
		Message:    quoted("Your complaint \"%s\" has been reopened and is being reviewed again."),
		Priority:   models.NotificationPriorityNormal,
		ExpiryDays: 30,
	},
	models.StatusRejected: {
		Title:      "Complaint Rejected",
		Message:    quoted("Your complaint \"%s\" could not be processed. Check the responses for details."),
		Priority:   models.NotificationPriorityHigh,
		ExpiryDays: 60,
	},
}

// genericStatusCopy covers statuses with no dedicated text, including ones
// added after this table was written.
var genericStatusCopy = statusCopy{
	Title: "Complaint Status Updated",
	Message: func(e Event) string {
		return fmt.Sprintf("The status of your complaint \"%s\" changed from %s to %s.",
			e.ComplaintTitle, humanStatus(e.OldStatus), humanStatus(e.NewStatus))
	},
	Priority:   models.NotificationPriorityNormal,
	ExpiryDays: 30,
}

func lookupStatusCopy(s models.ComplaintStatus) statusCopy {
	if sc, ok := statusTemplates[s]; ok {
		return sc
	}
	return genericStatusCopy
}

func humanStatus(s models.ComplaintStatus) string {
	if s == "" {
		return "unknown"
	}
	return strings.ReplaceAll(string(s), "_", " ")
}

func trackAction(e Event) []models.NotificationAction {
	if e.TrackingID == "" {
		return nil
	}
	return []models.NotificationAction{{
		Label: "View Complaint",
		URL:   "/complaints/track/" + e.TrackingID,
	}}
}

func agentAction(e Event) []models.NotificationAction {
	return []models.NotificationAction{{
		Label: "Open Complaint",
		URL:   "/agent/complaints/" + e.ComplaintID.Hex(),
	}}
}

var eventTemplates = map[EventKind]template{
	EventSubmissionConfirmed: func(e Event) renderedNotification {
		return renderedNotification{
			Type:       models.NotificationComplaintUpdate,
			Title:      "Complaint Submitted",
			Message:    fmt.Sprintf("Your complaint \"%s\" was received. Your tracking ID is %s.", e.ComplaintTitle, e.TrackingID),
			Priority:   models.NotificationPriorityNormal,
			Actions:    trackAction(e),
			ExpiryDays: 30,
		}
	},
	EventStatusChanged: func(e Event) renderedNotification {
		sc := lookupStatusCopy(e.NewStatus)
		return renderedNotification{
			Type:       models.NotificationStatusChange,
			Title:      sc.Title,
			Message:    sc.Message(e),
			Priority:   sc.Priority,
			Actions:    trackAction(e),
			ExpiryDays: sc.ExpiryDays,
		}
	},
	EventResponseReceived: func(e Event) renderedNotification {
		from := "The agency"
		if e.ResponderRole == models.ResponderSystem {
			from = "SAYIT"
		}
		return renderedNotification{
			Type:       models.NotificationResponseReceived,
			Title:      "New Response",
			Message:    fmt.Sprintf("%s responded to your complaint \"%s\".", from, e.ComplaintTitle),
			Priority:   models.NotificationPriorityHigh,
			Actions:    trackAction(e),
			ExpiryDays: 30,
		}
	},
	EventUserResponseRecorded: func(e Event) renderedNotification {
		return renderedNotification{
			Type:       models.NotificationComplaintUpdate,
			Title:      "Response Recorded",
			Message:    fmt.Sprintf("Your reply to \"%s\" was added to the complaint.", e.ComplaintTitle),
			Priority:   models.NotificationPriorityLow,
			Actions:    trackAction(e),
			ExpiryDays: 14,
		}
	},
	EventAgencyNewComplaint: func(e Event) renderedNotification {
		return renderedNotification{
			Type:       models.NotificationComplaintUpdate,
			Title:      "New Complaint Received",
			Message:    fmt.Sprintf("%s: \"%s\" was routed to your agency.", e.TrackingID, e.ComplaintTitle),
			Priority:   models.NotificationPriorityNormal,
			Actions:    agentAction(e),
			ExpiryDays: 30,
		}
	},
	EventAgencyCitizenResponse: func(e Event) renderedNotification {
		return renderedNotification{
			Type:       models.NotificationResponseReceived,
			Title:      "Citizen Replied",
			Message:    fmt.Sprintf("The submitter of %s replied to \"%s\".", e.TrackingID, e.ComplaintTitle),
			Priority:   models.NotificationPriorityNormal,
			Actions:    agentAction(e),
			ExpiryDays: 30,
		}
	},
}
