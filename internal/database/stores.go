package database

import "sayit/internal/services"

var (
	_ services.ComplaintStore     = (*ComplaintStore)(nil)
	_ services.NotificationStore  = (*NotificationStore)(nil)
	_ services.CategoryStore      = (*CategoryStore)(nil)
	_ services.AgencyStore        = (*AgencyStore)(nil)
	_ services.UserStore          = (*UserStore)(nil)
	_ services.AnonymousUserStore = (*AnonymousUserStore)(nil)
	_ services.FeedbackStore      = (*FeedbackStore)(nil)
)
