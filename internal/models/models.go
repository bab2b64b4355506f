package models

// All returns every model managed by AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&RefreshToken{},
		&TalentProfile{},
		&FormField{},
		&ContactSubmission{},
		&FeedbackVideo{},
		&VideoFeedback{},
		&AdminLog{},
		&SiteSetting{},
		&SystemLog{},
	}
}
