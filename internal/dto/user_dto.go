package dto

import "github.com/google/uuid"

type SetRoleRequest struct {
	Role string `json:"role" validate:"required,user_role"`
}

type SetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type ResetPasswordResponse struct {
	TemporaryPassword string `json:"temporary_password"`
}

type UserQuery struct {
	Role   string
	Search string
	Page   Page
}

type AdminLogQuery struct {
	AdminID  *uuid.UUID
	TargetID *uuid.UUID
	Page     Page
}

type StatsResponse struct {
	Users             int64            `json:"users"`
	Admins            int64            `json:"admins"`
	Talents           int64            `json:"talents"`
	TalentsByCategory map[string]int64 `json:"talents_by_category"`
	HiddenTalents     int64            `json:"hidden_talents"`
	DeletedTalents    int64            `json:"deleted_talents"`
	InternalTalents   int64            `json:"internal_talents"`
	NewContacts       int64            `json:"new_contacts"`
	FeedbackCount     int64            `json:"feedback_count"`
	ActiveVideos      int64            `json:"active_feedback_videos"`
}
