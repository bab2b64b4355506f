package dto

type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Mobile  string `json:"mobile" validate:"omitempty,max=32"`
	Subject string `json:"subject" validate:"omitempty,max=255"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

type ContactStatusRequest struct {
	Status string `json:"status" validate:"required,contact_status"`
}
