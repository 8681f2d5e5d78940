package domain

// LeadInfo holds the fields a model reply declared inside its lead marker.
// Any field may be empty; nothing beyond presence is validated.
type LeadInfo struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Service  string `json:"service,omitempty"`
	Estimate string `json:"estimate,omitempty"`
}

// Notification converts the extracted lead into the flat field set accepted by
// the notification senders.
func (l LeadInfo) Notification() LeadNotification {
	return LeadNotification{
		Name:     l.Name,
		Phone:    l.Phone,
		Email:    l.Email,
		Service:  l.Service,
		Estimate: l.Estimate,
	}
}

// LeadNotification is the request shape of the email and SMS functions.
type LeadNotification struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Service  string `json:"service,omitempty"`
	Estimate string `json:"estimate,omitempty"`
	Address  string `json:"address,omitempty"`
	Details  string `json:"details,omitempty"`
}
