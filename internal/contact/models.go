package contact

import "time"

// Submission is one persisted contact-form entry.
type Submission struct {
	ID        string    `json:"id" bson:"-"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Message   string    `json:"message" bson:"message"`
	IPAddress string    `json:"ipAddress,omitempty" bson:"ipAddress"`
	UserAgent string    `json:"userAgent,omitempty" bson:"userAgent"`
	IsRead    bool      `json:"isRead" bson:"isRead"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Listing is the projection returned by the admin listing; it leaves out the
// submitter's network address and client identifier.
type Listing struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Submission) Listing() Listing {
	return Listing{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Message:   s.Message,
		IsRead:    s.IsRead,
		CreatedAt: s.CreatedAt,
	}
}

// Payload is the raw, untrusted contact-form body.
type Payload struct {
	Name    string `json:"name" validate:"min=1,max=100,contactname"`
	Email   string `json:"email" validate:"email,emailtld"`
	Message string `json:"message" validate:"min=1,max=1000"`
}

// RequestMeta carries best-effort details about the submitting client.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Receipt is returned to the submitter on success.
type Receipt struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// ListFilter narrows the admin listing. A nil IsRead matches every record.
type ListFilter struct {
	IsRead *bool
}

// Matches reports whether s passes the filter.
func (f ListFilter) Matches(s *Submission) bool {
	return f.IsRead == nil || s.IsRead == *f.IsRead
}

// Page is one page of the admin listing.
type Page struct {
	Items    []Listing `json:"items"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
	Pages    int       `json:"pages"`
}
