package reviews

import "time"

// Review is a user-submitted product review. The analysis core only reads it;
// ingestion owns the record.
type Review struct {
	ID        string    `json:"id"`
	AppName   string    `json:"appName"`
	Platform  string    `json:"platform"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
