package domain

// Email is a notification payload.
type Email struct {
	From    string
	To      []string
	Subject string
	HTML    string
}
