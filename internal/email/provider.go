package email

// Email is one outbound message.
type Email struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Provider sends email. Delivery failures are logged and never block a
// lifecycle operation; mail is best-effort by contract.
type Provider interface {
	Send(email *Email) error
	Validate() error
	Close() error
}
