package email

// Email abstracts the outgoing mail providers.
type Email interface {
	Send(subject, text, html string, recipients []string) error
	SendWithAttachment(subject, text, html string, recipients []string, filename string, attachment []byte) error
}
