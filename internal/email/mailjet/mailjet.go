package mailjet

import (
	"encoding/base64"

	mj "github.com/mailjet/mailjet-apiv3-go"
)

type Mailjet struct {
	Client *mj.Client
	Email  string
	Name   string
}

func New(key, secret, from, name string) *Mailjet {
	client := mj.NewMailjetClient(key, secret)
	return &Mailjet{
		Client: client,
		Email:  from,
		Name:   name,
	}
}

func (m *Mailjet) Send(subject, text, html string, sendTo []string) error {
	return m.send(subject, text, html, sendTo, nil)
}

func (m *Mailjet) SendWithAttachment(subject, text, html string, sendTo []string, filename string, attachment []byte) error {
	attachments := []mj.Attachment{{
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Filename:    filename,
		Content:     base64.StdEncoding.EncodeToString(attachment),
	}}
	return m.send(subject, text, html, sendTo, &attachments)
}

func (m *Mailjet) send(subject, text, html string, sendTo []string, attachments *[]mj.Attachment) error {
	recipients := make([]mj.Recipient, 0, len(sendTo))
	for i := range sendTo {
		recipients = append(recipients, mj.Recipient{Email: sendTo[i]})
	}
	email := &mj.InfoSendMail{
		FromEmail:  m.Email,
		FromName:   m.Name,
		Subject:    subject,
		TextPart:   text,
		HTMLPart:   html,
		Recipients: recipients,
	}
	if attachments != nil {
		email.Attachments = *attachments
	}
	_, err := m.Client.SendMail(email)
	return err
}
