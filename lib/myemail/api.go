package myemail

import "context"

type Email struct {
	From    Address
	To      Address
	Cc      []Address
	Subject string
	HTML    string
	Text    string
}

type Address struct {
	Name  string
	Email string
}

//go:generate mockgen -source=api.go -package myemail -destination emailer_mock.go Emailer
type Emailer interface {
	// Send returns the message id assigned by the provider
	Send(c context.Context, email Email) (string, error)
}
