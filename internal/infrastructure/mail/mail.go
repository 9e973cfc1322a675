// Package mail renders and delivers account notifications.
package mail

import (
	"context"
	"errors"
)

// Message is a single outbound email. Text and HTML may both be set, in
// which case the message is sent as multipart/alternative.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers one message synchronously.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Enqueuer accepts a message for asynchronous delivery.
type Enqueuer interface {
	Enqueue(msg Message) error
}

var ErrNoRecipient = errors.New("mail: message has no recipient")
