package models

import "time"

// EmailMessage is a fully fetched mailbox message with its decoded body
type EmailMessage struct {
	Id      string    `json:"id"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Date    time.Time `json:"date"`
	Body    string    `json:"body"`
	Snippet string    `json:"snippet"`
}
