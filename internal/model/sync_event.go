package model

import (
	"strconv"
	"time"
)

// SyncEvent is published after every load the sync manager actually ran.
type SyncEvent struct {
	ID       int64     `json:"id"`
	Session  string    `json:"session"`
	Outcome  string    `json:"outcome"`
	Page     int       `json:"page"`
	Query    string    `json:"query"`
	Received int       `json:"received"`
	Dropped  int       `json:"dropped"`
	Written  int       `json:"written"`
	Total    int       `json:"total"`
	Items    int       `json:"items"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// MessageID lets brokers deduplicate redelivered events.
func (e SyncEvent) MessageID() string {
	return strconv.FormatInt(e.ID, 10)
}
