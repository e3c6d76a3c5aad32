package entity

import "time"

// HandlerLogEvent é uma linha de log do handler lida do CloudWatch Logs.
type HandlerLogEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Stream    string    `json:"stream"`
	Message   string    `json:"message"`
}
