package models

import "time"

type Appointment struct {
	ID     int64     `json:"id"`
	UserID int64     `json:"user_id"`
	DueAt  time.Time `json:"due_at"`
	Note   string    `json:"note"`
}

type User struct {
	ID       int64  `json:"id"`
	FCMToken string `json:"fcm_token"`
}
