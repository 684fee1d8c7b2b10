package model

import "time"

// AppointmentLock is an advisory lock serializing validate-then-write for one
// provider. Owner identifies the holder so only it can release the lock.
type AppointmentLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
