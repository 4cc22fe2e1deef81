package model

import "time"

// BookingLock is an advisory lock document serializing writes for one key.
// Owner lets only the holder release it; ExpiresAt feeds a TTL index.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
