package domain

import "time"

// Sample is one pool size reading. Value is never negative.
type Sample struct {
	Label string    `json:"label"`
	Value int       `json:"value"`
	At    time.Time `json:"at"`
}
