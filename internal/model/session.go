package model

import "time"

// Session is one fueling run, opened on "started" and closed on "stopped".
type Session struct {
	ID               int64      `gorm:"primaryKey" json:"id"`
	StartedAt        time.Time  `gorm:"not null;index" json:"startedAt"`
	StoppedAt        *time.Time `json:"stoppedAt"`
	TotalLiters      float64    `json:"totalLiters"`
	TotalCost        float64    `json:"totalCost"`
	Balance          float64    `json:"balance"`
	RecipientBalance float64    `json:"recipientBalance"`
	HoldCount        int        `json:"holdCount"`
	PacketCount      int        `json:"packetCount"`
}

// Sample is a periodically persisted copy of the polled totals.
type Sample struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	ObservedAt       time.Time `gorm:"not null;index" json:"observedAt"`
	TotalLiters      float64   `json:"totalLiters"`
	TotalCost        float64   `json:"totalCost"`
	Balance          float64   `json:"balance"`
	RecipientBalance float64   `json:"recipientBalance"`
	RealTimeLiters   float64   `json:"realTimeLiters"`
	FuelingActive    bool      `json:"fuelingActive"`
}
