package models

import "time"

// TradeEvent is published to Kafka after a trade is recorded
type TradeEvent struct {
	EventType string    `json:"event_type"`
	Symbol    string    `json:"symbol"`
	Trade     *Trade    `json:"trade,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TradeSubmission is the payload of a TRADE_SUBMITTED event from a broker
// feed. Quantity and price arrive as strings and are parsed on ingestion.
type TradeSubmission struct {
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
}

// TradeSubmittedEvent is the envelope consumed from the broker feed topic.
type TradeSubmittedEvent struct {
	EventType string          `json:"event_type"`
	Source    string          `json:"source"`
	Data      TradeSubmission `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}
