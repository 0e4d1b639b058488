package model

import "time"

// Button is one quick-reply option inside a bot reply fragment, per the Rasa
// REST channel contract.
type Button struct {
	Title   string `bson:"title" json:"title"`
	Payload string `bson:"payload" json:"payload"`
}

// BotReply is one unit of bot output within a single engine response. Only
// the three known fields are carried; anything else the engine returns is
// dropped by the typed decode.
type BotReply struct {
	Text    string   `bson:"text,omitempty" json:"text,omitempty"`
	Image   string   `bson:"image,omitempty" json:"image,omitempty"`
	Buttons []Button `bson:"buttons,omitempty" json:"buttons,omitempty"`
}

// Metadata captures request provenance stored alongside the exchange.
type Metadata struct {
	IP        string `bson:"ip"`
	UserAgent string `bson:"userAgent"`
}

// ConversationRecord is the persisted, append-only log entry of one chat
// exchange. A session may own many records; they are never updated or
// deleted by this service.
type ConversationRecord struct {
	SessionID    string     `bson:"sessionId"`
	UserMessage  string     `bson:"userMessage"`
	BotResponses []BotReply `bson:"botResponses"`
	Timestamp    time.Time  `bson:"timestamp"`
	Metadata     Metadata   `bson:"metadata"`
}
