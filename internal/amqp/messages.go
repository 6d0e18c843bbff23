package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// YearMonth names one calendar month touched by a change.
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// ChangeMessage announces that a user's ledger changed. It carries ids and
// the affected months only; consumers reload transactions from the store.
type ChangeMessage struct {
	User      string      `json:"user"`
	Op        string      `json:"op"`
	IDs       []string    `json:"ids,omitempty"`
	Version   uint64      `json:"version"`
	Months    []YearMonth `json:"months,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewChangeMessage(user, op string, version uint64, ids []string, months []YearMonth) *ChangeMessage {
	return &ChangeMessage{
		User:      user,
		Op:        op,
		IDs:       ids,
		Version:   version,
		Months:    months,
		Timestamp: time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and sanity-checks a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.User == "" {
		return nil, errors.New("change message without user")
	}
	for _, ym := range msg.Months {
		if ym.Month < time.January || ym.Month > time.December {
			return nil, fmt.Errorf("change message with invalid month %d", ym.Month)
		}
	}
	return &msg, nil
}
