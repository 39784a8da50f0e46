package models

import "time"

// Transaction is a raw payment transaction as received from the transport
// layer. Immutable once received.
type Transaction struct {
	Amount    float64 `json:"amount"`
	Merchant  string  `json:"merchant"`
	Category  string  `json:"category"`
	Location  string  `json:"location"`
	UserID    string  `json:"userId"`
	DeviceID  string  `json:"deviceId"`
	Timestamp string  `json:"timestamp,omitempty"` // optional ISO-8601
}

// Time parses the transaction timestamp. When the timestamp is absent the
// ingestion time (now) is returned; a malformed timestamp returns an error so
// the feature pipeline can fall back to the default vector.
func (t *Transaction) Time(now time.Time) (time.Time, error) {
	if t.Timestamp == "" {
		return now, nil
	}
	ts, err := time.Parse(time.RFC3339, t.Timestamp)
	if err != nil {
		return time.Time{}, err
	}
	return ts, nil
}
