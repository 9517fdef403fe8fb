// Package models holds the document types the service ships with. Each type
// carries its document key and knows how to copy itself with a new one.
package models

import "time"

// Invoice is a single-key document. Its key doubles as the partition value
// under the default /id partition key path.
type Invoice struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

func (i Invoice) DocumentKey() string { return i.ID }

func (i Invoice) WithDocumentKey(key string) Invoice {
	i.ID = key
	return i
}

// LedgerEntry is a dual-key document addressed by region and entry number.
type LedgerEntry struct {
	Region string  `json:"region"`
	Number int     `json:"number"`
	Amount float64 `json:"amount"`
	Memo   string  `json:"memo,omitempty"`
}

func (e LedgerEntry) DocumentKeys() (string, int) { return e.Region, e.Number }
