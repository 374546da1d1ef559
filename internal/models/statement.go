package models

// StatementInfo holds one parsed statement.
type StatementInfo struct {
	Source       string        `json:"source"`
	Issuer       Issuer        `json:"issuer"`
	Reference    string        `json:"reference,omitempty"` // statement month, when known
	Card         string        `json:"card,omitempty"`
	PageCount    int           `json:"pageCount,omitempty"`
	Transactions []Transaction `json:"transactions"`
}
