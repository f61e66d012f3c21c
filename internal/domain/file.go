package domain

// StagedFile is an uploaded file held in memory between request parsing
// and the blob-store write. Size is tracked separately from len(Data) so
// oversize uploads can be rejected without buffering the whole body.
type StagedFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// Dashboard aggregates are computed by linear scan in the app layer; the
// console renders them directly.

// AmbassadorDashboard is the signed-in ambassador's home view.
type AmbassadorDashboard struct {
	Staff            *Staff        `json:"staff"`
	Receipts         []Receipt     `json:"receipts"`
	Transactions     []Transaction `json:"transactions"`
	TotalDeposits    int64         `json:"total_deposits"`
	PendingReceipts  int           `json:"pending_receipts"`
	ApprovedReceipts int           `json:"approved_receipts"`
	DepositEnabled   bool          `json:"deposit_enabled"`
}

// AdminDashboard is the reviewer's overview of the whole program.
type AdminDashboard struct {
	TotalAmbassadors  int   `json:"total_ambassadors"`
	PendingReceipts   int   `json:"pending_receipts"`
	TotalTransactions int   `json:"total_transactions"`
	TotalDeposits     int64 `json:"total_deposits"`
}
