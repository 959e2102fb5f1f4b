package bkper

// Book is a Bkper ledger.
type Book struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	OwnerName      string `json:"ownerName,omitempty"`
	Permission     string `json:"permission,omitempty"`
	FractionDigits int    `json:"fractionDigits,omitempty"`
	DatePattern    string `json:"datePattern,omitempty"`
	TimeZone       string `json:"timeZone,omitempty"`
	LastUpdateMs   string `json:"lastUpdateMs,omitempty"`
}

// BookList is the envelope returned by GET books.
type BookList struct {
	Items []Book `json:"items"`
}

// User is the authenticated user.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email,omitempty"`
	FullName   string `json:"fullName,omitempty"`
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
}

// Account is the reference to an account carried by a transaction.
type Account struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Transaction is a movement between two accounts of a book.
type Transaction struct {
	ID            string   `json:"id,omitempty"`
	Date          string   `json:"date,omitempty"`
	Amount        string   `json:"amount,omitempty"`
	Description   string   `json:"description,omitempty"`
	CreditAccount *Account `json:"creditAccount,omitempty"`
	DebitAccount  *Account `json:"debitAccount,omitempty"`
	Posted        bool     `json:"posted,omitempty"`
	Checked       bool     `json:"checked,omitempty"`
	Trashed       bool     `json:"trashed,omitempty"`
	CreatedAt     string   `json:"createdAt,omitempty"`
}

// TransactionList is one page of transactions. Cursor is empty on the last page.
type TransactionList struct {
	Items  []Transaction `json:"items"`
	Cursor string        `json:"cursor,omitempty"`
}
