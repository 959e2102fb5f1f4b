package bkpertest

// Book is the wire shape of a book.
type Book struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	OwnerName      string `json:"ownerName,omitempty"`
	Permission     string `json:"permission,omitempty"`
	FractionDigits int    `json:"fractionDigits,omitempty"`
	TimeZone       string `json:"timeZone,omitempty"`
}

// User is the wire shape of the authenticated user.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
}

// Account is the wire shape of a transaction's account reference.
type Account struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Transaction is the wire shape of a transaction.
type Transaction struct {
	ID            string   `json:"id,omitempty"`
	Date          string   `json:"date,omitempty"`
	Amount        string   `json:"amount,omitempty"`
	Description   string   `json:"description,omitempty"`
	CreditAccount *Account `json:"creditAccount,omitempty"`
	DebitAccount  *Account `json:"debitAccount,omitempty"`
	Posted        bool     `json:"posted,omitempty"`
}

// DefaultUser is served by GET user unless WithUser overrides it.
var DefaultUser = User{ID: "u1", Email: "user@example.com", FullName: "Test User"}
