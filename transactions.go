package bkper

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kbukum/bkper/errors"
)

// MaxTransactionPage is the largest page the API serves.
const MaxTransactionPage = 1000

// ListTransactions returns one page of transactions matching query. limit 0
// uses the server default; cursor continues a previous page.
func (c *Client) ListTransactions(ctx context.Context, bookID, query string, limit int, cursor string) (*TransactionList, error) {
	if bookID == "" {
		return nil, errors.MissingField("book_id")
	}
	if limit < 0 || limit > MaxTransactionPage {
		return nil, errors.Validation("limit must be between 0 and " + strconv.Itoa(MaxTransactionPage)).
			WithDetail("limit", limit)
	}

	req := NewRequest[*TransactionList](c, "books/"+url.PathEscape(bookID)+"/transactions")
	if query != "" {
		req.AddParam("query", query)
	}
	if limit > 0 {
		req.AddParam("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		req.AddParam("cursor", cursor)
	}

	list, err := req.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = &TransactionList{}
	}
	return list, nil
}

// CreateTransaction records tx in the book and returns it as stored.
func (c *Client) CreateTransaction(ctx context.Context, bookID string, tx *Transaction) (*Transaction, error) {
	if bookID == "" {
		return nil, errors.MissingField("book_id")
	}
	if tx == nil {
		return nil, errors.MissingField("transaction")
	}
	return NewRequest[*Transaction](c, "books/"+url.PathEscape(bookID)+"/transactions").
		SetMethod(http.MethodPost).
		SetBody(tx).
		Fetch(ctx)
}
