package bkper

import (
	"context"
	"net/url"

	"github.com/kbukum/bkper/errors"
)

// GetBook returns the book with the given id.
func (c *Client) GetBook(ctx context.Context, id string) (*Book, error) {
	if id == "" {
		return nil, errors.MissingField("book_id")
	}
	return NewRequest[*Book](c, "books/"+url.PathEscape(id)).Fetch(ctx)
}

// ListBooks returns the books the caller can access.
func (c *Client) ListBooks(ctx context.Context) ([]Book, error) {
	list, err := NewRequest[BookList](c, "books").Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}
