package bkper

import "context"

// GetUser returns the user the credentials belong to.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	return NewRequest[*User](c, "user").Fetch(ctx)
}
