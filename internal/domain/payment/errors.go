package payment

import "errors"

var (
	ErrOrderNotFound   = errors.New("payment order not found")
	ErrOrderNotPayable = errors.New("payment order cannot be marked paid")
	ErrOrderNotPaid    = errors.New("payment order is not paid")
)
