package order

import "errors"

// ErrEmptyCart is returned by checkout when the cart has no lines.
var ErrEmptyCart = errors.New("order: cart is empty")
