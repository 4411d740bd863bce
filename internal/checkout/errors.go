package checkout

import "errors"

var ErrEmptyCart = errors.New("cart is empty")
var ErrSubmissionInFlight = errors.New("an order submission is already in progress")
var ErrSubmissionRejected = errors.New("order submission rejected")
