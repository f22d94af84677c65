package service

import "fmt"

// ErrorKind classifies why a submission was rejected.
type ErrorKind string

const (
	KindInvalidPhone             ErrorKind = "invalid_phone"
	KindProductNotFound          ErrorKind = "product_not_found"
	KindProductNotPurchasable    ErrorKind = "product_not_purchasable"
	KindOutOfStock               ErrorKind = "out_of_stock"
	KindCustomerResolutionFailed ErrorKind = "customer_resolution_failed"
	KindOrderCreationFailed      ErrorKind = "order_creation_failed"
)

// genericFailureMessage 内部错误只给通用提示，细节仅落日志
const genericFailureMessage = "An error occurred. Please try again or contact us directly."

// userMessages are the caller-facing strings per kind. Validation and
// availability failures get specific copy; resolution and persistence
// failures share the generic one so internals never leak.
var userMessages = map[ErrorKind]string{
	KindInvalidPhone:             "Please enter a valid phone number",
	KindProductNotFound:          "Invalid product",
	KindProductNotPurchasable:    "This product cannot be purchased",
	KindOutOfStock:               "This product is currently out of stock",
	KindCustomerResolutionFailed: genericFailureMessage,
	KindOrderCreationFailed:      genericFailureMessage,
}

// IntakeError is the typed failure returned by Submit. Message is safe to
// show to end users; the wrapped cause is not.
type IntakeError struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func newIntakeError(kind ErrorKind, cause error) *IntakeError {
	return &IntakeError{Kind: kind, Message: userMessages[kind], cause: cause}
}

func (e *IntakeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	}
	return string(e.Kind)
}

func (e *IntakeError) Unwrap() error { return e.cause }
