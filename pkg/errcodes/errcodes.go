package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"
	InvalidPaging       failure.ErrorCode = "InvalidPaging"

	// Deal lifecycle.
	DealNotFound    failure.ErrorCode = "DealNotFound"    // id never existed
	DealUnavailable failure.ErrorCode = "DealUnavailable" // already claimed or terminal
	NotOwner        failure.ErrorCode = "NotOwner"        // requester is not the reserving user
	AlreadyTerminal failure.ErrorCode = "AlreadyTerminal"
	InvalidAddress  failure.ErrorCode = "InvalidAddress" // TON address format rejected
	PaymentPending  failure.ErrorCode = "PaymentPending" // retryable, not a failure

	// External dependencies.
	GatewayUnavailable  failure.ErrorCode = "GatewayUnavailable"
	LedgerUnavailable   failure.ErrorCode = "LedgerUnavailable"
	PayoutFailed        failure.ErrorCode = "PayoutFailed" // settled but outbound transfer failed
	WalletUninitialized failure.ErrorCode = "WalletUninitialized"

	// Users and listings.
	UserNotFound        failure.ErrorCode = "UserNotFound"
	InvalidListing      failure.ErrorCode = "InvalidListing"
	ListingAlreadySeen  failure.ErrorCode = "ListingAlreadySeen"
	RatingNotFound      failure.ErrorCode = "RatingNotFound"
	InvalidReviewRating failure.ErrorCode = "InvalidReviewRating"
)
