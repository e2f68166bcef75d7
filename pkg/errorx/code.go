package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	NotImplemented   Code = 100009

	// Raffle codes
	InvalidState        Code = 500001
	Unauthorized        Code = 500002
	InvalidParameter    Code = 500003
	PriceMismatch       Code = 500004
	CapExceeded         Code = 500005
	AssetAlreadyUsed    Code = 500006
	EmptyLedger         Code = 500007
	UnknownRequest      Code = 500008
	TransferFailed      Code = 500009
	AlreadyClaimed      Code = 500010
	WindowExpired       Code = 500011
	WindowNotYetExpired Code = 500012
	InsufficientFunds   Code = 500013
)
