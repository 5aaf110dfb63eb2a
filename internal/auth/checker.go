package auth

//go:generate mockgen -source=$GOFILE -destination=../middleware/mocks_test.go -package=middleware_test

import "context"

var _ Checker = (*LoginChecker)(nil)

// Checker resolves a session token to the id of the logged user.
type Checker interface {
	UserID(ctx context.Context, token string) (int, error)
	Forget(token string)
}
