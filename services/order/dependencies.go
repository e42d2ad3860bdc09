package order

import "context"

//go:generate mockgen -source=dependencies.go -package order -destination dependencies_mock.go AttemptCompleter
type AttemptCompleter interface {
	MarkCompleted(c context.Context, sessionUID string) error
}
