package service

import "fmt"

type SubmitError struct {
	SourceARN string
	TaskID    string
	Base      error
}

func (e SubmitError) Error() string {
	return fmt.Sprintf("export collaborator rejected task %s for %s: %v", e.TaskID, e.SourceARN, e.Base)
}

func (e SubmitError) Unwrap() error {
	return e.Base
}

type DescribeError struct {
	SnapshotID string
	Base       error
}

func (e DescribeError) Error() string {
	return fmt.Sprintf("unable to describe snapshot %s: %v", e.SnapshotID, e.Base)
}

func (e DescribeError) Unwrap() error {
	return e.Base
}

type SubscribeError struct {
	Name string
	Base error
}

func (e SubscribeError) Error() string {
	return fmt.Sprintf("unable to ensure event subscription %s: %v", e.Name, e.Base)
}

func (e SubscribeError) Unwrap() error {
	return e.Base
}

type IdentityError struct {
	Base error
}

func (e IdentityError) Error() string {
	return fmt.Sprintf("unable to resolve caller account: %v", e.Base)
}

func (e IdentityError) Unwrap() error {
	return e.Base
}
