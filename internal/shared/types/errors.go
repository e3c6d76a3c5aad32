package types

import "errors"

var (
	ErrMissingBucketName         = errors.New("BucketName has not been provided")
	ErrMissingNotificationConfig = errors.New("NotificationConfiguration has not been provided")
	ErrMalformedRecord           = errors.New("malformed finding record")
	ErrMissingResources          = errors.New("no resourcesAffected found in finding")
	ErrLifecycleConflict         = errors.New("lifecycle rule was overwritten by a concurrent update")
	ErrTagLimit                  = errors.New("object already has the maximum number of tags")
	ErrTargetGone                = errors.New("target object or bucket no longer exists")
)
