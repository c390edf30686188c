package services

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrNoUnbilledDays = errors.New("no unbilled days")
	// ErrSentNotRecorded means the email went out but the sent status could not be stored.
	ErrSentNotRecorded = errors.New("invoice sent but status not saved")
)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
