package validators

import "errors"

var ErrPurgeDaysInvalid = errors.New("purgeAfterDays must be a positive number")

func PurgeDaysValidator(days int) error {
	if days <= 0 {
		return ErrPurgeDaysInvalid
	}

	return nil
}
