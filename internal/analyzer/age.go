package analyzer

import "time"

const hoursPerDay = 24

// CheckAge flags an object strictly older than thresholdDays. An object
// modified exactly thresholdDays ago is not old yet. Returns nil when the
// object is within the threshold or has no modification time.
func CheckAge(now time.Time, lastModified *time.Time, thresholdDays int) *AgeFlag {
	if lastModified == nil || thresholdDays <= 0 {
		return nil
	}

	ageDays := int(now.Sub(*lastModified).Hours() / hoursPerDay)
	if ageDays <= thresholdDays {
		return nil
	}
	return &AgeFlag{
		AgeDays:       ageDays,
		ThresholdDays: thresholdDays,
	}
}
