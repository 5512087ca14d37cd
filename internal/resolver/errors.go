package resolver

import "errors"

var (
	// ErrInvalidSubjectID indicates the subject id is not 17 decimal digits.
	ErrInvalidSubjectID = errors.New("invalid subject id")
	// ErrSubjectNotFound indicates the upstream has no data for the subject.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrFriendListPrivate indicates the subject's friend list is not public.
	ErrFriendListPrivate = errors.New("friend list is private")
)

// subjectIDLength is the fixed length of a SteamID64 in decimal form.
const subjectIDLength = 17

// ValidateSubjectID checks the id shape before any store or upstream access.
func ValidateSubjectID(id string) error {
	if len(id) != subjectIDLength {
		return ErrInvalidSubjectID
	}

	for i := range subjectIDLength {
		if id[i] < '0' || id[i] > '9' {
			return ErrInvalidSubjectID
		}
	}

	return nil
}
