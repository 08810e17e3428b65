package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateAccount   = errors.New("account already exists with this email")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidTerm        = errors.New("search term is empty")
	ErrInvalidPlan        = errors.New("plan is not an upgrade target")
	ErrQuotaExceeded      = errors.New("search quota exceeded")
	ErrConflict           = errors.New("record already exists")
)

// QuotaExceededError is returned when a free account has used its monthly searches
type QuotaExceededError struct {
	Limit   int
	Used    int
	ResetAt time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("search quota exceeded: %d of %d used, resets %s", e.Used, e.Limit, e.ResetAt.Format(time.RFC3339))
}

// Is lets errors.Is(err, ErrQuotaExceeded) match
func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
