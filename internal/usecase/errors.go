package usecase

import (
	"errors"

	"github.com/loom-sh/loom/internal/domain"
)

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
