package user

import (
	"context"

	userrepo "cryptomart/internal/repository/user"
)

// Service answers questions about registered users.
type Service struct {
	repo userrepo.Repository
}

func New(repo userrepo.Repository) *Service {
	return &Service{repo: repo}
}

// Count returns the number of registered users, admins included.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
