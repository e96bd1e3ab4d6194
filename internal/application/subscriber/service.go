package subscriber

import (
	"context"
	"fmt"

	"github.com/bignstrong/RailGuard/internal/domain/subscriber"
	"go.uber.org/zap"
)

// SubscribeRequest is the newsletter sign-up payload
type SubscribeRequest struct {
	Email string `json:"email"`
}

// Service signs visitors up for the newsletter
type Service struct {
	repo   subscriber.Repository
	logger *zap.Logger
}

// NewService creates a new subscriber Service
func NewService(repo subscriber.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Subscribe stores email; signing up twice is not an error
func (s *Service) Subscribe(ctx context.Context, req SubscribeRequest) error {
	sub, err := subscriber.NewSubscriber(req.Email)
	if err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscriber: %w", err)
	}
	s.logger.Info("newsletter subscription", zap.String("subscriber_id", sub.ID.String()))
	return nil
}
