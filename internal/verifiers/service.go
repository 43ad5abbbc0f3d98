package verifiers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RegisterRequest carries the data for a new directory entry.
type RegisterRequest struct {
	Address         string       `json:"address"`
	Type            VerifierType `json:"verifier_type"`
	Credentials     []string     `json:"credentials"`
	Specializations []string     `json:"specializations"`
}

// Service manages the verifier directory.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a verifier directory service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Register creates a directory entry with the initial reputation score.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Verifier, error) {
	if req.Address == "" {
		return nil, errors.New("verifier address is required")
	}
	if req.Type == "" {
		return nil, errors.New("verifier type is required")
	}

	credentials, err := json.Marshal(req.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credentials: %w", err)
	}
	specializations, err := json.Marshal(req.Specializations)
	if err != nil {
		return nil, fmt.Errorf("failed to encode specializations: %w", err)
	}

	verifier := &Verifier{
		Address:           req.Address,
		Type:              req.Type,
		Credentials:       credentials,
		ReputationScore:   InitialReputation,
		VerificationCount: 0,
		IsActive:          true,
		RegistrationDate:  time.Now(),
		Specializations:   specializations,
	}

	if err := s.repo.Create(ctx, verifier); err != nil {
		return nil, err
	}

	s.logger.Info("verifier registered",
		zap.String("address", verifier.Address),
		zap.String("type", string(verifier.Type)))

	return verifier, nil
}

// Get returns the directory entry for an address.
func (s *Service) Get(ctx context.Context, address string) (*Verifier, error) {
	return s.repo.Get(ctx, address)
}

// List returns directory entries, optionally only active ones.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]*Verifier, error) {
	return s.repo.List(ctx, activeOnly)
}

// RecordSuccess rewards a verifier for a completed verification.
func (s *Service) RecordSuccess(ctx context.Context, address string) error {
	verifier, err := s.repo.Get(ctx, address)
	if err != nil {
		return err
	}

	verifier.VerificationCount++
	verifier.ReputationScore += ReputationReward

	if err := s.repo.Update(ctx, verifier); err != nil {
		return fmt.Errorf("failed to update verifier stats: %w", err)
	}

	s.logger.Info("verification recorded",
		zap.String("address", address),
		zap.Uint64("count", verifier.VerificationCount),
		zap.Uint64("reputation", verifier.ReputationScore))
	return nil
}
