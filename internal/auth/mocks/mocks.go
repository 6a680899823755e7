// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/holomush/authgate/internal/auth"
)

// T is the subset of testing.TB the constructors need.
type T interface {
	mock.TestingT
	Cleanup(func())
}

// MockPrincipalRepository mocks auth.PrincipalRepository.
type MockPrincipalRepository struct {
	mock.Mock
}

// NewMockPrincipalRepository creates a mock that asserts its expectations
// when the test ends.
func NewMockPrincipalRepository(t T) *MockPrincipalRepository {
	m := &MockPrincipalRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create implements auth.PrincipalRepository.
func (m *MockPrincipalRepository) Create(ctx context.Context, p *auth.Principal) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// FindBy implements auth.PrincipalRepository.
func (m *MockPrincipalRepository) FindBy(ctx context.Context, filter auth.PrincipalFilter) (*auth.Principal, error) {
	args := m.Called(ctx, filter)
	p, _ := args.Get(0).(*auth.Principal)
	return p, args.Error(1)
}

// Update implements auth.PrincipalRepository.
func (m *MockPrincipalRepository) Update(ctx context.Context, id ulid.ULID, changes ...auth.Change) error {
	args := m.Called(ctx, id, changes)
	return args.Error(0)
}

// MockSessionRepository mocks auth.SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

// NewMockSessionRepository creates a mock that asserts its expectations
// when the test ends.
func NewMockSessionRepository(t T) *MockSessionRepository {
	m := &MockSessionRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create implements auth.SessionRepository.
func (m *MockSessionRepository) Create(ctx context.Context, row *auth.SessionRow) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

// FindByTokenHash implements auth.SessionRepository.
func (m *MockSessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) ([]*auth.SessionRow, error) {
	args := m.Called(ctx, tokenHash)
	rows, _ := args.Get(0).([]*auth.SessionRow)
	return rows, args.Error(1)
}

// DeleteByTokenHash implements auth.SessionRepository.
func (m *MockSessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) (int64, error) {
	args := m.Called(ctx, tokenHash)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

// MockPasswordHasher mocks auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a mock that asserts its expectations when
// the test ends.
func NewMockPasswordHasher(t T) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash implements auth.PasswordHasher.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

// Verify implements auth.PasswordHasher.
func (m *MockPasswordHasher) Verify(password, encodedHash string) bool {
	args := m.Called(password, encodedHash)
	return args.Bool(0)
}

// NeedsUpgrade implements auth.PasswordHasher.
func (m *MockPasswordHasher) NeedsUpgrade(encodedHash string) bool {
	args := m.Called(encodedHash)
	return args.Bool(0)
}

var (
	_ auth.PrincipalRepository = (*MockPrincipalRepository)(nil)
	_ auth.SessionRepository   = (*MockSessionRepository)(nil)
	_ auth.PasswordHasher      = (*MockPasswordHasher)(nil)
)
