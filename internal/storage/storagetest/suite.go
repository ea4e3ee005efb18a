// Package storagetest holds behaviour every storage backend must share.
package storagetest

import (
	"context"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictactoe-go/internal/storage"
)

// Suite runs the storage contract against a fresh backend per test.
// Backend test files embed it and set NewStorage in SetupTest.
type Suite struct {
	suite.Suite
	Storage storage.Storage
	Ctx     context.Context
}

func (s *Suite) TestGetMissingKey() {
	_, err := s.Storage.Get(s.Ctx, storage.KeyAccessToken)
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *Suite) TestSetAllThenGet() {
	err := s.Storage.SetAll(s.Ctx, map[string]string{
		storage.KeyAccessToken: "t1",
		storage.KeyUsername:    "alice",
	})
	s.Require().NoError(err)

	token, err := s.Storage.Get(s.Ctx, storage.KeyAccessToken)
	s.Require().NoError(err)
	s.Equal("t1", token)

	username, err := s.Storage.Get(s.Ctx, storage.KeyUsername)
	s.Require().NoError(err)
	s.Equal("alice", username)
}

func (s *Suite) TestSetAllOverwrites() {
	s.Require().NoError(s.Storage.SetAll(s.Ctx, map[string]string{storage.KeyUsername: "alice"}))
	s.Require().NoError(s.Storage.SetAll(s.Ctx, map[string]string{storage.KeyUsername: "bob"}))

	username, err := s.Storage.Get(s.Ctx, storage.KeyUsername)
	s.Require().NoError(err)
	s.Equal("bob", username)
}

func (s *Suite) TestSetAllKeepsOtherKeys() {
	s.Require().NoError(s.Storage.SetAll(s.Ctx, map[string]string{storage.KeyUsername: "alice"}))
	s.Require().NoError(s.Storage.SetAll(s.Ctx, map[string]string{storage.KeyAccessToken: "t1"}))

	username, err := s.Storage.Get(s.Ctx, storage.KeyUsername)
	s.Require().NoError(err)
	s.Equal("alice", username)
}

func (s *Suite) TestDeleteAll() {
	s.Require().NoError(s.Storage.SetAll(s.Ctx, map[string]string{
		storage.KeyAccessToken: "t1",
		storage.KeyUsername:    "alice",
	}))

	err := s.Storage.DeleteAll(s.Ctx, storage.KeyAccessToken, storage.KeyUsername)
	s.Require().NoError(err)

	_, err = s.Storage.Get(s.Ctx, storage.KeyAccessToken)
	s.ErrorIs(err, storage.ErrNotFound)
	_, err = s.Storage.Get(s.Ctx, storage.KeyUsername)
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *Suite) TestDeleteAllMissingKeysIsNoop() {
	err := s.Storage.DeleteAll(s.Ctx, storage.KeyAccessToken, storage.KeyUsername)
	s.NoError(err)
}
