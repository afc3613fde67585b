package store_test

import (
	"context"
	"errors"

	"github.com/stretchr/testify/suite"

	"campusid/internal/profile"
	"campusid/pkg/platform/sentinel"
)

// documentStore is the behaviour every backend must share.
type documentStore interface {
	ReadDocument(ctx context.Context, path, key string) (*profile.Document, error)
	WriteDocument(ctx context.Context, path, key string, fields profile.Fields) error
	QueryEqual(ctx context.Context, path, field, value string, limit int) ([]profile.Document, error)
	ListDocuments(ctx context.Context, path string) ([]profile.Document, error)
}

// ContractSuite runs the same assertions against each backend. Embedders set
// newStore and reset.
type ContractSuite struct {
	suite.Suite
	newStore func() documentStore
	reset    func()
	store    documentStore
	ctx      context.Context
}

func (s *ContractSuite) SetupTest() {
	if s.reset != nil {
		s.reset()
	}
	s.store = s.newStore()
	s.ctx = context.Background()
}

func (s *ContractSuite) TestPointReadAndWrite() {
	s.Run("missing document is ErrNotFound", func() {
		_, err := s.store.ReadDocument(s.ctx, profile.AdminsCollection, "nobody@example.com")
		s.True(errors.Is(err, sentinel.ErrNotFound), "got %v", err)
	})

	s.Run("written document reads back", func() {
		fields := profile.Fields{"uid": "u1", "email": "a@example.com", "fullName": "Ada"}
		s.Require().NoError(s.store.WriteDocument(s.ctx, profile.AdminsCollection, "a@example.com", fields))

		doc, err := s.store.ReadDocument(s.ctx, profile.AdminsCollection, "a@example.com")
		s.Require().NoError(err)
		s.Equal(profile.AdminsCollection, doc.Path)
		s.Equal("a@example.com", doc.Key)
		s.Equal(fields, doc.Fields)
	})

	s.Run("rewrite replaces fields", func() {
		s.Require().NoError(s.store.WriteDocument(s.ctx, "Things", "k", profile.Fields{"a": "1", "b": "2"}))
		s.Require().NoError(s.store.WriteDocument(s.ctx, "Things", "k", profile.Fields{"a": "3"}))

		doc, err := s.store.ReadDocument(s.ctx, "Things", "k")
		s.Require().NoError(err)
		s.Equal(profile.Fields{"a": "3"}, doc.Fields)
	})
}

func (s *ContractSuite) TestQueryEqual() {
	mca := profile.CourseCollection("MCA")
	mba := profile.CourseCollection("MBA")
	s.Require().NoError(s.store.WriteDocument(s.ctx, mca, "u2", profile.Fields{"rollNumber": "R1"}))
	s.Require().NoError(s.store.WriteDocument(s.ctx, mca, "u1", profile.Fields{"rollNumber": "R1"}))
	s.Require().NoError(s.store.WriteDocument(s.ctx, mca, "u3", profile.Fields{"rollNumber": "R2"}))
	s.Require().NoError(s.store.WriteDocument(s.ctx, mba, "u4", profile.Fields{"rollNumber": "R1"}))

	s.Run("scoped to one collection and ordered by key", func() {
		docs, err := s.store.QueryEqual(s.ctx, mca, "rollNumber", "R1", 0)
		s.Require().NoError(err)
		s.Require().Len(docs, 2)
		s.Equal("u1", docs[0].Key)
		s.Equal("u2", docs[1].Key)
	})

	s.Run("limit caps results", func() {
		docs, err := s.store.QueryEqual(s.ctx, mca, "rollNumber", "R1", 1)
		s.Require().NoError(err)
		s.Len(docs, 1)
	})

	s.Run("no match is empty", func() {
		docs, err := s.store.QueryEqual(s.ctx, mca, "rollNumber", "R9", 1)
		s.Require().NoError(err)
		s.Empty(docs)
	})

	s.Run("index follows rewrites", func() {
		s.Require().NoError(s.store.WriteDocument(s.ctx, mca, "u3", profile.Fields{"rollNumber": "R7"}))
		docs, err := s.store.QueryEqual(s.ctx, mca, "rollNumber", "R2", 0)
		s.Require().NoError(err)
		s.Empty(docs)
	})
}

func (s *ContractSuite) TestSeparatorsInNamesDoNotCollide() {
	s.Require().NoError(s.store.WriteDocument(s.ctx, "C", "k1", profile.Fields{"f": "x:y"}))
	s.Require().NoError(s.store.WriteDocument(s.ctx, "C", "k2", profile.Fields{"f:x": "y"}))
	s.Require().NoError(s.store.WriteDocument(s.ctx, "C:k1", "k3", profile.Fields{"f": "z"}))

	docs, err := s.store.QueryEqual(s.ctx, "C", "f", "x:y", 0)
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal("k1", docs[0].Key)

	doc, err := s.store.ReadDocument(s.ctx, "C", "k1")
	s.Require().NoError(err)
	s.Equal(profile.Fields{"f": "x:y"}, doc.Fields)

	listed, err := s.store.ListDocuments(s.ctx, "C")
	s.Require().NoError(err)
	s.Len(listed, 2)
}

func (s *ContractSuite) TestListDocuments() {
	path := profile.CourseCollection("MSc")
	s.Require().NoError(s.store.WriteDocument(s.ctx, path, "b", profile.Fields{"uid": "b"}))
	s.Require().NoError(s.store.WriteDocument(s.ctx, path, "a", profile.Fields{"uid": "a"}))

	docs, err := s.store.ListDocuments(s.ctx, path)
	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	s.Equal("a", docs[0].Key)
	s.Equal("b", docs[1].Key)

	empty, err := s.store.ListDocuments(s.ctx, profile.CourseCollection("MA"))
	s.Require().NoError(err)
	s.Empty(empty)
}
