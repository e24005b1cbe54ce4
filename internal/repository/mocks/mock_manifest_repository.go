package mocks

import (
	"context"

	"millermaps/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockManifestRepository struct {
	mock.Mock
}

func (m *MockManifestRepository) Save(ctx context.Context, rec model.BuildRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockManifestRepository) Load(ctx context.Context) (*model.BuildRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BuildRecord), args.Error(1)
}
