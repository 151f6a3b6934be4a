package service

import (
	"context"
	"strings"
	"testing"

	"invoice-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type fakeClientRepo struct {
	clients map[uuid.UUID]*model.Client
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: map[uuid.UUID]*model.Client{}}
}

func (f *fakeClientRepo) Create(_ context.Context, client *model.Client) error {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	cp := *client
	f.clients[client.ID] = &cp
	return nil
}

func (f *fakeClientRepo) FindByID(_ context.Context, ownerID, id uuid.UUID) (*model.Client, error) {
	cl, ok := f.clients[id]
	if !ok || cl.UserID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *cl
	return &cp, nil
}

func (f *fakeClientRepo) FindByName(_ context.Context, ownerID uuid.UUID, name string) (*model.Client, error) {
	for _, cl := range f.clients {
		if cl.UserID == ownerID && cl.Name == name {
			cp := *cl
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeClientRepo) List(_ context.Context, ownerID uuid.UUID, search string, _, _ int) ([]model.Client, int64, error) {
	var out []model.Client
	for _, cl := range f.clients {
		if cl.UserID != ownerID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(cl.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, *cl)
	}
	return out, int64(len(out)), nil
}

func (f *fakeClientRepo) Update(_ context.Context, client *model.Client) error {
	if _, ok := f.clients[client.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *client
	f.clients[client.ID] = &cp
	return nil
}

func (f *fakeClientRepo) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	cl, ok := f.clients[id]
	if !ok || cl.UserID != ownerID {
		return gorm.ErrRecordNotFound
	}
	delete(f.clients, id)
	return nil
}

type ClientServiceTestSuite struct {
	suite.Suite
	repo    *fakeClientRepo
	audit   *fakeAuditRepo
	svc     ClientService
	ownerID uuid.UUID
}

func TestClientService(t *testing.T) {
	suite.Run(t, new(ClientServiceTestSuite))
}

func (s *ClientServiceTestSuite) SetupTest() {
	s.repo = newFakeClientRepo()
	s.audit = &fakeAuditRepo{}
	s.svc = NewClientService(s.repo, s.audit, passthroughTxManager{})
	s.ownerID = uuid.New()
}

func (s *ClientServiceTestSuite) TestCreateTrimsAndAudits() {
	created, fields, err := s.svc.CreateClient(context.Background(), s.ownerID, ClientRequest{
		Name:  "  PT Maju Jaya  ",
		Email: "finance@majujaya.co.id",
		Phone: "081234567890",
	})

	require.NoError(s.T(), err)
	require.Empty(s.T(), fields)
	assert.Equal(s.T(), "PT Maju Jaya", created.Name)
	require.Len(s.T(), s.audit.entries, 1)
	assert.Equal(s.T(), model.ActionCreateClient, s.audit.entries[0].Action)
}

func (s *ClientServiceTestSuite) TestCreateValidation() {
	_, fields, err := s.svc.CreateClient(context.Background(), s.ownerID, ClientRequest{
		Name:  " ",
		Email: "nope@",
		Phone: "12345",
	})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Nama klien wajib diisi", fields["name"])
	assert.Contains(s.T(), fields, "email")
	assert.Contains(s.T(), fields, "phone")
}

func (s *ClientServiceTestSuite) TestDuplicateNameRejected() {
	_, _, err := s.svc.CreateClient(context.Background(), s.ownerID, ClientRequest{Name: "PT Maju Jaya"})
	require.NoError(s.T(), err)

	_, fields, err := s.svc.CreateClient(context.Background(), s.ownerID, ClientRequest{Name: "PT Maju Jaya"})
	require.NoError(s.T(), err)
	assert.Contains(s.T(), fields, "name")

	// A different owner can reuse the name.
	_, fields, err = s.svc.CreateClient(context.Background(), uuid.New(), ClientRequest{Name: "PT Maju Jaya"})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), fields)
}

func (s *ClientServiceTestSuite) TestDeleteMissingIsNotFound() {
	err := s.svc.DeleteClient(context.Background(), s.ownerID, uuid.NewString())
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *ClientServiceTestSuite) TestOwnershipScoping() {
	created, _, err := s.svc.CreateClient(context.Background(), s.ownerID, ClientRequest{Name: "CV Berkah"})
	require.NoError(s.T(), err)

	_, err = s.svc.GetClient(context.Background(), uuid.New(), created.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}
