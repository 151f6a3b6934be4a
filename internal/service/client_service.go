package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"invoice-backend/internal/model"
	"invoice-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type ClientRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Note  string `json:"note"`
}

type ClientResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Note  string `json:"note"`
}

type ClientService interface {
	CreateClient(ctx context.Context, ownerID uuid.UUID, req ClientRequest) (ClientResponse, map[string]string, error)
	UpdateClient(ctx context.Context, ownerID uuid.UUID, id string, req ClientRequest) (ClientResponse, map[string]string, error)
	DeleteClient(ctx context.Context, ownerID uuid.UUID, id string) error
	GetClient(ctx context.Context, ownerID uuid.UUID, id string) (ClientResponse, error)
	ListClients(ctx context.Context, ownerID uuid.UUID, search string, page, limit int) ([]ClientResponse, int64, error)
}

type clientService struct {
	clientRepo repository.ClientRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewClientService(clientRepo repository.ClientRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) ClientService {
	return &clientService{clientRepo: clientRepo, auditRepo: auditRepo, txManager: txManager}
}

// validateClient mirrors the invoice form rules for the shared contact fields.
func validateClient(req ClientRequest) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		errs["name"] = "Nama klien wajib diisi"
	}
	if req.Email != "" && !emailRegex.MatchString(req.Email) {
		errs["email"] = "Format email tidak valid"
	}
	if req.Phone != "" && !phoneRegex.MatchString(req.Phone) {
		errs["phone"] = "Format nomor telepon tidak valid"
	}
	return errs
}

func (s *clientService) CreateClient(ctx context.Context, ownerID uuid.UUID, req ClientRequest) (ClientResponse, map[string]string, error) {
	if fields := validateClient(req); len(fields) > 0 {
		return ClientResponse{}, fields, nil
	}

	name := strings.TrimSpace(req.Name)
	if _, err := s.clientRepo.FindByName(ctx, ownerID, name); err == nil {
		return ClientResponse{}, map[string]string{"name": "Nama klien sudah terdaftar"}, nil
	}

	client := &model.Client{
		UserID: ownerID,
		Name:   name,
		Email:  req.Email,
		Phone:  req.Phone,
		Note:   req.Note,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.clientRepo.Create(txCtx, client); createErr != nil {
			return fmt.Errorf("failed to create client: %w", createErr)
		}
		return s.recordAudit(txCtx, ownerID, model.ActionCreateClient, client)
	})
	if err != nil {
		return ClientResponse{}, nil, err
	}

	return toClientResponse(*client), nil, nil
}

func (s *clientService) UpdateClient(ctx context.Context, ownerID uuid.UUID, id string, req ClientRequest) (ClientResponse, map[string]string, error) {
	clientID, err := uuid.Parse(id)
	if err != nil {
		return ClientResponse{}, nil, fmt.Errorf("invalid client id: %w", err)
	}

	if fields := validateClient(req); len(fields) > 0 {
		return ClientResponse{}, fields, nil
	}

	var client *model.Client
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		client, findErr = s.clientRepo.FindByID(txCtx, ownerID, clientID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("client %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to load client: %w", findErr)
		}

		name := strings.TrimSpace(req.Name)
		if name != client.Name {
			if _, dupErr := s.clientRepo.FindByName(txCtx, ownerID, name); dupErr == nil {
				return errors.New("client name already exists")
			}
		}

		client.Name = name
		client.Email = req.Email
		client.Phone = req.Phone
		client.Note = req.Note

		if saveErr := s.clientRepo.Update(txCtx, client); saveErr != nil {
			return fmt.Errorf("failed to update client: %w", saveErr)
		}
		return s.recordAudit(txCtx, ownerID, model.ActionUpdateClient, client)
	})
	if err != nil {
		return ClientResponse{}, nil, err
	}

	return toClientResponse(*client), nil, nil
}

func (s *clientService) DeleteClient(ctx context.Context, ownerID uuid.UUID, id string) error {
	clientID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid client id: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		client, findErr := s.clientRepo.FindByID(txCtx, ownerID, clientID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("client %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to load client: %w", findErr)
		}

		if delErr := s.clientRepo.Delete(txCtx, ownerID, clientID); delErr != nil {
			if errors.Is(delErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("client %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to delete client: %w", delErr)
		}
		return s.recordAudit(txCtx, ownerID, model.ActionDeleteClient, client)
	})
}

func (s *clientService) GetClient(ctx context.Context, ownerID uuid.UUID, id string) (ClientResponse, error) {
	clientID, err := uuid.Parse(id)
	if err != nil {
		return ClientResponse{}, fmt.Errorf("invalid client id: %w", err)
	}

	client, err := s.clientRepo.FindByID(ctx, ownerID, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ClientResponse{}, fmt.Errorf("client %s: %w", id, ErrNotFound)
		}
		return ClientResponse{}, fmt.Errorf("failed to load client: %w", err)
	}
	return toClientResponse(*client), nil
}

func (s *clientService) ListClients(ctx context.Context, ownerID uuid.UUID, search string, page, limit int) ([]ClientResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	clients, total, err := s.clientRepo.List(ctx, ownerID, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch clients: %w", err)
	}

	return lo.Map(clients, func(cl model.Client, _ int) ClientResponse {
		return toClientResponse(cl)
	}), total, nil
}

func (s *clientService) recordAudit(ctx context.Context, ownerID uuid.UUID, action string, client *model.Client) error {
	details, _ := json.Marshal(map[string]interface{}{
		"name":  client.Name,
		"email": client.Email,
	})

	entry := &model.AuditLog{
		UserID:     &ownerID,
		Action:     action,
		EntityID:   client.ID.String(),
		EntityName: client.Name,
		Details:    string(details),
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to record audit log: %w", err)
	}
	return nil
}

func toClientResponse(cl model.Client) ClientResponse {
	return ClientResponse{
		ID:    cl.ID.String(),
		Name:  cl.Name,
		Email: cl.Email,
		Phone: cl.Phone,
		Note:  cl.Note,
	}
}
