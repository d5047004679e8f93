package services

import (
	"context"
	"errors"

	"github.com/diewo77/invoice-api/internal/domain"
	"github.com/diewo77/invoice-api/internal/models"
	"github.com/diewo77/invoice-api/internal/policy"
	"github.com/diewo77/invoice-api/internal/store"
	"github.com/diewo77/invoice-api/validation"
)

// ClientInput carries the editable fields of a client.
type ClientInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

func (in ClientInput) details() models.CustomerDetails {
	return models.CustomerDetails(in)
}

var (
	errClientNotFound  = domain.E(domain.ErrNotFound, "Client not found")
	errClientDuplicate = domain.E(domain.ErrAlreadyExists, "Client with this name already exists")
)

type ClientService struct {
	store store.Store
}

func NewClientService(st store.Store) *ClientService {
	return &ClientService{store: st}
}

func (s *ClientService) List(ctx context.Context, ownerID string) ([]models.Client, error) {
	clients, err := s.store.ListClients(ctx, ownerID)
	if clients == nil {
		clients = []models.Client{}
	}
	return clients, err
}

func validateClient(in ClientInput) error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Email("email", in.Email, v)
	return domain.Validate(v)
}

func (s *ClientService) Create(ctx context.Context, ownerID string, in ClientInput) (*models.Client, error) {
	if err := validateClient(in); err != nil {
		return nil, err
	}
	c := &models.Client{UserID: ownerID}
	c.SetContact(in.details())
	if err := s.store.CreateClient(ctx, c); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, errClientDuplicate
		}
		return nil, err
	}
	return c, nil
}

// Update overwrites every field of a client the caller owns.
func (s *ClientService) Update(ctx context.Context, ownerID, id string, in ClientInput) (*models.Client, error) {
	c, err := s.store.GetClient(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if !policy.Owns(ownerID, c) {
		return nil, errClientNotFound
	}
	if err := validateClient(in); err != nil {
		return nil, err
	}
	c.SetContact(in.details())
	if err := s.store.UpdateClient(ctx, c); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, errClientDuplicate
		}
		return nil, err
	}
	return c, nil
}

// upsertByName finds the owner's client named d.Name, creating it when absent
// and otherwise overwriting its contact fields. Last write wins.
func upsertByName(ctx context.Context, st store.Store, ownerID string, d models.CustomerDetails) (*models.Client, error) {
	c := &models.Client{UserID: ownerID}
	c.SetContact(d)
	existing, err := st.GetClientByName(ctx, ownerID, c.Name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if err := st.CreateClient(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	case err != nil:
		return nil, err
	}
	existing.SetContact(d)
	if err := st.UpdateClient(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}
