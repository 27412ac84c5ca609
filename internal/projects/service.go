package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/sitestock/internal/repository"
	"github.com/angelmondragon/sitestock/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sitestock/pkg/errors"
)

type projectRepository interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	CreateProject(ctx context.Context, name string) (int64, error)
	RenameProject(ctx context.Context, id int64, name string) error
	DeleteProject(ctx context.Context, id int64) error
}

// Service exposes project management.
type Service interface {
	List(ctx context.Context) ([]models.Project, error)
	Get(ctx context.Context, id int64) (*models.Project, error)
	Create(ctx context.Context, name string) (*models.Project, error)
	Rename(ctx context.Context, id int64, name string) (*models.Project, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo projectRepository
}

// NewService builds a project service on the provided repository.
func NewService(repo projectRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("project repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.Project, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, repository.AsServiceError(err, "list projects")
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return projects, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Project, error) {
	project, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, repository.AsServiceError(err, fmt.Sprintf("project %d not found", id))
	}
	return project, nil
}

func (s *service) Create(ctx context.Context, name string) (*models.Project, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.CreateProject(ctx, name)
	if err != nil {
		return nil, repository.AsServiceError(err, fmt.Sprintf("project %q already exists", name))
	}
	return s.Get(ctx, id)
}

func (s *service) Rename(ctx context.Context, id int64, name string) (*models.Project, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RenameProject(ctx, id, name); err != nil {
		msg := fmt.Sprintf("project %q already exists", name)
		if errors.Is(err, repository.ErrNotFound) {
			msg = fmt.Sprintf("project %d not found", id)
		}
		return nil, repository.AsServiceError(err, msg)
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return repository.AsServiceError(err, fmt.Sprintf("project %d not found", id))
	}
	return nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "project name is required")
	}
	return name, nil
}
