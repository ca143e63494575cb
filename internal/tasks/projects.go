package tasks

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"taskcollab/internal/collab"
	"taskcollab/internal/models"
	"taskcollab/internal/store"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ProjectSummary is a project with its task counts.
type ProjectSummary struct {
	models.Project
	TaskCount      int `json:"task_count"`
	CompletedTasks int `json:"completed_tasks"`
}

// Projects returns the owner's projects with task counts, seeding the
// default set on first use.
func (s *Service) Projects(ctx context.Context, owner models.Actor) ([]ProjectSummary, error) {
	if strings.TrimSpace(owner.ID) == "" {
		return nil, collab.InvalidArgument("user id is required")
	}

	s.mu.Lock()
	projects, err := s.store.ListProjects(ctx, owner.ID)
	if err == nil && len(projects) == 0 {
		projects, err = s.seedProjects(ctx, owner.ID)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	visible, err := s.visibleTasks(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summary := ProjectSummary{Project: p}
		for _, t := range visible {
			if t.ProjectID != p.ID {
				continue
			}
			summary.TaskCount++
			if t.Completed {
				summary.CompletedTasks++
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

// CreateProject adds a project for owner.
func (s *Service) CreateProject(ctx context.Context, owner models.Actor, name, color string) (*models.Project, error) {
	if strings.TrimSpace(owner.ID) == "" {
		return nil, collab.InvalidArgument("user id is required")
	}
	name, color, err := validateProject(name, color)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := store.GenerateID(store.PrefixProject)
	if err != nil {
		return nil, err
	}
	project := &models.Project{ID: id, OwnerID: owner.ID, Name: name, Color: color}
	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.logger.Debug("project created", "project_id", project.ID, "owner_id", owner.ID)
	return project, nil
}

// UpdateProject renames or recolours one of owner's projects. Empty values keep the current ones.
func (s *Service) UpdateProject(ctx context.Context, owner models.Actor, id, name, color string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, err := s.ownedProject(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = project.Name
	}
	if strings.TrimSpace(color) == "" {
		color = project.Color
	}
	project.Name, project.Color, err = validateProject(name, color)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

// DeleteProject removes one of owner's projects together with its tasks.
func (s *Service) DeleteProject(ctx context.Context, owner models.Actor, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedProject(ctx, owner, id); err != nil {
		return 0, err
	}
	projectTasks, err := s.store.ListTasks(ctx, store.TaskFilter{ProjectID: id})
	if err != nil {
		return 0, err
	}
	for _, t := range projectTasks {
		if err := s.deleteTask(ctx, owner, t.ID); err != nil {
			return 0, err
		}
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return 0, fmt.Errorf("delete project: %w", err)
	}
	s.logger.Debug("project deleted", "project_id", id, "tasks_removed", len(projectTasks))
	return len(projectTasks), nil
}

func (s *Service) ownedProject(ctx context.Context, owner models.Actor, id string) (*models.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil || project.OwnerID != owner.ID {
		return nil, collab.NotFound("project not found")
	}
	return project, nil
}

func (s *Service) seedProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	defaults := models.DefaultProjects(ownerID)
	for i := range defaults {
		id, err := store.GenerateID(store.PrefixProject)
		if err != nil {
			return nil, err
		}
		defaults[i].ID = id
		if err := s.store.CreateProject(ctx, &defaults[i]); err != nil {
			return nil, fmt.Errorf("seed project %s: %w", defaults[i].Name, err)
		}
	}
	s.logger.Debug("default projects seeded", "owner_id", ownerID)
	return defaults, nil
}

func validateProject(name, color string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", collab.InvalidArgument("project name is required")
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = "#3B82F6"
	}
	if !colorPattern.MatchString(color) {
		return "", "", collab.InvalidArgument("invalid color: %s", color)
	}
	return name, color, nil
}
