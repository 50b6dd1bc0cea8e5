// Package view holds the client-side copy of the project list with
// optimistic sub-task toggling.
package view

import (
	"context"
	"errors"
	"sync"

	"github.com/gofrs/uuid"

	"project-planner/backend/internal/gateway"
	"project-planner/backend/internal/models"
)

var (
	ErrUnknownProject = errors.New("project is not on the board")
	ErrUnknownSubTask = errors.New("sub-task is not on the board")
)

type ProjectStore interface {
	GetProjects(ctx context.Context) gateway.Result[[]models.Project]
	UpdateSubTaskStatus(ctx context.Context, id uuid.UUID, completed bool) gateway.Result[models.SubTask]
	DeleteProject(ctx context.Context, id uuid.UUID) gateway.Result[struct{}]
}

type Board struct {
	mu       sync.RWMutex
	store    ProjectStore
	projects []models.Project
}

func NewBoard(store ProjectStore) *Board {
	return &Board{store: store}
}

// Refresh replaces the local list with the store's. On failure the current
// list is kept.
func (b *Board) Refresh(ctx context.Context) error {
	result := b.store.GetProjects(ctx)
	if !result.Success {
		return result.Err()
	}

	b.mu.Lock()
	b.projects = result.Data
	b.mu.Unlock()
	return nil
}

// Projects returns a copy of the local list.
func (b *Board) Projects() []models.Project {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]models.Project, len(b.projects))
	for i, p := range b.projects {
		out[i] = p.Clone()
	}
	return out
}

func (b *Board) Project(id uuid.UUID) (models.Project, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if i := b.indexOf(id); i >= 0 {
		return b.projects[i].Clone(), true
	}
	return models.Project{}, false
}

func (b *Board) indexOf(projectID uuid.UUID) int {
	for i := range b.projects {
		if b.projects[i].ID == projectID {
			return i
		}
	}
	return -1
}

// ToggleSubTask shows the new state immediately and then confirms it with the
// store. If the store rejects the change the project is restored to the
// snapshot taken before the toggle and the envelope's error is returned.
func (b *Board) ToggleSubTask(ctx context.Context, projectID, subTaskID uuid.UUID, completed bool) error {
	b.mu.Lock()
	i := b.indexOf(projectID)
	if i < 0 {
		b.mu.Unlock()
		return ErrUnknownProject
	}
	snapshot := b.projects[i].Clone()

	found := false
	for j := range b.projects[i].SubTasks {
		if b.projects[i].SubTasks[j].ID == subTaskID {
			b.projects[i].SubTasks[j].Completed = completed
			found = true
			break
		}
	}
	if !found {
		b.mu.Unlock()
		return ErrUnknownSubTask
	}
	b.mu.Unlock()

	result := b.store.UpdateSubTaskStatus(ctx, subTaskID, completed)
	if result.Success {
		return nil
	}

	b.mu.Lock()
	if i := b.indexOf(projectID); i >= 0 {
		b.projects[i] = snapshot
	}
	b.mu.Unlock()
	return result.Err()
}

// DeleteProject removes the project through the store and reloads the list.
func (b *Board) DeleteProject(ctx context.Context, projectID uuid.UUID) error {
	result := b.store.DeleteProject(ctx, projectID)
	if !result.Success {
		return result.Err()
	}
	return b.Refresh(ctx)
}
