package redis

import (
	"context"
	"fmt"

	"github.com/fairlx/fanout"
	"github.com/fairlx/fanout/project"
)

func (s *Store) GetProject(ctx context.Context, projectID string) (*project.Project, error) {
	var p project.Project
	if err := s.getEntity(ctx, entityKey(prefixProject, projectID), &p); err != nil {
		if isRedisNil(err) {
			return nil, fanout.ErrProjectNotFound
		}
		return nil, fmt.Errorf("fanout/redis: get project: %w", err)
	}
	return &p, nil
}

func (s *Store) UpsertProject(ctx context.Context, p *project.Project) error {
	if err := s.setEntity(ctx, entityKey(prefixProject, p.ID), p); err != nil {
		return fmt.Errorf("fanout/redis: upsert project: %w", err)
	}
	return nil
}
