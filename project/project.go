// Package project carries the minimal project metadata the dispatcher needs
// to enrich outbound payloads. Projects are owned by the host application;
// it syncs name and image changes through UpsertProject.
package project

import "context"

// Project is the metadata snapshot for a Fairlx project.
type Project struct {
	// ID is the host application's project identifier.
	ID string `json:"id"`

	// Name is the project display name.
	Name string `json:"name"`

	// ImageURL is the project avatar. Only absolute URLs are usable as
	// embed thumbnails.
	ImageURL string `json:"image_url,omitempty"`
}

// Store defines the persistence contract for project metadata.
type Store interface {
	// GetProject returns project metadata by the application's project ID.
	GetProject(ctx context.Context, projectID string) (*Project, error)

	// UpsertProject creates or replaces the metadata snapshot.
	UpsertProject(ctx context.Context, p *Project) error
}
