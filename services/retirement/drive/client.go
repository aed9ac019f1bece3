// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package drive wraps the shared-drive provider used for partner report
// delivery: one subfolder per partner under a configured root, CSV
// uploads into those folders, and the permission/comment calls that turn
// a comment into the partner notification email.
package drive

import (
	"context"
	"fmt"
	"io"
	"os"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Folder is a partner subfolder under the configured root.
type Folder struct {
	ID   string
	Name string
}

// Permission is one collaborator on a folder.
type Permission struct {
	EmailAddress string
	Role         string
}

// Client is a thin adapter over the Drive API service.
type Client struct {
	svc *gdrive.Service
}

// NewClient builds a Drive client from a service-account secrets file.
func NewClient(ctx context.Context, secretsPath string) (*Client, error) {
	if _, err := os.Stat(secretsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("service account key not found at path: %s. Please ensure you have the correct key and it is accessible", secretsPath)
	}

	svc, err := gdrive.NewService(ctx,
		option.WithCredentialsFile(secretsPath),
		option.WithScopes(gdrive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service client: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ListSubfolders returns every non-trashed folder directly under parentID.
func (c *Client) ListSubfolders(ctx context.Context, parentID string) ([]Folder, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false",
		parentID, folderMimeType)

	var folders []Folder
	call := c.svc.Files.List().
		Q(query).
		Fields("nextPageToken, files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true)

	err := call.Pages(ctx, func(page *gdrive.FileList) error {
		for _, f := range page.Files {
			folders = append(folders, Folder{ID: f.Id, Name: f.Name})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing subfolders of %s: %w", parentID, err)
	}
	return folders, nil
}

// CreateFileInFolder uploads content into folderID and returns the new
// file's id.
func (c *Client) CreateFileInFolder(ctx context.Context, folderID, name string, content io.Reader, mimeType string) (string, error) {
	file := &gdrive.File{
		Name:    name,
		Parents: []string{folderID},
	}

	created, err := c.svc.Files.Create(file).
		Media(content, googleapi.ContentType(mimeType)).
		SupportsAllDrives(true).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("uploading %s to folder %s: %w", name, folderID, err)
	}
	return created.Id, nil
}

// ListPermissions returns the collaborators on a file or folder.
func (c *Client) ListPermissions(ctx context.Context, fileID string) ([]Permission, error) {
	resp, err := c.svc.Permissions.List(fileID).
		SupportsAllDrives(true).
		Fields("permissions(emailAddress, role)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing permissions for %s: %w", fileID, err)
	}

	perms := make([]Permission, 0, len(resp.Permissions))
	for _, p := range resp.Permissions {
		perms = append(perms, Permission{EmailAddress: p.EmailAddress, Role: p.Role})
	}
	return perms, nil
}

// CreateComment posts a comment on the file. Commenting is how partner
// collaborators get their notification email; it is not idempotent and
// callers treat failures as non-fatal.
func (c *Client) CreateComment(ctx context.Context, fileID, content string) error {
	_, err := c.svc.Comments.Create(fileID, &gdrive.Comment{Content: content}).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("creating comment on %s: %w", fileID, err)
	}
	return nil
}
