// Package gdocs wraps the Google Docs and Drive APIs behind the small
// Provider surface the generator and sync code consume. Tests substitute a
// fake Provider; production wiring builds Client from a credentials file.
package gdocs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"petidocs/internal/apperr"
)

const folderMimeType = "application/vnd.google-apps.folder"

// FileRef identifies one Drive child entry.
type FileRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Replacement is one find/replace pair of a batch text substitution.
type Replacement struct {
	Find    string
	Replace string
}

// Provider is the document/folder collaborator consumed by the core.
type Provider interface {
	GetDocument(ctx context.Context, documentID string) (*docs.Document, error)
	CopyDocument(ctx context.Context, documentID, newName, destFolderID string) (string, error)
	BatchReplaceText(ctx context.Context, documentID string, replacements []Replacement) error
	ListChildren(ctx context.Context, folderID, nameFilter string) ([]FileRef, error)
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	ExportPDF(ctx context.Context, documentID string) ([]byte, error)
}

// Client is the concrete Provider over the Docs and Drive services.
type Client struct {
	docs  *docs.Service
	drive *drive.Service
}

func NewClient(ctx context.Context, credentialsPath string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	docsSvc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docs service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &Client{docs: docsSvc, drive: driveSvc}, nil
}

func (c *Client) GetDocument(ctx context.Context, documentID string) (*docs.Document, error) {
	doc, err := c.docs.Documents.Get(documentID).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError("get document", err)
	}
	return doc, nil
}

func (c *Client) CopyDocument(ctx context.Context, documentID, newName, destFolderID string) (string, error) {
	meta := &drive.File{Name: newName}
	if destFolderID != "" {
		meta.Parents = []string{destFolderID}
	}
	copied, err := c.drive.Files.Copy(documentID, meta).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", wrapAPIError("copy document", err)
	}
	return copied.Id, nil
}

func (c *Client) BatchReplaceText(ctx context.Context, documentID string, replacements []Replacement) error {
	if len(replacements) == 0 {
		return nil
	}
	requests := make([]*docs.Request, 0, len(replacements))
	for _, r := range replacements {
		requests = append(requests, &docs.Request{
			ReplaceAllText: &docs.ReplaceAllTextRequest{
				ContainsText: &docs.SubstringMatchCriteria{Text: r.Find, MatchCase: true},
				ReplaceText:  r.Replace,
			},
		})
	}
	_, err := c.docs.Documents.BatchUpdate(documentID, &docs.BatchUpdateDocumentRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return wrapAPIError("batch replace text", err)
	}
	return nil
}

func (c *Client) ListChildren(ctx context.Context, folderID, nameFilter string) ([]FileRef, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", folderID)
	if nameFilter != "" {
		query += fmt.Sprintf(" and name contains '%s'", strings.ReplaceAll(nameFilter, "'", `\'`))
	}

	var refs []FileRef
	pageToken := ""
	for {
		call := c.drive.Files.List().Q(query).
			Fields("nextPageToken, files(id, name)").
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, wrapAPIError("list children", err)
		}
		for _, f := range list.Files {
			refs = append(refs, FileRef{ID: f.Id, Name: f.Name})
		}
		if list.NextPageToken == "" {
			return refs, nil
		}
		pageToken = list.NextPageToken
	}
}

func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	meta := &drive.File{Name: name, MimeType: folderMimeType}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}
	folder, err := c.drive.Files.Create(meta).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", wrapAPIError("create folder", err)
	}
	return folder.Id, nil
}

func (c *Client) ExportPDF(ctx context.Context, documentID string) ([]byte, error) {
	resp, err := c.drive.Files.Export(documentID, "application/pdf").Context(ctx).Download()
	if err != nil {
		return nil, wrapAPIError("export pdf", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("export pdf: read body: %w", err)
	}
	return data, nil
}

// DocumentLink is the user-facing view URL of a generated document.
func DocumentLink(documentID string) string {
	return fmt.Sprintf("https://docs.google.com/document/d/%s/edit", documentID)
}

// wrapAPIError tags throttling and transient server failures with
// apperr.ErrRateLimited so the worker retry policy can tell them apart from
// terminal errors.
func wrapAPIError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 503:
			return fmt.Errorf("%s: %w: %v", op, apperr.ErrRateLimited, err)
		case 404:
			return fmt.Errorf("%s: %w: %v", op, apperr.ErrNotFound, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
