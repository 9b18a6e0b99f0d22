// Package proxy serves a connected user's Drive listing, search and metadata requests
// using that user's stored delegated credential.
package proxy

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pysugar/drive-nexus/internal/apperr"
	"github.com/pysugar/drive-nexus/internal/db/models"
	"github.com/pysugar/drive-nexus/internal/logging"
	"github.com/pysugar/drive-nexus/internal/upstream/drive"
)

// TokenSource resolves and invalidates a user's provider access token.
type TokenSource interface {
	ValidAccessToken(ctx context.Context, userID string) (string, bool, error)
	Invalidate(ctx context.Context, userID string) error
}

// Files is the provider files API.
type Files interface {
	ListFiles(ctx context.Context, accessToken string, req drive.ListRequest) (*drive.FileList, error)
	GetFile(ctx context.Context, accessToken, fileID string) (json.RawMessage, error)
}

// StatusReader reads connection metadata without touching tokens.
type StatusReader interface {
	Status(ctx context.Context, userID string) (models.ConnectionStatus, error)
}

// ListParams are the inputs of List. Zero values select the defaults.
type ListParams struct {
	FolderID  string
	PageToken string
	Text      string
	MimeType  string
	PageSize  int
}

type SearchParams struct {
	Text      string
	PageToken string
	MimeType  string
}

type Proxy struct {
	tokens TokenSource
	files  Files
	status StatusReader
}

func New(tokens TokenSource, files Files, status StatusReader) *Proxy {
	return &Proxy{tokens: tokens, files: files, status: status}
}

// List returns one page of a folder's non-trashed children, folders first.
func (p *Proxy) List(ctx context.Context, userID string, params ListParams) (*drive.FileList, error) {
	if userID == "" {
		return nil, apperr.New(apperr.Unauthenticated, "Not authenticated")
	}
	category, err := drive.ParseCategory(params.MimeType)
	if err != nil {
		return nil, err
	}
	folderID := params.FolderID
	if folderID == "" {
		folderID = "root"
	}

	token, err := p.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	q := drive.NewQuery().InParents(folderID).NotTrashed().NameContains(params.Text).OfCategory(category)
	list, err := p.files.ListFiles(ctx, token, drive.ListRequest{
		Query:     q.String(),
		PageToken: params.PageToken,
		PageSize:  params.PageSize,
		OrderBy:   drive.OrderFoldersFirst,
	})
	if err != nil {
		return nil, p.providerError(ctx, userID, err)
	}
	return list, nil
}

// Search matches names across the whole Drive. The text is required.
func (p *Proxy) Search(ctx context.Context, userID string, params SearchParams) (*drive.FileList, error) {
	if userID == "" {
		return nil, apperr.New(apperr.Unauthenticated, "Not authenticated")
	}
	if strings.TrimSpace(params.Text) == "" {
		return nil, apperr.New(apperr.InvalidArgument, "Search query is required")
	}
	category, err := drive.ParseCategory(params.MimeType)
	if err != nil {
		return nil, err
	}

	token, err := p.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	q := drive.NewQuery().NameContains(params.Text).NotTrashed().OfCategory(category)
	list, err := p.files.ListFiles(ctx, token, drive.ListRequest{
		Query:     q.String(),
		PageToken: params.PageToken,
		PageSize:  drive.DefaultPageSize,
	})
	if err != nil {
		return nil, p.providerError(ctx, userID, err)
	}
	return list, nil
}

// Get returns one file's metadata. Provider errors such as 404 pass through.
func (p *Proxy) Get(ctx context.Context, userID, fileID string) (json.RawMessage, error) {
	if userID == "" {
		return nil, apperr.New(apperr.Unauthenticated, "Not authenticated")
	}
	if fileID == "" {
		return nil, apperr.New(apperr.InvalidArgument, "fileId is required")
	}

	token, err := p.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	file, err := p.files.GetFile(ctx, token, fileID)
	if err != nil {
		return nil, p.providerError(ctx, userID, err)
	}
	return file, nil
}

// Status reports whether the user has a stored connection. Tokens are not validated.
func (p *Proxy) Status(ctx context.Context, userID string) (models.ConnectionStatus, error) {
	if userID == "" {
		return models.ConnectionStatus{}, apperr.New(apperr.Unauthenticated, "Not authenticated")
	}
	status, err := p.status.Status(ctx, userID)
	if err != nil {
		return models.ConnectionStatus{}, apperr.Wrap(apperr.StorageFailure, "Failed to read connection status", err)
	}
	return status, nil
}

func (p *Proxy) accessToken(ctx context.Context, userID string) (string, error) {
	token, connected, err := p.tokens.ValidAccessToken(ctx, userID)
	if err != nil {
		return "", err
	}
	if !connected {
		return "", apperr.New(apperr.NotConnected, "Google Drive not connected or token expired")
	}
	return token, nil
}

// providerError invalidates the stored token when the provider rejected it, so the
// caller's retry goes through a fresh refresh.
func (p *Proxy) providerError(ctx context.Context, userID string, err error) error {
	if apperr.Is(err, apperr.TokenExpired) {
		if invErr := p.tokens.Invalidate(ctx, userID); invErr != nil {
			logging.Printf(ctx, "⚠️ Failed to invalidate token for user %s: %v", userID, invErr)
		}
	}
	return err
}
