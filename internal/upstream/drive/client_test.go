package drive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/pysugar/drive-nexus/internal/apperr"
)

type recordedRequest struct {
	path  string
	query url.Values
	auth  string
}

func newDriveServer(t *testing.T, status int, body string) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		reqs = append(reqs, recordedRequest{path: r.URL.EscapedPath(), query: r.URL.Query(), auth: r.Header.Get("Authorization")})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func TestListFiles_SendsProjectionAndPassesEntriesThrough(t *testing.T) {
	entry := `{"id":"1","name":"Notes","mimeType":"application/pdf","size":"42","parents":["root"],"unexpected":{"kept":true}}`
	srv, requests := newDriveServer(t, 200, `{"files":[`+entry+`],"nextPageToken":"tok-2"}`)
	c := NewClient(srv.URL+"/drive/v3/", srv.Client(), nil)

	list, err := c.ListFiles(context.Background(), "ya29.at", ListRequest{
		Query:     "'root' in parents and trashed = false",
		PageToken: "tok-1",
		PageSize:  500,
		OrderBy:   OrderFoldersFirst,
	})
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if list.NextPageToken != "tok-2" || len(list.Files) != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}
	if string(list.Files[0]) != entry {
		t.Fatalf("entry not passed through verbatim: %s", list.Files[0])
	}

	got := requests()[0]
	if got.path != "/drive/v3/files" {
		t.Fatalf("path = %q", got.path)
	}
	if got.auth != "Bearer ya29.at" {
		t.Fatalf("auth = %q", got.auth)
	}
	if got.query.Get("pageSize") != "100" {
		t.Fatalf("pageSize = %q, want clamped 100", got.query.Get("pageSize"))
	}
	if got.query.Get("fields") != ListFields || got.query.Get("orderBy") != "folder,name" {
		t.Fatalf("unexpected projection/order: %v", got.query)
	}
	if got.query.Get("pageToken") != "tok-1" || got.query.Get("q") != "'root' in parents and trashed = false" {
		t.Fatalf("unexpected query: %v", got.query)
	}
}

func TestListFiles_EmptyResultEncodesAsArray(t *testing.T) {
	srv, _ := newDriveServer(t, 200, `{}`)
	c := NewClient(srv.URL, srv.Client(), nil)

	list, err := c.ListFiles(context.Background(), "at", ListRequest{Query: "trashed = false"})
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	out, _ := json.Marshal(list)
	if string(out) != `{"files":[]}` {
		t.Fatalf("encoded = %s", out)
	}
}

func TestListFiles_UnauthorizedIsTokenExpired(t *testing.T) {
	srv, _ := newDriveServer(t, 401, `{"error":{"code":401,"message":"Invalid Credentials"}}`)
	c := NewClient(srv.URL, srv.Client(), nil)

	_, err := c.ListFiles(context.Background(), "stale", ListRequest{})
	if apperr.KindOf(err) != apperr.TokenExpired {
		t.Fatalf("expected TokenExpired, got %v", err)
	}
}

func TestListFiles_ProviderErrorCarriesStatusAndMessage(t *testing.T) {
	srv, _ := newDriveServer(t, 403, `{"error":{"code":403,"message":"The user has exceeded their Drive storage quota","errors":[{"reason":"storageQuotaExceeded"}]}}`)
	c := NewClient(srv.URL, srv.Client(), nil)

	_, err := c.ListFiles(context.Background(), "at", ListRequest{})
	if apperr.KindOf(err) != apperr.ExternalAPIFailure {
		t.Fatalf("expected ExternalAPIFailure, got %v", err)
	}
	if apperr.HTTPStatus(err) != 403 {
		t.Fatalf("status = %d, want 403", apperr.HTTPStatus(err))
	}
	if apperr.PublicMessage(err) != "The user has exceeded their Drive storage quota" {
		t.Fatalf("message = %q", apperr.PublicMessage(err))
	}
}

func TestListFiles_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", nil, nil)
	_, err := c.ListFiles(context.Background(), "at", ListRequest{})
	if apperr.KindOf(err) != apperr.ExternalAPIFailure || apperr.HTTPStatus(err) != http.StatusBadGateway {
		t.Fatalf("expected 502 ExternalAPIFailure, got %v", err)
	}
}

func TestGetFile_PassesNotFoundThrough(t *testing.T) {
	srv, requests := newDriveServer(t, 404, `{"error":{"code":404,"message":"File not found: abc/def."}}`)
	c := NewClient(srv.URL, srv.Client(), nil)

	_, err := c.GetFile(context.Background(), "at", "abc/def")
	if apperr.HTTPStatus(err) != 404 {
		t.Fatalf("expected provider 404 to pass through, got %v", err)
	}
	got := requests()[0]
	if got.path != "/files/abc%2Fdef" {
		t.Fatalf("file id not path-escaped: %q", got.path)
	}
	if got.query.Get("fields") != FileFields {
		t.Fatalf("fields = %q", got.query.Get("fields"))
	}
}

func TestGetFile_ReturnsRawMetadata(t *testing.T) {
	srv, _ := newDriveServer(t, 200, `{"id":"abc","name":"Slides"}`)
	c := NewClient(srv.URL, srv.Client(), nil)

	raw, err := c.GetFile(context.Background(), "at", "abc")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if string(raw) != `{"id":"abc","name":"Slides"}` {
		t.Fatalf("raw = %s", raw)
	}
}

func TestClampPageSize(t *testing.T) {
	for in, want := range map[int]int{-1: 50, 0: 50, 1: 1, 50: 50, 100: 100, 101: 100} {
		if got := ClampPageSize(in); got != want {
			t.Errorf("ClampPageSize(%d) = %d, want %d", in, got, want)
		}
	}
}
