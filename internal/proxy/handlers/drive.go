package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pysugar/drive-nexus/internal/apperr"
	"github.com/pysugar/drive-nexus/internal/proxy"
	"github.com/pysugar/drive-nexus/internal/proxy/respond"
)

// ListHandler lists a folder: ?folderId=&pageToken=&q=&mimeType=&pageSize=.
func ListHandler(p DriveProxy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		pageSize, err := parsePageSize(q.Get("pageSize"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		list, err := p.List(r.Context(), callerID(r), proxy.ListParams{
			FolderID:  q.Get("folderId"),
			PageToken: q.Get("pageToken"),
			Text:      q.Get("q"),
			MimeType:  q.Get("mimeType"),
			PageSize:  pageSize,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, list)
	}
}

// SearchHandler searches the whole Drive by name: ?q=&pageToken=&mimeType=.
func SearchHandler(p DriveProxy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := p.Search(r.Context(), callerID(r), proxy.SearchParams{
			Text:      q.Get("q"),
			PageToken: q.Get("pageToken"),
			MimeType:  q.Get("mimeType"),
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, list)
	}
}

// GetHandler returns one file's metadata: ?fileId=.
func GetHandler(p DriveProxy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, err := p.Get(r.Context(), callerID(r), r.URL.Query().Get("fileId"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(file)
	}
}

// StatusHandler reports whether the caller has a stored connection.
func StatusHandler(p DriveProxy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := p.Status(r.Context(), callerID(r))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, status)
	}
}

func parsePageSize(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.New(apperr.InvalidArgument, "pageSize must be a positive integer")
	}
	return n, nil
}
