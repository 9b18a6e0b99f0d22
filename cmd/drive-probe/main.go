// drive-probe exercises a stored Drive connection directly, bypassing the HTTP layer.
// It reads the same configuration as the server:
//
//	drive-probe -user <user-id> [-folder root] [-search text] [-file id] [-mime pdf]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pysugar/drive-nexus/internal/apperr"
	"github.com/pysugar/drive-nexus/internal/auth/google"
	"github.com/pysugar/drive-nexus/internal/auth/token"
	"github.com/pysugar/drive-nexus/internal/config"
	"github.com/pysugar/drive-nexus/internal/db"
	"github.com/pysugar/drive-nexus/internal/proxy"
	"github.com/pysugar/drive-nexus/internal/secret"
	"github.com/pysugar/drive-nexus/internal/upstream"
	"github.com/pysugar/drive-nexus/internal/upstream/drive"
	"github.com/pysugar/drive-nexus/internal/util"
)

func main() {
	configPath := flag.String("config", "", "path to drive-nexus.yaml")
	userID := flag.String("user", "", "user id whose connection to probe (required)")
	folder := flag.String("folder", "root", "folder to list")
	search := flag.String("search", "", "search by name instead of listing")
	fileID := flag.String("file", "", "fetch metadata for one file")
	mime := flag.String("mime", "", "category filter: folder, pdf, document, presentation, image, video")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	database, err := db.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	var sealer secret.Sealer = secret.Plaintext{}
	if cfg.Security.TokenEncryptionKey != "" {
		if sealer, err = secret.NewAESGCMSealer(cfg.Security.TokenEncryptionKey); err != nil {
			log.Fatalf("Failed to initialize token encryption: %v", err)
		}
	}

	connections := db.NewConnectionStore(database, sealer)
	httpClient := upstream.NewHTTPClient(cfg.Google.Timeout)
	tokens := token.NewManager(connections, google.NewProviderConfig(cfg.Google), httpClient, nil)
	p := proxy.New(tokens, drive.NewClient(cfg.Google.DriveBaseURL, httpClient, nil), connections)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	status, err := p.Status(ctx, *userID)
	if err != nil {
		fail("status", err)
	}
	fmt.Printf("👤 User:      %s\n", *userID)
	fmt.Printf("🔗 Connected: %v\n", status.Connected)
	if !status.Connected {
		os.Exit(1)
	}
	if status.Email != "" {
		fmt.Printf("📧 Email:     %s\n", util.RedactEmail(status.Email))
	}

	accessToken, _, err := tokens.ValidAccessToken(ctx, *userID)
	if err != nil {
		fail("token", err)
	}
	fmt.Printf("🔑 Token:     %s\n", util.MaskToken(accessToken))

	var result any
	switch {
	case *fileID != "":
		result, err = p.Get(ctx, *userID, *fileID)
	case *search != "":
		result, err = p.Search(ctx, *userID, proxy.SearchParams{Text: *search, MimeType: *mime})
	default:
		result, err = p.List(ctx, *userID, proxy.ListParams{FolderID: *folder, MimeType: *mime})
	}
	if err != nil {
		fail("request", err)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "❌ %s failed [%s, HTTP %d]: %v\n", step, apperr.KindOf(err).Code(), apperr.HTTPStatus(err), err)
	os.Exit(1)
}
