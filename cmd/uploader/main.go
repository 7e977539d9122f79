// Command uploader is a CLI client for the upload service: it performs
// single-file uploads and full structured album uploads (cover + tracks +
// manifest) against a running API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/melofy/uploads/internal/auth"
	"github.com/melofy/uploads/internal/uploader"
)

func main() {
	var (
		server = flag.String("server", "http://localhost:8080", "upload API base URL")
		token  = flag.String("token", "", "bearer token (minted locally when empty and -user is set)")
		user   = flag.String("user", "", "user ID for local token minting (requires JWT_SECRET)")

		file     = flag.String("file", "", "single file to upload")
		fileType = flag.String("type", "", "declared content type (inferred from extension when empty)")
		direct   = flag.Bool("direct", false, "stream bytes through the API instead of using a presigned grant")

		albumTitle  = flag.String("album", "", "album title; enables album mode")
		albumArtist = flag.String("artist", "", "album artist")
		cover       = flag.String("cover", "", "album cover image")
		tracks      = flag.String("tracks", "", "comma-separated ordered track files")
	)
	flag.Parse()

	if *token == "" && *user != "" {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			log.Fatal("JWT_SECRET required to mint a local token")
		}
		t, err := auth.IssueToken(secret, *user, time.Hour)
		if err != nil {
			log.Fatalf("mint token: %v", err)
		}
		*token = t
	}
	if *token == "" {
		log.Fatal("either -token or -user is required")
	}

	client := uploader.New(uploader.Config{
		ServerURL:    *server,
		Token:        *token,
		DirectUpload: *direct,
		OnState: func(s uploader.State) {
			log.Printf("state: %s", s)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	progress := func(sent, total int64) {
		if total > 0 {
			fmt.Printf("\r%3d%% (%d/%d bytes)", sent*100/total, sent, total)
		}
	}

	switch {
	case *albumTitle != "":
		if *cover == "" || *tracks == "" {
			log.Fatal("album mode requires -cover and -tracks")
		}
		runAlbum(ctx, client, *albumTitle, *albumArtist, *cover, strings.Split(*tracks, ","), progress)
	case *file != "":
		runSingle(ctx, client, *file, *fileType, progress)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runSingle(ctx context.Context, client *uploader.Client, path, contentType string, progress uploader.ProgressFunc) {
	f, err := openFile(path, contentType)
	if err != nil {
		log.Fatal(err)
	}

	track, err := client.UploadSingle(ctx, *f, progress)
	fmt.Println()
	if err != nil {
		log.Fatalf("upload failed: %v", err)
	}
	log.Printf("uploaded %q → %s", track.Title, track.URL)
}

func runAlbum(ctx context.Context, client *uploader.Client, title, artist, coverPath string, trackPaths []string, progress uploader.ProgressFunc) {
	coverFile, err := openFile(coverPath, "")
	if err != nil {
		log.Fatal(err)
	}

	album := uploader.Album{Title: title, Artist: artist, Cover: *coverFile}
	for _, p := range trackPaths {
		tf, err := openFile(strings.TrimSpace(p), "")
		if err != nil {
			log.Fatal(err)
		}
		album.Tracks = append(album.Tracks, *tf)
	}

	manifest, err := client.UploadAlbum(ctx, album, progress)
	fmt.Println()
	if err != nil {
		log.Fatalf("album upload failed: %v", err)
	}
	log.Printf("album %q uploaded: cover=%s, %d tracks", manifest.Title, manifest.Cover, len(manifest.Songs))
	for i, s := range manifest.Songs {
		log.Printf("  %02d. %s → %s", i+1, s.Title, s.URL)
	}
}

func openFile(path, contentType string) (*uploader.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &uploader.File{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
		Reader:      f,
	}, nil
}
