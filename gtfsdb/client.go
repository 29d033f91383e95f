package gtfsdb

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // CGo-based SQLite driver
	_ "modernc.org/sqlite"          // Pure Go SQLite driver
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know uses ? placeholders.
	sqlx.BindDriver(DriverPureGo, sqlx.QUESTION)
}

// Client is the main entry point for the library
type Client struct {
	config        Config
	DB            *sqlx.DB
	Queries       *Queries
	importRuntime time.Duration
}

// NewClient creates a new Client with the provided configuration
func NewClient(config Config) (*Client, error) {
	db, err := createDB(config)
	if err != nil {
		return nil, fmt.Errorf("unable to create DB: %w", err)
	} else if config.verbose {
		log.Println("Successfully created tables")
	}

	client := &Client{
		config:  config,
		DB:      db,
		Queries: New(db),
	}
	return client, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

func (c *Client) GetDBPath() string {
	return c.config.DBPath
}

// ImportRuntime is how long the most recent import took.
func (c *Client) ImportRuntime() time.Duration {
	return c.importRuntime
}

// DownloadAndStore downloads GTFS data from the given URL and stores it in the database
func (c *Client) DownloadAndStore(ctx context.Context, url, authHeaderKey, authHeaderValue string) error {
	body, err := Download(ctx, url, authHeaderKey, authHeaderValue)
	if err != nil {
		return err
	}
	return c.processAndStoreGTFSDataWithSource(ctx, body, url)
}

// Download fetches a GTFS zip, sending the auth header when both parts are set.
func Download(ctx context.Context, url, authHeaderKey, authHeaderValue string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	if authHeaderKey != "" && authHeaderValue != "" {
		req.Header.Set(authHeaderKey, authHeaderValue)
	}

	client := &http.Client{
		Timeout: 5 * time.Minute,
		Transport: &http.Transport{
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       90 * time.Second,
		}}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("static GTFS download failed with status %d", resp.StatusCode)
	}

	const maxBodySize = 200 * 1024 * 1024
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > maxBodySize {
		return nil, fmt.Errorf("static GTFS response exceeds size limit of %d bytes", maxBodySize)
	}

	return body, nil
}

// ImportFromFile imports GTFS data from a local zip file, or from a directory of
// GTFS .txt files, into the database.
func (c *Client) ImportFromFile(ctx context.Context, path string) error {
	data, err := ReadFeed(path)
	if err != nil {
		return err
	}
	return c.processAndStoreGTFSDataWithSource(ctx, data, path)
}

// ReadFeed loads a GTFS zip from disk. A directory of .txt files is zipped in memory.
func ReadFeed(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return zipDirectory(path)
	}
	return os.ReadFile(path)
}

// ImportFromBytes imports an in-memory GTFS zip archive.
func (c *Client) ImportFromBytes(ctx context.Context, data []byte, source string) error {
	return c.processAndStoreGTFSDataWithSource(ctx, data, source)
}

// zipDirectory packs the .txt files of dir into an in-memory zip archive,
// in lexical order so the resulting hash is stable.
func zipDirectory(dir string) ([]byte, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no GTFS .txt files found in %s", dir)
	}

	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)
	for _, file := range matches {
		contents, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		w, err := zipWriter.CreateHeader(&zip.FileHeader{Name: filepath.Base(file), Method: zip.Deflate})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(contents); err != nil {
			return nil, err
		}
	}
	if err := zipWriter.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
