package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askbase/internal/core/domain"
	"github.com/custodia-labs/askbase/internal/core/ports/driving"
)

func ingestResult(sourceID string, chunks int) *driving.IngestResult {
	return &driving.IngestResult{
		Source:     domain.Source{ID: sourceID, TenantID: "default"},
		ChunkCount: chunks,
	}
}

func TestIngestCmd_FromFile(t *testing.T) {
	ingestor := &mockIngestor{result: ingestResult("doc-1", 3)}
	cleanup := setupTestServices(ingestor, &mockQuerier{})
	defer cleanup()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Some document text."), 0600))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", path, "--source-id", "doc-1"})
	defer func() {
		rootCmd.SetArgs(nil)
		ingestSourceID = ""
		ingestTitle = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Ingested doc-1: 3 chunks")
	assert.Equal(t, "Some document text.", ingestor.lastText.Text)
	assert.Equal(t, "doc-1", ingestor.lastText.SourceID)
	// Title defaults to the file path when not given.
	assert.Equal(t, path, ingestor.lastText.Title)
	assert.Equal(t, domain.OriginUpload, ingestor.lastText.Origin)
}

func TestIngestCmd_FromStdin(t *testing.T) {
	ingestor := &mockIngestor{result: ingestResult("auto-id", 1)}
	cleanup := setupTestServices(ingestor, &mockQuerier{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetIn(strings.NewReader("Piped text."))
	rootCmd.SetArgs([]string{"ingest"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, "Piped text.", ingestor.lastText.Text)
}

func TestIngestCmd_MissingFile(t *testing.T) {
	cleanup := setupTestServices(&mockIngestor{}, &mockQuerier{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "/nonexistent/file.txt"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.Error(t, err)
}

func TestIngestCmd_OriginFlag(t *testing.T) {
	ingestor := &mockIngestor{result: ingestResult("doc-1", 1)}
	cleanup := setupTestServices(ingestor, &mockQuerier{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetIn(strings.NewReader("Scraped text."))
	rootCmd.SetArgs([]string{"ingest", "--origin", "scrape"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		ingestOrigin = "upload"
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, domain.OriginScrape, ingestor.lastText.Origin)
}

func TestVersionCmd(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "askbase version")
}
