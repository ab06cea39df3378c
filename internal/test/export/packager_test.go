package export_test

import (
	"archive/zip"
	"bytes"
	"database/sql"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"adforge-backend/internal/export"
	"adforge-backend/internal/models"
)

func imageRecord(url string) models.Generation {
	return models.Generation{
		ID:        uuid.New(),
		Kind:      models.KindImageConcept,
		Status:    models.StatusCompleted,
		OutputURL: sql.NullString{String: url, Valid: true},
	}
}

func copyRecord(concepts ...models.CopyConcept) models.Generation {
	result, _ := json.Marshal(models.GenerationResult{Concepts: concepts})
	return models.Generation{
		ID:     uuid.New(),
		Kind:   models.KindCopyHeadline,
		Status: models.StatusCompleted,
		Result: result,
	}
}

func readArchive(t *testing.T, buf *bytes.Buffer) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		var b bytes.Buffer
		_, err = b.ReadFrom(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = b.Bytes()
	}
	return out
}

func TestPackager_BadAssetDoesNotDenyTheRest(t *testing.T) {
	pngData := testPNG(t, 32, 32)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(pngData)
	}))
	defer server.Close()

	generations := []models.Generation{
		imageRecord(server.URL + "/a.png"),
		imageRecord(server.URL + "/broken.png"),
		imageRecord(server.URL + "/c.png"),
	}

	var buf bytes.Buffer
	require.NoError(t, export.NewPackager().Build(&buf, generations, []string{"tiktok"}))

	entries := readArchive(t, &buf)
	assert.Contains(t, entries, "raw/original_0.png")
	assert.NotContains(t, entries, "raw/original_1.png", "the unreachable record is skipped")
	assert.Contains(t, entries, "raw/original_2.png")
	assert.Contains(t, entries, "TIKTOK/video_cover_0.png")
	assert.Contains(t, entries, "TIKTOK/video_cover_2.png")

	w, h := decodeDims(t, entries["TIKTOK/video_cover_0.png"])
	assert.Equal(t, 1080, w)
	assert.Equal(t, 1920, h)
}

func TestPackager_CopyRecordsFlattenToCSV(t *testing.T) {
	generations := []models.Generation{
		copyRecord(
			models.CopyConcept{Headline: "Just move", Body: "Shoes that keep up", VisualCue: "runner at dawn", Angle: "performance"},
			models.CopyConcept{Headline: "Own the morning", Body: "Out the door in seconds"},
		),
		copyRecord(models.CopyConcept{Headline: "Third"}),
	}

	var buf bytes.Buffer
	require.NoError(t, export.NewPackager().Build(&buf, generations, nil))

	entries := readArchive(t, &buf)
	require.Contains(t, entries, "copy/concepts.csv")

	rows, err := csv.NewReader(bytes.NewReader(entries["copy/concepts.csv"])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus one row per concept")
	assert.Equal(t, []string{"headline", "body", "visual_cue", "angle", "platform"}, rows[0])
	assert.Equal(t, "Just move", rows[1][0])
	assert.Equal(t, "runner at dawn", rows[1][2])
	assert.Equal(t, "Third", rows[3][0])
}

func TestPackager_InlineBase64Media(t *testing.T) {
	pngData := testPNG(t, 16, 16)
	generations := []models.Generation{
		imageRecord(base64.StdEncoding.EncodeToString(pngData)),
		imageRecord("data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)),
	}

	var buf bytes.Buffer
	require.NoError(t, export.NewPackager().Build(&buf, generations, nil))

	entries := readArchive(t, &buf)
	assert.Equal(t, pngData, entries["raw/original_0.png"])
	assert.Equal(t, pngData, entries["raw/original_1.png"])
}

func TestPackager_SkipsNonCompletedAndUnknownPlatforms(t *testing.T) {
	pngData := testPNG(t, 16, 16)
	pending := imageRecord(base64.StdEncoding.EncodeToString(pngData))
	pending.Status = models.StatusPending

	generations := []models.Generation{
		pending,
		imageRecord(base64.StdEncoding.EncodeToString(pngData)),
	}

	var buf bytes.Buffer
	require.NoError(t, export.NewPackager().Build(&buf, generations, []string{"myspace"}))

	entries := readArchive(t, &buf)
	require.Len(t, entries, 1, "unknown platforms contribute no targets")
	assert.Contains(t, entries, "raw/original_0.png")
}
