package export

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"adforge-backend/internal/models"
	"adforge-backend/internal/platforms"
)

// Packager turns a selection of finished generations into a multi-entry zip
// archive: copy records flattened into one CSV, each image record's original
// under raw/ plus a cover-fit resize for every requested platform target.
type Packager struct {
	httpClient *http.Client
}

func NewPackager() *Packager {
	return &Packager{
		// Per-asset timeout so one unreachable URL cannot stall the archive.
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

type entry struct {
	name string
	data []byte
}

// Build streams the archive to w. A failure fetching or resizing one record's
// media is logged and skipped; a single bad asset must not deny delivery of
// the rest. Only an error from the underlying writer aborts the build.
func (p *Packager) Build(w io.Writer, generations []models.Generation, platformNames []string) error {
	zw := zip.NewWriter(w)

	var copyRecords []models.Generation
	var imageRecords []models.Generation
	for _, g := range generations {
		if g.Status != models.StatusCompleted {
			continue
		}
		if g.Kind.IsImage() {
			imageRecords = append(imageRecords, g)
		} else {
			copyRecords = append(copyRecords, g)
		}
	}

	if len(copyRecords) > 0 {
		if err := writeEntry(zw, "copy/concepts.csv", buildCopyCSV(copyRecords)); err != nil {
			return err
		}
	}

	// Fetch and resize concurrently across records; the zip stream is a
	// single ordered writer, so appends happen serially afterwards in
	// record order.
	staged := make([][]entry, len(imageRecords))
	var wg sync.WaitGroup
	for i := range imageRecords {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entries, err := p.stageImage(&imageRecords[i], i, platformNames)
			if err != nil {
				log.Printf("skipping generation %s in export: %v", imageRecords[i].ID, err)
				return
			}
			staged[i] = entries
		}(i)
	}
	wg.Wait()

	for _, entries := range staged {
		for _, e := range entries {
			if err := writeEntry(zw, e.name, e.data); err != nil {
				return err
			}
		}
	}

	return zw.Close()
}

// stageImage fetches a record's media once and produces its archive entries:
// the untouched original plus one resize per platform target.
func (p *Packager) stageImage(g *models.Generation, index int, platformNames []string) ([]entry, error) {
	locator := ""
	if g.OutputURL.Valid {
		locator = g.OutputURL.String
	} else if result := g.DecodedResult(); result != nil {
		locator = result.MediaURL
	}
	if locator == "" {
		return nil, fmt.Errorf("record has no media locator")
	}

	data, err := p.fetchMedia(locator)
	if err != nil {
		return nil, err
	}

	entries := []entry{{name: fmt.Sprintf("raw/original_%d.png", index), data: data}}

	for _, platformName := range platformNames {
		for _, target := range platforms.Lookup(platformName) {
			resized, err := CoverResize(data, target.Width, target.Height)
			if err != nil {
				log.Printf("skipping %s/%s for generation %s: %v", platformName, target.Name, g.ID, err)
				continue
			}
			name := fmt.Sprintf("%s/%s_%d.png", strings.ToUpper(platformName), target.Name, index)
			entries = append(entries, entry{name: name, data: resized})
		}
	}

	return entries, nil
}

// fetchMedia resolves a media locator to raw bytes: an HTTP(S) URL is
// downloaded, anything else is treated as inline base64 (optionally data-URL
// wrapped).
func (p *Packager) fetchMedia(locator string) ([]byte, error) {
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		resp, err := p.httpClient.Get(locator)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch media: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch media: status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read media body: %w", err)
		}
		return data, nil
	}

	payload := locator
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, ";base64,"); idx >= 0 {
			payload = payload[idx+len(";base64,"):]
		}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode inline media: %w", err)
	}
	return data, nil
}

// buildCopyCSV flattens copy records into one tabular asset, one row per
// concept.
func buildCopyCSV(generations []models.Generation) []byte {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write([]string{"headline", "body", "visual_cue", "angle", "platform"})

	for _, g := range generations {
		result := g.DecodedResult()
		if result == nil {
			continue
		}
		platform := ""
		if g.Platform.Valid {
			platform = g.Platform.String
		}
		for _, concept := range result.Concepts {
			angle := concept.Angle
			if angle == "" && g.Angle.Valid {
				angle = g.Angle.String
			}
			_ = cw.Write([]string{concept.Headline, concept.Body, concept.VisualCue, angle, platform})
		}
	}

	cw.Flush()
	return buf.Bytes()
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create archive entry %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write archive entry %s: %w", name, err)
	}
	return nil
}
