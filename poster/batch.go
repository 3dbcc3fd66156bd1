package poster

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/raushankrgupta/listing-poster/models"
)

// ReadBatchFile returns the URLs in a links file, one per line. Blank lines
// and lines starting with # are skipped.
func ReadBatchFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.InvalidInputError{Input: path, Reason: "file not found"}
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return urls, nil
}

// RunBatch processes urls one after another. Outputs are numbered from 1 in
// input order; a failure is recorded and the batch moves on.
func (p *Poster) RunBatch(ctx context.Context, urls []string) *models.BatchReport {
	report := &models.BatchReport{Total: len(urls)}

	for i, raw := range urls {
		index := i + 1
		if err := ctx.Err(); err != nil {
			report.Failed = append(report.Failed, models.FailedListing{URL: raw, Err: err})
			continue
		}

		ref, err := models.NewListingReference(raw, "")
		if err == nil {
			var res *Result
			if res, err = p.ProcessSingle(ctx, ref, index); err == nil {
				report.Succeeded = append(report.Succeeded, raw)
				report.Outputs = append(report.Outputs, res.OutputPath)
				p.step(index, "✓ Saved: %s", res.OutputPath)
				continue
			}
		}

		p.step(index, "✗ %s", models.Describe(err))
		p.logger.Warn("listing failed", "index", index, "url", raw, "error", err)
		report.Failed = append(report.Failed, models.FailedListing{URL: raw, Err: err})
	}
	return report
}
