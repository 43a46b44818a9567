package pipeline

import (
	"encoding/json"
	"slices"

	"github.com/causetree/causetree/pkg/aggregate"
	"github.com/causetree/causetree/pkg/cache"
	"github.com/causetree/causetree/pkg/config"
	"github.com/causetree/causetree/pkg/errors"
	"github.com/causetree/causetree/pkg/icd"
	pkgio "github.com/causetree/causetree/pkg/io"
	"github.com/causetree/causetree/pkg/table"
)

// yearJob is one year's unit of work: its raw records, the revision they
// were coded under, and that revision's description table.
type yearJob struct {
	year      int
	rev       icd.Revision
	records   []table.RawRecord
	descs     map[string]string
	inputHash string
}

// loadJobs reads every dataset and splits the retained years into jobs,
// sorted by year. A year appearing in two datasets is an input error: the
// revision to classify it under would be ambiguous.
func loadJobs(datasets []Dataset, cfg *config.Config) ([]yearJob, error) {
	byYear := make(map[int]*yearJob)
	for _, ds := range datasets {
		descs, err := pkgio.ImportDescriptions(ds.Descriptions)
		if err != nil {
			return nil, err
		}
		records, err := pkgio.ImportRecords(ds.Counts)
		if err != nil {
			return nil, err
		}

		for _, rec := range records {
			if !cfg.KeepYear(rec.Year) {
				continue
			}
			job := byYear[rec.Year]
			if job == nil {
				job = &yearJob{year: rec.Year, rev: ds.Revision, descs: descs}
				byYear[rec.Year] = job
			} else if job.rev != ds.Revision {
				return nil, errors.New(errors.ErrCodeInvalidInput,
					"year %d appears in both %s and %s datasets", rec.Year, job.rev, ds.Revision)
			}
			job.records = append(job.records, rec)
		}
	}

	jobs := make([]yearJob, 0, len(byYear))
	for _, job := range byYear {
		hash, err := hashJobInput(job)
		if err != nil {
			return nil, err
		}
		job.inputHash = hash
		jobs = append(jobs, *job)
	}
	slices.SortFunc(jobs, func(a, b yearJob) int { return a.year - b.year })
	return jobs, nil
}

// hashJobInput hashes everything that feeds a year's processing, so the
// cache key changes whenever the source tables do. JSON map encoding sorts
// keys, which keeps the hash deterministic.
func hashJobInput(job *yearJob) (string, error) {
	raw, err := json.Marshal(struct {
		Revision     icd.Revision      `json:"revision"`
		Records      []table.RawRecord `json:"records"`
		Descriptions map[string]string `json:"descriptions"`
	}{job.rev, job.records, job.descs})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash year %d input", job.year)
	}
	return cache.Hash(raw), nil
}

// ProcessYear runs the classification and aggregation stages for one year:
// normalize every distinct code, classify the normalized codes under the
// year's revision, join descriptions, and aggregate into the cross-revision
// rows. Any failure aborts the year.
func ProcessYear(year int, rev icd.Revision, records []table.RawRecord, descs map[string]string, cfg *config.Config) ([]table.AggregatedRow, error) {
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "year %d: no records", year)
	}

	classifier, err := cfg.Classifier(rev)
	if err != nil {
		return nil, err
	}

	codes := make(map[string]icd.Code)
	for _, rec := range records {
		if _, ok := codes[rec.Code]; ok {
			continue
		}
		normalized, err := icd.Normalize(rec.Code, rev)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "year %d", year)
		}
		codes[rec.Code] = normalized
	}

	categories, err := classifier.Classify(codes)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "year %d", year)
	}

	categorized := make([]table.CategorizedRecord, len(records))
	for i, rec := range records {
		categorized[i] = table.CategorizedRecord{
			RawRecord:   rec,
			Normalized:  codes[rec.Code],
			Category:    categories[rec.Code],
			Description: descs[rec.Code],
		}
	}

	return aggregate.Year(year, categorized, aggregate.Options{
		TopN:            cfg.TopN,
		TerminalStart:   cfg.AgeBands.TerminalStart,
		CoarsenFrom:     cfg.AgeBands.CoarsenFrom,
		MaxUnclassified: cfg.Quality.MaxUnclassified,
		MaxUnmapped:     cfg.Quality.MaxUnmapped,
	})
}
