package pipeline

import (
	"cmp"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/causetree/causetree/pkg/errors"
	"github.com/causetree/causetree/pkg/icd"
)

// Dataset is one source revision's pair of input tables.
type Dataset struct {
	Revision     icd.Revision
	Counts       string // count table CSV path
	Descriptions string // description table CSV path
}

// datasetPattern matches count table file names. The revision digit sits at
// the end of the stem, optionally followed by a part letter when one
// revision's years are split across files ("1979-1984-icd9a.csv").
var datasetPattern = regexp.MustCompile(`icd([2-9])[a-z]?\.csv$`)

// DiscoverDatasets scans dir for count tables and their description tables.
//
// A count table is any file matching "*icdN.csv" (with an optional part
// letter after the revision digit); its description table is the sibling
// file with a "-desc.csv" suffix instead of ".csv". A count table without a
// description table is an error: classification without descriptions would
// push every code through the unmapped gate.
func DiscoverDatasets(dir string) ([]Dataset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read source directory")
	}

	var datasets []Dataset
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		m := datasetPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}

		n, _ := strconv.Atoi(m[1])
		rev, err := icd.ParseRevision(n)
		if err != nil {
			return nil, err
		}

		descName := name[:len(name)-len(".csv")] + "-desc.csv"
		descPath := filepath.Join(dir, descName)
		if _, err := os.Stat(descPath); err != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"count table %s has no description table %s", name, descName)
		}

		datasets = append(datasets, Dataset{
			Revision:     rev,
			Counts:       filepath.Join(dir, name),
			Descriptions: descPath,
		})
	}

	if len(datasets) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no count tables found in %s", dir)
	}
	slices.SortFunc(datasets, func(a, b Dataset) int {
		if c := cmp.Compare(a.Revision, b.Revision); c != 0 {
			return c
		}
		return cmp.Compare(a.Counts, b.Counts)
	})
	return datasets, nil
}
