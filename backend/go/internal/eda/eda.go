package eda

import (
	"fmt"
	"os"
	"strconv"

	"autoeda/backend/go/pkg/util"
)

// Run loads the dataset at path, profiles it and writes its charts under
// <storageRoot>/images/<dataset_id>/. The dataset id is the file stem.
func Run(path, storageRoot string, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	maxRows := opts.SampleRows
	if maxRows < 0 {
		maxRows = 0
	}
	f, err := Load(path, maxRows)
	if err != nil {
		return nil, err
	}
	id := Stem(path)
	charts, err := RenderCharts(f, ImageDir(storageRoot, id), opts)
	if err != nil {
		return nil, err
	}
	return &Result{DatasetID: id, Stats: Profile(f, opts), Charts: charts}, nil
}

// Runner caches results per dataset file. A changed size or modification
// time invalidates the entry.
type Runner struct {
	StorageRoot string
	Options     Options
	cache       *util.LRU[string, *Result]
}

// NewRunner returns a Runner. cacheSize <= 0 disables caching.
func NewRunner(storageRoot string, opts Options, cacheSize int) *Runner {
	r := &Runner{StorageRoot: storageRoot, Options: opts}
	if cacheSize > 0 {
		r.cache, _ = util.NewLRU[string, *Result](cacheSize, 0)
	}
	return r
}

// Run is the cached form of the package-level Run.
func (r *Runner) Run(path string) (*Result, error) {
	if r.cache == nil {
		return Run(path, r.StorageRoot, r.Options)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}
	key := path + "|" + strconv.FormatInt(fi.Size(), 10) + "|" + strconv.FormatInt(fi.ModTime().UnixNano(), 10)
	if res, ok := r.cache.Get(key); ok && chartsExist(res) {
		return res, nil
	}
	res, err := Run(path, r.StorageRoot, r.Options)
	if err != nil {
		return nil, err
	}
	r.cache.Put(key, res)
	return res, nil
}

func chartsExist(res *Result) bool {
	for _, c := range res.Charts {
		if _, err := os.Stat(c.Path); err != nil {
			return false
		}
	}
	return true
}
