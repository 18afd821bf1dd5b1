package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/djherbis/times"
	"github.com/gobwas/glob"
)

// AllowedExts 是可以上传和分析的数据集扩展名。
var AllowedExts = []string{".csv", ".xlsx"}

const (
	reportsSubdir = "reports"
	reportPrefix  = "report_"
	reportSuffix  = ".pptx"
)

var reportPattern = glob.MustCompile(reportPrefix + "*" + reportSuffix)

// DatasetFile 是存储目录中的一个数据集文件。
type DatasetFile struct {
	DatasetID string `json:"dataset_id"`
	Path      string `json:"path"`
	Ext       string `json:"ext"`
}

// ReportFile 是一个已生成的报告。
type ReportFile struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Mirror 把本地文件同步到对象存储。
type Mirror interface {
	Put(ctx context.Context, key, path string) error
	Fetch(ctx context.Context, key, path string) error
}

// FileStore 管理本地存储目录：数据集位于根目录，报告位于 reports/。
type FileStore struct {
	root   string
	mirror Mirror
}

// NewFileStore 创建 FileStore。mirror 可以为 nil。
func NewFileStore(root string, mirror Mirror) *FileStore {
	return &FileStore{root: root, mirror: mirror}
}

func (f *FileStore) Root() string { return f.root }

func (f *FileStore) ReportsDir() string { return filepath.Join(f.root, reportsSubdir) }

// EnsureDirs 创建存储根目录与报告目录。
func (f *FileStore) EnsureDirs() error {
	if err := os.MkdirAll(f.ReportsDir(), 0o755); err != nil {
		return fmt.Errorf("创建存储目录失败: %w", err)
	}
	return nil
}

// Writable 检查根目录是否存在且可写。
func (f *FileStore) Writable() bool {
	fi, err := os.Stat(f.root)
	if err != nil || !fi.IsDir() {
		return false
	}
	tmp, err := os.CreateTemp(f.root, ".probe-*")
	if err != nil {
		return false
	}
	tmp.Close()
	os.Remove(tmp.Name())
	return true
}

// AllowedExt 判断扩展名（不区分大小写）是否受支持。
func AllowedExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, a := range AllowedExts {
		if ext == a {
			return true
		}
	}
	return false
}

// DatasetPath 返回 <root>/<id><ext>。
func (f *FileStore) DatasetPath(id, ext string) string {
	return filepath.Join(f.root, id+ext)
}

func (f *FileStore) files() ([]os.DirEntry, error) {
	entries, err := os.ReadDir(f.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return entries, err
}

// ListDatasets 列出根目录下所有 csv/xlsx 文件，按文件名排序。
func (f *FileStore) ListDatasets() ([]DatasetFile, error) {
	entries, err := f.files()
	if err != nil {
		return nil, err
	}
	out := []DatasetFile{}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || !AllowedExt(ext) {
			continue
		}
		out = append(out, DatasetFile{
			DatasetID: strings.TrimSuffix(e.Name(), ext),
			Path:      filepath.Join(f.root, e.Name()),
			Ext:       ext,
		})
	}
	return out, nil
}

// ResolveDataset 查找第一个匹配 <id>.* 的文件。
func (f *FileStore) ResolveDataset(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", ErrNotFound
	}
	g, err := glob.Compile(glob.QuoteMeta(id) + ".*")
	if err != nil {
		return "", ErrNotFound
	}
	entries, err := f.files()
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if !e.IsDir() && g.Match(e.Name()) {
			return filepath.Join(f.root, e.Name()), nil
		}
	}
	return "", ErrNotFound
}

// RemoveDataset 删除 <id>.* 对应的文件。
func (f *FileStore) RemoveDataset(id string) error {
	path, err := f.ResolveDataset(id)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// ValidReportName 检查文件名是否是 report_*.pptx 且不含路径分隔符。
func ValidReportName(name string) bool {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, reportPrefix) && strings.HasSuffix(lower, reportSuffix)
}

// ListReports 列出 reports/ 下的报告，按文件名排序。
func (f *FileStore) ListReports() ([]ReportFile, error) {
	if err := f.EnsureDirs(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(f.ReportsDir())
	if err != nil {
		return nil, err
	}
	out := []ReportFile{}
	for _, e := range entries {
		if e.IsDir() || !reportPattern.Match(e.Name()) {
			continue
		}
		path := filepath.Join(f.ReportsDir(), e.Name())
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, ReportFile{Name: e.Name(), Path: path, Size: fi.Size(), CreatedAt: createdAt(path, fi)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// createdAt 优先使用文件创建时间，不支持时退回修改时间。
func createdAt(path string, fi os.FileInfo) time.Time {
	ts, err := times.Stat(path)
	if err != nil {
		return fi.ModTime().UTC()
	}
	if ts.HasBirthTime() {
		return ts.BirthTime().UTC()
	}
	return ts.ModTime().UTC()
}

// ReportPath 返回可以下载的报告路径。本地缺失时尝试从对象存储取回。
func (f *FileStore) ReportPath(ctx context.Context, name string) (string, error) {
	if !ValidReportName(name) {
		return "", ErrNotFound
	}
	path := filepath.Join(f.ReportsDir(), name)
	if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
		return path, nil
	}
	if f.mirror == nil {
		return "", ErrNotFound
	}
	if err := f.EnsureDirs(); err != nil {
		return "", err
	}
	if err := f.mirror.Fetch(ctx, ReportKey(name), path); err != nil {
		os.Remove(path)
		return "", ErrNotFound
	}
	return path, nil
}

// Mirror 把文件推送到对象存储。未配置时不做任何事。
func (f *FileStore) Mirror(ctx context.Context, key, path string) error {
	if f.mirror == nil {
		return nil
	}
	return f.mirror.Put(ctx, key, path)
}

func DatasetKey(name string) string { return "datasets/" + name }

func ReportKey(name string) string { return reportsSubdir + "/" + name }
