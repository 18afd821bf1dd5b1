// Package pipeline chains EDA, narrative and slide building for one dataset
// and records a log entry per step.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"autoeda/backend/go/internal/eda"
	"autoeda/backend/go/internal/narrative"
)

// 步骤名称与状态。
const (
	StepPrepare   = "prepare-output-dir"
	StepEDA       = "run-eda"
	StepNarrative = "generate-narrative"
	StepPPTX      = "build-pptx"

	StatusRunning = "running"
	StatusOK      = "ok"
	StatusError   = "error"

	maxTraceback = 3000
)

// Analyzer 对数据集执行 EDA。
type Analyzer interface {
	Run(path string) (*eda.Result, error)
}

// Narrator 根据 EDA 结果生成叙述。
type Narrator interface {
	Generate(ctx context.Context, res *eda.Result) narrative.Narrative
}

// Renderer 生成 PPTX 并返回文件名。
type Renderer interface {
	Build(res *eda.Result, n narrative.Narrative, reportsDir, theme, accent string) (string, error)
}

// StepLog 记录一个步骤的执行情况，时间为 Unix 秒（浮点）。
type StepLog struct {
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	StartedAt float64  `json:"started_at"`
	EndedAt   *float64 `json:"ended_at"`
	Details   *string  `json:"details"`
}

// ErrInfo 描述失败原因，Traceback 只保留末尾部分。
type ErrInfo struct {
	Message   string `json:"message"`
	Traceback string `json:"traceback"`
}

// Result 是一次流水线执行的结果。
type Result struct {
	PptxPath *string   `json:"pptx_path"`
	Logs     []StepLog `json:"logs"`
	Error    *ErrInfo  `json:"error,omitempty"`
}

// Options 控制报告外观。
type Options struct {
	Theme string
	Color string
}

// Pipeline 串联各步骤。
type Pipeline struct {
	analyzer Analyzer
	narrator Narrator
	renderer Renderer
	now      func() time.Time
}

// New 创建 Pipeline。
func New(a Analyzer, n Narrator, r Renderer) *Pipeline {
	return &Pipeline{analyzer: a, narrator: n, renderer: r, now: time.Now}
}

func (p *Pipeline) stamp() float64 {
	return float64(p.now().UnixNano()) / 1e9
}

type stepFailure struct {
	err   error
	stack string
}

// Run 执行完整流水线。失败不会返回 error，而是体现在步骤日志和 Result.Error 中。
func (p *Pipeline) Run(ctx context.Context, datasetPath, storageRoot string, opts Options) (res Result) {
	res.Logs = []StepLog{}

	start := func(name string) *StepLog {
		res.Logs = append(res.Logs, StepLog{Name: name, Status: StatusRunning, StartedAt: p.stamp()})
		return &res.Logs[len(res.Logs)-1]
	}
	finish := func(s *StepLog, status, details string) {
		ended := p.stamp()
		s.Status, s.EndedAt = status, &ended
		if details != "" {
			s.Details = &details
		}
	}
	fail := func(f stepFailure) {
		if n := len(res.Logs); n > 0 && res.Logs[n-1].Status == StatusRunning {
			finish(&res.Logs[n-1], StatusError, f.err.Error())
		}
		res.PptxPath = nil
		res.Error = &ErrInfo{Message: f.err.Error(), Traceback: capTail(f.err.Error()+"\n"+f.stack, maxTraceback)}
	}

	defer func() {
		if r := recover(); r != nil {
			fail(stepFailure{err: fmt.Errorf("panic: %v", r), stack: string(debug.Stack())})
		}
	}()

	step := func(name string, fn func() (string, error)) bool {
		s := start(name)
		if err := ctx.Err(); err != nil {
			fail(stepFailure{err: err})
			return false
		}
		details, err := fn()
		if err != nil {
			fail(stepFailure{err: err, stack: string(debug.Stack())})
			return false
		}
		finish(s, StatusOK, details)
		return true
	}

	reportsDir := filepath.Join(storageRoot, "reports")
	if !step(StepPrepare, func() (string, error) {
		if err := os.MkdirAll(reportsDir, 0o755); err != nil {
			return "", err
		}
		return "reports_dir=" + reportsDir, nil
	}) {
		return res
	}

	var edaRes *eda.Result
	if !step(StepEDA, func() (string, error) {
		var err error
		if edaRes, err = p.analyzer.Run(datasetPath); err != nil {
			return "", err
		}
		return fmt.Sprintf("rows=%d cols=%d", edaRes.Stats.NRows, edaRes.Stats.NCols), nil
	}) {
		return res
	}

	var story narrative.Narrative
	if !step(StepNarrative, func() (string, error) {
		story = p.narrator.Generate(ctx, edaRes)
		return "narrative-ready", nil
	}) {
		return res
	}

	var name string
	if !step(StepPPTX, func() (string, error) {
		var err error
		if name, err = p.renderer.Build(edaRes, story, reportsDir, opts.Theme, opts.Color); err != nil {
			return "", err
		}
		return "pptx=" + name, nil
	}) {
		return res
	}

	res.PptxPath = &name
	return res
}

// capTail 保留 s 的最后 n 个字节。
func capTail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
