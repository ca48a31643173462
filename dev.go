package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/donutnomad/gofixture/internal/structparse"
	"github.com/donutnomad/gofixture/internal/utils"
	"github.com/donutnomad/gofixture/plugin"
)

func newDevCmd(registry *plugin.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev [路径...]",
		Short: "开发模式，监听文件变动自动生成",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), ".")
			if err != nil {
				return err
			}
			patterns := args
			if len(patterns) == 0 {
				patterns = []string{"./..."}
			}
			if len(registry.Generators()) == 0 {
				return fmt.Errorf("没有已注册的生成器")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return dev(ctx, registry, cfg, patterns, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Duration("debounce", 0, "防抖动时间，同一个包的连续变动合并为一次生成（默认 1s）")
	return cmd
}

// devRunner 处理文件变动的核心逻辑
type devRunner struct {
	cfg       *Config
	registry  *plugin.Registry
	watcher   *fsnotify.Watcher
	scanner   *plugin.Scanner
	ctx       context.Context
	out       io.Writer
	recursive bool

	// 防抖动
	mu          sync.Mutex
	pendingDirs map[string]*time.Timer // key: 包目录路径
	wg          sync.WaitGroup
}

// dev 启动开发模式，ctx 取消时退出
func dev(ctx context.Context, registry *plugin.Registry, cfg *Config, patterns []string, out io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听器失败: %w", err)
	}
	defer watcher.Close()

	runner := &devRunner{
		cfg:         cfg,
		registry:    registry,
		watcher:     watcher,
		scanner:     plugin.NewScanner(plugin.WithAnnotationFilter(registry.Annotations()...)),
		ctx:         ctx,
		out:         out,
		recursive:   lo.SomeBy(patterns, func(p string) bool { return strings.HasSuffix(p, "/...") }),
		pendingDirs: make(map[string]*time.Timer),
	}
	defer runner.stopAll()

	dirs, err := collectWatchDirs(patterns)
	if err != nil {
		return fmt.Errorf("收集监听目录失败: %w", err)
	}
	if len(dirs) == 0 {
		return fmt.Errorf("没有找到需要监听的目录")
	}

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("添加监听目录失败 %s: %w", dir, err)
		}
		if cfg.Verbose {
			fmt.Fprintf(out, "监听目录: %s\n", dir)
		}
	}

	fmt.Fprintf(out, "开发模式已启动，监听 %d 个目录\n", len(dirs))
	fmt.Fprintln(out, "按 Ctrl+C 退出")
	fmt.Fprintln(out)

	return runner.watchLoop()
}

// watchLoop 事件处理循环
func (r *devRunner) watchLoop() error {
	for {
		select {
		case <-r.ctx.Done():
			fmt.Fprintln(r.out, "\n正在退出...")
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			r.handleEvent(event)

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			if r.cfg.Verbose {
				fmt.Fprintf(r.out, "监听错误: %v\n", err)
			}
		}
	}
}

// handleEvent 处理文件事件
func (r *devRunner) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	path := event.Name

	// 递归模式下新建的目录加入监听
	if event.Op&fsnotify.Create != 0 && r.recursive {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !skipDir(info.Name()) {
				_ = r.watcher.Add(path)
			}
			return
		}
	}

	if !plugin.IsSourceFile(path) {
		return
	}
	if r.cfg.Verbose {
		fmt.Fprintf(r.out, "检测到文件变化: %s\n", path)
	}

	pkgDir := filepath.Dir(path)
	// 结构体可能被同包其他文件引用，文件有变化就丢弃缓存
	structparse.InvalidateDir(pkgDir)

	hasAnnotation, err := r.scanner.QuickMatchFile(path)
	if err != nil {
		if r.cfg.Verbose {
			fmt.Fprintf(r.out, "检查注解失败 %s: %v\n", path, err)
		}
		return
	}
	if !hasAnnotation {
		if r.cfg.Verbose {
			fmt.Fprintf(r.out, "跳过文件（无注解）: %s\n", path)
		}
		return
	}

	if err := utils.CheckSyntax(path); err != nil {
		fmt.Fprintf(r.out, "语法错误 %s: %v\n", path, err)
		return
	}

	r.scheduleGenerate(pkgDir)
}

// scheduleGenerate 防抖动调度生成
func (r *devRunner) scheduleGenerate(pkgDir string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.pendingDirs[pkgDir]; ok && t.Stop() {
		// 旧的定时器还没触发，抵消它的计数
		r.wg.Done()
	}

	r.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(r.cfg.Debounce, func() {
		defer r.wg.Done()

		r.mu.Lock()
		if r.pendingDirs[pkgDir] == timer {
			delete(r.pendingDirs, pkgDir)
		}
		r.mu.Unlock()

		if r.ctx.Err() != nil {
			return
		}
		r.runGenerate(pkgDir)
	})
	r.pendingDirs[pkgDir] = timer
}

// stopAll 停止所有未触发的定时器，并等待正在执行的生成结束
func (r *devRunner) stopAll() {
	r.mu.Lock()
	for dir, t := range r.pendingDirs {
		if t.Stop() {
			r.wg.Done()
		}
		delete(r.pendingDirs, dir)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// runGenerate 只生成变动的包
func (r *devRunner) runGenerate(pkgDir string) {
	if r.cfg.Verbose {
		fmt.Fprintf(r.out, "触发代码生成: %s\n", pkgDir)
	}

	stats, err := plugin.RunWithOptions(r.ctx, &plugin.RunOptions{
		Registry: r.registry,
		Patterns: []string{pkgDir},
		Verbose:  r.cfg.Verbose,
		Output:   r.cfg.Output,
		Async:    r.cfg.Async,
	})
	if err != nil {
		fmt.Fprintf(r.out, "生成失败: %v\n", err)
		return
	}

	if stats != nil && stats.FileCount > 0 {
		fmt.Fprintf(r.out, "生成完成: %d 个文件 (耗时: %v)\n", stats.FileCount, stats.TotalDuration)
	} else if r.cfg.Verbose {
		fmt.Fprintln(r.out, "生成完成: 无文件生成")
	}
}

// collectWatchDirs 收集所有需要监听的目录
func collectWatchDirs(patterns []string) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, pattern := range patterns {
		recursive := strings.HasSuffix(pattern, "/...")
		baseDir := strings.TrimSuffix(pattern, "/...")

		absDir, err := filepath.Abs(baseDir)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(absDir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			continue
		}

		if !recursive {
			add(absDir)
			continue
		}

		err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != absDir && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return dirs, nil
}

// skipDir 隐藏目录、vendor 和 testdata 不监听
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata"
}
