package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-units"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/agenthub/agent/archive"
	"github.com/BaSui01/agenthub/agent/declarative"
)

// withApp 构建 app 执行 fn，结束后统一释放资源
func withApp(command, configPath string, fn func(*app) error) (err error) {
	a, err := newApp(command, configPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			a.logger.Warn("cleanup failed", zap.Error(cerr))
		}
	}()
	return fn(a)
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// loadDefinition 读取文档或 YAML/JSON 树，并按 mode 校验
func (a *app) loadDefinition(ctx context.Context, path string, mode declarative.ValidationMode) (*declarative.AgentNode, error) {
	if isMarkdown(path) {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return a.service.ParseMarkdown(ctx, src, mode)
	}

	node, err := declarative.NewTreeLoader().LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := a.service.Validate(ctx, node, mode); err != nil {
		return nil, err
	}
	return node, nil
}

// writeOutput 写入文件，path 为空时写到 out
func writeOutput(out io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := out.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// =============================================================================
// 📄 parse / generate / validate
// =============================================================================

func runParse(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("parse", out)
	configPath := configFlag(fs)
	modeName := fs.String("mode", "lenient", "Validation mode: strict or lenient")
	format := fs.String("format", "", "Output format: yaml or json (default from -o, else yaml)")
	output := fs.String("o", "", "Output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("parse requires exactly one markdown file")
	}
	mode, err := declarative.ParseValidationMode(*modeName)
	if err != nil {
		return err
	}

	if *format == "" {
		*format = declarative.DetectFormat(*output)
		if *format == "" {
			*format = "yaml"
		}
	}

	return withApp("parse", *configPath, func(a *app) error {
		src, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			return err
		}
		node, err := a.service.ParseMarkdown(ctx, src, mode)
		if err != nil {
			return err
		}
		data, err := declarative.NewTreeLoader().Marshal(node, *format)
		if err != nil {
			return err
		}
		return writeOutput(out, *output, data)
	})
}

func runGenerate(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("generate", out)
	configPath := configFlag(fs)
	output := fs.String("o", "", "Output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("generate requires exactly one tree file (.yaml, .yml, .json)")
	}

	return withApp("generate", *configPath, func(a *app) error {
		node, err := declarative.NewTreeLoader().LoadFile(fs.Arg(0))
		if err != nil {
			return err
		}
		doc, err := a.service.GenerateMarkdown(ctx, node)
		if err != nil {
			return err
		}
		return writeOutput(out, *output, []byte(doc))
	})
}

func runValidate(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("validate", out)
	configPath := configFlag(fs)
	modeName := fs.String("mode", "strict", "Validation mode: strict or lenient")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("validate requires at least one file")
	}
	mode, err := declarative.ParseValidationMode(*modeName)
	if err != nil {
		return err
	}

	return withApp("validate", *configPath, func(a *app) error {
		failed := 0
		for _, path := range fs.Args() {
			node, err := a.loadDefinition(ctx, path, mode)
			if err != nil {
				failed++
				fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(out, "OK   %s (%s, %d agents)\n", path, node.Name, node.Count())
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d definitions failed %s validation", failed, fs.NArg(), mode)
		}
		return nil
	})
}

// =============================================================================
// 📦 export / export-batch / import
// =============================================================================

type exportFlags struct {
	configPath *string
	author     *string
	version    *string
}

func registerExportFlags(fs *flag.FlagSet) exportFlags {
	return exportFlags{
		configPath: configFlag(fs),
		author:     fs.String("author", "", "Archive author (default archive.author)"),
		version:    fs.String("version", "", "Archive version (default archive.version)"),
	}
}

func (a *app) metadata(f exportFlags, agent string) archive.Metadata {
	meta := archive.Metadata{
		Agent:      agent,
		Author:     a.cfg.Archive.Author,
		Version:    a.cfg.Archive.Version,
		CreateTime: archive.Timestamp{Time: time.Now()},
	}
	if *f.author != "" {
		meta.Author = *f.author
	}
	if *f.version != "" {
		meta.Version = *f.version
	}
	return meta
}

// archiveFileName 以 Agent 名命名归档
func archiveFileName(agent string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(agent) + ".zip"
}

// exportOne 导出单个定义并写入 dest，dest 为空时写到 dir/<agent>.zip
func (a *app) exportOne(ctx context.Context, f exportFlags, path, dest, dir string) (string, *archive.ExportResult, error) {
	root, err := a.loadDefinition(ctx, path, declarative.StrictExport)
	if err != nil {
		return "", nil, err
	}
	if dest == "" {
		dest = filepath.Join(dir, archiveFileName(root.Name))
	}
	res, err := a.exportTree(ctx, f, root, dest)
	if err != nil {
		return "", nil, err
	}
	return dest, res, nil
}

func (a *app) exportTree(ctx context.Context, f exportFlags, root *declarative.AgentNode, dest string) (*archive.ExportResult, error) {
	assets, err := a.assets(ctx)
	if err != nil {
		return nil, err
	}
	res, err := a.service.Export(ctx, root, a.metadata(f, root.Name), assets)
	if err != nil {
		return nil, err
	}
	if err := writeOutput(nil, dest, res.Data); err != nil {
		return nil, err
	}
	return res, nil
}

func printExport(out io.Writer, source, dest string, res *archive.ExportResult) {
	fmt.Fprintf(out, "%s -> %s (%d entries, %s, dedup hits: %d, missing assets: %d)\n",
		source, dest, res.Stats.Entries, units.HumanSize(float64(len(res.Data))),
		res.Stats.DedupHits, res.Stats.MissingAssets)
}

func runExport(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("export", out)
	flags := registerExportFlags(fs)
	output := fs.String("o", "", "Output archive (default <agent>.zip)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("export requires exactly one definition file")
	}

	return withApp("export", *flags.configPath, func(a *app) error {
		dest, res, err := a.exportOne(ctx, flags, fs.Arg(0), *output, ".")
		if err != nil {
			return err
		}
		printExport(out, fs.Arg(0), dest, res)
		return nil
	})
}

func runExportBatch(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("export-batch", out)
	flags := registerExportFlags(fs)
	outDir := fs.String("out-dir", ".", "Directory for the exported archives")
	concurrency := fs.Int("concurrency", 0, "Parallel exports (default archive.concurrency)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("export-batch requires at least one definition file")
	}

	return withApp("export-batch", *flags.configPath, func(a *app) error {
		if _, err := a.assets(ctx); err != nil {
			return err
		}
		limit := *concurrency
		if limit <= 0 {
			limit = a.cfg.Archive.Concurrency
		}

		sources := fs.Args()
		roots := make([]*declarative.AgentNode, len(sources))
		dests := make([]string, len(sources))
		claimed := make(map[string]string, len(sources))
		for i, path := range sources {
			root, err := a.loadDefinition(ctx, path, declarative.StrictExport)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			dest := filepath.Join(*outDir, archiveFileName(root.Name))
			if prev, ok := claimed[dest]; ok {
				return fmt.Errorf("%s and %s both export to %s", prev, path, dest)
			}
			claimed[dest] = path
			roots[i], dests[i] = root, dest
		}

		results := make([]*archive.ExportResult, len(sources))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		for i, path := range sources {
			g.Go(func() error {
				res, err := a.exportTree(gctx, flags, roots[i], dests[i])
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i, path := range sources {
			printExport(out, path, dests[i], results[i])
		}
		a.logger.Info("batch export completed", zap.Int("archives", len(sources)), zap.Int("concurrency", limit))
		return nil
	})
}

func runImport(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("import", out)
	configPath := configFlag(fs)
	output := fs.String("o", "", "Write the regenerated markdown here (default stdout)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("import requires exactly one archive")
	}

	return withApp("import", *configPath, func(a *app) error {
		data, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			return err
		}
		assets, err := a.assets(ctx)
		if err != nil {
			return err
		}
		outcome, err := a.service.ImportArchive(ctx, data, assets)
		if err != nil {
			return err
		}
		if err := writeOutput(out, *output, []byte(outcome.Markdown)); err != nil {
			return err
		}
		if *output != "" {
			fmt.Fprintf(out, "Imported %s -> %s (%d agents, %d tool schemas, %d documents, %d images)\n",
				outcome.Root.Name, *output, outcome.Root.Count(),
				len(outcome.ToolFileIDs), len(outcome.DocumentFileIDs), len(outcome.ImageFileIDs))
		}
		return nil
	})
}
