// =============================================================================
// AgentHub 命令行入口
// =============================================================================
// Agent 定义文档的解析、生成、校验与归档交换工具
//
// 使用方法:
//
//	agenthub parse agent.md                  # 文档 → YAML 树
//	agenthub generate agent.yaml             # YAML/JSON 树 → 文档
//	agenthub validate --mode strict agent.md # 校验
//	agenthub export agent.md                 # 打包为 zip 归档
//	agenthub import agent.zip                # 解包并写入资产库
//	agenthub assets list                     # 查看资产库
//	agenthub migrate up                      # 运行数据库迁移
//	agenthub version                         # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// 版本信息（构建时注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// errUsage 表示参数错误，用法已经打印
var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

// run 分发子命令，out 接收命令的正常输出
func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) < 1 {
		printUsage(out)
		return errUsage
	}

	command, rest := args[0], args[1:]
	switch command {
	case "parse":
		return runParse(ctx, rest, out)
	case "generate":
		return runGenerate(ctx, rest, out)
	case "validate":
		return runValidate(ctx, rest, out)
	case "export":
		return runExport(ctx, rest, out)
	case "export-batch":
		return runExportBatch(ctx, rest, out)
	case "import":
		return runImport(ctx, rest, out)
	case "assets":
		return runAssets(ctx, rest, out)
	case "migrate":
		return runMigrate(ctx, rest, out)
	case "version":
		printVersion(out)
		return nil
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		fmt.Fprintf(out, "Unknown command: %s\n\n", command)
		printUsage(out)
		return errUsage
	}
}

func printVersion(out io.Writer) {
	fmt.Fprintf(out, "AgentHub %s\n", Version)
	fmt.Fprintf(out, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(out, "  Git Commit: %s\n", GitCommit)
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, `AgentHub - Agent definition exchange

Usage:
  agenthub <command> [options]

Commands:
  parse         Parse a markdown definition into a YAML/JSON tree
  generate      Render a YAML/JSON tree as a markdown definition
  validate      Validate a definition (markdown or tree)
  export        Pack a definition and its assets into a zip archive
  export-batch  Export several definitions concurrently
  import        Unpack an archive into the asset store
  assets        Manage the asset store (add, list, cleanup)
  migrate       Database migration commands
  version       Show version information
  help          Show this help message

Common options:
  --config <path>   Path to configuration file (YAML)

Migration subcommands:
  migrate up          Apply all pending migrations
  migrate down        Rollback the last migration
  migrate down-all    Rollback all migrations
  migrate steps <n>   Apply (n>0) or rollback (n<0) n migrations
  migrate goto <v>    Migrate to a specific version
  migrate force <v>   Force set migration version
  migrate version     Show current migration version
  migrate status      Show migration status
  migrate info        Show migration info

Examples:
  agenthub parse --format json agent.md
  agenthub validate --mode strict agent.md
  agenthub export --author ops -o dist/agent.zip agent.md
  agenthub export-batch --out-dir dist agents/*.md
  agenthub import -o agent.md agent.zip
  agenthub assets add --type tool_schema weather.json
  agenthub migrate --config config.yaml up`)
}
