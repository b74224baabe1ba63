package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/docker/go-units"

	"github.com/BaSui01/agenthub/agent/artifacts"
)

// =============================================================================
// 🗂️ assets 子命令
// =============================================================================

func runAssets(ctx context.Context, args []string, out io.Writer) error {
	if len(args) < 1 {
		fmt.Fprintln(out, "Usage: agenthub assets <add|list|cleanup> [options]")
		return errUsage
	}

	switch args[0] {
	case "add":
		return runAssetsAdd(ctx, args[1:], out)
	case "list", "ls":
		return runAssetsList(ctx, args[1:], out)
	case "cleanup":
		return runAssetsCleanup(ctx, args[1:], out)
	default:
		fmt.Fprintf(out, "Unknown assets subcommand: %s\n", args[0])
		return errUsage
	}
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func runAssetsAdd(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("assets add", out)
	configPath := configFlag(fs)
	typeName := fs.String("type", string(artifacts.ArtifactTypeFile), "Asset type: tool_schema, document, image, file")
	name := fs.String("name", "", "Asset name (default file base name, single file only)")
	tags := fs.String("tags", "", "Comma-separated tags")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("assets add requires at least one file")
	}
	if *name != "" && fs.NArg() > 1 {
		return fmt.Errorf("--name can only be used with a single file")
	}
	artifactType, err := artifacts.ParseArtifactType(*typeName)
	if err != nil {
		return err
	}

	return withApp("assets", *configPath, func(a *app) error {
		manager, err := a.assets(ctx)
		if err != nil {
			return err
		}
		for _, path := range fs.Args() {
			assetName := *name
			if assetName == "" {
				assetName = filepath.Base(path)
			}
			if err := addAsset(ctx, manager, out, path, assetName, artifactType, splitTags(*tags)); err != nil {
				return err
			}
		}
		return nil
	})
}

func addAsset(ctx context.Context, m *artifacts.Manager, out io.Writer, path, name string, t artifacts.ArtifactType, tags []string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	artifact, err := m.Create(ctx, name, t, f, artifacts.WithTags(tags...))
	if err != nil {
		return fmt.Errorf("add %s: %w", path, err)
	}
	fmt.Fprintf(out, "Added %s v%d (%s, %s)\n", artifact.Name, artifact.Version, artifact.ID, units.HumanSize(float64(artifact.Size)))
	return nil
}

func runAssetsList(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("assets list", out)
	configPath := configFlag(fs)
	name := fs.String("name", "", "Filter by name")
	typeName := fs.String("type", "", "Filter by type")
	status := fs.String("status", "", "Filter by status: pending, ready, archived")
	tags := fs.String("tags", "", "Comma-separated tags that must all be present")
	limit := fs.Int("limit", 0, "Maximum number of rows")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	query := artifacts.ArtifactQuery{
		Name:   *name,
		Status: artifacts.ArtifactStatus(*status),
		Tags:   splitTags(*tags),
		Limit:  *limit,
	}
	if *typeName != "" {
		t, err := artifacts.ParseArtifactType(*typeName)
		if err != nil {
			return err
		}
		query.Type = t
	}

	return withApp("assets", *configPath, func(a *app) error {
		manager, err := a.assets(ctx)
		if err != nil {
			return err
		}
		list, err := manager.List(ctx, query)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tVERSION\tSIZE\tSTATUS\tCREATED")
		for _, item := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				item.ID, item.Name, item.Type, item.Version,
				units.HumanSize(float64(item.Size)), item.Status,
				item.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Total: %d\n", len(list))
		return nil
	})
}

func runAssetsCleanup(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("assets cleanup", out)
	configPath := configFlag(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	return withApp("assets", *configPath, func(a *app) error {
		manager, err := a.assets(ctx)
		if err != nil {
			return err
		}
		n, err := manager.Cleanup(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %d expired assets\n", n)
		return nil
	})
}
