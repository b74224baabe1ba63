package archive

import (
	"path"
	"strings"
)

// Archive layout.
const (
	metadataFile    = "metadata.json"
	modelsDir       = "models"
	toolsDir        = "tools"
	subAgentsDir    = "multiagent"
	knowledgeDir    = "knowledge_bases"
	imagesDir       = "imgs"
	descriptorExt   = ".json"
	reservedRootTag = "_agent"
)

func modelEntry(id string) string    { return modelsDir + "/" + id + descriptorExt }
func toolEntry(id string) string     { return toolsDir + "/" + id + descriptorExt }
func subAgentEntry(id string) string { return subAgentsDir + "/" + id + descriptorExt }

func knowledgeBaseEntry(kbID string) string {
	return knowledgeDir + "/" + kbID + "/" + metadataFile
}

func documentDir(kbID, docID string) string {
	return knowledgeDir + "/" + kbID + "/" + docID
}

// rootEntry names the root descriptor after the agent, keeping it a single
// top-level entry distinct from metadata.json.
func rootEntry(name string) string {
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if name+descriptorExt == metadataFile {
		name += reservedRootTag
	}
	return name + descriptorExt
}

// splitEntry normalizes separators and returns the path segments of a zip entry.
func splitEntry(name string) []string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.Trim(name, "/")
	if name == "" {
		return nil
	}
	return strings.Split(name, "/")
}

// stem returns a file name without directory and extension.
func stem(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// baseName returns the last path segment of a host file name.
func baseName(name string) string {
	return path.Base(strings.ReplaceAll(name, "\\", "/"))
}
