package markdown

import (
	"strings"

	"github.com/BaSui01/agenthub/agent/declarative"
	"github.com/BaSui01/agenthub/types"
)

// ParseSource tokenizes and parses an agent document.
func ParseSource(src []byte) (*declarative.AgentNode, error) {
	return Parse(Tokenize(src))
}

// Parse builds the agent tree rooted at the first level-1 heading.
// Missing optional structure never fails; strictness belongs to declarative.Validate.
func Parse(blocks []Block) (*declarative.AgentNode, error) {
	root, _ := parseAgent(blocks, 0, len(blocks), 1)
	if root == nil {
		return nil, types.NewError(types.ErrEmptyDocument, "document has no level-1 heading")
	}
	return root, nil
}

// parseAgent parses the first agent at level within blocks[start:end].
// It returns the node and the index just past its content region.
func parseAgent(blocks []Block, start, end, level int) (*declarative.AgentNode, int) {
	at := findHeading(blocks, start, end, level)
	if at < 0 {
		return nil, end
	}

	node := &declarative.AgentNode{Name: agentName(blocks[at].Text)}
	regionEnd := findRegionEnd(blocks, at+1, end, level)
	parseDetails(node, blocks[at+1:regionEnd])

	next := at + 1
	for next < regionEnd {
		child, after := parseAgent(blocks, next, regionEnd, level+1)
		if child == nil {
			break
		}
		node.SubAgents = append(node.SubAgents, child)
		next = after
	}
	return node, regionEnd
}

func findHeading(blocks []Block, start, end, level int) int {
	for i := start; i < end; i++ {
		if blocks[i].Kind == BlockHeading && blocks[i].Level == level {
			return i
		}
	}
	return -1
}

func findRegionEnd(blocks []Block, start, end, level int) int {
	for i := start; i < end; i++ {
		if blocks[i].Kind == BlockHeading && blocks[i].Level <= level {
			return i
		}
	}
	return end
}

// agentName keeps the last whitespace-separated token, dropping ordinal prefixes.
func agentName(heading string) string {
	tokens := strings.Fields(heading)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[len(tokens)-1]
}

func parseDetails(node *declarative.AgentNode, region []Block) {
	for _, b := range region {
		switch b.Kind {
		case BlockHeading:
			return
		case BlockQuote:
			node.Type = declarative.ParseAgentType(strings.TrimSpace(b.Text))
		case BlockCode:
			node.Prompt = strings.TrimSpace(b.Text)
		case BlockList:
			for _, item := range b.Items {
				applyAgentProperty(node, item)
			}
		}
	}
}

func applyAgentProperty(node *declarative.AgentNode, item ListItem) {
	f, value := agentLabels.match(item.Text)
	switch f {
	case fieldMode:
		node.Mode = declarative.ParseExecutionMode(value)
	case fieldDescription:
		node.Description = value
	case fieldModel:
		node.Model = parseModel(item)
	case fieldKnowledgeBases:
		node.KnowledgeBases = parseKnowledgeBases(item)
	case fieldTools:
		node.Tools = parseTools(item)
	}
}

func parseModel(item ListItem) *declarative.ModelSpec {
	if !item.HasSubList() {
		return nil
	}

	model := &declarative.ModelSpec{Type: declarative.ModelTypeLLM}
	for _, sub := range item.Children {
		f, value := modelLabels.match(sub.Text)
		switch f {
		case fieldName:
			model.Name = value
		case fieldAlias:
			model.Alias = value
		case fieldType:
			model.Type = declarative.ParseModelType(value)
		case fieldBaseURL:
			model.BaseURL = orPlaceholder(value, declarative.EndpointPlaceholder)
		case fieldAPIKey:
			model.APIKey = orPlaceholder(value, declarative.APIKeyPlaceholder)
		}
	}
	model.Alias = model.EffectiveAlias()
	return model
}

// isNoneList reports whether a list is the single "无" placeholder.
func isNoneList(items []ListItem) bool {
	for _, item := range items {
		if normalize(item.Text) == noneItem {
			return true
		}
	}
	return false
}

func parseKnowledgeBases(item ListItem) []declarative.KnowledgeBaseSpec {
	if !item.HasSubList() || isNoneList(item.Children) {
		return nil
	}

	var out []declarative.KnowledgeBaseSpec
	for _, sub := range item.Children {
		if !sub.HasSubList() {
			continue
		}
		kb := declarative.KnowledgeBaseSpec{Name: strings.TrimSpace(sub.Text)}
		for _, prop := range sub.Children {
			f, value := knowledgeBaseLabels.match(prop.Text)
			switch f {
			case fieldDescription:
				kb.Description = value
			case fieldModel:
				kb.Model = parseModel(prop)
			case fieldDocuments:
				for _, doc := range prop.Children {
					kb.Documents = append(kb.Documents, strings.TrimSpace(doc.Text))
				}
			}
		}
		out = append(out, kb)
	}
	return out
}

func parseTools(item ListItem) []declarative.ToolSpec {
	if !item.HasSubList() || isNoneList(item.Children) {
		return nil
	}

	var out []declarative.ToolSpec
	for _, sub := range item.Children {
		if !sub.HasSubList() {
			continue
		}
		tool := declarative.ToolSpec{Name: strings.TrimSpace(sub.Text)}
		for _, prop := range sub.Children {
			f, value := toolLabels.match(prop.Text)
			switch f {
			case fieldDescription:
				tool.Description = value
			case fieldSchemaType:
				tool.SchemaType = declarative.ParseSchemaType(value)
			case fieldSchemaFile:
				tool.SchemaFileName = value
			case fieldAPIKeyType:
				tool.APIKeyType = declarative.ParseAPIKeyType(value)
			case fieldAPIKey:
				tool.APIKey = orPlaceholder(value, declarative.APIKeyPlaceholder)
			case fieldAutoAgent:
				tool.AutoAgent = strings.EqualFold(value, "true")
			case fieldFunctions:
				tool.Functions = parseFunctions(prop)
			}
		}
		out = append(out, tool)
	}
	return out
}

func parseFunctions(item ListItem) []declarative.FunctionSpec {
	var out []declarative.FunctionSpec
	for _, sub := range item.Children {
		fn := declarative.FunctionSpec{
			Name: strings.TrimSpace(sub.Text),
			Mode: declarative.ExecutionModeParallel,
		}
		for _, prop := range sub.Children {
			f, value := functionLabels.match(prop.Text)
			switch f {
			case fieldMethod:
				fn.HTTPMethod = value
			case fieldMode:
				fn.Mode = declarative.ParseExecutionMode(value)
			}
		}
		out = append(out, fn)
	}
	return out
}

func orPlaceholder(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}
