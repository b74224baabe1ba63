package declarative

import (
	"fmt"
	"strings"

	"github.com/BaSui01/agenthub/types"
)

// ValidationMode selects which completeness policy Validate enforces.
type ValidationMode int

const (
	// StrictExport is enforced before a tree is packed into an archive.
	StrictExport ValidationMode = iota + 1
	// LenientMutate is enforced when an edited document is saved.
	LenientMutate
)

func (m ValidationMode) String() string {
	switch m {
	case StrictExport:
		return "strict"
	case LenientMutate:
		return "lenient"
	default:
		return fmt.Sprintf("ValidationMode(%d)", int(m))
	}
}

// ParseValidationMode accepts "strict" or "lenient".
func ParseValidationMode(s string) (ValidationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict", "export":
		return StrictExport, nil
	case "lenient", "mutate":
		return LenientMutate, nil
	default:
		return 0, fmt.Errorf("unsupported validation mode %q, use \"strict\" or \"lenient\"", s)
	}
}

// RootPath returns the error path segment of a root agent.
func RootPath(name string) string {
	return "Agent[" + name + "]"
}

// ChildPath appends a sub-agent segment to parent.
func ChildPath(parent, name string) string {
	return parent + "-->Agent[" + name + "]"
}

// Validate walks node depth-first and returns the first violation of mode.
// The tree is never modified.
func Validate(node *AgentNode, path string, mode ValidationMode) error {
	if node == nil {
		return violation(path, "", "agent is missing")
	}

	var err error
	switch mode {
	case StrictExport:
		err = validateStrict(node, path)
	case LenientMutate:
		err = validateLenient(node, path)
	default:
		return fmt.Errorf("unsupported validation mode: %s", mode)
	}
	if err != nil {
		return err
	}

	for _, child := range node.SubAgents {
		if child == nil {
			return violation(path, "sub_agents", "sub-agent is missing")
		}
		if err := Validate(child, ChildPath(path, child.Name), mode); err != nil {
			return err
		}
	}
	return nil
}

func validateStrict(node *AgentNode, path string) error {
	if isBlank(node.Name) {
		return violation(path, "name", "agent name is blank")
	}
	if node.Type == "" {
		return violation(path, "type", "agent type is missing or invalid", AgentTypeAllowedValues()...)
	}
	if node.Mode == "" {
		return violation(path, "mode", "execution mode is missing or invalid", ExecutionModeAllowedValues()...)
	}
	if node.Model != nil {
		if isBlank(node.Model.Name) {
			return violation(path, "model.name", "model name is blank")
		}
		if isBlank(node.Model.Alias) {
			return violation(path, "model.alias", "model alias is blank")
		}
	}

	for i, tool := range node.Tools {
		field := fmt.Sprintf("tools[%d]", i)
		if isBlank(tool.Name) {
			return violation(path, field+".name", "tool name is blank")
		}
		if tool.SchemaType == "" {
			return violation(path, field+".schema_type",
				fmt.Sprintf("tool %q schema type is missing or invalid", tool.Name), SchemaTypeAllowedValues()...)
		}
		if len(tool.Functions) == 0 {
			return violation(path, field+".functions", fmt.Sprintf("tool %q has no functions", tool.Name))
		}
	}

	for i, kb := range node.KnowledgeBases {
		field := fmt.Sprintf("knowledge_bases[%d]", i)
		if isBlank(kb.Name) {
			return violation(path, field+".name", "knowledge base name is blank")
		}
		if kb.Model == nil {
			return violation(path, field+".model", fmt.Sprintf("knowledge base %q has no model", kb.Name))
		}
		if isBlank(kb.Model.Name) {
			return violation(path, field+".model.name", fmt.Sprintf("knowledge base %q model name is blank", kb.Name))
		}
		if isBlank(kb.Model.Alias) {
			return violation(path, field+".model.alias", fmt.Sprintf("knowledge base %q model alias is blank", kb.Name))
		}
	}
	return nil
}

func validateLenient(node *AgentNode, path string) error {
	if node.Model != nil && node.Model.Type == "" {
		return violation(path, "model.type", "model type is missing or invalid", ModelTypeAllowedValues()...)
	}

	for i, tool := range node.Tools {
		field := fmt.Sprintf("tools[%d]", i)
		if tool.SchemaType == "" {
			return violation(path, field+".schema_type",
				fmt.Sprintf("tool %q schema type is missing or invalid", tool.Name), SchemaTypeAllowedValues()...)
		}
		for j, fn := range tool.Functions {
			if fn.Mode == "" {
				return violation(path, fmt.Sprintf("%s.functions[%d].mode", field, j),
					fmt.Sprintf("tool %q function %q execution mode is missing or invalid", tool.Name, fn.Name),
					ExecutionModeAllowedValues()...)
			}
		}
	}
	return nil
}

func violation(path, field, message string, allowed ...string) error {
	return types.NewError(types.ErrValidation, message).
		WithPath(path).
		WithField(field, allowed...)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
