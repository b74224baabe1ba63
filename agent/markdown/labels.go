package markdown

import "strings"

// Dialect labels. These strings are the wire contract of agent documents.
const (
	labelMode           = "模式:"
	labelDescription    = "描述:"
	labelModel          = "大模型"
	labelKnowledgeBases = "知识库"
	labelTools          = "工具"

	labelModelName    = "名称:"
	labelModelAlias   = "别名:"
	labelModelType    = "类型:"
	labelModelBaseURL = "地址:"
	labelModelAPIKey  = "密钥:"

	labelKBModel     = "模型"
	labelKBDocuments = "文档"

	labelSchemaType = "schema类型:"
	labelSchemaFile = "schema文稿:"
	labelAPIKeyType = "API密钥类型:"
	labelAPIKey     = "API密钥值:"
	labelAutoAgent  = "是否支持autoAgent:"
	labelFunctions  = "方法模式"

	labelMethod   = "请求方法:"
	labelExecMode = "执行模式:"

	// noneItem is the single item standing for an empty list.
	noneItem = "无"
)

// field is the property a label resolves to.
type field int

const (
	fieldNone field = iota

	fieldMode
	fieldDescription
	fieldModel
	fieldKnowledgeBases
	fieldTools

	fieldName
	fieldAlias
	fieldType
	fieldBaseURL
	fieldAPIKey

	fieldDocuments

	fieldSchemaType
	fieldSchemaFile
	fieldAPIKeyType
	fieldAutoAgent
	fieldFunctions

	fieldMethod
)

type labelEntry struct {
	label string
	field field
}

// labelSet is a static prefix table, matched in order.
type labelSet []labelEntry

var (
	agentLabels = labelSet{
		{labelMode, fieldMode},
		{labelDescription, fieldDescription},
		{labelModel, fieldModel},
		{labelKnowledgeBases, fieldKnowledgeBases},
		{labelTools, fieldTools},
	}

	modelLabels = labelSet{
		{labelModelName, fieldName},
		{labelModelAlias, fieldAlias},
		{labelModelType, fieldType},
		{labelModelBaseURL, fieldBaseURL},
		{labelModelAPIKey, fieldAPIKey},
	}

	knowledgeBaseLabels = labelSet{
		{labelDescription, fieldDescription},
		{labelKBModel, fieldModel},
		{labelKBDocuments, fieldDocuments},
	}

	toolLabels = labelSet{
		{labelDescription, fieldDescription},
		{labelSchemaType, fieldSchemaType},
		{labelSchemaFile, fieldSchemaFile},
		{labelAPIKeyType, fieldAPIKeyType},
		{labelAPIKey, fieldAPIKey},
		{labelAutoAgent, fieldAutoAgent},
		{labelFunctions, fieldFunctions},
	}

	functionLabels = labelSet{
		{labelMethod, fieldMethod},
		{labelExecMode, fieldMode},
	}
)

// match resolves text to a field and the trimmed value after the label.
func (s labelSet) match(text string) (field, string) {
	text = normalize(text)
	for _, e := range s {
		if strings.HasPrefix(text, e.label) {
			return e.field, strings.TrimSpace(strings.TrimPrefix(text, e.label))
		}
	}
	return fieldNone, ""
}

// normalize trims text and folds the full-width colon.
func normalize(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), "：", ":")
}
