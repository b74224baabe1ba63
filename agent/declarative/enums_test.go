package declarative

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParseAgentType(t *testing.T) {
	assert.Equal(t, AgentTypeGeneral, ParseAgentType("普通"))
	assert.Equal(t, AgentTypeDistribute, ParseAgentType("DISTRIBUTE"))
	assert.Equal(t, AgentTypeReflection, ParseAgentType("反思"))
	assert.Equal(t, AgentType(""), ParseAgentType("normal"))
	assert.Equal(t, "分发", AgentTypeDistribute.Description())
}

func TestParseExecutionMode(t *testing.T) {
	assert.Equal(t, ExecutionModeParallel, ParseExecutionMode("并行"))
	assert.Equal(t, ExecutionModeSerial, ParseExecutionMode("SERIAL"))
	assert.Equal(t, ExecutionModeReject, ParseExecutionMode("拒绝"))
	assert.Equal(t, ExecutionMode(""), ParseExecutionMode(""))
}

func TestParseModelType(t *testing.T) {
	assert.Equal(t, ModelTypeEmbedding, ParseModelType("embedding"))
	assert.Equal(t, ModelTypeEmbedding, ParseModelType("EMBEDDING"))
	assert.Equal(t, ModelTypeTTS, ParseModelType("文本转语音"))
	assert.Equal(t, ModelTypeLLM, ParseModelType("LLM"))
	assert.Equal(t, ModelType(""), ParseModelType("video"))
	assert.Equal(t, "LLM,embedding,asr,tts,image", strings.Join(ModelTypeAllowedValues(), ","))
}

func TestParseSchemaType(t *testing.T) {
	assert.Equal(t, SchemaTypeOpenAPI3, ParseSchemaType("OPEN_API3"))
	assert.Equal(t, SchemaTypeOpenTool, ParseSchemaType("OpenTool"))
	assert.Equal(t, SchemaTypeOpenToolExternal, ParseSchemaType("OPEN_TOOL"))
	assert.Equal(t, SchemaTypeMCP, ParseSchemaType("5"))
	assert.Equal(t, SchemaType(""), ParseSchemaType("GRPC"))
	assert.Equal(t, SchemaType(""), ParseSchemaType("3"))

	assert.Equal(t, 1, SchemaTypeOpenAPI3.Code())
	assert.Equal(t, 2, SchemaTypeJSONRPC.Code())
	assert.Equal(t, 4, SchemaTypeOpenToolExternal.Code())
	assert.Equal(t, 6, SchemaTypeOpenTool.Code())
	assert.Equal(t, 0, SchemaType("").Code())
}

func TestParseAPIKeyType(t *testing.T) {
	assert.Equal(t, APIKeyTypeBearer, ParseAPIKeyType("Bearer认证"))
	assert.Equal(t, APIKeyTypeBearer, ParseAPIKeyType("Bearer"))
	assert.Equal(t, APIKeyTypeBasic, ParseAPIKeyType("BASIC"))
	assert.Equal(t, APIKeyType(""), ParseAPIKeyType("Digest"))
}

func TestEnumDescriptionsRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		at := rapid.SampledFrom([]AgentType{AgentTypeGeneral, AgentTypeDistribute, AgentTypeReflection}).Draw(rt, "agentType")
		if ParseAgentType(at.Description()) != at {
			rt.Fatalf("agent type %s did not survive its description", at)
		}

		mode := rapid.SampledFrom([]ExecutionMode{ExecutionModeParallel, ExecutionModeSerial, ExecutionModeReject}).Draw(rt, "mode")
		if ParseExecutionMode(mode.Description()) != mode {
			rt.Fatalf("mode %s did not survive its description", mode)
		}

		st := rapid.SampledFrom([]SchemaType{SchemaTypeOpenAPI3, SchemaTypeJSONRPC, SchemaTypeOpenTool, SchemaTypeOpenToolExternal, SchemaTypeMCP}).Draw(rt, "schemaType")
		if SchemaTypeFromCode(st.Code()) != st {
			rt.Fatalf("schema type %s did not survive its code", st)
		}
		if ParseSchemaType(st.Description()) != st {
			rt.Fatalf("schema type %s did not survive its description", st)
		}

		mt := rapid.SampledFrom([]ModelType{ModelTypeLLM, ModelTypeEmbedding, ModelTypeASR, ModelTypeTTS, ModelTypeImage}).Draw(rt, "modelType")
		if ParseModelType(string(mt)) != mt {
			rt.Fatalf("model type %s did not survive its code", mt)
		}
	})
}
