package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/easyops/tooluse-go/pkg/obs"
)

// Completer 定义 LLMGenerator 依赖的最小补全能力
//
// 由 client.LLMClient 实现，窄接口避免 schema 包反向依赖客户端。
type Completer interface {
	// Completion 发送单条用户消息并返回文本回复
	Completion(ctx context.Context, prompt string) (string, error)
}

// LLMGenerator 基于 LLM 增强的 Schema 生成器
//
// 先用反射生成基础 Schema，再请求 LLM 补全工具与参数描述。
// 增强是 best-effort：LLM 不可用、回复不可解析时回退为基础
// Schema，Generate 不因增强失败而报错。
type LLMGenerator struct {
	completer Completer
	basic     *ReflectGenerator
	logger    obs.Logger
}

var _ Generator = (*LLMGenerator)(nil)

// NewLLMGenerator 创建 LLM 增强生成器
func NewLLMGenerator(completer Completer, logger obs.Logger) *LLMGenerator {
	if logger == nil {
		logger = obs.NewNoopLogger()
	}
	return &LLMGenerator{
		completer: completer,
		basic:     NewReflectGenerator(),
		logger:    logger,
	}
}

const enhancePromptTemplate = `You are given the JSON schema of a tool that can be called by a language model.
Improve the human-readable documentation of this schema.

Current schema:
%s

Respond with a JSON object of this exact shape:
{
  "description": "<one concise sentence describing what the tool does>",
  "parameters": {
    "<parameter name>": {"description": "<one concise sentence describing the parameter>"}
  }
}

Only include parameters that appear in the schema. Respond with JSON only.`

// 从围栏代码块中恢复 JSON 对象
var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Generate 生成并增强 Schema
func (g *LLMGenerator) Generate(ctx context.Context, spec FuncSpec) (ToolSchema, error) {
	schema, err := g.basic.Generate(ctx, spec)
	if err != nil {
		return ToolSchema{}, err
	}

	enhanced, ok := g.enhance(ctx, schema)
	if !ok {
		return schema, nil
	}
	return enhanced, nil
}

// enhanceReply 是 LLM 回复的期望形状
type enhanceReply struct {
	Description string `json:"description"`
	Parameters  map[string]struct {
		Description string `json:"description"`
	} `json:"parameters"`
}

// enhance 请求 LLM 补全描述，失败时返回 ok=false
func (g *LLMGenerator) enhance(ctx context.Context, schema ToolSchema) (ToolSchema, bool) {
	raw, err := schema.ToJSON()
	if err != nil {
		return ToolSchema{}, false
	}

	content, err := g.completer.Completion(ctx, fmt.Sprintf(enhancePromptTemplate, raw))
	if err != nil {
		g.logger.Warn("schema enhancement request failed, using basic schema",
			"tool", schema.Name, "error", err)
		return ToolSchema{}, false
	}

	reply, ok := parseEnhanceReply(content)
	if !ok {
		g.logger.Warn("schema enhancement reply not parseable, using basic schema",
			"tool", schema.Name)
		return ToolSchema{}, false
	}

	if reply.Description != "" {
		schema.Description = reply.Description
	}
	for i, p := range schema.Parameters {
		if e, ok := reply.Parameters[p.Name]; ok && e.Description != "" {
			schema.Parameters[i].Description = e.Description
		}
	}
	return schema, true
}

// parseEnhanceReply 解析 LLM 回复
//
// 先按裸 JSON 解析，失败后尝试从 Markdown 围栏中提取。
func parseEnhanceReply(content string) (enhanceReply, bool) {
	var reply enhanceReply
	if err := json.Unmarshal([]byte(content), &reply); err == nil {
		return reply, true
	}

	m := fencedJSONPattern.FindStringSubmatch(content)
	if m == nil {
		return enhanceReply{}, false
	}
	if err := json.Unmarshal([]byte(m[1]), &reply); err != nil {
		return enhanceReply{}, false
	}
	return reply, true
}
