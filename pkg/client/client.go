package client

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/easyops/tooluse-go/pkg/adapter"
	"github.com/easyops/tooluse-go/pkg/core/config"
	"github.com/easyops/tooluse-go/pkg/core/errors"
	"github.com/easyops/tooluse-go/pkg/core/message"
	"github.com/easyops/tooluse-go/pkg/obs"
	"github.com/easyops/tooluse-go/pkg/schema"
	"github.com/easyops/tooluse-go/pkg/tools"
)

// LLMClient 带工具循环的 LLM 客户端
//
// 一次 Call 是一个回合：发送对话历史，若模型请求工具调用则
// 执行并把结果回灌，直到模型给出纯文本回复或达到轮数上限。
type LLMClient struct {
	cfg     config.ModelConfig
	backend Backend
	adapter adapter.Adapter
	logger  obs.Logger
	tracer  trace.Tracer
}

// Turn 一个回合的执行结果
type Turn struct {
	// ID 回合标识
	ID string
	// Messages 执行后的完整对话历史
	Messages []message.Message
	// Text 最终的文本回复
	Text string
	// Usage 累计 token 用量
	Usage message.TokenUsage
	// Rounds 实际执行的工具轮数
	Rounds int
}

// Option 客户端配置选项
type Option func(*LLMClient)

// WithBackend 替换后端实现
//
// 主要用于测试注入假后端。
func WithBackend(backend Backend) Option {
	return func(c *LLMClient) {
		c.backend = backend
	}
}

// WithClientLogger 设置日志器
func WithClientLogger(logger obs.Logger) Option {
	return func(c *LLMClient) {
		c.logger = logger
	}
}

// New 创建 LLM 客户端
//
// 配置无效或后端必需参数缺失时报 ErrBackendConfig，
// 这是构造期错误，不会延迟到第一次调用才暴露。
func New(cfg config.ModelConfig, opts ...Option) (*LLMClient, error) {
	cfg = cfg.WithDefaults()

	a, err := adapter.ForClientType(string(cfg.ClientType))
	if err != nil {
		return nil, errors.WrapError(errors.ErrBackendConfig, err.Error())
	}

	c := &LLMClient{
		cfg:     cfg,
		adapter: a,
		logger:  obs.NewNoopLogger(),
		tracer:  obs.Tracer(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapError(errors.ErrBackendConfig, err.Error())
	}

	if c.backend == nil {
		backend, err := newBackend(cfg)
		if err != nil {
			return nil, err
		}
		c.backend = backend
	}

	return c, nil
}

// Config 返回客户端配置
func (c *LLMClient) Config() config.ModelConfig {
	return c.cfg
}

// Call 执行一个回合
//
// collection 为 nil 时不提供工具，纯文本补全。配置了工具
// 白名单时集合先按白名单过滤，白名单中的未知名字报
// ErrUnknownTool 并中止回合。
func (c *LLMClient) Call(ctx context.Context, msgs []message.Message, collection *tools.ToolCollection) (*Turn, error) {
	turn := &Turn{
		ID:       uuid.NewString(),
		Messages: append([]message.Message(nil), msgs...),
	}

	ctx, span := c.tracer.Start(ctx, "tooluse.turn",
		trace.WithAttributes(
			attribute.String("turn.id", turn.ID),
			attribute.String("llm.model", c.cfg.Model),
		))
	defer span.End()

	effective, err := c.restrict(collection)
	if err != nil {
		return nil, err
	}

	var wireTools []map[string]interface{}
	if effective != nil && effective.Len() > 0 {
		wireTools = c.adapter.FormatToolSchemas(effective.Schemas())
	}

	for round := 0; ; round++ {
		c.logger.WithContext(ctx).Debug("sending request",
			"turn", turn.ID, "round", round, "messages", len(turn.Messages))

		resp, err := c.backend.Send(ctx, turn.Messages, wireTools)
		if err != nil {
			return nil, err
		}
		if resp.Usage.IsEmpty() {
			resp.Usage.PromptTokens = EstimateTokens(c.cfg.Model, turn.Messages)
			resp.Usage.TotalTokens = resp.Usage.PromptTokens
		}
		turn.Usage.Add(resp.Usage)

		assistant, err := c.adapter.AppendResponse(resp)
		if err != nil {
			return nil, err
		}
		turn.Messages = append(turn.Messages, assistant)

		calls, err := c.adapter.ExtractToolCalls(resp)
		if err != nil {
			return nil, err
		}

		if len(calls) == 0 || round >= c.cfg.MaxToolRounds {
			text, err := c.adapter.ExtractText(resp)
			if err != nil {
				return nil, err
			}
			turn.Text = text
			turn.Rounds = round
			return turn, nil
		}

		for _, call := range calls {
			if effective == nil || !effective.Contains(call.Name) {
				// 跳过的调用不追加任何响应消息，历史留下空档
				c.logger.WithContext(ctx).Warn("model requested unavailable tool, skipping",
					"tool", call.Name)
				continue
			}
			result, err := c.executeCall(ctx, effective, call)
			if err != nil {
				return nil, err
			}
			turn.Messages = append(turn.Messages, c.adapter.FormatToolResponse(call, result))
		}
	}
}

// Completion 发送单条用户消息并返回文本回复
//
// 实现 schema.Completer，供 LLM 增强生成器使用。
func (c *LLMClient) Completion(ctx context.Context, prompt string) (string, error) {
	turn, err := c.Call(ctx, []message.Message{message.NewUserMessage(prompt)}, nil)
	if err != nil {
		return "", err
	}
	return turn.Text, nil
}

// Close 关闭客户端
func (c *LLMClient) Close() error {
	return c.backend.Close()
}

// executeCall 执行单个工具调用并产出结果文本
//
// 预期类错误（参数无效、工具执行失败）格式化为错误文本回灌
// 给模型，循环继续；其余错误中止整个回合。
func (c *LLMClient) executeCall(ctx context.Context, effective *tools.ToolCollection, call message.ToolCall) (string, error) {
	result, err := effective.Invoke(ctx, call.Name, call.Arguments)
	if err != nil {
		if errors.IsRecoverable(err) {
			c.logger.WithContext(ctx).Warn("tool call failed", "tool", call.Name, "error", err)
			return "Error: " + err.Error(), nil
		}
		return "", err
	}

	return adapter.ResultText(result), nil
}

// restrict 校验白名单并按白名单过滤集合
//
// 白名单中的每个名字必须是集合成员，缺失时报 ErrUnknownTool
// 并列出全部缺失的名字。白名单为空时原样返回。
func (c *LLMClient) restrict(collection *tools.ToolCollection) (*tools.ToolCollection, error) {
	if collection == nil || len(c.cfg.AllowedTools) == 0 {
		return collection, nil
	}

	var missing []string
	allowed := make(map[string]bool, len(c.cfg.AllowedTools))
	for _, name := range c.cfg.AllowedTools {
		allowed[name] = true
		if !collection.Contains(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.WrapError(errors.ErrUnknownTool,
			fmt.Sprintf("allowed tools not available: [%s]", strings.Join(missing, ", ")))
	}

	var blocked []string
	for _, name := range collection.Names() {
		if !allowed[name] {
			blocked = append(blocked, name)
		}
	}
	return collection.Without(blocked...), nil
}

// GenerateSchema 用本客户端增强生成工具 Schema
func (c *LLMClient) GenerateSchema(ctx context.Context, spec schema.FuncSpec) (schema.ToolSchema, error) {
	gen := schema.NewLLMGenerator(c, c.logger)
	return gen.Generate(ctx, spec)
}
