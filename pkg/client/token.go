package client

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/easyops/tooluse-go/pkg/core/message"
)

// messageOverheadTokens 每条消息的格式开销近似值
const messageOverheadTokens = 4

// EstimateTokens 估算对话历史的 prompt token 数
//
// 优先按模型选择编码，未知模型回退 cl100k_base。编码不可用
// 时退化为字符数 / 4 的粗略估算。估算值只用于日志与用量
// 兜底，不参与任何截断决策。
func EstimateTokens(model string, msgs []message.Message) int {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}

	total := 0
	for _, msg := range msgs {
		text := msg.Text()
		if err != nil {
			total += len(text)/4 + messageOverheadTokens
			continue
		}
		total += len(enc.Encode(text, nil, nil)) + messageOverheadTokens
	}
	return total
}
