package obs

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/easyops/tooluse-go"

// Tracer 返回框架使用的 Tracer
//
// 使用全局 TracerProvider；宿主应用未配置时返回空操作实现，
// 导出器的接入由宿主应用负责。
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
