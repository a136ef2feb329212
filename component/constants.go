package component

// 组件名称常量
const (
	ComponentConfig    = "config"
	ComponentLogger    = "logger"
	ComponentTelemetry = "telemetry" // 🎯 遥测组件
	ComponentEvent     = "event"     // 🎯 异步事件组件
	ComponentHealth    = "health"
)

// OptionalPrefix 可选依赖前缀，如 "optional:telemetry"
const OptionalPrefix = "optional:"
