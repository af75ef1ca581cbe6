package app

import "testing"

func TestStopTracingWithoutTracer(t *testing.T) {
	// 未开启追踪时 tracer 为 nil，优雅退出不能崩
	app := &App{}
	app.stopTracing()
}
