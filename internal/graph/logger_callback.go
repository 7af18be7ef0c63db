package graph

import (
	"context"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/schema"
	"github.com/phuslu/log"
)

type startedAtKey struct{}

// LoggerCallback writes graph and node lifecycle events to a structured logger.
type LoggerCallback struct {
	Log *log.Logger
}

func NewLoggerCallback(logger *log.Logger) *LoggerCallback {
	return &LoggerCallback{Log: logger}
}

func runName(info *callbacks.RunInfo) string {
	if info == nil {
		return ""
	}
	return info.Name
}

func (cb *LoggerCallback) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	cb.Log.Debug().Str("node", runName(info)).Msg("node started")
	return context.WithValue(ctx, startedAtKey{}, time.Now())
}

func (cb *LoggerCallback) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	entry := cb.Log.Debug().Str("node", runName(info))
	if started, ok := ctx.Value(startedAtKey{}).(time.Time); ok {
		entry = entry.Dur("elapsed", time.Since(started))
	}
	entry.Msg("node finished")
	return ctx
}

func (cb *LoggerCallback) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	cb.Log.Error().Str("node", runName(info)).Err(err).Msg("node failed")
	return ctx
}

func (cb *LoggerCallback) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo,
	input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	defer input.Close()
	return ctx
}

func (cb *LoggerCallback) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo,
	output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	defer output.Close()
	return ctx
}
