package logging

import (
	"context"

	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 4)

	if runID := RunIDFromContext(ctx); runID != "" {
		fields = append(fields, zap.String("run.id", runID))
	}
	if phaseID := PhaseIDFromContext(ctx); phaseID != 0 {
		fields = append(fields, zap.Int("phase.id", phaseID))
	}
	if resource := ResourceFromContext(ctx); resource != "" {
		fields = append(fields, zap.String("resource", resource))
	}

	return fields
}

// Context key types
type runCtxKey struct{}
type phaseCtxKey struct{}
type resourceCtxKey struct{}

// WithRunID adds the run identifier to context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runCtxKey{}, runID)
}

// RunIDFromContext extracts the run identifier from context.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// WithPhaseID adds the phase number to context.
func WithPhaseID(ctx context.Context, phaseID int) context.Context {
	return context.WithValue(ctx, phaseCtxKey{}, phaseID)
}

// PhaseIDFromContext extracts the phase number from context.
func PhaseIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(phaseCtxKey{}).(int); ok {
		return id
	}
	return 0
}

// WithResource adds the resource local name to context.
func WithResource(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, resourceCtxKey{}, name)
}

// ResourceFromContext extracts the resource local name from context.
func ResourceFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(resourceCtxKey{}).(string); ok {
		return name
	}
	return ""
}
