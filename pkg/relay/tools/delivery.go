package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/voxbridge-ai/voxbridge/pkg/relay"
	"github.com/voxbridge-ai/voxbridge/pkg/relay/protocol"
	"github.com/voxbridge-ai/voxbridge/pkg/relay/tools/adapters/workflow"
)

const (
	ToolCreateDeliveryOrder = "create_delivery_order"
	ToolAnalyzeCallLog      = "analyze_call_log"
)

// DeliveryOrderExecutor creates delivery orders via the external workflow.
type DeliveryOrderExecutor struct {
	workflows *workflow.Client
}

func NewDeliveryOrderExecutor(workflows *workflow.Client) *DeliveryOrderExecutor {
	return &DeliveryOrderExecutor{workflows: workflows}
}

func (e *DeliveryOrderExecutor) Name() string { return ToolCreateDeliveryOrder }

func (e *DeliveryOrderExecutor) Definition() protocol.ToolSchema {
	return protocol.ToolSchema{
		Type:        "function",
		Name:        ToolCreateDeliveryOrder,
		Description: "Create a delivery order for a destination.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"order_id": {"type": "string", "description": "Identifier of the order to deliver"},
				"destination": {"type": "string", "description": "Delivery destination address"}
			},
			"required": ["order_id", "destination"]
		}`),
	}
}

func (e *DeliveryOrderExecutor) Execute(ctx context.Context, args map[string]any) (string, error) {
	orderID, err := stringArg(args, "order_id")
	if err != nil {
		return "", err
	}
	destination, err := stringArg(args, "destination")
	if err != nil {
		return "", err
	}
	if e.workflows == nil || !e.workflows.DeliveryConfigured() {
		return "", relay.NewNotFoundError("delivery workflow is not configured")
	}
	result, err := e.workflows.CreateDeliveryOrder(ctx, orderID, destination)
	if err != nil {
		return "", fmt.Errorf("create delivery order: %w", err)
	}
	return result, nil
}

// CallLogExecutor analyzes raw call-log text via the external workflow.
type CallLogExecutor struct {
	workflows *workflow.Client
}

func NewCallLogExecutor(workflows *workflow.Client) *CallLogExecutor {
	return &CallLogExecutor{workflows: workflows}
}

func (e *CallLogExecutor) Name() string { return ToolAnalyzeCallLog }

func (e *CallLogExecutor) Definition() protocol.ToolSchema {
	return protocol.ToolSchema{
		Type:        "function",
		Name:        ToolAnalyzeCallLog,
		Description: "Analyze a raw call log and summarize its contents.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"call_log": {"type": "string", "description": "Raw call log text to analyze"}
			},
			"required": ["call_log"]
		}`),
	}
}

func (e *CallLogExecutor) Execute(ctx context.Context, args map[string]any) (string, error) {
	callLog, err := stringArg(args, "call_log")
	if err != nil {
		return "", err
	}
	if e.workflows == nil || !e.workflows.AnalysisConfigured() {
		return "", relay.NewNotFoundError("call-log analysis workflow is not configured")
	}
	result, err := e.workflows.AnalyzeCallLog(ctx, callLog)
	if err != nil {
		return "", fmt.Errorf("analyze call log: %w", err)
	}
	return result, nil
}
