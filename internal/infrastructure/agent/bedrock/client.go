package bedrock

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/google/uuid"

	"github.com/mkuznecov/realdoc-classifier/internal/core/ports"
	"github.com/mkuznecov/realdoc-classifier/internal/infrastructure/resilience"
)

// Client invokes a Bedrock agent and collects the streamed completion.
// Retry across attempts is owned by the caller; the executor here is
// breaker-only so a flapping agent endpoint opens the circuit for
// every in-flight document instead of each one rediscovering it.
type Client struct {
	api             invokeAPI
	agentID         string
	agentAliasID    string
	knowledgeBaseID string
	executor        *resilience.Executor
}

type invokeAPI interface {
	InvokeAgent(ctx context.Context, params *bedrockagentruntime.InvokeAgentInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.InvokeAgentOutput, error)
}

type Config struct {
	Region          string
	AgentID         string
	AgentAliasID    string
	KnowledgeBaseID string
	Executor        *resilience.Executor
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.AgentID == "" || cfg.AgentAliasID == "" {
		return nil, fmt.Errorf("bedrock agent id and alias id are required")
	}

	sdkConfig, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Client{
		api:             bedrockagentruntime.NewFromConfig(sdkConfig),
		agentID:         cfg.AgentID,
		agentAliasID:    cfg.AgentAliasID,
		knowledgeBaseID: cfg.KnowledgeBaseID,
		executor:        cfg.Executor,
	}, nil
}

func (c *Client) Invoke(ctx context.Context, prompt string) (ports.AgentResponse, error) {
	var response ports.AgentResponse

	call := func(callCtx context.Context) error {
		resp, err := c.invokeOnce(callCtx, prompt)
		if err != nil {
			return err
		}
		response = resp
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "bedrock.invoke_agent", call, classifyBedrockError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return ports.AgentResponse{}, wrapTemporaryIfNeeded(err)
	}
	return response, nil
}

func (c *Client) invokeOnce(ctx context.Context, prompt string) (ports.AgentResponse, error) {
	input := &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(c.agentID),
		AgentAliasId: aws.String(c.agentAliasID),
		SessionId:    aws.String(uuid.NewString()),
		InputText:    aws.String(prompt),
	}
	if c.knowledgeBaseID != "" {
		input.SessionState = &types.SessionState{
			KnowledgeBaseConfigurations: []types.KnowledgeBaseConfiguration{
				{
					KnowledgeBaseId: aws.String(c.knowledgeBaseID),
					RetrievalConfiguration: &types.KnowledgeBaseRetrievalConfiguration{
						VectorSearchConfiguration: &types.KnowledgeBaseVectorSearchConfiguration{
							NumberOfResults: aws.Int32(5),
						},
					},
				},
			},
		}
	}

	out, err := c.api.InvokeAgent(ctx, input)
	if err != nil {
		return ports.AgentResponse{}, fmt.Errorf("invoke agent: %w", err)
	}

	stream := out.GetStream()
	defer stream.Close()

	var buf bytes.Buffer
	for event := range stream.Events() {
		chunk, ok := event.(*types.ResponseStreamMemberChunk)
		if !ok {
			continue
		}
		buf.Write(chunk.Value.Bytes)
	}
	if err := stream.Err(); err != nil {
		return ports.AgentResponse{}, fmt.Errorf("read agent stream: %w", err)
	}

	raw := buf.Bytes()
	return ports.AgentResponse{
		Completion: string(raw),
		Raw:        append([]byte(nil), raw...),
	}, nil
}
