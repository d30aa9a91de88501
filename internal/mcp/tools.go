package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zx06/xcred/internal/credstore"
	"github.com/zx06/xcred/internal/errors"
	"github.com/zx06/xcred/internal/output"
)

// KeyInput is the input for credential_exists and credential_delete.
type KeyInput struct {
	Key string `json:"key" jsonschema:"Record key inside the service namespace"`
}

// KeyEnsureInput is the input for key_ensure.
type KeyEnsureInput struct {
	Tag string `json:"tag" jsonschema:"Key tag; empty selects the backup key"`
}

// TokenStatusInput is the input for token_status.
type TokenStatusInput struct {
	GitHub bool `json:"github" jsonschema:"Check the GitHub token instead of the API token"`
}

// ToolHandler manages MCP tools. No tool ever returns a stored value.
type ToolHandler struct {
	store *credstore.Store

	// get-or-create 需串行，避免并发请求各自生成不同的 key
	keyMu sync.Mutex
}

// NewToolHandler creates a new tool handler
func NewToolHandler(store *credstore.Store) *ToolHandler {
	return &ToolHandler{store: store}
}

// RegisterTools registers all tools with the MCP server
func (h *ToolHandler) RegisterTools(server *mcp.Server) {
	keySchema := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"key"},
		Properties: map[string]*jsonschema.Schema{
			"key": {Type: "string", Description: "Record key inside the service namespace"},
		},
	}
	server.AddTool(&mcp.Tool{
		Name:        "credential_exists",
		Description: "Report whether a credential record exists (never returns its value)",
		InputSchema: keySchema,
	}, h.existsHandler)
	server.AddTool(&mcp.Tool{
		Name:        "credential_delete",
		Description: "Delete a credential record; deleting a missing record succeeds",
		InputSchema: keySchema,
	}, h.deleteHandler)

	mcp.AddTool[struct{}, any](server, &mcp.Tool{
		Name:        "credential_list",
		Description: "List record keys in the service namespace (memory and vault backends only)",
	}, h.CredentialList)

	server.AddTool(&mcp.Tool{
		Name:        "key_ensure",
		Description: "Get or create a 32-byte symmetric key and return its fingerprint",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"tag": {Type: "string", Description: "Key tag; empty selects the backup key"},
			},
		},
	}, h.keyEnsureHandler)

	server.AddTool(&mcp.Tool{
		Name:        "token_status",
		Description: "Report whether the API (or GitHub) token is stored",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"github": {Type: "boolean", Description: "Check the GitHub token instead of the API token"},
			},
		},
	}, h.tokenStatusHandler)
}

func (h *ToolHandler) existsHandler(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input KeyInput
	if res := h.decode(req, &input); res != nil {
		return res, nil
	}
	result, _, err := h.CredentialExists(ctx, req, input)
	return result, err
}

func (h *ToolHandler) deleteHandler(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input KeyInput
	if res := h.decode(req, &input); res != nil {
		return res, nil
	}
	result, _, err := h.CredentialDelete(ctx, req, input)
	return result, err
}

func (h *ToolHandler) keyEnsureHandler(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input KeyEnsureInput
	if res := h.decode(req, &input); res != nil {
		return res, nil
	}
	result, _, err := h.KeyEnsure(ctx, req, input)
	return result, err
}

func (h *ToolHandler) tokenStatusHandler(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input TokenStatusInput
	if res := h.decode(req, &input); res != nil {
		return res, nil
	}
	result, _, err := h.TokenStatus(ctx, req, input)
	return result, err
}

// decode 解析参数；失败时返回错误结果。
func (h *ToolHandler) decode(req *mcp.CallToolRequest, v any) *mcp.CallToolResult {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
		return h.errorResult(errors.Wrap(errors.CodeCfgInvalid, "invalid input", nil, err))
	}
	return nil
}

// CredentialExists reports whether key is stored.
func (h *ToolHandler) CredentialExists(ctx context.Context, req *mcp.CallToolRequest, input KeyInput) (*mcp.CallToolResult, any, error) {
	if input.Key == "" {
		return h.errorResult(errors.New(errors.CodeCfgInvalid, "key is required", nil)), nil, nil
	}
	return h.okResult(output.SecretStatus{
		Service: h.store.Service(),
		Key:     input.Key,
		Exists:  h.store.Exists(input.Key),
	}), nil, nil
}

// CredentialDelete removes key.
func (h *ToolHandler) CredentialDelete(ctx context.Context, req *mcp.CallToolRequest, input KeyInput) (*mcp.CallToolResult, any, error) {
	if input.Key == "" {
		return h.errorResult(errors.New(errors.CodeCfgInvalid, "key is required", nil)), nil, nil
	}
	existed := h.store.Exists(input.Key)
	if !h.store.Delete(input.Key) {
		return h.errorResult(errors.New(errors.CodeStoreFailed, "failed to delete credential", map[string]any{"key": input.Key})), nil, nil
	}
	return h.okResult(output.SecretStatus{
		Service: h.store.Service(),
		Key:     input.Key,
		Changed: existed,
	}), nil, nil
}

// CredentialList lists record keys.
func (h *ToolHandler) CredentialList(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	keys, err := h.store.Keys()
	if err != nil {
		if stderrors.Is(err, credstore.ErrNotListable) {
			return h.errorResult(errors.Wrap(errors.CodeStoreUnavailable, "backend cannot list keys", nil, err)), nil, nil
		}
		return h.errorResult(errors.Wrap(errors.CodeStoreFailed, "failed to list keys", nil, err)), nil, nil
	}
	return h.okResult(output.KeyList{Service: h.store.Service(), Keys: keys}), nil, nil
}

// KeyEnsure gets or creates a symmetric key and returns only its fingerprint.
func (h *ToolHandler) KeyEnsure(ctx context.Context, req *mcp.CallToolRequest, input KeyEnsureInput) (*mcp.CallToolResult, any, error) {
	h.keyMu.Lock()
	defer h.keyMu.Unlock()

	var (
		kr  credstore.KeyResult
		err error
	)
	if input.Tag == "" {
		kr, err = h.store.BackupEncryptionKey()
	} else {
		kr, err = h.store.SymmetricKey(input.Tag)
	}
	if err != nil {
		return h.errorResult(errors.Wrap(errors.CodeInternal, "failed to generate key", nil, err)), nil, nil
	}
	tag := input.Tag
	if tag == "" {
		tag = credstore.BackupTag
	}
	return h.okResult(output.KeyInfo{
		Service:     h.store.Service(),
		Name:        credstore.SymmetricKeyName(tag),
		Fingerprint: credstore.KeyFingerprint(kr.Key),
		Generated:   kr.Generated,
		Persisted:   kr.Persisted,
	}), nil, nil
}

// TokenStatus reports whether a token is stored.
func (h *ToolHandler) TokenStatus(ctx context.Context, req *mcp.CallToolRequest, input TokenStatusInput) (*mcp.CallToolResult, any, error) {
	var ok bool
	if input.GitHub {
		_, ok = h.store.LoadGitHubToken()
	} else {
		_, ok = h.store.LoadToken()
	}
	return h.okResult(map[string]any{
		"service": h.store.Service(),
		"github":  input.GitHub,
		"present": ok,
	}), nil, nil
}

func (h *ToolHandler) okResult(data any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(output.OKEnvelope(data), "", "  ")
	if err != nil {
		return h.errorResult(errors.Wrap(errors.CodeInternal, "failed to marshal result", nil, err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(jsonData)}},
	}
}

func (h *ToolHandler) errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: h.formatError(err)}},
	}
}

// formatError formats an error as JSON
func (h *ToolHandler) formatError(err error) string {
	var xe *errors.XError
	if err != nil {
		xe = errors.AsOrWrap(err)
	}
	jsonData, _ := json.MarshalIndent(output.ErrorEnvelope(xe), "", "  ")
	return string(jsonData)
}

// CreateServer creates a new MCP server
func CreateServer(version string, store *credstore.Store) (*mcp.Server, error) {
	if store == nil {
		return nil, errors.New(errors.CodeInternal, "credential store is nil", nil)
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "xcred",
		Version: version,
	}, nil)

	handler := NewToolHandler(store)
	handler.RegisterTools(server)

	return server, nil
}
