package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/zx06/xcred/internal/config"
	"github.com/zx06/xcred/internal/credstore"
	"github.com/zx06/xcred/internal/errors"
	mcp_pkg "github.com/zx06/xcred/internal/mcp"
)

// NewMCPCommand creates the MCP command group
func NewMCPCommand() *cobra.Command {
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP (Model Context Protocol) server commands",
	}

	mcpCmd.AddCommand(newMCPServerCommand())

	return mcpCmd
}

// newMCPServerCommand creates the MCP server command
func newMCPServerCommand() *cobra.Command {
	opts := &mcpServerOptions{}
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start MCP server exposing non-revealing credential tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.transportSet = cmd.Flags().Changed("transport")
			opts.httpAddrSet = cmd.Flags().Changed("http-addr")
			opts.httpAuthTokenSet = cmd.Flags().Changed("http-auth-token")
			return runMCPServer(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.transport, "transport", mcp_pkg.TransportStdio, "MCP transport: stdio|streamable_http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", config.DefaultMCPHTTPAddr, "Streamable HTTP listen address")
	cmd.Flags().StringVar(&opts.httpAuthToken, "http-auth-token", "", "Streamable HTTP auth token (required for streamable_http)")
	return cmd
}

// runMCPServer runs the MCP server until ctx is cancelled or interrupted.
func runMCPServer(ctx context.Context, opts *mcpServerOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	resolved, xe := resolveMCPServerOptions(opts, GlobalConfig.Resolved)
	if xe != nil {
		return xe
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	return withStore(ctx, func(store *credstore.Store) error {
		server, err := mcp_pkg.CreateServer(version, store)
		if err != nil {
			if xe, ok := errors.As(err); ok {
				return xe
			}
			return errors.Wrap(errors.CodeInternal, "failed to create MCP server", nil, err)
		}

		switch resolved.transport {
		case mcp_pkg.TransportStdio:
			return server.Run(ctx, &mcp.StdioTransport{})
		case mcp_pkg.TransportStreamableHTTP:
			handler, err := mcp_pkg.NewStreamableHTTPHandler(server, resolved.httpAuthToken)
			if err != nil {
				if xe, ok := errors.As(err); ok {
					return xe
				}
				return errors.Wrap(errors.CodeInternal, "failed to create streamable http handler", nil, err)
			}
			return serveHTTP(ctx, &http.Server{
				Addr:              resolved.httpAddr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			})
		default:
			return errors.New(errors.CodeCfgInvalid, "unsupported mcp transport", map[string]any{"transport": resolved.transport})
		}
	})
}

func serveHTTP(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(errors.CodeInternal, "mcp http server failed", map[string]any{"addr": srv.Addr}, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type mcpServerOptions struct {
	transport        string
	transportSet     bool
	httpAddr         string
	httpAddrSet      bool
	httpAuthToken    string
	httpAuthTokenSet bool
}

type mcpServerResolved struct {
	transport     string
	httpAddr      string
	httpAuthToken string
}

// resolveMCPServerOptions 合并 CLI 与已解析的配置（ENV 已在 config.Resolve 中合并）。
func resolveMCPServerOptions(opts *mcpServerOptions, r config.Resolved) (mcpServerResolved, *errors.XError) {
	if opts == nil {
		opts = &mcpServerOptions{}
	}

	transport := firstNonEmpty(
		valueIfSet(opts.transportSet, opts.transport),
		r.MCP.Transport,
		mcp_pkg.TransportStdio,
	)
	if transport != mcp_pkg.TransportStdio && transport != mcp_pkg.TransportStreamableHTTP {
		return mcpServerResolved{}, errors.New(errors.CodeCfgInvalid, "invalid mcp transport", map[string]any{"transport": transport})
	}

	httpAddr := firstNonEmpty(
		valueIfSet(opts.httpAddrSet, opts.httpAddr),
		r.MCP.HTTP.Addr,
		config.DefaultMCPHTTPAddr,
	)

	authToken := valueIfSet(opts.httpAuthTokenSet, opts.httpAuthToken)
	if authToken == "" && r.MCP.HTTP.AuthToken != "" {
		secretValue, xe := credstore.ResolveRef(r.MCP.HTTP.AuthToken, credstore.RefOptions{
			Service:        r.Service,
			AllowPlaintext: r.MCP.HTTP.AllowPlaintextToken,
			Keyring:        keyringAPI,
		})
		if xe != nil {
			return mcpServerResolved{}, xe
		}
		authToken = secretValue
	}

	if transport == mcp_pkg.TransportStreamableHTTP && authToken == "" {
		return mcpServerResolved{}, errors.New(errors.CodeCfgInvalid, "streamable http transport requires auth token", nil)
	}

	return mcpServerResolved{
		transport:     transport,
		httpAddr:      httpAddr,
		httpAuthToken: authToken,
	}, nil
}

func valueIfSet(set bool, value string) string {
	if !set {
		return ""
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
