package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	pwmcp "github.com/deixis/pipewalk/internal/mcp"
)

type mcpOpts struct {
	instructions bool
	httpAddr     string
}

// NewMCPCmd returns the mcp command.
func NewMCPCmd() *cobra.Command {
	opts := &mcpOpts{}
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "start the MCP server on stdio or HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.instructions {
				fmt.Fprint(cmd.OutOrStdout(), pwmcp.Instructions)
				return nil
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()

			return serve(ctx, opts.httpAddr)
		},
	}
	mcpCmd.Flags().BoolVar(&opts.instructions, "instructions", false, "print model instructions and exit")
	mcpCmd.Flags().StringVar(&opts.httpAddr, "http", "", "start HTTP server on address (e.g. :9090)")
	return mcpCmd
}

func serve(ctx context.Context, httpAddr string) error {
	s, err := newSession(0)
	if err != nil {
		return err
	}

	// Streamed task output would corrupt the stdio transport.
	s.runner.Stdout = os.Stderr

	server := pwmcp.NewServer(s.engine.Config, s.runner, s.engine.Store, s.engine.Workspace, pwmcp.WithLogger(s.log))

	if httpAddr != "" {
		return serveHTTP(ctx, server, httpAddr, s.log)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string, log logrus.FieldLogger) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Infof("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
