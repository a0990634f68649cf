package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codenav/internal/lsp"
	"codenav/internal/server"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Serve textDocument/definition as a language server over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		log.SetOutput(os.Stderr)
		return lsp.NewServer(e, os.Stdin, os.Stdout, Version).Serve()
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the codenav tools as an MCP server over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.SetOutput(os.Stderr)
		return server.NewServer(e, Version).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(mcpCmd)
}
