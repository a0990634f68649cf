package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codenav/internal/config"
	"codenav/internal/engine"
	"codenav/util"
)

// Version is set at build time.
var Version = "dev"

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	homeDir string
)

var rootCmd = &cobra.Command{
	Use:   "codenav",
	Short: "Go to definition across compilation units",
	Long: `codenav finds the definition of the symbol referenced at a source position,
searching every loaded file when the reference only sees a declaration.

Example usage:
  codenav definition main.cpp 7 2 --load print.cpp   # Print the definition position
  codenav lsp                                        # Serve textDocument/definition over stdio
  codenav mcp                                        # Serve the MCP tools over stdio`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = util.FindGitRoot("")
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		homeDir, err = config.ResolveHome(homeDir)
		if err != nil {
			return fmt.Errorf("failed to resolve home: %w", err)
		}

		switch {
		case cfgFile != "":
			cfg, err = config.Load(cfgFile)
		case hasConfig(rootDir):
			cfg, err = config.LoadFromDir(rootDir)
		default:
			cfg, err = config.LoadFromDir(homeDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./codenav.yaml, then the home's)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "workspace directory (default is the enclosing git repository)")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "engine home holding the config and session database")
}

func hasConfig(dir string) bool {
	for _, path := range []string{
		filepath.Join(dir, config.FileName),
		filepath.Join(dir, ".codenav", "config.yaml"),
	} {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

// openEngine opens the engine and preloads the workspace when configured.
func openEngine(cmd *cobra.Command) (*engine.Engine, error) {
	e, err := engine.Open(homeDir, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Preload.Enabled {
		files, err := e.Discover(rootDir)
		if err != nil {
			e.Close()
			return nil, err
		}
		loadWithProgress(cmd, e, files, "Preloading")
	}
	return e, nil
}
