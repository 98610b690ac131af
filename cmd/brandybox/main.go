// Command brandybox is the CLI entry point: login/logout against the
// configured backend, a one-shot sync trigger, config inspection, and a
// serve command running the background loop alongside the local status
// API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brandstaetter/brandybox/internal/api"
	"github.com/brandstaetter/brandybox/internal/auth"
	"github.com/brandstaetter/brandybox/internal/autostart"
	"github.com/brandstaetter/brandybox/internal/baseurl"
	"github.com/brandstaetter/brandybox/internal/config"
	"github.com/brandstaetter/brandybox/internal/driver"
	"github.com/brandstaetter/brandybox/internal/engine"
	"github.com/brandstaetter/brandybox/internal/lock"
	"github.com/brandstaetter/brandybox/internal/remote"
	"github.com/brandstaetter/brandybox/internal/reporter"
	"github.com/brandstaetter/brandybox/internal/state"
)

const shutdownGrace = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:   "brandybox",
	Short: "Brandy Box bidirectional file-sync client",
	Long: `Brandy Box synchronizes a local folder with a remote HTTP file
service: deletions, new files, and changed content flow both ways,
with clock-skew-safe hash verification and a guardrail against
mass-deleting a sync folder by mistake.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return config.Init()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("brandybox version %s (API version %d)\n", api.Version, api.APIVersion)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		fmt.Printf("Config file:   %s\n", config.GetConfigPath())
		fmt.Printf("Sync folder:   %s\n", cfg.SyncFolder)
		fmt.Printf("Autostart:     %t\n", cfg.Autostart)
		fmt.Printf("Base URL mode: %s\n", cfg.BaseURLMode)
		fmt.Printf("Base URL:      %s\n", cfg.BaseURL)
		fmt.Printf("Resolved URL:  %s\n", baseurl.ResolveDefault())
		fmt.Printf("API port:      %d\n", cfg.APIPort)
		fmt.Printf("Logged in:     %t\n", cfg.RefreshToken != "")
		return nil
	},
}

var setFolderCmd = &cobra.Command{
	Use:   "set-folder <path>",
	Short: "Set the sync folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}
		config.SetSyncFolder(abs)
		if err := config.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Printf("Sync folder set to %s\n", abs)
		return nil
	},
}

var setAutostartCmd = &cobra.Command{
	Use:   "set-autostart <true|false>",
	Short: "Enable or disable launching Brandy Box at login",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled := args[0] == "true"
		if err := autostart.Set(enabled); err != nil {
			return fmt.Errorf("update autostart registration: %w", err)
		}
		config.SetAutostart(enabled)
		if err := config.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Printf("Autostart set to %t\n", enabled)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <email> <password>",
	Short: "Authenticate against the configured backend",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := remote.NewHTTPClient(baseurl.ResolveDefault())
		cache := auth.NewTokenCache(client)

		ctx := context.Background()
		if err := cache.Login(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("Login successful.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored refresh token",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := remote.NewHTTPClient(baseurl.ResolveDefault())
		cache := auth.NewTokenCache(client)
		if err := cache.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync cycle and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := buildEngineAndDriver()
		if err != nil {
			return err
		}

		result, err := d.RunOnce(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("Downloaded %d bytes, uploaded %d bytes.\n", result.BytesDownloaded, result.BytesUploaded)
		if result.Warning != "" {
			fmt.Printf("Warning: %s\n", result.Warning)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background sync loop and the local status API",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := lock.New()
		if err != nil {
			return err
		}
		if err := l.Acquire(); err != nil {
			return err
		}
		defer l.Release()

		d, rep, err := buildEngineAndDriver()
		if err != nil {
			return err
		}

		server := api.NewServer(rep, d, config.Get().APIPort)
		d.Sink = server

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go d.RunLoop(ctx)

		go func() {
			fmt.Printf("Listening on http://127.0.0.1:%d\n", config.Get().APIPort)
			if err := server.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "api server stopped: %v\n", err)
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\nShutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	},
}

func buildEngineAndDriver() (*driver.Driver, *reporter.Reporter, error) {
	client := remote.NewHTTPClient(baseurl.ResolveDefault())
	tokens := auth.NewTokenCache(client)

	accessToken, err := tokens.ValidAccessToken(context.Background())
	if err == nil {
		client.SetAccessToken(accessToken)
	}

	store := state.NewStore(filepath.Join(mustConfigDir(), "sync_state.json"))
	rep := reporter.New()
	e := engine.New(config.Get().SyncFolder, client, store, rep)
	d := driver.New(e, rep, tokens, nil)
	return d, rep, nil
}

func mustConfigDir() string {
	dir, err := config.Dir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve config directory: %v\n", err)
		os.Exit(1)
	}
	return dir
}

func init() {
	rootCmd.AddCommand(versionCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(setFolderCmd)
	configCmd.AddCommand(setAutostartCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
