package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/trapdoor-ai/trapdoor/internal/access"
	"github.com/trapdoor-ai/trapdoor/internal/audit"
	"github.com/trapdoor-ai/trapdoor/internal/auth"
	"github.com/trapdoor-ai/trapdoor/internal/chatproxy"
	"github.com/trapdoor-ai/trapdoor/internal/config"
	"github.com/trapdoor-ai/trapdoor/internal/server"
	"github.com/trapdoor-ai/trapdoor/internal/tunnel"
	trapdoorversion "github.com/trapdoor-ai/trapdoor/internal/version"
)

const defaultPort = 6969

type serveFlags struct {
	limited    bool
	solid      bool
	full       bool
	port       int
	host       string
	yes        bool
	tunnelName string
}

func main() {
	flags := &serveFlags{}

	rootCmd := &cobra.Command{
		Use:           "trapdoor",
		Short:         "Give cloud AIs controlled access to your local machine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}
	rootCmd.Version = trapdoorversion.String()
	rootCmd.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	rootCmd.Flags().BoolVar(&flags.limited, "limited", false, "Read-only filesystem access (default)")
	rootCmd.Flags().BoolVar(&flags.solid, "solid", false, "Read/write filesystem, no exec")
	rootCmd.Flags().BoolVar(&flags.full, "full", false, "Full access including command execution")
	rootCmd.MarkFlagsMutuallyExclusive("limited", "solid", "full")
	rootCmd.Flags().IntVarP(&flags.port, "port", "p", defaultPort, "Listen port")
	rootCmd.Flags().StringVar(&flags.host, "host", "0.0.0.0", "Listen host")
	rootCmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Skip confirmation for --full")
	rootCmd.Flags().StringVar(&flags.tunnelName, "tunnel", "", "Expose via tunnel: ngrok or cloudflared")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, flags *serveFlags) error {
	level := access.Limited
	switch {
	case flags.full:
		level = access.Full
	case flags.solid:
		level = access.Solid
	}

	tunnelKind, err := tunnel.ParseKind(flags.tunnelName)
	if err != nil {
		return err
	}

	if level == access.Full && !flags.yes {
		if !confirmFullAccess(cmd.InOrStdin(), cmd.OutOrStdout()) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted. Use --limited or --solid for safer options.")
			return nil
		}
	}

	paths, err := config.EnsureDirs()
	if err != nil {
		return fmt.Errorf("failed to prepare trapdoor directory: %w", err)
	}

	token, err := auth.LoadOrCreateToken(paths.TokenFile)
	if err != nil {
		return err
	}

	auditStore, err := audit.Open(paths.AuditDB)
	if err != nil {
		// The gateway is usable without its trail; say so and continue.
		log.Printf("[trapdoor] audit trail disabled: %v", err)
		auditStore = nil
	} else {
		defer auditStore.Close()
	}

	listener, port, err := listenOnOpenPort(flags.host, flags.port)
	if err != nil {
		return err
	}
	if port != flags.port {
		fmt.Fprintf(cmd.OutOrStdout(), "Port %d in use, using %d\n", flags.port, port)
	}

	srv, err := server.New(server.Options{
		Level: level,
		Token: token,
		Chat:  chatproxy.New(os.Getenv("OLLAMA_HOST")),
		Audit: auditStore,
	})
	if err != nil {
		listener.Close()
		return err
	}

	var activeTunnel *tunnel.Tunnel
	if tunnelKind != tunnel.KindNone {
		fmt.Fprintf(cmd.OutOrStdout(), "Starting %s...\n", tunnelKind)
		activeTunnel, err = tunnel.Start(cmd.Context(), tunnelKind, port)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%v\n", err)
		} else if activeTunnel.PublicURL != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Tunnel running: %s\n", activeTunnel.PublicURL)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Tunnel started, public URL not discovered yet")
		}
	}
	defer activeTunnel.Stop()

	publicURL := ""
	if activeTunnel != nil {
		publicURL = activeTunnel.PublicURL
	}
	printBanner(cmd.OutOrStdout(), level, token, port, publicURL)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(listener)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("[trapdoor] received %s, shutting down", sig)
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// confirmFullAccess shows the full-access warning and requires the
// operator to type "yes".
func confirmFullAccess(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, fullAccessWarning)
	fmt.Fprint(out, "Type 'yes' to continue with full access: ")

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		fmt.Fprintln(out)
		return false
	}
	return strings.EqualFold(strings.TrimSpace(scanner.Text()), "yes")
}
