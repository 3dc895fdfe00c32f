package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kelp-ai/teaserctl/cmd/teaserctl/ui"
	"github.com/kelp-ai/teaserctl/internal/controller"
	"github.com/kelp-ai/teaserctl/internal/devserver"
	"github.com/kelp-ai/teaserctl/internal/project"
)

var demoAddr string

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Open the live project dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := tokenStore()
		if err != nil {
			return err
		}
		client := backendClient(store)

		// Distinguish "backend down" from "not logged in" before taking over
		// the terminal.
		probeCtx, cancelProbe := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancelProbe()
		if err := client.Health(probeCtx); err != nil {
			return fmt.Errorf("backend unreachable at %s: %w", cfg.Backend.URL, err)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		var prog *tea.Program
		ctrl := controller.New(client, store,
			controller.WithInterval(cfg.Backend.PollInterval),
			controller.WithLogger(logger),
			controller.OnUpdate(func(projects []project.Project) {
				if prog != nil {
					prog.Send(ui.ProjectsMsg(projects))
				}
			}),
			controller.OnAuthExpired(func() {
				if prog != nil {
					prog.Send(ui.AuthExpiredMsg{})
				}
			}))

		if err := ctrl.Refresh(ctx); err != nil {
			return describeErr(err)
		}

		prog = tea.NewProgram(ui.NewDashboard(ctrl), tea.WithAltScreen())
		go func() {
			// Poll loop lives exactly as long as the dashboard.
			_ = ctrl.Run(ctx)
		}()

		if _, err := prog.Run(); err != nil {
			return fmt.Errorf("dashboard failed: %w", err)
		}
		return nil
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a local in-memory backend double for offline use",
	Long: `Starts a fake backend implementing the platform's REST contract with
in-memory state and a simulated generation pipeline. Point teaserctl at it
with --server (for example --server http://localhost:8000).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := devserver.New(devserver.WithLogger(logger))
		srv.Start()
		defer srv.Stop()

		httpSrv := &http.Server{Addr: demoAddr, Handler: srv.Router()}
		errCh := make(chan error, 1)
		go func() { errCh <- httpSrv.ListenAndServe() }()

		logger.Info("demo backend listening", zap.String("addr", demoAddr))
		fmt.Printf("Demo backend on %s, stop with Ctrl-C.\n", demoAddr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case <-sigCh:
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	},
}

func init() {
	demoCmd.Flags().StringVar(&demoAddr, "addr", ":8000", "listen address for the demo backend")
}
