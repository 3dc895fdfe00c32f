package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kelp-ai/teaserctl/internal/controller"
	"github.com/kelp-ai/teaserctl/internal/project"
)

var (
	createCompany string
	createWebsite string
	downloadOut   string
	deleteYes     bool
)

// newController builds a controller over a fresh API client and primes its
// cache with one refresh so action gating sees current statuses.
func newController(ctx context.Context) (*controller.Controller, error) {
	store, err := tokenStore()
	if err != nil {
		return nil, err
	}
	ctrl := controller.New(backendClient(store), store,
		controller.WithInterval(cfg.Backend.PollInterval),
		controller.WithLogger(logger))
	if err := ctrl.Refresh(ctx); err != nil {
		return nil, describeErr(err)
	}
	return ctrl, nil
}

// describeErr rewrites the common failure modes into actionable messages.
func describeErr(err error) error {
	switch {
	case errors.Is(err, controller.ErrAuthRequired):
		return fmt.Errorf("not logged in; run `teaserctl login <email>` first")
	default:
		return err
	}
}

func parseProjectID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid project id %q", arg)
	}
	return id, nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the session's projects and their legal actions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := newController(cmd.Context())
		if err != nil {
			return err
		}

		projects := ctrl.Snapshot()
		if len(projects) == 0 {
			fmt.Println("No projects. Create one with `teaserctl create <name>`.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCOMPANY\tSTATUS\tFILES\tSECTOR\tACTIONS")
		for _, p := range projects {
			actions := make([]string, 0, 2)
			for _, a := range p.Actions() {
				actions = append(actions, string(a))
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
				p.ID, p.Name, p.CompanyName, p.Status, len(p.Files), p.Sector,
				strings.Join(actions, ","))
		}
		return w.Flush()
	},
}

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new project workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := newController(cmd.Context())
		if err != nil {
			return err
		}
		created, err := ctrl.CreateProject(cmd.Context(), args[0], createCompany, createWebsite)
		if err != nil {
			return describeErr(err)
		}
		fmt.Printf("Created project %d (%s).\n", created.ID, created.Name)
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload [project-id] [file]",
	Short: "Attach a source document to a pending project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProjectID(args[0])
		if err != nil {
			return err
		}
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("open document: %w", err)
		}
		defer f.Close()

		ctrl, err := newController(cmd.Context())
		if err != nil {
			return err
		}
		if err := ctrl.UploadDocument(cmd.Context(), id, filepath.Base(args[1]), f); err != nil {
			return describeErr(err)
		}
		fmt.Printf("Uploaded %s to project %d.\n", filepath.Base(args[1]), id)
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate [project-id]",
	Short: "Trigger (or retry) teaser generation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProjectID(args[0])
		if err != nil {
			return err
		}
		ctrl, err := newController(cmd.Context())
		if err != nil {
			return err
		}
		if err := ctrl.Generate(cmd.Context(), id); err != nil {
			return describeErr(err)
		}
		fmt.Printf("Generation queued for project %d. Watch it with `teaserctl dash`.\n", id)
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download [project-id] [teaser|citations]",
	Short: "Download a generated artifact",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProjectID(args[0])
		if err != nil {
			return err
		}
		var kind project.ArtifactKind
		switch args[1] {
		case "teaser":
			kind = project.ArtifactTeaser
		case "citations":
			kind = project.ArtifactCitations
		default:
			return fmt.Errorf("unknown artifact %q (want teaser or citations)", args[1])
		}

		ctrl, err := newController(cmd.Context())
		if err != nil {
			return err
		}
		dl, err := ctrl.Download(cmd.Context(), id, kind)
		if err != nil {
			return describeErr(err)
		}

		out := downloadOut
		if out == "" {
			out = dl.Filename
		}
		if out == "" {
			out = fmt.Sprintf("project-%d-%s.bin", id, args[1])
		}
		if err := os.WriteFile(out, dl.Data, 0o644); err != nil {
			return fmt.Errorf("save artifact: %w", err)
		}
		fmt.Printf("Saved %s (%d bytes).\n", out, len(dl.Data))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [project-id]",
	Short: "Delete a project after explicit confirmation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProjectID(args[0])
		if err != nil {
			return err
		}
		ctrl, err := newController(cmd.Context())
		if err != nil {
			return err
		}

		p, ok := ctrl.Get(id)
		if !ok {
			return controller.ErrUnknownProject
		}
		if !deleteYes {
			fmt.Printf("Delete project %d (%s)? [y/N]: ", p.ID, p.Name)
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return fmt.Errorf("read confirmation: %w", err)
			}
			if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		if err := ctrl.DeleteProject(cmd.Context(), id); err != nil {
			return describeErr(err)
		}
		fmt.Printf("Deleted project %d.\n", id)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createCompany, "company", "", "target company name")
	createCmd.Flags().StringVar(&createWebsite, "website", "", "target company website")
	downloadCmd.Flags().StringVarP(&downloadOut, "out", "o", "", "output path (defaults to the server-suggested filename)")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")
}
