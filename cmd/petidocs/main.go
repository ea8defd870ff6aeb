package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"petidocs/internal"
	"petidocs/internal/config"
	"petidocs/internal/gdocs"
	"petidocs/internal/logger"
	"petidocs/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "petidocs: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "petidocs",
		Short:        "Petidocs administration CLI",
		Long:         `Petidocs CLI manages document templates and generated forms without going through the HTTP API.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newTemplatesCmd(),
		newFormsCmd(),
		newMigrateCmd(),
	)
	return cmd
}

// templateService builds the service stack the commands share. The docs
// client is only created for commands that talk to the Google APIs.
func templateService(withProvider bool) (*services.TemplateService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	zlog := logger.NewNop()

	db, err := internal.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	cleanup := func() { internal.Close(db) }

	var provider gdocs.Provider
	if withProvider {
		client, err := gdocs.NewClient(context.Background(), cfg.Google.CredentialsPath)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("init docs client: %w", err)
		}
		provider = client
	}

	return services.NewTemplateService(db, provider, zlog), cleanup, nil
}

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage document templates",
	}
	cmd.AddCommand(
		newTemplatesListCmd(),
		newTemplatesAddCmd(),
		newTemplatesSyncCmd(),
	)
	return cmd
}

func newTemplatesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := templateService(false)
			if err != nil {
				return err
			}
			defer cleanup()

			templates, err := svc.ListTemplates()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPLACEHOLDERS\tPERSONAS\tACTIVE")
			for _, t := range templates {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%t\n", t.ID, t.Name, t.PlaceholderCount, t.PersonaCount, t.Active)
			}
			return w.Flush()
		},
	}
}

func newTemplatesAddCmd() *cobra.Command {
	var destinationFolderID string
	cmd := &cobra.Command{
		Use:   "add <name> <source-document-id>",
		Short: "Register a new template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := templateService(false)
			if err != nil {
				return err
			}
			defer cleanup()

			template, err := svc.CreateTemplate(args[0], args[1], destinationFolderID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created template %s (%s)\n", template.Name, template.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&destinationFolderID, "destination-folder", "", "Drive folder for generated documents")
	return cmd
}

func newTemplatesSyncCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "sync <template-id>",
		Short: "Re-extract placeholders from the source document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := templateService(true)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := svc.SyncPlaceholders(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced: %d created, %d updated, %d removed\n",
				result.Created, result.Updated, result.Removed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full sync result as JSON")
	return cmd
}

func newFormsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forms",
		Short: "Manage generated forms",
	}
	cmd.AddCommand(newFormsCreateCmd())
	return cmd
}

func newFormsCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <template-id> <name>",
		Short: "Create a shareable form for a template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := templateService(false)
			if err != nil {
				return err
			}
			defer cleanup()

			form, err := svc.CreateForm(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created form %s with slug %s\n", form.Name, form.Slug)
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			// Connect runs AutoMigrate for every persisted model.
			db, err := internal.Connect(cfg)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer internal.Close(db)

			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
