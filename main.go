package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rm-hull/emote-overlays/cmd"
	"github.com/spf13/cobra"
)

func main() {
	var err error
	var server cmd.ServerConfig
	var render cmd.RenderConfig
	var templatesPath string

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	defaultTemplates := os.Getenv("TEMPLATES_CONFIG")
	if defaultTemplates == "" {
		defaultTemplates = "./data/templates.json"
	}

	rootCmd := &cobra.Command{
		Use:  "emote-overlays",
		Long: `Animated emote template overlays`,
	}
	rootCmd.PersistentFlags().StringVar(&templatesPath, "templates", defaultTemplates, "Path to template configuration (JSON)")

	apiServerCmd := &cobra.Command{
		Use:   "api-server [--templates <path>] [--port <port>] [--output-dir <path>] [--debug]",
		Short: "Start HTTP API server",
		Run: func(_ *cobra.Command, _ []string) {
			server.TemplatesPath = templatesPath
			cmd.ApiServer(server)
		},
	}

	apiServerCmd.Flags().IntVar(&server.Port, "port", 8080, "Port to run HTTP server on")
	apiServerCmd.Flags().StringVar(&server.OutputDir, "output-dir", "./data/renders", "Path to folder for rendered images")
	apiServerCmd.Flags().DurationVar(&server.Retention, "retention", 24*time.Hour, "How long rendered images are kept")
	apiServerCmd.Flags().IntVar(&server.Workers, "workers", 4, "Number of concurrent renders")
	apiServerCmd.Flags().Float64Var(&server.MaxSizeMB, "max-size-mb", 8, "Maximum encoded image size in MB")
	apiServerCmd.Flags().StringVar(&server.Format, "format", "gif", "Default animated output format (gif or apng)")
	apiServerCmd.Flags().DurationVar(&server.RenderTimeout, "render-timeout", time.Minute, "Maximum time spent on one render")
	apiServerCmd.Flags().StringVar(&server.ReloadSchedule, "reload-schedule", "", "Cron schedule for reloading templates, e.g. \"@every 1h\"")
	apiServerCmd.Flags().BoolVar(&server.Debug, "debug", false, "Enable debugging (pprof, frame inspection) - WARING: do not enable in production")

	renderCmd := &cobra.Command{
		Use:   "render --base <url|path> --text \"/cmd ...\" [--output <path>]",
		Short: "Apply template commands to an image",
		RunE: func(c *cobra.Command, _ []string) error {
			render.TemplatesPath = templatesPath
			return cmd.Render(c.Context(), render)
		},
	}

	renderCmd.Flags().StringVar(&render.Base, "base", "", "URL or path of the base image")
	renderCmd.Flags().StringVar(&render.Text, "text", "", "Commands to apply, e.g. \"/bee /shake\"")
	renderCmd.Flags().StringVar(&render.Output, "output", "./out", "Output file; the extension is added when missing")
	renderCmd.Flags().StringVar(&render.Format, "format", "gif", "Animated output format (gif or apng)")
	renderCmd.Flags().Float64Var(&render.MaxSizeMB, "max-size-mb", 0, "Maximum encoded image size in MB (0 = unlimited)")
	renderCmd.Flags().IntVar(&render.Concurrency, "concurrency", 4, "Number of template assets loaded in parallel")
	renderCmd.Flags().BoolVar(&render.Debug, "debug", false, "Log rendering details")
	_ = renderCmd.MarkFlagRequired("base")
	_ = renderCmd.MarkFlagRequired("text")

	templatesCmd := &cobra.Command{
		Use:   "templates [--templates <path>]",
		Short: "List configured templates and filters",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.ListTemplates(templatesPath)
		},
	}

	rootCmd.AddCommand(apiServerCmd, renderCmd, templatesCmd)
	if err = rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}
