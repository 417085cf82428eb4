package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/npolar/icelastic-ws/internal/params"
	"github.com/npolar/icelastic-ws/internal/query"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "icelastic-ws",
		Short:        "Query-string search middleware for Elasticsearch and OpenSearch",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML configuration file (default $"+envConfigFile+")")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the search web service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "compile <query-string>",
		Short: "Print the engine query compiled from a query string",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return compile(cmd, configPath, args[0])
		},
	})

	var backendURL, port string
	envCmd := &cobra.Command{
		Use:   "env <fragment.json>...",
		Short: "Print a shell script exporting JSON config fragments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeEnvScript(cmd.OutOrStdout(), args, backendURL, port)
		},
	}
	envCmd.Flags().StringVar(&backendURL, "backend-url", "", "backend address override")
	envCmd.Flags().StringVar(&port, "port", "", "service port override")
	root.AddCommand(envCmd)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(buildVersion())
		},
	})

	return root
}

func serve(configPath string) error {
	log.Infof("===> icelastic-ws starting up <===")

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Errorf("exiting due to configuration error: %s", err.Error())
		return err
	}

	configureLogging(cfg)

	svc, err := initializeService(cfg, serviceOptions{instrumented: true})
	if err != nil {
		log.Errorf("exiting due to service setup error: %s", err.Error())
		return err
	}

	gin.SetMode(gin.ReleaseMode)

	router := svc.newRouter()

	portStr := fmt.Sprintf(":%s", cfg.Service.Port)
	log.Infof("Start service on %s", portStr)

	return router.Run(portStr)
}

func compile(cmd *cobra.Command, configPath, rawQuery string) error {
	log.SetOutput(cmd.ErrOrStderr())

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	b, err := params.Normalize(rawQuery, cfg.registry())
	if err != nil {
		return err
	}

	doc, err := query.Compile(b)
	if err != nil {
		return err
	}

	for _, w := range doc.Warnings {
		log.Warnf("query warning: %s", w.Error())
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
