// Package cli implements the rag command-line interface using cobra.
//
// Commands reach the core through driving ports held in package variables.
// The composition root either injects them directly with SetServices or
// registers a ServiceFactory that builds them lazily, once the settings
// for the invocation are known.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rag-cli/internal/adapters/driven/config"
	"github.com/custodia-labs/rag-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driving"
	"github.com/custodia-labs/rag-cli/internal/logger"
)

// ConfigEnv names the environment variable that overrides the config path.
const ConfigEnv = "RAG_CLI_CONFIG"

// version is set at build time via SetVersion.
var version = "dev"

// Global flags.
var (
	verbose     bool
	configPath  string
	backendFlag string
)

// Driving ports used by the commands.
var (
	indexingService driving.IndexingService
	documentLoader  driving.DocumentLoader
	watchService    driving.WatchService
	retriever       driving.Retriever
	askService      driving.AskService
)

// Per-invocation configuration state.
var (
	configStore     *file.ConfigStore
	resolved        *config.Resolved
	serviceFactory  ServiceFactory
	serviceClosers  []func() error
	dotEnvPath      = config.DefaultDotEnvPath
	lookupEnv       = os.LookupEnv
	servicesChecked bool
)

// Services bundles the driving ports used by the commands.
type Services struct {
	Indexing  driving.IndexingService
	Loader    driving.DocumentLoader
	Watcher   driving.WatchService
	Retriever driving.Retriever
	Ask       driving.AskService
}

// Need selects what a command requires from the ServiceFactory.
type Need int

const (
	// NeedIndex opens the vector index only.
	NeedIndex Need = 1 << iota

	// NeedEmbedding also creates the embedding provider.
	NeedEmbedding

	// NeedLLM also creates the LLM service.
	NeedLLM
)

// Has reports whether n includes other.
func (n Need) Has(other Need) bool {
	return n&other == other
}

// ServiceFactory builds services for resolved settings. The returned
// function releases everything the factory opened.
type ServiceFactory func(ctx context.Context, settings domain.Settings, need Need) (*Services, func() error, error)

var rootCmd = &cobra.Command{
	Use:   "rag",
	Short: "Index local documents and ask questions about them",
	Long: `rag indexes a directory of text, Markdown, PDF and DOCX files into a
vector index and answers questions using only the retrieved passages.

Settings are read from the config file, a .env file in the working
directory and RAG_CLI_* environment variables. Flags take precedence.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default "+file.DefaultPath()+", or $"+ConfigEnv+")")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "",
		"vector index backend: sqlite, memory, pgvector or qdrant")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices injects services directly, bypassing the ServiceFactory.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	indexingService = s.Indexing
	documentLoader = s.Loader
	watchService = s.Watcher
	retriever = s.Retriever
	askService = s.Ask
}

// SetServiceFactory registers the factory used to build services on demand.
func SetServiceFactory(f ServiceFactory) {
	serviceFactory = f
}

// Execute runs the root command and releases any services it opened.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig resolves settings for the invocation. It runs before every
// command so that config subcommands see the same layering as the rest.
func loadConfig(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	path := configPath
	if path == "" {
		if v, ok := lookupEnv(ConfigEnv); ok && v != "" {
			path = v
		}
	}

	store, err := file.NewConfigStore(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	loader := &config.Loader{Store: store, DotEnvPath: dotEnvPath, LookupEnv: lookupEnv}
	r, err := loader.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if backendFlag != "" {
		if err := r.Override(config.KeyIndexBackend, backendFlag); err != nil {
			return err
		}
	}

	configStore = store
	resolved = r
	servicesChecked = false
	logger.Debug("config file %s", store.Path())
	return nil
}

// currentSettings returns the resolved settings, or defaults when the
// pre-run hook has not run.
func currentSettings() domain.Settings {
	if resolved == nil {
		return domain.DefaultSettings()
	}
	return resolved.Settings
}

// overrideInt applies an int flag to a config key when it was set.
func overrideInt(cmd *cobra.Command, flag, key string) error {
	if !cmd.Flags().Changed(flag) || resolved == nil {
		return nil
	}
	v, err := cmd.Flags().GetInt(flag)
	if err != nil {
		return fmt.Errorf("getting %s flag: %w", flag, err)
	}
	return resolved.Override(key, fmt.Sprint(v))
}

// openServices validates the settings and, when a factory is registered,
// builds the services the command needs. Injected services are kept.
func openServices(cmd *cobra.Command, need Need) error {
	settings := currentSettings()
	if err := settings.Validate(); err != nil {
		return err
	}
	if serviceFactory == nil || servicesChecked {
		return nil
	}

	s, closeFn, err := serviceFactory(commandContext(cmd), settings, need)
	if err != nil {
		return err
	}
	servicesChecked = true
	if closeFn != nil {
		serviceClosers = append(serviceClosers, closeFn)
	}
	SetServices(s)
	return nil
}

// closeServices releases services opened by the factory.
func closeServices() {
	var errs []error
	for i := len(serviceClosers) - 1; i >= 0; i-- {
		if err := serviceClosers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	serviceClosers = nil
	if err := errors.Join(errs...); err != nil {
		logger.Error("closing services: %v", err)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
