// Command phoenix runs the development assistant bot: Telegram transport,
// agentic tool loop, approval gate, and the background service monitor.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"phoenix/healthserver"
	"phoenix/pkg/approval"
	"phoenix/pkg/brain"
	"phoenix/pkg/config"
	"phoenix/pkg/github"
	"phoenix/pkg/llm/factory"
	"phoenix/pkg/logx"
	"phoenix/pkg/metrics"
	"phoenix/pkg/monitor"
	"phoenix/pkg/omni"
	"phoenix/pkg/persistence"
	"phoenix/pkg/railway"
	"phoenix/pkg/telegram"
	"phoenix/pkg/tools"
)

func main() {
	var configPath string
	var dataDir string
	var setupMode bool
	flag.StringVar(&configPath, "config", "", "Path to config file (YAML)")
	flag.StringVar(&dataDir, "data-dir", ".", "Directory for the secrets store")
	flag.BoolVar(&setupMode, "setup", false, "Interactively create the encrypted secrets file and exit")
	flag.Parse()

	if configPath == "" {
		configPath = os.Getenv("PHOENIX_CONFIG")
	}
	if configPath == "" {
		configPath = "config.yaml"
	}

	if setupMode {
		if err := runSetup(dataDir); err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		return
	}

	if err := loadSecrets(dataDir); err != nil {
		log.Fatalf("Failed to load secrets: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if len(cfg.Telegram.AllowedUsers) == 0 {
		log.Fatalf("No allowed Telegram users configured (set telegram.allowed_users or TELEGRAM_ALLOWED_USERS)")
	}

	logger := logx.NewLogger("main")

	db, err := persistence.InitializeDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()
	store := persistence.NewDatabaseOperations(db)

	telegramToken, err := config.GetSecret(config.SecretTelegramToken)
	if err != nil {
		log.Fatalf("Telegram token unavailable: %v", err)
	}
	githubToken, err := config.GetSecret(config.SecretGitHubToken)
	if err != nil {
		log.Fatalf("GitHub token unavailable: %v", err)
	}
	// Railway is optional; without a token the railway tools report errors
	// but the bot still runs.
	railwayToken, err := config.GetSecret(config.SecretRailwayToken)
	if err != nil {
		logger.Warn("Railway token unavailable, railway tools will be degraded: %v", err)
	}

	githubClient := github.NewClient(githubToken, cfg.GitHub.DefaultOwner)
	railwayClient := railway.NewClient(railwayToken)
	omniClient := omni.NewClient(cfg.Omni.BaseURL)

	queue := tools.NewMediaQueue()
	registry := buildRegistry(store, githubClient, railwayClient, omniClient, queue, cfg.Railway.Projects)

	gate, err := approval.NewGate(store, registry, cfg.ToolTimeout())
	if err != nil {
		log.Fatalf("Failed to initialize approval gate: %v", err)
	}

	llmClient, err := factory.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	brainLoop := brain.New(cfg, store, registry, gate, llmClient, queue)

	botClient := telegram.NewClient(telegramToken)
	bot := telegram.New(cfg, botClient, brainLoop, gate, store, omniClient)
	if cfg.PrometheusURL != "" {
		usage, err := metrics.NewQueryService(cfg.PrometheusURL)
		if err != nil {
			log.Fatalf("Failed to create metrics query service: %v", err)
		}
		bot.SetUsageQuery(usage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	health := healthserver.New(cfg.HealthAddr)
	health.Start()

	if cfg.Monitor.Enabled {
		alerts := monitor.NewAlertManager(alertSender(botClient, cfg.Telegram.AllowedUsers[0]), cfg.AlertCooldown())
		mon := monitor.New(cfg, omniClient, alerts)
		go mon.Run(ctx)
		logger.Info("monitor enabled, interval %s", cfg.MonitorInterval())
	}

	logger.Info("phoenix started (provider=%s model=%s)", cfg.LLM.Provider, cfg.LLM.Model)
	bot.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := health.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown: %v", err)
	}
	logger.Info("phoenix stopped")
}

// buildRegistry wires every tool the model can call.
func buildRegistry(store *persistence.DatabaseOperations, gh *github.Client, rw *railway.Client, om *omni.Client, queue *tools.MediaQueue, railwayProjects map[string]string) *tools.Registry {
	registry := tools.NewRegistry()

	registry.MustRegister(tools.NewReadGitHubFileTool(gh))
	registry.MustRegister(tools.NewEditGitHubFileTool(gh))
	registry.MustRegister(tools.NewWriteGitHubFileTool(gh))
	registry.MustRegister(tools.NewListGitHubFilesTool(gh))
	registry.MustRegister(tools.NewSearchGitHubCodeTool(gh))

	registry.MustRegister(tools.NewGetRailwayLogsTool(om))
	registry.MustRegister(tools.NewRailwayStatusTool(rw, railwayProjects))
	registry.MustRegister(tools.NewSetRailwayEnvTool(rw))
	registry.MustRegister(tools.NewRedeployRailwayTool(rw))

	registry.MustRegister(tools.NewCheckOmniAgentTool(om))
	registry.MustRegister(tools.NewRunAnimalFactsTool(om))
	registry.MustRegister(tools.NewCheckTaskTool(om, queue))
	registry.MustRegister(tools.NewTestOverlayTool(om, queue))
	registry.MustRegister(tools.NewGetOmniLogsTool(om))
	registry.MustRegister(tools.NewGetPostHistoryTool(om))
	registry.MustRegister(tools.NewGetProjectStatsTool(om))
	registry.MustRegister(tools.NewUpdateScheduleTool(om))
	registry.MustRegister(tools.NewToggleSchedulerTool(om))
	registry.MustRegister(tools.NewAddAnimalTool(om))
	registry.MustRegister(tools.NewListThemesTool(om))
	registry.MustRegister(tools.NewCreateThemeTool(om))
	registry.MustRegister(tools.NewRunThemeTool(om, queue))
	registry.MustRegister(tools.NewSetThemeSourceTool(om))
	registry.MustRegister(tools.NewDeleteThemeTool(om))

	registry.MustRegister(tools.NewSendVideoTool(queue))
	registry.MustRegister(tools.NewListProjectsTool(store))
	registry.MustRegister(tools.NewUpdateProjectTool(store))

	return registry
}

// alertSender delivers monitor alerts to the owner's chat.
func alertSender(client *telegram.Client, ownerID string) monitor.Sender {
	chatID, err := strconv.ParseInt(ownerID, 10, 64)
	if err != nil {
		log.Fatalf("Invalid Telegram user id %q: %v", ownerID, err)
	}
	return func(text string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return client.SendMessage(ctx, chatID, text)
	}
}

// loadSecrets decrypts the secrets file into memory when present. The
// password comes from PHOENIX_SECRETS_PASSWORD or an interactive prompt.
// Without a secrets file, secrets resolve from the environment.
func loadSecrets(dataDir string) error {
	if !config.SecretsFileExists(dataDir) {
		return nil
	}

	password := os.Getenv("PHOENIX_SECRETS_PASSWORD")
	if password == "" {
		var err error
		password, err = promptPassword("Secrets password: ")
		if err != nil {
			return err
		}
	}

	secrets, err := config.DecryptSecretsFile(dataDir, password)
	if err != nil {
		return err
	}
	config.SetDecryptedSecrets(secrets)
	return nil
}

// runSetup interactively collects secrets and writes the encrypted store.
func runSetup(dataDir string) error {
	fmt.Println("Phoenix secrets setup. Leave a value empty to skip it.")

	reader := bufio.NewReader(os.Stdin)
	secrets := make(map[string]string)
	for _, name := range []string{
		config.SecretTelegramToken,
		config.SecretOpenRouterKey,
		config.SecretAnthropicKey,
		config.SecretGeminiKey,
		config.SecretOpenAIKey,
		config.SecretGitHubToken,
		config.SecretRailwayToken,
	} {
		fmt.Printf("%s: ", name)
		value, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if value = strings.TrimSpace(value); value != "" {
			secrets[name] = value
		}
	}

	password, err := promptPassword("Encryption password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	if err := config.EncryptSecretsFile(dataDir, password, secrets); err != nil {
		return err
	}
	fmt.Println("Secrets saved.")
	return nil
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}
