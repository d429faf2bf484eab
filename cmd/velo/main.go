package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"

	apiclient "github.com/harshal-b-98/NextGenWeb-sub006/pkg/api/client"
)

type cliConfig struct {
	APIBaseURL  string `json:"api_base_url"`
	AccessToken string `json:"access_token"`
}

var buildVersion = "dev"

const commandTimeout = 15 * time.Second

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "login":
		err = commandLogin(args)
	case "versions":
		err = commandVersions(args)
	case "finalize":
		err = commandFinalize(args)
	case "publish":
		err = commandPublish(args)
	case "compare":
		err = commandCompare(args)
	case "deploy":
		err = commandDeploy(args)
	case "status":
		err = commandStatus(args)
	case "cancel":
		err = commandCancel(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func commandLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	token := fs.String("token", "", "API access token (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL (default http://localhost:4000)")
	fs.Parse(args)

	secret := strings.TrimSpace(*token)
	if secret == "" {
		fmt.Print("Access token: ")
		bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Print("\n")
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		secret = strings.TrimSpace(string(bytes))
	}
	if secret == "" {
		return errors.New("token must not be empty")
	}

	cfg, _ := loadConfig()
	if strings.TrimSpace(*apiBase) != "" {
		cfg.APIBaseURL = *apiBase
	} else if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "http://localhost:4000"
	}
	cfg.AccessToken = secret
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println("credentials saved")
	return nil
}

func commandVersions(args []string) error {
	fs := flag.NewFlagSet("versions", flag.ExitOnError)
	websiteID := fs.String("website", "", "Website identifier")
	limit := fs.Int("limit", 0, "Maximum number of versions to display")
	fs.Parse(args)

	if strings.TrimSpace(*websiteID) == "" {
		return errors.New("--website is required")
	}
	client, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	versions, err := client.ListVersions(ctx, *websiteID)
	if err != nil {
		return err
	}
	count := len(versions)
	if *limit > 0 && *limit < count {
		count = *limit
	}
	for i := 0; i < count; i++ {
		v := versions[i]
		name := v.VersionName
		if name == "" {
			name = "-"
		}
		fmt.Printf("%s\tv%d\t%s\t%s\t%s\n", v.ID, v.VersionNumber, v.Status, name, v.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func commandFinalize(args []string) error {
	fs := flag.NewFlagSet("finalize", flag.ExitOnError)
	websiteID := fs.String("website", "", "Website identifier")
	name := fs.String("name", "", "Optional version name")
	description := fs.String("description", "", "Optional version description")
	fs.Parse(args)

	if strings.TrimSpace(*websiteID) == "" {
		return errors.New("--website is required")
	}
	client, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	version, err := client.Finalize(ctx, *websiteID, *name, *description)
	if err != nil {
		return err
	}
	fmt.Printf("finalized: %s v%d status=%s\n", version.ID, version.VersionNumber, version.Status)
	return nil
}

func commandPublish(args []string) error {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	versionID := fs.String("version", "", "Version identifier")
	fs.Parse(args)

	if strings.TrimSpace(*versionID) == "" {
		return errors.New("--version is required")
	}
	client, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	version, err := client.Publish(ctx, *versionID)
	if err != nil {
		return err
	}
	fmt.Printf("published: %s v%d\n", version.ID, version.VersionNumber)
	return nil
}

func commandCompare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	oldID := fs.String("old", "", "Old version identifier")
	newID := fs.String("new", "", "New version identifier")
	fs.Parse(args)

	if strings.TrimSpace(*oldID) == "" || strings.TrimSpace(*newID) == "" {
		return errors.New("--old and --new are required")
	}
	client, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	diff, err := client.Compare(ctx, *oldID, *newID)
	if err != nil {
		return err
	}
	fmt.Println(diff.Summary)
	printBucket("added", diff.Added)
	printBucket("removed", diff.Removed)
	printBucket("modified", diff.Modified)
	return nil
}

func printBucket(label string, ids []string) {
	for _, id := range ids {
		fmt.Printf("%s\t%s\n", label, id)
	}
}

func commandDeploy(args []string) error {
	fs := flag.NewFlagSet("deploy", flag.ExitOnError)
	websiteID := fs.String("website", "", "Website identifier")
	providerName := fs.String("provider", "", "Hosting provider (default server-configured)")
	fs.Parse(args)

	if strings.TrimSpace(*websiteID) == "" {
		return errors.New("--website is required")
	}
	client, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	deployment, err := client.Deploy(ctx, *websiteID, *providerName)
	if err != nil {
		return err
	}
	fmt.Printf("deployment started: %s status=%s provider=%s\n", deployment.ID, deployment.Status, deployment.Provider)
	return nil
}

func commandStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	deploymentID := fs.String("deployment", "", "Deployment identifier")
	watch := fs.Bool("watch", false, "Poll until the deployment reaches a terminal state")
	fs.Parse(args)

	if strings.TrimSpace(*deploymentID) == "" {
		return errors.New("--deployment is required")
	}
	client, err := authedClient()
	if err != nil {
		return err
	}

	for {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		deployment, err := client.GetDeployment(ctx, *deploymentID)
		cancel()
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%s\t%s", deployment.ID, deployment.Status)
		if deployment.URL != "" {
			line += "\t" + deployment.URL
		}
		if deployment.Error != "" {
			line += "\terror: " + deployment.Error
		}
		fmt.Println(line)
		if !*watch || isTerminal(deployment.Status) {
			return nil
		}
		time.Sleep(5 * time.Second)
	}
}

func isTerminal(status string) bool {
	switch status {
	case "ready", "error", "canceled":
		return true
	}
	return false
}

func commandCancel(args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	deploymentID := fs.String("deployment", "", "Deployment identifier")
	fs.Parse(args)

	if strings.TrimSpace(*deploymentID) == "" {
		return errors.New("--deployment is required")
	}
	client, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	deployment, err := client.CancelDeployment(ctx, *deploymentID)
	if err != nil {
		return err
	}
	fmt.Printf("deployment canceled: %s status=%s\n", deployment.ID, deployment.Status)
	return nil
}

func authedClient() (*apiclient.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errors.New("please login first using 'velo login'")
	}
	return apiclient.New(cfg.APIBaseURL, token)
}

func loadConfig() (cliConfig, error) {
	path, err := configPath()
	if err != nil {
		return cliConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cliConfig{APIBaseURL: "http://localhost:4000"}, nil
		}
		return cliConfig{}, err
	}
	var cfg cliConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cliConfig{}, err
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "http://localhost:4000"
	}
	return cfg, nil
}

func saveConfig(cfg cliConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func configPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "velo", "config.json"), nil
}

func printUsage() {
	fmt.Printf("velo CLI %s\n\n", buildVersion)
	fmt.Print(`Usage:
	velo login [--token <token>] [--api http://localhost:4000]
	velo versions --website <website-id> [--limit N]
	velo finalize --website <website-id> [--name <name>] [--description <text>]
	velo publish --version <version-id>
	velo compare --old <version-id> --new <version-id>
	velo deploy --website <website-id> [--provider vercel|netlify]
	velo status --deployment <deployment-id> [--watch]
	velo cancel --deployment <deployment-id>
	velo version
`)
}

func printVersion() {
	fmt.Println(strings.TrimSpace(buildVersion))
}
