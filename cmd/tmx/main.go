package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"tmx-go/internal/app"
	"tmx-go/internal/config"
	"tmx-go/internal/tmx"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, tmx.ErrCancelled) {
			fmt.Println("Cancelled.")
			os.Exit(0)
		}
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Upload", "Delete").
func newApp(ctx context.Context, operation string, conflicts tmx.ConflictResolver) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if conflicts == nil {
		conflicts = cancelResolver()
	}

	a, err := app.NewApp(ctx, cfg, operation, conflicts)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// promptResolver asks the user on stdin how to handle a name collision.
func promptResolver() tmx.ConflictResolver {
	return tmx.ConflictResolverFunc(func(existing tmx.ObjectInfo) (tmx.ConflictDecision, error) {
		fmt.Printf("An artifact named %s already exists (different content).\n", existing.Key)
		fmt.Print("[o]verwrite, [n]ew version, or [c]ancel? ")

		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			return tmx.DecisionCancel, scanner.Err()
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "o", "overwrite":
			return tmx.DecisionOverwrite, nil
		case "n", "new", "new-version":
			return tmx.DecisionNewVersion, nil
		default:
			return tmx.DecisionCancel, nil
		}
	})
}

func fixedResolver(d tmx.ConflictDecision) tmx.ConflictResolver {
	return tmx.ConflictResolverFunc(func(tmx.ObjectInfo) (tmx.ConflictDecision, error) {
		return d, nil
	})
}

func cancelResolver() tmx.ConflictResolver {
	return fixedResolver(tmx.DecisionCancel)
}

// conflictResolverFromFlag maps the --on-conflict flag to a resolver.
func conflictResolverFromFlag(mode string) (tmx.ConflictResolver, error) {
	switch mode {
	case "", "ask":
		return promptResolver(), nil
	case "overwrite":
		return fixedResolver(tmx.DecisionOverwrite), nil
	case "new-version":
		return fixedResolver(tmx.DecisionNewVersion), nil
	case "cancel":
		return cancelResolver(), nil
	default:
		return nil, fmt.Errorf("unknown conflict mode: %s (want ask, overwrite, new-version or cancel)", mode)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tmx",
	Short: "Versioned CAD artifact store client",
}

// config command

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Endpoint: %s\n", cfg.Store.Endpoint)
		fmt.Printf("Buckets:  %s (models), %s (drawings)\n", cfg.Buckets.Models, cfg.Buckets.Drawings)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Endpoint:       %s\n", cfg.Store.Endpoint)
		fmt.Printf("Access key:     %s\n", cfg.Store.AccessKey)
		fmt.Printf("Model bucket:   %s\n", cfg.Buckets.Models)
		fmt.Printf("Drawing bucket: %s\n", cfg.Buckets.Drawings)
		fmt.Printf("Areas:          %s\n", strings.Join(cfg.Areas, ", "))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update configuration values",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		if v, _ := cmd.Flags().GetString("endpoint"); v != "" {
			cfg.Store.Endpoint = v
		}
		if v, _ := cmd.Flags().GetString("access-key"); v != "" {
			cfg.Store.AccessKey = v
		}
		if v, _ := cmd.Flags().GetString("model-bucket"); v != "" {
			cfg.Buckets.Models = v
		}
		if v, _ := cmd.Flags().GetString("drawing-bucket"); v != "" {
			cfg.Buckets.Drawings = v
		}

		if prompt, _ := cmd.Flags().GetBool("secret-key"); prompt {
			fmt.Print("Secret key: ")
			secret, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("reading secret key: %w", err)
			}
			cfg.Store.SecretKey = string(secret)
		}

		if err := config.Save(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Println("Configuration updated.")
		return nil
	},
}

// meta command

var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "Manage local artifact metadata",
}

var metaInitCmd = &cobra.Command{
	Use:   "init FILE",
	Short: "Create the metadata record for a local artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "InitMeta", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		existed, err := a.InitMeta(args[0])
		if err != nil {
			return err
		}
		if existed {
			fmt.Printf("Metadata already exists for %s\n", args[0])
			return nil
		}
		fmt.Printf("Metadata created for %s\n", args[0])
		return nil
	},
}

var metaShowCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "Show the metadata record of a local artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "ShowMeta", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		meta, err := a.ShowMeta(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Identity tag: %s\n", meta.Tag)
		fmt.Printf("Revision:     %s\n", meta.Revision)
		fmt.Printf("Description:  %s\n", meta.Description)
		fmt.Printf("Comment:      %s\n", meta.Comment)
		return nil
	},
}

// upload command

func uploadRequestFromFlags(cmd *cobra.Command, localPath string) *tmx.UploadRequest {
	req := &tmx.UploadRequest{LocalPath: localPath}
	req.Filename, _ = cmd.Flags().GetString("name")
	req.Area, _ = cmd.Flags().GetString("area")
	req.Sub1, _ = cmd.Flags().GetString("sub1")
	req.Sub2, _ = cmd.Flags().GetString("sub2")
	req.Sub3, _ = cmd.Flags().GetString("sub3")
	req.Description, _ = cmd.Flags().GetString("description")
	req.Comment, _ = cmd.Flags().GetString("comment")
	req.EditPath, _ = cmd.Flags().GetBool("edit-path")
	return req
}

func addUploadFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Target filename (default: local basename)")
	cmd.Flags().String("area", "", "Top-level area folder")
	cmd.Flags().String("sub1", "", "First subfolder")
	cmd.Flags().String("sub2", "", "Second subfolder")
	cmd.Flags().String("sub3", "", "Third subfolder")
	cmd.Flags().String("description", "", "Artifact description")
	cmd.Flags().String("comment", "", "Artifact comment")
	cmd.Flags().Bool("edit-path", false, "Relocate an existing artifact instead of keeping its folder")
	cmd.Flags().String("on-conflict", "ask", "Name collision handling: ask, overwrite, new-version or cancel")
}

func reportUpload(res *tmx.UploadResult) {
	fmt.Printf("Uploaded: %s\n", res.Key)
	fmt.Printf("Identity: %s\n", res.Tag)
	fmt.Printf("Revision: %s\n", res.Revision)
	if res.WriteBackErr != nil {
		fmt.Printf("Warning: upload succeeded but local metadata was not updated: %v\n", res.WriteBackErr)
	}
}

var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Upload a CAD model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("on-conflict")
		conflicts, err := conflictResolverFromFlag(mode)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "Upload", conflicts)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Upload(cmd.Context(), uploadRequestFromFlags(cmd, args[0]))
		if err != nil {
			return err
		}
		reportUpload(res)
		return nil
	},
}

var drawingCmd = &cobra.Command{
	Use:   "drawing FILE",
	Short: "Upload an exported drawing (SVG)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("on-conflict")
		conflicts, err := conflictResolverFromFlag(mode)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "UploadDrawing", conflicts)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.UploadDrawing(cmd.Context(), uploadRequestFromFlags(cmd, args[0]))
		if err != nil {
			return err
		}
		reportUpload(res)
		return nil
	},
}

// areas command

var areasCmd = &cobra.Command{
	Use:   "areas",
	Short: "List the configured top-level areas",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "ListAreas", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, area := range a.Areas() {
			fmt.Println(area)
		}
		return nil
	},
}

// ls command

var lsCmd = &cobra.Command{
	Use:   "ls [PREFIX]",
	Short: "Browse the artifact folder tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		drawings, _ := cmd.Flags().GetBool("drawings")

		a, err := newApp(cmd.Context(), "List", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		prefix := ""
		if len(args) > 0 {
			prefix = args[0]
		}

		folders, err := a.ListFolders(cmd.Context(), drawings, prefix)
		if err != nil {
			return err
		}
		files, err := a.ListFiles(cmd.Context(), drawings, prefix)
		if err != nil {
			return err
		}

		if len(folders) == 0 && len(files) == 0 {
			fmt.Println("Empty folder.")
			return nil
		}
		for _, f := range folders {
			fmt.Printf("d  %s\n", f)
		}
		for _, f := range files {
			fmt.Printf("-  %-40s  %10d\n", f.Key, f.Size)
		}
		return nil
	},
}

// stat command

var statCmd = &cobra.Command{
	Use:   "stat KEY",
	Short: "Show the stored metadata of an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		drawings, _ := cmd.Flags().GetBool("drawings")

		a, err := newApp(cmd.Context(), "Stat", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		stat, err := a.Stat(cmd.Context(), drawings, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Identity tag: %s\n", stat.ETag)
		fmt.Printf("Size:         %d\n", stat.Size)
		fmt.Printf("Revision:     %s\n", stat.Metadata[tmx.MetaKeyRevision])
		fmt.Printf("Description:  %s\n", stat.Metadata[tmx.MetaKeyDescription])
		fmt.Printf("Comment:      %s\n", stat.Metadata[tmx.MetaKeyComment])
		return nil
	},
}

// find command

var findCmd = &cobra.Command{
	Use:   "find TAG",
	Short: "Resolve an identity tag to its object key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		drawings, _ := cmd.Flags().GetBool("drawings")
		noCache, _ := cmd.Flags().GetBool("no-cache")

		a, err := newApp(cmd.Context(), "Find", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		key, found, err := a.Find(cmd.Context(), drawings, args[0], noCache)
		if err != nil {
			return err
		}
		if !found {
			fmt.Println("Not found.")
			return nil
		}
		fmt.Println(key)
		return nil
	},
}

// get command

var getCmd = &cobra.Command{
	Use:   "get KEY DEST",
	Short: "Download an artifact",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		drawings, _ := cmd.Flags().GetBool("drawings")
		adopt, _ := cmd.Flags().GetBool("adopt")

		a, err := newApp(cmd.Context(), "Fetch", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Fetch(cmd.Context(), drawings, args[0], args[1], adopt); err != nil {
			return err
		}
		fmt.Printf("Downloaded %s to %s\n", args[0], args[1])
		return nil
	},
}

// rm command

var rmCmd = &cobra.Command{
	Use:   "rm KEY",
	Short: "Delete an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		drawings, _ := cmd.Flags().GetBool("drawings")

		a, err := newApp(cmd.Context(), "Delete", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Delete(cmd.Context(), drawings, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

// history command

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recorded operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), "GetHistory", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}
		for _, op := range ops {
			duration := ""
			if op.FinishedAt != nil {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-14s  %s  %-8s  %s\n",
				op.ID,
				op.Name,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
			)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configSetCmd)
	configSetCmd.Flags().String("endpoint", "", "Storage endpoint (host:port)")
	configSetCmd.Flags().String("access-key", "", "Access key")
	configSetCmd.Flags().Bool("secret-key", false, "Prompt for the secret key (hidden input)")
	configSetCmd.Flags().String("model-bucket", "", "Bucket for CAD models")
	configSetCmd.Flags().String("drawing-bucket", "", "Bucket for exported drawings")

	// meta subcommands
	metaCmd.AddCommand(metaInitCmd)
	metaCmd.AddCommand(metaShowCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(metaCmd)
	rootCmd.AddCommand(uploadCmd)
	addUploadFlags(uploadCmd)
	rootCmd.AddCommand(drawingCmd)
	addUploadFlags(drawingCmd)
	rootCmd.AddCommand(areasCmd)
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().Bool("drawings", false, "Browse the drawing bucket")
	rootCmd.AddCommand(statCmd)
	statCmd.Flags().Bool("drawings", false, "Inspect the drawing bucket")
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().Bool("drawings", false, "Search the drawing bucket")
	findCmd.Flags().Bool("no-cache", false, "Bypass the identity cache and scan the bucket")
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().Bool("drawings", false, "Fetch from the drawing bucket")
	getCmd.Flags().Bool("adopt", false, "Adopt the object's identity into the local metadata record")
	rootCmd.AddCommand(rmCmd)
	rmCmd.Flags().Bool("drawings", false, "Delete from the drawing bucket")
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
}
