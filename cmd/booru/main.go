package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"booru-go/internal/app"
	"booru-go/internal/config"
	"booru-go/internal/model"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// readConfig loads the config file named by the defaults.
func readConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// newApp reads the config and creates a BooruApp. The caller must defer app.Close().
func newApp(cmd *cobra.Command, args []string) (*app.BooruApp, error) {
	cfg, _, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewBooruApp(cfg, cmd.CommandPath(), args)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid post id %q", s)
	}
	return id, nil
}

var ratingNames = map[string]int64{
	"u": model.RatingUnrated,
	"g": model.RatingGeneral,
	"s": model.RatingSensitive,
	"q": model.RatingQuestionable,
	"e": model.RatingExplicit,
}

func parseRating(s string) (int64, error) {
	if s != "" {
		if r, ok := ratingNames[strings.ToLower(s[:1])]; ok {
			return r, nil
		}
	}
	return 0, fmt.Errorf("invalid rating %q (want general, sensitive, questionable, explicit or unrated)", s)
}

func ratingName(r int64) string {
	switch r {
	case model.RatingGeneral:
		return "general"
	case model.RatingSensitive:
		return "sensitive"
	case model.RatingQuestionable:
		return "questionable"
	case model.RatingExplicit:
		return "explicit"
	default:
		return "unrated"
	}
}

func printPosts(posts []*model.Post) {
	if len(posts) == 0 {
		fmt.Println("No posts found.")
		return
	}
	for _, p := range posts {
		fmt.Printf("#%-6d  %s  %-12s  %4dx%-4d  %s\n",
			p.ID,
			hex.EncodeToString(p.MD5Sum[:]),
			ratingName(p.Rating),
			p.Width, p.Height,
			p.OriginalFileName,
		)
	}
}

var rootCmd = &cobra.Command{
	Use:   "booru",
	Short: "Personal image tagging database",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return app.LoadEnv()
	},
	SilenceUsage: true,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and database",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		a, err := app.NewBooruApp(cfg, cmd.CommandPath(), args)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		defer a.Close()

		id, version, err := a.Info()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Database:       %s\n", cfg.Database.Path)
		fmt.Printf("Database ID:    %s\n", id)
		fmt.Printf("Schema version: %d\n", version)
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := readConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		if err := (&config.Manager{}).Write(os.Stdout, cfg); err != nil {
			return err
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := readConfig()
		if err != nil {
			return err
		}

		value, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := readConfig()
		if err != nil {
			return err
		}

		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		return config.Save(path, cfg)
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import PATH...",
	Short: "Import media files and directories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, _ := cmd.Flags().GetStringSlice("tag")

		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := a.Import(args, tags)
		fmt.Printf("Imported %d, already known %d, skipped %d, failed %d\n",
			sum.Imported, sum.Existing, sum.Skipped, sum.Failed)
		return err
	},
}

// tag command
var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage tags",
}

var tagCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typeName, _ := cmd.Flags().GetString("type")
		description, _ := cmd.Flags().GetString("description")

		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		tag, err := a.CreateTag(args[0], typeName, description)
		if err != nil {
			return err
		}
		fmt.Printf("Created tag %s (#%d)\n", tag.Name, tag.ID)
		return nil
	},
}

var tagListCmd = &cobra.Command{
	Use:   "list [PATTERN]",
	Short: "List tags, optionally matching a pattern",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		pattern := ""
		if len(args) > 0 {
			pattern = args[0]
		}
		tags, err := a.ListTags(pattern)
		if err != nil {
			return err
		}

		if len(tags) == 0 {
			fmt.Println("No tags found.")
			return nil
		}
		sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
		for _, t := range tags {
			redirect := ""
			if t.RedirectID.Valid {
				redirect = fmt.Sprintf("  -> #%d", t.RedirectID.V)
			}
			fmt.Printf("#%-6d  %s%s\n", t.ID, t.Name, redirect)
		}
		return nil
	},
}

var tagShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.ShowTag(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Tag:         %s (#%d)\n", d.Tag.Name, d.Tag.ID)
		fmt.Printf("Type:        %s\n", d.Type.Name)
		if d.Tag.Description != "" {
			fmt.Printf("Description: %s\n", d.Tag.Description)
		}
		if d.Canonical.ID != d.Tag.ID {
			fmt.Printf("Redirects:   %s\n", d.Canonical.Name)
		}
		for _, t := range d.Implies {
			fmt.Printf("Implies:     %s\n", t.Name)
		}
		for _, t := range d.Removes {
			fmt.Printf("Removes:     %s\n", t.Name)
		}
		return nil
	},
}

var tagDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.DeleteTag(args[0])
	},
}

var tagRedirectCmd = &cobra.Command{
	Use:   "redirect ALIAS [TARGET]",
	Short: "Make ALIAS redirect to TARGET, or clear the redirect",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		target := ""
		if len(args) > 1 {
			target = args[1]
		}
		return a.RedirectTag(args[0], target)
	},
}

// implication command
var implicationCmd = &cobra.Command{
	Use:   "implication",
	Short: "Manage tag implications",
}

var implicationAddCmd = &cobra.Command{
	Use:   "add TAG IMPLIED",
	Short: "Add IMPLIED whenever TAG is added",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		remove, _ := cmd.Flags().GetBool("remove")

		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.AddImplication(args[0], args[1], remove)
	},
}

// post command
var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Manage posts",
}

var postShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.ShowPost(id)
		if err != nil {
			return err
		}

		p := d.Post
		fmt.Printf("Post:    #%d\n", p.ID)
		fmt.Printf("MD5:     %s\n", hex.EncodeToString(p.MD5Sum[:]))
		fmt.Printf("Type:    %s (%s)\n", d.Type.Name, p.MimeType)
		fmt.Printf("Size:    %dx%d\n", p.Width, p.Height)
		fmt.Printf("Rating:  %s\n", ratingName(p.Rating))
		fmt.Printf("Added:   %s\n", time.Unix(p.AddedTime, 0).Format("2006-01-02 15:04:05"))
		for _, f := range d.Files {
			fmt.Printf("File:    %s\n", f.Path)
		}
		for _, s := range d.SiteIDs {
			fmt.Printf("Site:    #%d %d\n", s.SiteID, s.SitePostID)
		}
		names := make([]string, len(d.Tags))
		for i, t := range d.Tags {
			names[i] = t.Name
		}
		fmt.Printf("Tags:    %s\n", strings.Join(names, " "))
		return nil
	},
}

var postTagCmd = &cobra.Command{
	Use:   "tag ID TAG...",
	Short: "Add tags to a post; -TAG removes",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.TagPost(id, args[1:])
	},
}

var postUntagCmd = &cobra.Command{
	Use:   "untag ID TAG...",
	Short: "Remove tags from a post",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.UntagPost(id, args[1:])
	},
}

var postRateCmd = &cobra.Command{
	Use:   "rate ID RATING",
	Short: "Set the rating of a post",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		rating, err := parseRating(args[1])
		if err != nil {
			return err
		}

		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.SetRating(id, rating)
	},
}

// find command
var findCmd = &cobra.Command{
	Use:   "find QUERY...",
	Short: "Find posts by tags and rating",
	Long: `Find posts matching every search term.

A term is a tag pattern where * matches any text and ? a single character,
or rating:general, rating:sensitive, rating:questionable, rating:explicit,
rating:unrated. A leading - negates the term.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		posts, err := a.Find(strings.Join(args, " "))
		if err != nil {
			return err
		}
		printPosts(posts)
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Write a consistent copy of the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Backup(args[0]); err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Printf("Database copied to %s\n", args[0])
		return nil
	},
}

// schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		stmts, err := a.Schema()
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(stmts, "\n\n"))
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	// tag subcommands
	tagCmd.AddCommand(tagCreateCmd)
	tagCreateCmd.Flags().StringP("type", "t", "", "Tag type name (default Normal)")
	tagCreateCmd.Flags().StringP("description", "d", "", "Tag description")
	tagCmd.AddCommand(tagListCmd)
	tagCmd.AddCommand(tagShowCmd)
	tagCmd.AddCommand(tagDeleteCmd)
	tagCmd.AddCommand(tagRedirectCmd)

	implicationCmd.AddCommand(implicationAddCmd)
	implicationAddCmd.Flags().Bool("remove", false, "Remove IMPLIED instead of adding it")

	// post subcommands
	postCmd.AddCommand(postShowCmd)
	postCmd.AddCommand(postTagCmd)
	// "-tag" after the id is a removal, not a flag.
	postTagCmd.Flags().SetInterspersed(false)
	postCmd.AddCommand(postUntagCmd)
	postCmd.AddCommand(postRateCmd)

	// root commands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringSliceP("tag", "t", nil, "Tag to add to every imported post")
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(implicationCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(schemaCmd)
}
