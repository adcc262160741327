package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pagesdeck/internal/app"
	"pagesdeck/internal/git"
	"pagesdeck/internal/model"
)

type buildFlags struct {
	mode   string
	branch string
	path   string
}

func (f *buildFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.mode, "mode", "m", string(model.BuildModeWorkflow), "Build mode: workflow (GitHub Actions) or legacy (deploy from a branch)")
	fs.StringVarP(&f.branch, "branch", "b", "", "Branch to publish from in legacy mode (default: the repository's default branch)")
	fs.StringVarP(&f.path, "path", "p", "/", "Folder to publish from in legacy mode: / or /docs")
}

// buildConfig turns the flags into a BuildConfig. Flags that were not given
// fall back to the site's existing configuration, then to the repository
// defaults.
func (f *buildFlags) buildConfig(fs *pflag.FlagSet, item model.Item) (model.BuildConfig, error) {
	current := item.Publication.Pages
	var mode model.BuildMode
	if fs.Changed("mode") || current == nil {
		parsed, err := model.ParseBuildMode(f.mode)
		if err != nil {
			return model.BuildConfig{}, err
		}
		mode = parsed
	} else {
		mode = current.BuildMode
	}
	if fs.Changed("branch") && !fs.Changed("mode") {
		mode = model.BuildModeLegacy
	}

	cfg := model.BuildConfig{Mode: mode}
	if mode != model.BuildModeLegacy {
		return cfg, nil
	}

	cfg.Branch, cfg.Path = f.branch, f.path
	if !fs.Changed("branch") {
		cfg.Branch = item.Repo.DefaultBranch
		if current != nil && current.Branch != "" {
			cfg.Branch = current.Branch
		}
	}
	if !fs.Changed("path") && current != nil && current.Path != "" {
		cfg.Path = current.Path
	}
	valid := false
	for _, p := range model.SourcePaths {
		valid = valid || p == cfg.Path
	}
	if !valid {
		return model.BuildConfig{}, fmt.Errorf("invalid path %q: must be one of %s", cfg.Path, strings.Join(model.SourcePaths, ", "))
	}
	return cfg, nil
}

var enableFlags, updateFlags buildFlags

var disableCmdConfig = struct {
	yes bool
}{}

func init() {
	enableFlags.register(enableCmd.Flags())
	updateFlags.register(updateCmd.Flags())
	disableCmd.Flags().BoolVarP(
		&disableCmdConfig.yes,
		"yes",
		"y",
		false,
		"Do not ask for confirmation")
	RootCmd.AddCommand(enableCmd, updateCmd, disableCmd)
}

var enableCmd = &cobra.Command{
	Use:   "enable [repository]",
	Short: "Enable GitHub Pages for a repository",
	Long: `Enable GitHub Pages for a repository. The repository defaults to the origin
remote of the current checkout and may be given as owner/name or, when
unambiguous, just name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, args, func(ctx context.Context, a *app.App, item model.Item) (*model.Collection, error) {
			cfg, err := enableFlags.buildConfig(cmd.Flags(), model.Item{Repo: item.Repo})
			if err != nil {
				return nil, err
			}
			return a.Enable(ctx, item.Repo.Key, cfg)
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update [repository]",
	Short: "Change the Pages source of a repository",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, args, func(ctx context.Context, a *app.App, item model.Item) (*model.Collection, error) {
			cfg, err := updateFlags.buildConfig(cmd.Flags(), item)
			if err != nil {
				return nil, err
			}
			return a.Update(ctx, item.Repo.Key, cfg)
		})
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable [repository]",
	Short: "Unpublish the Pages site of a repository",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, args, func(ctx context.Context, a *app.App, item model.Item) (*model.Collection, error) {
			if !disableCmdConfig.yes {
				ok, err := confirm(fmt.Sprintf("Disable Pages for %s?", item.Repo.Key))
				if err != nil {
					return nil, err
				}
				if !ok {
					return nil, fmt.Errorf("aborted")
				}
			}
			return a.Disable(ctx, item.Repo.Key)
		})
	},
}

type mutation func(ctx context.Context, a *app.App, item model.Item) (*model.Collection, error)

func mutate(cmd *cobra.Command, args []string, fn mutation) error {
	a, cleanup, err := newApp(false)
	if err != nil {
		return err
	}
	defer cleanup()
	ctx := cmd.Context()

	item, err := resolveRepo(ctx, a, args)
	if err != nil {
		return err
	}
	c, err := fn(ctx, a, item)
	if err != nil {
		return err
	}

	after, _ := c.Find(item.Repo.Key)
	switch after.Publication.State {
	case model.PublicationEnabled:
		Stdout.Printf("Pages enabled for %s", item.Repo.Key)
		if p := after.Publication.Pages; p.HTMLURL != "" {
			Stdout.Printf("  %s", p.HTMLURL)
		}
	case model.PublicationAbsent:
		Stdout.Printf("Pages disabled for %s", item.Repo.Key)
	default:
		Stdout.Printf("Request accepted for %s, state could not be confirmed", item.Repo.Key)
	}
	return nil
}

// resolveRepo finds the repository named by args[0], or the origin remote of
// the working directory when no argument is given.
func resolveRepo(ctx context.Context, a *app.App, args []string) (model.Item, error) {
	var ref string
	if len(args) > 0 {
		ref = args[0]
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return model.Item{}, err
		}
		if ref, err = git.CurrentRepo(wd); err != nil {
			return model.Item{}, fmt.Errorf("no repository given and none found in the current directory: %w", err)
		}
	}
	return a.Resolve(ctx, ref)
}

func confirm(prompt string) (bool, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return false, fmt.Errorf("refusing to continue without confirmation, pass --yes")
	}
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
