package cli

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"pagesdeck/internal/model"
)

func init() {
	listCmd.Flags().BoolVarP(
		&listCmdConfig.json,
		"json",
		"j",
		false,
		"Print the collection as JSON")
	listCmd.Flags().BoolVar(
		&listCmdConfig.enabledOnly,
		"enabled",
		false,
		"Only show repositories with Pages enabled")
	RootCmd.AddCommand(listCmd, branchesCmd)
}

var listCmdConfig = struct {
	json        bool
	enabledOnly bool
}{}

// textView reports pass progress on stderr when it is a terminal. Failures
// are returned to the command and printed on exit.
type textView struct {
	quiet bool
}

func newTextView() textView {
	return textView{quiet: !isatty.IsTerminal(os.Stderr.Fd())}
}

func (v textView) RenderLoading() {
	if !v.quiet {
		Stderr.Println("Fetching repositories…")
	}
}

func (v textView) Render(c *model.Collection) {
	if v.quiet {
		return
	}
	enabled, _, unknown := c.Counts()
	Stderr.Printf("Found %d repositories, %d with Pages", c.Len(), enabled)
	if unknown > 0 {
		Stderr.Printf("%d could not be checked", unknown)
	}
}

func (v textView) RenderFailure(err error) {}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List repositories and their Pages configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := newApp(false)
		if err != nil {
			return err
		}
		defer cleanup()
		a.Driver.SetView(newTextView())

		c, err := a.Reconcile(cmd.Context())
		if err != nil {
			return err
		}
		items := c.Items
		if listCmdConfig.enabledOnly {
			items = nil
			for _, it := range c.Items {
				if it.Publication.Present() {
					items = append(items, it)
				}
			}
		}

		if listCmdConfig.json {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(toListEntries(items)); err != nil {
				return err
			}
		} else {
			Stdout.Println(renderTable(items))
		}
		if problems := c.Problems(); problems != nil {
			Stderr.Println(problems)
		}
		return nil
	},
}

var branchesCmd = &cobra.Command{
	Use:   "branches [repository]",
	Short: "List the branches Pages can publish from",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := newApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		item, err := resolveRepo(cmd.Context(), a, args)
		if err != nil {
			return err
		}
		branches, err := a.ListBranches(cmd.Context(), item.Repo.Key)
		if err != nil {
			return err
		}
		for _, b := range branches {
			marker := "  "
			if b == item.Repo.DefaultBranch {
				marker = "* "
			}
			Stdout.Println(marker + b)
		}
		return nil
	},
}

type listEntry struct {
	Repository string `json:"repository"`
	Visibility string `json:"visibility"`
	Pages      string `json:"pages"`
	URL        string `json:"url,omitempty"`
	BuildType  string `json:"build_type,omitempty"`
	Branch     string `json:"branch,omitempty"`
	Path       string `json:"path,omitempty"`
	Status     string `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
}

func toListEntries(items []model.Item) []listEntry {
	out := make([]listEntry, 0, len(items))
	for _, it := range items {
		e := listEntry{
			Repository: it.Repo.Key,
			Visibility: it.Repo.Visibility(),
			Pages:      it.Publication.State.String(),
		}
		if p := it.Publication.Pages; p != nil {
			e.URL = p.HTMLURL
			e.BuildType = string(p.BuildMode)
			e.Branch = p.Branch
			e.Path = p.Path
			e.Status = p.Status
		}
		if it.Publication.Err != nil {
			e.Error = it.Publication.Err.Error()
		}
		out = append(out, e)
	}
	return out
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func renderTable(items []model.Item) string {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("REPOSITORY", "VISIBILITY", "PAGES", "SOURCE", "URL").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, it := range items {
		source, url := "", ""
		if p := it.Publication.Pages; p != nil {
			source = p.Source()
			if source == "" {
				source = strings.ToLower(p.BuildMode.Label())
			}
			url = p.HTMLURL
		}
		t.Row(it.Repo.Key, it.Repo.Visibility(), it.Publication.State.String(), source, url)
	}
	return t.Render()
}
