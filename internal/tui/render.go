package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pagesdeck/internal/model"
	"pagesdeck/internal/reconcile"
)

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	if m.state == stateLogin {
		return m.renderLogin()
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(
			fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit.", m.err),
		)
	}

	if m.coll == nil {
		return lipgloss.NewStyle().Padding(1, 2).Render("Loading repositories…")
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), m.renderDetail())
	base := lipgloss.JoinVertical(lipgloss.Left, body, m.renderHelp())

	switch m.state {
	case stateConfigure:
		return m.renderConfigureOver(base)
	case stateDisableConfirm:
		return m.renderDisableConfirmOver(base)
	}
	return base
}

// — layout helpers ——————————————————————————————————————————————————————————

func (m Model) listDimensions() (width, height int) {
	return m.width / 3, m.height - 3
}

func (m Model) renderDetail() string {
	lw, _ := m.listDimensions()
	dw := m.width - lw
	dh := m.height - 3

	style := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		PaddingLeft(3).
		PaddingRight(2).
		Width(dw - 1).
		Height(dh)

	contentWidth := (dw - 1) - 3 - 2

	it := m.selectedItem()
	if it == nil {
		return style.Render(dimStyle.Render("No repositories found"))
	}

	row := func(lbl, val string) string {
		return labelStyle.Render(lbl) + val + "\n"
	}

	sep := dimStyle.Render(strings.Repeat("─", max(contentWidth, 0)))

	var b strings.Builder
	b.WriteString(detailHeadStyle.Render(it.Repo.Key) + "\n\n")
	b.WriteString(row("Visibility ", it.Repo.Visibility()))
	b.WriteString(row("Default    ", it.Repo.DefaultBranch))
	if !it.Repo.UpdatedAt.IsZero() {
		b.WriteString(row("Updated    ", it.Repo.UpdatedAt.Local().Format("2006-01-02 15:04")))
	}
	b.WriteString("\n")
	b.WriteString(sep + "\n\n")
	b.WriteString(renderPublication(it.Publication))

	if op, ok := m.inflight[it.Repo.Key]; ok {
		b.WriteString("\n" + warnStyle.Render(fmt.Sprintf("%s %s in progress", spinnerFrames[m.spinnerFrame], op)) + "\n")
	}

	return style.Render(b.String())
}

func renderPublication(p model.Publication) string {
	row := func(lbl, val string) string {
		return labelStyle.Render(lbl) + val + "\n"
	}

	var b strings.Builder
	switch p.State {
	case model.PublicationEnabled:
		b.WriteString(row("Pages      ", okStyle.Render("● enabled")))
		if p.Pages.HTMLURL != "" {
			b.WriteString(row("URL        ", p.Pages.HTMLURL))
		}
		b.WriteString(row("Build      ", p.Pages.BuildMode.Label()))
		if src := p.Pages.Source(); src != "" {
			b.WriteString(row("Source     ", src))
		}
		b.WriteString(row("Status     ", buildStatusLabel(p.Pages.Status)))
	case model.PublicationAbsent:
		b.WriteString(row("Pages      ", dimStyle.Render("not enabled")))
	default:
		b.WriteString(row("Pages      ", warnStyle.Render("could not be checked")))
		if p.Err != nil {
			b.WriteString(errStyle.Render(p.Err.Error()) + "\n")
		}
	}
	return b.String()
}

func buildStatusLabel(status string) string {
	switch status {
	case "built":
		return okStyle.Render("built")
	case "building", "queued":
		return warnStyle.Render(status)
	case "errored":
		return errStyle.Render("errored")
	case "":
		return dimStyle.Render("—")
	default:
		return dimStyle.Render(status)
	}
}

func (m Model) renderHelp() string {
	var text string
	switch m.state {
	case stateConfigure:
		text = "↑/↓ field   ←/→ change   Enter apply   Esc cancel"
	case stateDisableConfirm:
		text = "y/Enter confirm   n/Esc cancel"
	default:
		text = "↑/↓ navigate   e enable   u update   d disable   o open site   b open repo   / filter   r refresh   q quit"
	}

	status := m.status
	switch {
	case m.loading:
		status = spinnerFrames[m.spinnerFrame] + " Refreshing…"
	case m.statusErr:
		status = errStyle.Render(status)
	default:
		status = dimStyle.Render(status)
	}

	sep := dimStyle.Render(strings.Repeat("─", m.width))
	return sep + "\n" + helpStyle.Render(status) + "\n" + helpStyle.Render(text)
}

func (m Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(boldStyle.Render("Sign in to GitHub") + "\n\n")
	b.WriteString("Personal access token\n")
	b.WriteString(m.tokenInput.View() + "\n")
	if m.inputErr != "" {
		b.WriteString("\n" + errStyle.Render(m.inputErr) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("Needs the repo scope · saved to the credentials file"))

	modal := modalStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal,
		lipgloss.WithWhitespaceBackground(lipgloss.Color("0")),
	)
}

func (m Model) renderConfigureOver(base string) string {
	f := m.form
	field := func(idx int, lbl, val string) string {
		if f.field == idx {
			return selectedFieldStyle.Render("› "+lbl) + "‹ " + val + " ›\n"
		}
		return labelStyle.Render("  "+lbl) + "  " + val + "\n"
	}

	title := "Enable Pages"
	if f.op == reconcile.OpUpdate {
		title = "Update Pages"
	}

	var b strings.Builder
	b.WriteString(boldStyle.Render(title) + "\n\n")
	b.WriteString(dimStyle.Render(f.key) + "\n\n")
	b.WriteString(field(fieldMode, "Source   ", buildModes[f.mode].Label()))
	if buildModes[f.mode] == model.BuildModeLegacy {
		branch := dimStyle.Render("no branches")
		if f.branch < len(f.branches) {
			branch = f.branches[f.branch]
		}
		if f.loadingBranches {
			branch += dimStyle.Render(" (loading…)")
		}
		b.WriteString(field(fieldBranch, "Branch   ", branch))
		b.WriteString(field(fieldPath, "Folder   ", model.SourcePaths[f.path]))
	}
	if m.inputErr != "" {
		b.WriteString("\n" + errStyle.Render(m.inputErr) + "\n")
	}

	modal := modalStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal,
		lipgloss.WithWhitespaceBackground(lipgloss.Color("0")),
	)
}

func (m Model) renderDisableConfirmOver(base string) string {
	it := m.confirmItem()
	var b strings.Builder
	b.WriteString(errStyle.Render("Disable Pages") + "\n\n")
	if it != nil {
		b.WriteString(labelStyle.Render("Repository ") + it.Repo.Key + "\n")
		if p := it.Publication.Pages; p != nil && p.HTMLURL != "" {
			b.WriteString(labelStyle.Render("Site       ") + p.HTMLURL + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("The site will be unpublished.\n")
	b.WriteString("\n" + dimStyle.Render("y/Enter to confirm · Esc/n to cancel"))

	modal := disableModalStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal,
		lipgloss.WithWhitespaceBackground(lipgloss.Color("0")),
	)
}
