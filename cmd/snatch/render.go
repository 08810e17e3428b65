package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"snatch/internal/models"
	"snatch/internal/services"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("241")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	yesStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	noStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)

// render prints v as JSON with --json, otherwise the text produced by pretty
func (c *cli) render(cmd *cobra.Command, v any, pretty func() string) error {
	if c.jsonOutput() {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), pretty())
	return err
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(faintStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func mark(ok bool) string {
	if ok {
		return yesStyle.Render("yes")
	}
	return noStyle.Render("no")
}

func renderSearch(result services.SearchResult) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%q: %d of %d available", result.Term, result.AvailableCount, result.TotalCount)))
	b.WriteString("\n")

	if len(result.Results) == 0 {
		b.WriteString(faintStyle.Render("no candidates for this term"))
		return b.String()
	}

	t := newTable("Name", "Score", "Available", "Domain", "Trademark", "Business", "Social")
	for _, r := range result.Results {
		t.Row(r.Name, strconv.Itoa(r.Score), mark(r.Available), mark(r.Domain), mark(r.Trademark), mark(r.Business), mark(r.Social))
	}
	b.WriteString(t.Render())

	if result.Degraded > 0 {
		b.WriteString("\n")
		b.WriteString(warningStyle.Render(fmt.Sprintf("%d check(s) did not answer in time and were counted as unavailable", result.Degraded)))
	}
	return b.String()
}

func renderAccount(account models.Account, remaining int) string {
	left := "unlimited"
	if remaining >= 0 {
		left = fmt.Sprintf("%d (resets %s)", remaining, account.SearchesResetDate.Format("2006-01-02"))
	}
	lines := []string{
		titleStyle.Render(account.Email),
		fmt.Sprintf("id:        %s", account.ID),
		fmt.Sprintf("plan:      %s", account.Plan),
		fmt.Sprintf("remaining: %s", left),
	}
	if account.BillingDate != nil {
		lines = append(lines, fmt.Sprintf("billed:    %s", account.BillingDate.Format("2006-01-02")))
	}
	return strings.Join(lines, "\n")
}

func renderStats(stats models.AccountStats) string {
	t := newTable("Searches", "Generated", "Available", "Success")
	t.Row(strconv.Itoa(stats.TotalQueries), strconv.Itoa(stats.TotalGenerated), strconv.Itoa(stats.TotalAvailable), strconv.Itoa(stats.SuccessRate)+"%")
	return t.Render()
}

func renderHistory(records []models.SearchRecord) string {
	if len(records) == 0 {
		return faintStyle.Render("no searches yet")
	}
	t := newTable("When", "Term", "Available", "Total", "Best")
	for _, r := range records {
		best := "-"
		if len(r.Results) > 0 {
			best = r.Results[0].Name
		}
		t.Row(r.Timestamp.Format("2006-01-02 15:04"), r.SearchTerm, strconv.Itoa(r.AvailableCount), strconv.Itoa(r.TotalCount), best)
	}
	return t.Render()
}

func renderBilling(records []models.BillingRecord) string {
	if len(records) == 0 {
		return faintStyle.Render("no billing records")
	}
	t := newTable("Date", "Plan", "Amount", "Status")
	for _, r := range records {
		t.Row(r.Date.Format("2006-01-02"), r.PlanLabel, fmt.Sprintf("$%.2f", r.Amount), string(r.Status))
	}
	return t.Render()
}

func renderClaims(claims []models.Claim) string {
	if len(claims) == 0 {
		return faintStyle.Render("no claimed names")
	}
	t := newTable("Name", "Claimed")
	for _, c := range claims {
		t.Row(c.Name, c.ClaimedAt.Format("2006-01-02 15:04"))
	}
	return t.Render()
}
