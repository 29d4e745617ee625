package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aaronromeo/mailtrim/internal/cleanup"
	"github.com/aaronromeo/mailtrim/internal/matchers"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const previewLimit = 15

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	deleteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	keepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type interactiveAnswers struct {
	email    string
	password string
	domains  string
	keywords string
	days     string
}

func newInteractiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Prompt for a rule, preview the result and delete on confirmation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd, true)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			defer rt.Close(ctx)

			answers := interactiveAnswers{
				email:    rt.cfg.IMAP.User,
				password: rt.cfg.IMAP.Pass,
				days:     "30",
			}
			if err := buildInteractiveForm(&answers).RunWithContext(ctx); err != nil {
				return err
			}
			rule, err := interactiveRule(answers)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result, err := rt.service.Quarantine(ctx, cleanup.QuarantineRequest{
				Credentials: cleanup.Credentials{User: strings.TrimSpace(answers.email), Password: answers.password},
				Rule:        rule,
				Action:      cleanup.ActionTrash,
				Confirm:     confirmPreview(out, askConfirm),
			})
			if err != nil {
				return err
			}
			printQuarantineResult(out, "interactive", result)
			return nil
		},
	}
}

func buildInteractiveForm(answers *interactiveAnswers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&answers.email).
				Validate(validateRequired("Email")),
			huh.NewInput().
				Title("Password").
				Description("App password for the IMAP account").
				EchoMode(huh.EchoModePassword).
				Value(&answers.password).
				Validate(validateRequired("Password")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Sender domains").
				Description("Comma separated, e.g. deals.example.com, news.example.org").
				Value(&answers.domains),
			huh.NewInput().
				Title("Subject keywords").
				Description("Comma separated").
				Value(&answers.keywords),
			huh.NewInput().
				Title("Older than (days)").
				Description("Leave blank to skip the age check").
				Value(&answers.days).
				Validate(validateDays),
		),
	)
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// interactiveRule builds the rule from the prompt answers. Blank days leave
// the age clause off.
func interactiveRule(answers interactiveAnswers) (matchers.Rule, error) {
	rule := matchers.NewRule(matchers.SplitList(answers.domains), matchers.SplitList(answers.keywords))
	raw := strings.TrimSpace(answers.days)
	if raw == "" {
		return rule, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return matchers.Rule{}, err
	}
	return rule.WithAge(matchers.Days(days)), nil
}

func validateDays(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	days, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || days < 0 {
		return errors.New("enter a whole number of days")
	}
	return nil
}

func askConfirm(title string) (bool, error) {
	confirmed := false
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Delete").
		Negative("Cancel").
		Value(&confirmed).
		Run()
	return confirmed, err
}

// confirmPreview prints the keep/delete split and asks before anything moves.
func confirmPreview(out io.Writer, ask func(title string) (bool, error)) cleanup.ConfirmFunc {
	return func(_ context.Context, preview cleanup.Preview) (bool, error) {
		fmt.Fprintln(out, renderPreview(preview))
		verb := "Move"
		if preview.Expunge {
			verb = "Permanently delete"
		}
		return ask(fmt.Sprintf("%s %d messages via %q?", verb, len(preview.Matches), preview.Target))
	}
}

func renderPreview(preview cleanup.Preview) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Preview"))
	b.WriteString("\n")
	writePreviewSection(&b, deleteStyle.Render(fmt.Sprintf("DELETE (%d)", len(preview.Matches))), preview.Matches)
	writePreviewSection(&b, keepStyle.Render(fmt.Sprintf("KEEP (%d)", len(preview.Kept))), preview.Kept)
	return strings.TrimRight(b.String(), "\n")
}

func writePreviewSection(b *strings.Builder, heading string, results []matchers.MatchResult) {
	b.WriteString(heading)
	b.WriteString("\n")
	for i, result := range results {
		if i == previewLimit {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  ... and %d more", len(results)-previewLimit)))
			b.WriteString("\n")
			break
		}
		fmt.Fprintf(b, "  %s  %s  %s\n", dateOnly(result.Date), result.From, result.Subject)
	}
}
