package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aaronromeo/mailtrim/internal/cleanup"
	"github.com/aaronromeo/mailtrim/internal/config"
	"github.com/aaronromeo/mailtrim/internal/matchers"
	"github.com/spf13/cobra"
)

const flagRuleName = "command line"

func newCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Classify messages and quarantine or delete the matches",
		RunE:  runCleanup,
	}
	cmd.Flags().String("domains", "", "Comma-separated sender domains to match")
	cmd.Flags().String("keywords", "", "Comma-separated subject keywords to match")
	cmd.Flags().String("older-than", "", "Match messages older than this age (30d or a Go duration)")
	cmd.Flags().String("action", cleanup.ActionQuarantine, "quarantine, trash or a target folder name")
	cmd.Flags().String("folder", "", "Source folder (defaults to the inbox)")
	cmd.Flags().Bool("dry-run", false, "Report matches without changing the mailbox")
	return cmd
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd, true)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	defer rt.Close(ctx)

	rules, err := rulesFromFlags(cmd, rt.cfg)
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	creds, err := rt.credentials()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, config.Summary(rt.cfg))

	for _, rule := range rules {
		matcher, err := rule.Matcher()
		if err != nil {
			return fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		result, err := rt.service.Quarantine(ctx, cleanup.QuarantineRequest{
			Credentials: creds,
			Rule:        matcher,
			Action:      rule.Action,
			Folder:      rule.Folder,
			DryRun:      dryRun,
		})
		if err != nil {
			return fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		printQuarantineResult(out, rule.Name, result)
	}
	return nil
}

// rulesFromFlags builds a single rule from the matcher flags, or falls back to
// the configured rules when none were given.
func rulesFromFlags(cmd *cobra.Command, cfg config.Config) ([]config.Rule, error) {
	flags := cmd.Flags()
	domains, _ := flags.GetString("domains")
	keywords, _ := flags.GetString("keywords")
	olderThan, _ := flags.GetString("older-than")
	action, _ := flags.GetString("action")
	folder, _ := flags.GetString("folder")

	if flags.Changed("domains") || flags.Changed("keywords") || flags.Changed("older-than") {
		rule := config.Rule{
			Name:      flagRuleName,
			Domains:   matchers.SplitList(domains),
			Keywords:  matchers.SplitList(keywords),
			OlderThan: olderThan,
			Action:    action,
			Folder:    folder,
		}
		matcher, err := rule.Matcher()
		if err != nil {
			return nil, err
		}
		if matcher.IsEmpty() {
			return nil, errors.New("--domains, --keywords or --older-than must select something")
		}
		return []config.Rule{rule}, nil
	}

	if len(cfg.Rules) == 0 {
		return nil, errors.New("no rules configured; pass --domains, --keywords or --older-than")
	}
	rules := make([]config.Rule, 0, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		if flags.Changed("action") {
			rule.Action = action
		}
		if flags.Changed("folder") {
			rule.Folder = folder
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func printQuarantineResult(out io.Writer, name string, result *cleanup.QuarantineResult) {
	switch result.State {
	case cleanup.StateNoEmails:
		fmt.Fprintf(out, "Rule %q folder %q: no matching messages\n", name, result.Source)
	case cleanup.StateDryRunDone:
		fmt.Fprintf(out, "Rule %q folder %q matched %d messages\n", name, result.Source, result.Count)
		fmt.Fprintf(out, "Dry run: would move %d messages to %q\n", result.Count, result.Target)
		for _, sample := range result.Samples {
			fmt.Fprintf(out, "  %6d  %-10s  %-30s  %s\n", sample.UID, dateOnly(sample.Date), sample.From, sample.Subject)
		}
	case cleanup.StateCancelled:
		fmt.Fprintf(out, "Rule %q: cancelled, mailbox unchanged\n", name)
	default:
		fmt.Fprintf(out, "Rule %q folder %q: moved %d messages to %q\n", name, result.Source, result.Count, result.Target)
	}
}

func dateOnly(rfc3339 string) string {
	if rfc3339 == "" {
		return "(no date)"
	}
	date, _, _ := strings.Cut(rfc3339, "T")
	return date
}
