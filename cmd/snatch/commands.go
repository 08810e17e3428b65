package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"snatch/internal/models"
	"snatch/internal/services"
)

func (c *cli) accountFlag(cmd *cobra.Command) {
	cmd.Flags().String("email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
}

// account resolves the --email flag to a stored account
func (c *cli) account(cmd *cobra.Command) (models.Account, error) {
	email, _ := cmd.Flags().GetString("email")
	account, err := c.app.Store.GetAccountByEmail(cmd.Context(), email)
	if errors.Is(err, services.ErrNotFound) {
		return models.Account{}, fmt.Errorf("no account found with email %s", email)
	}
	return account, err
}

func newSignupCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a free account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			account, err := c.app.Accounts.Signup(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return c.render(cmd, account, func() string { return renderAccount(account, c.app.Accounts.RemainingSearches(account)) })
		},
	}
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSearchCmd(c *cli) *cobra.Command {
	var random bool

	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Generate and check name candidates for a seed term",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := c.account(cmd)
			if err != nil {
				return err
			}

			var result services.SearchResult
			switch {
			case random:
				result, err = c.app.Searches.SearchRandom(cmd.Context(), account.ID)
			case len(args) == 1:
				result, err = c.app.Searches.Search(cmd.Context(), account.ID, args[0])
			default:
				return errors.New("a search term is required unless --random is set")
			}
			if services.IsQuotaExceeded(err) {
				return fmt.Errorf("%w: run `snatch upgrade professional --email %s` for unlimited searches", err, account.Email)
			}
			if err != nil {
				return err
			}

			return c.render(cmd, result, func() string { return renderSearch(result) })
		},
	}
	c.accountFlag(cmd)
	cmd.Flags().BoolVar(&random, "random", false, "search a randomly picked seed term")
	return cmd
}

func newHistoryCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past searches, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := c.account(cmd)
			if err != nil {
				return err
			}
			records, err := c.app.Accounts.ListSearches(cmd.Context(), account.ID)
			if err != nil {
				return err
			}
			return c.render(cmd, records, func() string { return renderHistory(records) })
		},
	}
	c.accountFlag(cmd)
	return cmd
}

func newStatsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show plan, remaining searches and search statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := c.account(cmd)
			if err != nil {
				return err
			}
			stats, err := c.app.Accounts.GetAccountStats(cmd.Context(), account.ID)
			if err != nil {
				return err
			}
			remaining := c.app.Accounts.RemainingSearches(account)

			out := struct {
				Account   models.Account      `json:"account"`
				Remaining int                 `json:"remaining_searches"`
				Stats     models.AccountStats `json:"stats"`
			}{account, remaining, stats}
			return c.render(cmd, out, func() string {
				return renderAccount(account, remaining) + "\n" + renderStats(stats)
			})
		},
	}
	c.accountFlag(cmd)
	return cmd
}

func newUpgradeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "upgrade <plan>",
		Short:     "Upgrade an account to the professional or enterprise plan",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.PlanProfessional), string(models.PlanEnterprise)},
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := models.ParsePlan(args[0])
			if err != nil {
				return err
			}
			account, err := c.account(cmd)
			if err != nil {
				return err
			}

			updated, record, err := c.app.Billing.Upgrade(cmd.Context(), account.ID, plan)
			if err != nil {
				return err
			}

			out := struct {
				Account models.Account       `json:"account"`
				Billing models.BillingRecord `json:"billing"`
			}{updated, record}
			return c.render(cmd, out, func() string {
				return renderAccount(updated, c.app.Accounts.RemainingSearches(updated)) + "\n" + renderBilling([]models.BillingRecord{record})
			})
		},
	}
	c.accountFlag(cmd)
	return cmd
}

func newBillingCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "billing",
		Short: "List billing records, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := c.account(cmd)
			if err != nil {
				return err
			}
			records, err := c.app.Billing.ListBilling(cmd.Context(), account.ID)
			if err != nil {
				return err
			}
			return c.render(cmd, records, func() string { return renderBilling(records) })
		},
	}
	c.accountFlag(cmd)
	return cmd
}

func newClaimCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim [name]",
		Short: "Claim a name, or list claimed names when none is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := c.account(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if _, err := c.app.Claims.Claim(cmd.Context(), account.ID, args[0]); err != nil {
					return err
				}
			}
			claims, err := c.app.Claims.ListClaims(cmd.Context(), account.ID)
			if err != nil {
				return err
			}
			return c.render(cmd, claims, func() string { return renderClaims(claims) })
		},
	}
	c.accountFlag(cmd)
	return cmd
}

func newSweepCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Reset free accounts whose monthly window has elapsed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reset, err := c.app.Accounts.ResetExpiredWindows(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d account(s) reset\n", reset)
			return err
		},
	}
}

func newConfigCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:         "config",
		Short:       "Print the effective configuration",
		Annotations: map[string]string{"skip-app": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			cfg.Auth.JWTSecret = redact(cfg.Auth.JWTSecret)
			cfg.Analytics.Webhook.Secret = redact(cfg.Analytics.Webhook.Secret)
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
