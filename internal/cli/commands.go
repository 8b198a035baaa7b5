// Package cli implements the fundctl subcommands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fundlens-backend/internal/app"
	"github.com/simaogato/fundlens-backend/internal/domain"
	"github.com/simaogato/fundlens-backend/internal/usecase/ledger"
)

// Env is what every command runs against
type Env struct {
	Repos    *app.Repositories
	Services *app.Services
	Out      io.Writer
	Err      io.Writer
}

// Commands returns every fundctl subcommand bound to env
func Commands(env *Env) []subcommands.Command {
	return []subcommands.Command{
		&backfillCmd{env: env},
		&pnlCmd{env: env},
		&valueCmd{env: env},
		&ownershipCmd{env: env},
		&contributeCmd{env: env},
	}
}

func (e *Env) fail(format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(e.Err, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}

func (e *Env) usage(format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(e.Err, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}

// baseCurrency returns the fund base currency, empty when unset
func (e *Env) baseCurrency(ctx context.Context, fundID uuid.UUID) (string, error) {
	fund, err := e.Repos.Funds.GetByID(ctx, fundID)
	if err != nil {
		return "", err
	}
	return fund.BaseCurrency, nil
}

// backfill

type backfillCmd struct {
	env  *Env
	fund string
}

func (*backfillCmd) Name() string     { return "backfill" }
func (*backfillCmd) Synopsis() string { return "convert stored positions to the fund base currency" }
func (*backfillCmd) Usage() string {
	return `fundctl backfill [-fund <id>[,<id>...]]

  Writes base-currency values onto every unconverted position snapshot.
  Without -fund every fund is processed. Safe to rerun.
`
}

func (c *backfillCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "fund", "", "comma-separated fund IDs (default: all funds)")
}

func (c *backfillCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var fundIDs []uuid.UUID
	for _, raw := range strings.Split(c.fund, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.env.usage("invalid fund id %q", raw)
		}
		fundIDs = append(fundIDs, id)
	}

	if len(fundIDs) == 0 {
		funds, err := c.env.Repos.Funds.List(ctx)
		if err != nil {
			return c.env.fail("%v", err)
		}
		for _, fund := range funds {
			fundIDs = append(fundIDs, fund.ID)
		}
	}

	results, err := c.env.Services.Backfill.BackfillAll(ctx, fundIDs)
	for _, id := range fundIDs {
		if n, ok := results[id]; ok {
			fmt.Fprintf(c.env.Out, "%s\t%d rows converted\n", id, n)
		}
	}
	if err != nil {
		return c.env.fail("%v", err)
	}
	return subcommands.ExitSuccess
}

// pnl

type pnlCmd struct {
	env    *Env
	fund   string
	ticker string
}

func (*pnlCmd) Name() string     { return "pnl" }
func (*pnlCmd) Synopsis() string { return "display daily and five-day P&L of open positions" }
func (*pnlCmd) Usage() string {
	return `fundctl pnl -fund <id> [-ticker <symbol>]

  Displays the P&L of every open position, or of one ticker.
`
}

func (c *pnlCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "fund", "", "fund ID")
	f.StringVar(&c.ticker, "ticker", "", "only this ticker")
}

func (c *pnlCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fundID, err := uuid.Parse(c.fund)
	if err != nil {
		return c.env.usage("invalid fund id %q", c.fund)
	}

	var reports []*domain.PnLReport
	if c.ticker != "" {
		report, err := c.env.Services.PnL.Compute(ctx, fundID, strings.ToUpper(c.ticker))
		if err != nil {
			return c.env.fail("%v", err)
		}
		reports = append(reports, report)
	} else {
		reports, err = c.env.Services.PnL.ComputeFund(ctx, fundID)
		if err != nil {
			return c.env.fail("%v", err)
		}
	}

	w := tabwriter.NewWriter(c.env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tDATE\tVALUE\tDAILY\tDAILY %\tFIVE-DAY\tFIVE-DAY %\tUNREALIZED\tRETURN")
	for _, r := range reports {
		fiveDay := FormatNullMoney(r.FiveDayPnL, r.Currency)
		if r.FiveDayApproximate() {
			fiveDay += fmt.Sprintf(" (%dd)", *r.FiveDayPeriodDays)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Ticker,
			r.CurrentDate.Format(domain.DateLayout),
			FormatMoney(r.MarketValue, r.Currency),
			FormatNullMoney(r.DailyPnL, r.Currency),
			FormatNullPct(r.DailyPnLPct),
			fiveDay,
			FormatNullPct(r.FiveDayPnLPct),
			FormatMoney(r.TotalUnrealizedPnL, r.Currency),
			FormatPct(r.ReturnPct),
		)
	}
	if err := w.Flush(); err != nil {
		return c.env.fail("%v", err)
	}
	return subcommands.ExitSuccess
}

// value

type valueCmd struct {
	env  *Env
	fund string
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "display the fund value in its base currency" }
func (*valueCmd) Usage() string {
	return `fundctl value -fund <id>

  Displays every open holding converted to the fund base currency.
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "fund", "", "fund ID")
}

func (c *valueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fundID, err := uuid.Parse(c.fund)
	if err != nil {
		return c.env.usage("invalid fund id %q", c.fund)
	}

	v, err := c.env.Services.Valuation.FundValue(ctx, fundID)
	if err != nil {
		return c.env.fail("%v", err)
	}

	w := tabwriter.NewWriter(c.env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tVALUE\tVALUE ("+v.BaseCurrency+")\tRATE")
	for _, h := range v.Holdings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			h.Ticker,
			FormatMoney(h.MarketValue, h.Currency),
			FormatMoney(h.ValueBase, v.BaseCurrency),
			h.RateSource,
		)
	}
	total := FormatMoney(v.Total, v.BaseCurrency)
	if v.Estimated {
		total += " (estimated)"
	}
	fmt.Fprintf(w, "TOTAL\t\t%s\t\n", total)
	if err := w.Flush(); err != nil {
		return c.env.fail("%v", err)
	}
	return subcommands.ExitSuccess
}

// ownership

type ownershipCmd struct {
	env  *Env
	fund string
}

func (*ownershipCmd) Name() string     { return "ownership" }
func (*ownershipCmd) Synopsis() string { return "display each contributor's share of the fund" }
func (*ownershipCmd) Usage() string {
	return `fundctl ownership -fund <id>

  Displays the units, percentage and value held by each contributor.
`
}

func (c *ownershipCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "fund", "", "fund ID")
}

func (c *ownershipCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fundID, err := uuid.Parse(c.fund)
	if err != nil {
		return c.env.usage("invalid fund id %q", c.fund)
	}

	base, err := c.env.baseCurrency(ctx, fundID)
	if err != nil {
		return c.env.fail("%v", err)
	}

	stakes, err := c.env.Services.Ownership.Ownership(ctx, fundID)
	if err != nil {
		return c.env.fail("%v", err)
	}
	if len(stakes) == 0 {
		fmt.Fprintln(c.env.Out, "no contributors")
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(c.env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONTRIBUTOR\tUNITS\tSHARE\tNET CONTRIBUTED\tVALUE")
	for _, s := range sortedStakes(stakes) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.Contributor,
			s.Units.StringFixed(4),
			FormatPct(s.PctOfFund),
			FormatMoney(s.NetContribution, base),
			FormatMoney(s.Value, base),
		)
	}
	if err := w.Flush(); err != nil {
		return c.env.fail("%v", err)
	}
	return subcommands.ExitSuccess
}

// contribute

type contributeCmd struct {
	env         *Env
	fund        string
	contributor string
	amount      string
	withdraw    bool
	at          string
}

func (*contributeCmd) Name() string     { return "contribute" }
func (*contributeCmd) Synopsis() string { return "record a contribution or withdrawal" }
func (*contributeCmd) Usage() string {
	return `fundctl contribute -fund <id> -contributor <name> -amount <amount> [-withdraw] [-at <RFC3339>]

  Appends one entry to the fund's contributor ledger.
`
}

func (c *contributeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "fund", "", "fund ID")
	f.StringVar(&c.contributor, "contributor", "", "contributor name")
	f.StringVar(&c.amount, "amount", "", "amount in the fund base currency")
	f.BoolVar(&c.withdraw, "withdraw", false, "record a withdrawal instead of a contribution")
	f.StringVar(&c.at, "at", "", "timestamp of the entry (default: now)")
}

func (c *contributeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fundID, err := uuid.Parse(c.fund)
	if err != nil {
		return c.env.usage("invalid fund id %q", c.fund)
	}
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		return c.env.usage("invalid amount %q", c.amount)
	}

	input := ledger.RecordInput{FundID: fundID, Contributor: c.contributor, Amount: amount}
	if c.at != "" {
		at, err := time.Parse(time.RFC3339, c.at)
		if err != nil {
			return c.env.usage("invalid -at %q: %v", c.at, err)
		}
		input.RecordedAt = at
	}

	typ := domain.ContributionTypeContribution
	if c.withdraw {
		typ = domain.ContributionTypeWithdrawal
	}

	record, err := c.env.Services.Ledger.Record(ctx, input, typ)
	if err != nil {
		return c.env.fail("%v", err)
	}

	fmt.Fprintf(c.env.Out, "%s %s %s recorded as %s\n", record.Type, record.Contributor, record.Amount, record.ID)
	return subcommands.ExitSuccess
}

func sortedStakes(stakes map[string]domain.Stake) []domain.Stake {
	out := make([]domain.Stake, 0, len(stakes))
	for _, s := range stakes {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Contributor < out[j].Contributor })
	return out
}
