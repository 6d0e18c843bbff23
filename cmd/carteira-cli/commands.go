package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"carteira/internal/advisor"
	"carteira/internal/analytics"
	"carteira/internal/core"
	"carteira/internal/report"
	"carteira/internal/services"
	"carteira/internal/store"
)

var (
	errUsage       = errors.New("usage")
	errNoAdvisor   = errors.New("advisor not configured: set GEMINI_API_KEY")
	errNotLoggedIn = errors.New("not logged in: run 'carteira-cli login <user>'")
)

// chatAdvisor is what the CLI asks of the advisor.
type chatAdvisor interface {
	Extract(ctx context.Context, text string, audio []byte) ([]core.Record, error)
	Chat(ctx context.Context, message string, history []advisor.Message, contextJSON string) (string, error)
	HealthCheck(ctx context.Context, contextJSON string) (string, error)
}

type app struct {
	ledger  *services.Ledger
	session *store.Session
	advisor chatAdvisor
	locale  report.Locale
	loc     *time.Location
	now     func() time.Time
	out     io.Writer
	errOut  io.Writer
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(rest)
	case "logout":
		return a.logout()
	case "add":
		return a.add(ctx, rest)
	case "smart":
		return a.smart(ctx, rest)
	case "list":
		return a.list(ctx, rest)
	case "delete":
		return a.delete(ctx, rest)
	case "reset":
		return a.reset(ctx)
	case "summary":
		return a.summary(ctx, rest)
	case "calendar":
		return a.calendar(ctx, rest)
	case "chat":
		return a.chat(ctx, rest)
	case "health":
		return a.health(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func (a *app) user() (string, error) {
	user, err := a.session.Current()
	if errors.Is(err, store.ErrNoSession) {
		return "", errNotLoggedIn
	}
	return user, err
}

func (a *app) login(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: login <user>", errUsage)
	}
	if err := a.session.Login(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", strings.TrimSpace(args[0]))
	return nil
}

func (a *app) logout() error {
	if err := a.session.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := a.flags("add")
	desc := fs.String("desc", "", "description")
	amount := fs.String("amount", "", "amount, e.g. 12,50 or 12.50")
	typ := fs.String("type", string(core.Expense), "INCOME or EXPENSE")
	expense := fs.String("expense", "", "FIXED or SPORADIC (expenses only; defaults from the category)")
	category := fs.String("category", string(core.CategoryOther), "category: "+categoryNames())
	date := fs.String("date", "", "date as YYYY-MM-DD (default today)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*amount) == "" {
		return fmt.Errorf("%w: add -amount is required", errUsage)
	}
	if _, err := core.ParseMoney(*amount); err != nil {
		return fmt.Errorf("invalid amount %q: %w", *amount, err)
	}

	user, err := a.user()
	if err != nil {
		return err
	}

	r := core.Record{
		Description: *desc,
		Amount:      *amount,
		Type:        *typ,
		ExpenseType: *expense,
		Category:    *category,
	}
	if r.ExpenseType == "" {
		r.ExpenseType = string(core.SuggestExpenseType(core.ParseCategory(*category)))
	}
	if *date != "" {
		d, err := time.ParseInLocation(time.DateOnly, *date, a.loc)
		if err != nil {
			return fmt.Errorf("invalid date %q: want YYYY-MM-DD", *date)
		}
		// Noon keeps the day stable across zone shifts.
		r.Date = d.Add(12 * time.Hour).UnixMilli()
	}

	tx, err := a.ledger.Add(ctx, user, r)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s: %s %s (%s)\n", tx.ID, tx.Description, a.locale.Format(tx.Amount), tx.Category)
	return nil
}

func (a *app) smart(ctx context.Context, args []string) error {
	fs := a.flags("smart")
	audioPath := fs.String("audio", "", "WAV recording to read instead of text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if a.advisor == nil {
		return errNoAdvisor
	}
	user, err := a.user()
	if err != nil {
		return err
	}

	var audio []byte
	if *audioPath != "" {
		audio, err = os.ReadFile(*audioPath)
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
	}
	rs, err := a.advisor.Extract(ctx, strings.Join(fs.Args(), " "), audio)
	if err != nil {
		return err
	}
	if len(rs) == 0 {
		fmt.Fprintln(a.out, "No transactions found")
		return nil
	}
	txs, err := a.ledger.AddMany(ctx, user, rs)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %d transaction(s)\n", len(txs))
	a.printTransactions(txs)
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := a.flags("list")
	year := fs.Int("year", 0, "only this year (with -month)")
	month := fs.Int("month", 0, "only this month, 1-12")
	if err := fs.Parse(args); err != nil {
		return err
	}
	user, err := a.user()
	if err != nil {
		return err
	}
	txs, err := a.ledger.List(ctx, user)
	if err != nil {
		return err
	}
	if *month != 0 {
		p, err := a.period(*year, *month)
		if err != nil {
			return err
		}
		txs = analytics.FilterPeriod(txs, p)
	}
	if len(txs) == 0 {
		fmt.Fprintln(a.out, "No transactions")
		return nil
	}
	a.printTransactions(txs)
	return nil
}

func (a *app) printTransactions(txs []core.Transaction) {
	for _, tx := range txs {
		amount := a.locale.Format(tx.Amount)
		if tx.IsExpense() {
			amount = "-" + amount
		}
		kind := string(tx.Type)
		if tx.ExpenseType != "" {
			kind = string(tx.ExpenseType)
		}
		fmt.Fprintf(a.out, "%s  %-8s  %14s  %-14s  %s  [%s]\n",
			tx.Date.In(a.loc).Format(a.locale.DateLayout), kind, amount, tx.Category, tx.Description, tx.ID)
	}
}

func (a *app) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: delete <id>", errUsage)
	}
	user, err := a.user()
	if err != nil {
		return err
	}
	if err := a.ledger.Remove(ctx, user, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", args[0])
	return nil
}

func (a *app) reset(ctx context.Context) error {
	user, err := a.user()
	if err != nil {
		return err
	}
	if err := a.ledger.Clear(ctx, user); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "All transactions of %s removed\n", user)
	return nil
}

// period resolves year and month flags, zero meaning the current one.
func (a *app) period(year, month int) (analytics.Period, error) {
	current := analytics.PeriodOf(a.now(), a.loc)
	if year == 0 {
		year = current.Year
	}
	if month == 0 {
		month = int(current.Month)
	}
	return analytics.NewPeriod(year, time.Month(month), a.loc)
}

func (a *app) summary(ctx context.Context, args []string) error {
	fs := a.flags("summary")
	year := fs.Int("year", 0, "year (default current)")
	month := fs.Int("month", 0, "month 1-12 (default current)")
	localeName := fs.String("locale", "", "report locale: "+strings.Join(report.LocaleNames(), ", "))
	format := fs.String("format", "text", "text or markdown")
	if err := fs.Parse(args); err != nil {
		return err
	}
	user, err := a.user()
	if err != nil {
		return err
	}
	p, err := a.period(*year, *month)
	if err != nil {
		return err
	}
	l := a.locale
	if *localeName != "" {
		if l, err = report.LocaleByName(*localeName); err != nil {
			return err
		}
	}

	rep, err := a.ledger.Report(ctx, user, p, report.NewFormatter(l))
	if err != nil {
		return err
	}
	switch strings.ToLower(*format) {
	case "text":
		fmt.Fprint(a.out, rep.Text())
	case "markdown", "md":
		fmt.Fprint(a.out, rep.Markdown())
	default:
		return fmt.Errorf("%w: unknown format %q", errUsage, *format)
	}
	return nil
}

func (a *app) calendar(ctx context.Context, args []string) error {
	fs := a.flags("calendar")
	year := fs.Int("year", 0, "year (default current)")
	month := fs.Int("month", 0, "month 1-12 (default current)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	user, err := a.user()
	if err != nil {
		return err
	}
	p, err := a.period(*year, *month)
	if err != nil {
		return err
	}
	cal, err := a.ledger.Calendar(ctx, user, p)
	if err != nil {
		return err
	}
	renderCalendar(a.out, cal, a.locale)
	return nil
}

func (a *app) chat(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: chat <message>", errUsage)
	}
	contextJSON, err := a.advisoryContext(ctx)
	if err != nil {
		return err
	}
	reply, err := a.advisor.Chat(ctx, strings.Join(args, " "), nil, contextJSON)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, reply)
	return nil
}

func (a *app) health(ctx context.Context) error {
	contextJSON, err := a.advisoryContext(ctx)
	if err != nil {
		return err
	}
	analysis, err := a.advisor.HealthCheck(ctx, contextJSON)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, analysis)
	return nil
}

func (a *app) advisoryContext(ctx context.Context) (string, error) {
	if a.advisor == nil {
		return "", errNoAdvisor
	}
	user, err := a.user()
	if err != nil {
		return "", err
	}
	return a.ledger.AdvisoryContext(ctx, user, a.locale, a.loc)
}

func categoryNames() string {
	names := make([]string, len(core.Categories))
	for i, c := range core.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
